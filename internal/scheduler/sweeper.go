package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type ReminderSyncer interface {
	SyncAllReminders(ctx context.Context) (int, error)
}

// ReminderSweeper periodically upserts reminder tasks for every lease with automatic tasks.
type ReminderSweeper struct {
	cron           *cron.Cron
	syncer         ReminderSyncer
	spec           string
	runImmediately bool
	timeout        time.Duration
	log            zerolog.Logger

	mu    sync.Mutex
	jobID cron.EntryID
}

func NewReminderSweeper(syncer ReminderSyncer, spec string, runImmediately bool, loc *time.Location, log zerolog.Logger) *ReminderSweeper {
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderSweeper{
		cron:           cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		syncer:         syncer,
		spec:           spec,
		runImmediately: runImmediately,
		timeout:        10 * time.Minute,
		log:            log,
	}
}

func (s *ReminderSweeper) Start() error {
	id, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("error scheduling reminder sweep: %w", err)
	}

	s.mu.Lock()
	s.jobID = id
	s.mu.Unlock()

	s.cron.Start()
	s.log.Info().Str("spec", s.spec).Time("next_run", s.NextRun()).Msg("reminder sweep scheduled")

	if s.runImmediately {
		go s.RunOnce(context.Background())
	}
	return nil
}

// Stop waits for a running sweep to finish.
func (s *ReminderSweeper) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("reminder sweep stopped")
}

// NextRun reports when the sweep fires next. The cron loop fills Entry.Next
// asynchronously after Start, so the schedule is consulted until it does.
func (s *ReminderSweeper) NextRun() time.Time {
	s.mu.Lock()
	id := s.jobID
	s.mu.Unlock()

	entry := s.cron.Entry(id)
	if !entry.Next.IsZero() {
		return entry.Next
	}
	if entry.Schedule == nil {
		return time.Time{}
	}
	return entry.Schedule.Next(time.Now().In(s.cron.Location()))
}

func (s *ReminderSweeper) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	synced, err := s.syncer.SyncAllReminders(ctx)

	event := s.log.Info()
	if err != nil {
		event = s.log.Error().Err(err)
	}
	event.Int("leases", synced).Dur("took", time.Since(started)).Msg("reminder sweep finished")
}
