package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/lease-renewals/internal/events"
	"github.com/nurpe/lease-renewals/internal/model"
	"github.com/nurpe/lease-renewals/internal/renewal"
	"github.com/nurpe/lease-renewals/internal/repository"
)

type ExcelGenerator interface {
	Generate(report model.RenewalReport) ([]byte, error)
}

type LeaseService struct {
	leases    *repository.LeaseRepository
	tasks     *repository.TaskRepository
	excel     ExcelGenerator
	completed *events.Bus[events.TaskCompleted]
	clock     Clock
	defaults  renewal.Defaults
	log       zerolog.Logger
}

type Options struct {
	Excel     ExcelGenerator
	Completed *events.Bus[events.TaskCompleted]
	Clock     Clock
	// Defaults fills day counts a request leaves out. Nil means
	// renewal.DefaultPolicyDefaults.
	Defaults  *renewal.Defaults
	Log       zerolog.Logger
}

func NewLeaseService(leases *repository.LeaseRepository, tasks *repository.TaskRepository, opts Options) *LeaseService {
	s := &LeaseService{
		leases:    leases,
		tasks:     tasks,
		excel:     opts.Excel,
		completed: opts.Completed,
		clock:     opts.Clock,
		defaults:  renewal.DefaultPolicyDefaults(),
		log:       opts.Log,
	}
	if opts.Defaults != nil {
		s.defaults = *opts.Defaults
	}
	if s.completed == nil {
		s.completed = events.NewBus[events.TaskCompleted]()
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	s.completed.Subscribe(s.refreshOnTaskCompleted)
	return s
}

type CreateLeaseInput struct {
	Principal       model.Principal
	PropertyName    string
	UnitName        string
	TenantName      string
	StartDate       string
	Policy          renewal.RawPolicy
	AutoCreateTasks bool
}

func (s *LeaseService) CreateLease(ctx context.Context, input CreateLeaseInput) (*model.Lease, error) {
	if !input.Principal.CanManage() {
		return nil, ErrPermissionDenied
	}
	policy, err := renewal.ParsePolicy(input.Policy, s.defaults)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	lease := model.Lease{
		OrganizationID:      input.Principal.OrgID,
		PropertyName:        strings.TrimSpace(input.PropertyName),
		UnitName:            strings.TrimSpace(input.UnitName),
		TenantName:          strings.TrimSpace(input.TenantName),
		EndDate:             policy.EndDate,
		OwnerNoticeDays:     policy.OwnerNoticeDays,
		TenantNoticeDays:    policy.TenantNoticeDays,
		RenewalNoticeDays:   policy.RenewalNoticeDays,
		RenewalDeadlineDays: policy.RenewalDeadlineDays,
		AutoCreateTasks:     input.AutoCreateTasks,
	}
	if lease.PropertyName == "" && lease.UnitName == "" {
		return nil, fmt.Errorf("%w: property_name or unit_name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.StartDate) != "" {
		start, err := renewal.ParseDate(input.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: start_date %v", ErrInvalidInput, err)
		}
		if !start.Before(lease.EndDate) {
			return nil, fmt.Errorf("%w: start_date must be before end_date", ErrInvalidInput)
		}
		lease.StartDate = start
	}

	var created *model.Lease
	err = s.leases.Transaction(ctx, func(leases *repository.LeaseRepository, tasks *repository.TaskRepository) error {
		var err error
		if created, err = leases.Create(ctx, lease); err != nil {
			return err
		}
		if created.AutoCreateTasks {
			_, err = s.syncLease(ctx, tasks, *created)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("lease_id", created.ID.String()).Str("org_id", created.OrganizationID.String()).Msg("lease created")
	return created, nil
}

func (s *LeaseService) GetLease(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.Lease, error) {
	if !principal.CanRead() {
		return nil, ErrPermissionDenied
	}
	return s.loadLease(ctx, id, principal)
}

func (s *LeaseService) ListLeases(ctx context.Context, principal model.Principal) ([]model.Lease, error) {
	if !principal.CanRead() {
		return nil, ErrPermissionDenied
	}
	return s.leases.ListByOrganization(ctx, principal.OrgID)
}

func (s *LeaseService) GetSchedule(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.LeaseSchedule, error) {
	lease, err := s.GetLease(ctx, id, principal)
	if err != nil {
		return nil, err
	}
	return s.schedule(*lease)
}

type PreviewResult struct {
	Schedule renewal.Schedule
	Tasks    []renewal.ReminderTask
}

// PreviewSchedule evaluates an unsaved policy. Nothing is persisted.
func (s *LeaseService) PreviewSchedule(raw renewal.RawPolicy, label string) (*PreviewResult, error) {
	policy, err := renewal.ParsePolicy(raw, s.defaults)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	schedule, err := renewal.Compute(policy, today(s.clock))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	tasks, err := renewal.BuildReminderTasks(policy, uuid.Nil, label)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return &PreviewResult{Schedule: schedule, Tasks: tasks}, nil
}

func (s *LeaseService) SyncReminders(ctx context.Context, id uuid.UUID, principal model.Principal) ([]model.Task, error) {
	if !principal.CanManage() {
		return nil, ErrPermissionDenied
	}
	lease, err := s.loadLease(ctx, id, principal)
	if err != nil {
		return nil, err
	}
	if !lease.AutoCreateTasks {
		return nil, ErrAutoTasksDisabled
	}
	return s.syncLease(ctx, s.tasks, *lease)
}

// SyncAllReminders refreshes reminders of every lease with automatic tasks.
// Failures are collected so that one broken lease does not stop the sweep.
func (s *LeaseService) SyncAllReminders(ctx context.Context) (int, error) {
	leases, err := s.leases.ListAutoCreate(ctx)
	if err != nil {
		return 0, err
	}

	synced := 0
	var errs []error
	for _, lease := range leases {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := s.syncLease(ctx, s.tasks, lease); err != nil {
			s.log.Warn().Err(err).Str("lease_id", lease.ID.String()).Msg("reminder sync failed")
			errs = append(errs, fmt.Errorf("lease %s: %w", lease.ID, err))
			continue
		}
		synced++
	}
	return synced, errors.Join(errs...)
}

// RenewLease substitutes a later end date and refreshes the lease's reminders.
func (s *LeaseService) RenewLease(ctx context.Context, id uuid.UUID, newEndDate time.Time, principal model.Principal) (*model.LeaseSchedule, error) {
	if !principal.CanManage() {
		return nil, ErrPermissionDenied
	}
	if newEndDate.IsZero() {
		return nil, fmt.Errorf("%w: end_date is required", ErrInvalidInput)
	}
	lease, err := s.loadLease(ctx, id, principal)
	if err != nil {
		return nil, err
	}

	newEndDate = renewal.DateOnly(newEndDate)
	if !newEndDate.After(renewal.DateOnly(lease.EndDate)) {
		return nil, fmt.Errorf("%w: new end_date must be after %s", ErrInvalidInput, lease.EndDate.Format("2006-01-02"))
	}
	lease.EndDate = newEndDate
	err = s.leases.Transaction(ctx, func(leases *repository.LeaseRepository, tasks *repository.TaskRepository) error {
		if err := leases.UpdateEndDate(ctx, lease.ID, newEndDate); err != nil {
			return mapNotFound(err)
		}
		if !lease.AutoCreateTasks {
			return nil
		}
		_, err := s.syncLease(ctx, tasks, *lease)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("lease_id", lease.ID.String()).Str("end_date", newEndDate.Format("2006-01-02")).Msg("lease renewed")
	return s.schedule(*lease)
}

// UpdatePolicy replaces the notice and renewal day counts of a lease.
// Day counts left nil keep their stored values. The end date only moves
// through RenewLease, so raw.EndDate must be empty or equal to it.
func (s *LeaseService) UpdatePolicy(ctx context.Context, id uuid.UUID, raw renewal.RawPolicy, principal model.Principal) (*model.LeaseSchedule, error) {
	if !principal.CanManage() {
		return nil, ErrPermissionDenied
	}
	lease, err := s.loadLease(ctx, id, principal)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(raw.EndDate) == "" {
		raw.EndDate = lease.EndDate.Format("2006-01-02")
	}
	stored := renewal.Defaults{
		OwnerNoticeDays:     lease.OwnerNoticeDays,
		TenantNoticeDays:    lease.TenantNoticeDays,
		RenewalNoticeDays:   lease.RenewalNoticeDays,
		RenewalDeadlineDays: lease.RenewalDeadlineDays,
	}
	policy, err := renewal.ParsePolicy(raw, stored)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !policy.EndDate.Equal(renewal.DateOnly(lease.EndDate)) {
		return nil, fmt.Errorf("%w: end_date changes go through renew", ErrInvalidInput)
	}

	lease.OwnerNoticeDays = policy.OwnerNoticeDays
	lease.TenantNoticeDays = policy.TenantNoticeDays
	lease.RenewalNoticeDays = policy.RenewalNoticeDays
	lease.RenewalDeadlineDays = policy.RenewalDeadlineDays
	err = s.leases.Transaction(ctx, func(leases *repository.LeaseRepository, tasks *repository.TaskRepository) error {
		if err := leases.UpdatePolicy(ctx, *lease); err != nil {
			return mapNotFound(err)
		}
		if !lease.AutoCreateTasks {
			return nil
		}
		_, err := s.syncLease(ctx, tasks, *lease)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("lease_id", lease.ID.String()).
		Int("renewal_notice_days", lease.RenewalNoticeDays).
		Int("renewal_deadline_days", lease.RenewalDeadlineDays).
		Msg("lease policy updated")
	return s.schedule(*lease)
}

func (s *LeaseService) ListTasks(ctx context.Context, leaseID uuid.UUID, principal model.Principal) ([]model.Task, error) {
	if _, err := s.GetLease(ctx, leaseID, principal); err != nil {
		return nil, err
	}
	return s.tasks.ListByLease(ctx, leaseID)
}

// ListDueTasks returns pending tasks due within withinDays from today, overdue ones included.
func (s *LeaseService) ListDueTasks(ctx context.Context, principal model.Principal, withinDays int) ([]model.Task, error) {
	if !principal.CanRead() {
		return nil, ErrPermissionDenied
	}
	if withinDays < 0 {
		return nil, fmt.Errorf("%w: within_days must not be negative", ErrInvalidInput)
	}
	until := today(s.clock).AddDate(0, 0, withinDays)
	return s.tasks.ListDue(ctx, principal.OrgID, until)
}

func (s *LeaseService) CompleteTask(ctx context.Context, taskID uuid.UUID, principal model.Principal) (*model.Task, error) {
	if !principal.CanManage() {
		return nil, ErrPermissionDenied
	}
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if _, err := s.loadLease(ctx, task.LeaseID, principal); err != nil {
		return nil, err
	}

	completedAt := s.clock.Now().UTC()
	changed, err := s.tasks.MarkDone(ctx, task.ID, completedAt)
	if err != nil {
		return nil, err
	}
	if changed {
		s.completed.Publish(ctx, events.TaskCompleted{
			TaskID:      task.ID,
			LeaseID:     task.LeaseID,
			Title:       task.Title,
			CompletedAt: completedAt,
		})
	}
	return s.tasks.Get(ctx, task.ID)
}

// UpcomingRenewals lists the organization's leases with their schedules,
// soonest end first. An empty statuses slice keeps every lease.
func (s *LeaseService) UpcomingRenewals(ctx context.Context, principal model.Principal, statuses []renewal.Status) ([]model.LeaseSchedule, error) {
	leases, err := s.ListLeases(ctx, principal)
	if err != nil {
		return nil, err
	}

	keep := make(map[renewal.Status]struct{}, len(statuses))
	for _, status := range statuses {
		keep[status] = struct{}{}
	}

	now := today(s.clock)
	result := make([]model.LeaseSchedule, 0, len(leases))
	for _, lease := range leases {
		schedule, err := renewal.Compute(lease.Policy(), now)
		if err != nil {
			s.log.Warn().Err(err).Str("lease_id", lease.ID.String()).Msg("skipping lease with invalid policy")
			continue
		}
		if len(keep) > 0 {
			if _, ok := keep[schedule.Status]; !ok {
				continue
			}
		}
		result = append(result, model.LeaseSchedule{Lease: lease, Schedule: schedule})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Schedule.DaysRemaining < result[j].Schedule.DaysRemaining
	})
	return result, nil
}

type ExportResult struct {
	FileName string
	Content  []byte
}

func (s *LeaseService) ExportRenewals(ctx context.Context, principal model.Principal) (*ExportResult, error) {
	schedules, err := s.UpcomingRenewals(ctx, principal, nil)
	if err != nil {
		return nil, err
	}
	if s.excel == nil {
		return nil, errors.New("excel generator is not configured")
	}
	tasks, err := s.tasks.ListByOrganization(ctx, principal.OrgID)
	if err != nil {
		return nil, err
	}

	report := model.RenewalReport{
		Organization: principal.OrgID,
		GeneratedOn:  today(s.clock),
		Leases:       schedules,
		Tasks:        tasks,
	}
	content, err := s.excel.Generate(report)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: fmt.Sprintf("renewals-%s.xlsx", report.GeneratedOn.Format("20060102")),
		Content:  content,
	}, nil
}

func (s *LeaseService) refreshOnTaskCompleted(ctx context.Context, ev events.TaskCompleted) {
	lease, err := s.leases.Get(ctx, ev.LeaseID)
	if err != nil {
		s.log.Warn().Err(err).Str("lease_id", ev.LeaseID.String()).Msg("refresh after task completion failed")
		return
	}
	result, err := s.schedule(*lease)
	if err != nil {
		s.log.Warn().Err(err).Str("lease_id", lease.ID.String()).Msg("refresh after task completion failed")
		return
	}
	s.log.Info().
		Str("lease_id", lease.ID.String()).
		Str("task", ev.Title).
		Str("status", string(result.Schedule.Status)).
		Int("days_remaining", result.Schedule.DaysRemaining).
		Msg("renewal schedule refreshed")
}

// syncLease writes through the given task repository so callers inside a
// transaction keep reminders and the lease row on one connection.
func (s *LeaseService) syncLease(ctx context.Context, tasks *repository.TaskRepository, lease model.Lease) ([]model.Task, error) {
	reminders, err := renewal.BuildReminderTasks(lease.Policy(), lease.ID, lease.Label())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := tasks.UpsertReminders(ctx, reminders); err != nil {
		return nil, err
	}
	return tasks.ListByLease(ctx, lease.ID)
}

func (s *LeaseService) schedule(lease model.Lease) (*model.LeaseSchedule, error) {
	schedule, err := renewal.Compute(lease.Policy(), today(s.clock))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return &model.LeaseSchedule{Lease: lease, Schedule: schedule}, nil
}

// loadLease hides leases of other organizations behind ErrNotFound.
func (s *LeaseService) loadLease(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.Lease, error) {
	lease, err := s.leases.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if lease.OrganizationID != principal.OrgID {
		return nil, ErrNotFound
	}
	return lease, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
