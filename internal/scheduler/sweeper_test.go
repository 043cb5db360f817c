package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSyncer struct {
	calls atomic.Int32
	err   error
}

func (c *countingSyncer) SyncAllReminders(ctx context.Context) (int, error) {
	c.calls.Add(1)
	return 3, c.err
}

func TestReminderSweeper_RunOnce(t *testing.T) {
	var buf bytes.Buffer
	syncer := &countingSyncer{err: errors.New("lease broken")}
	sweeper := NewReminderSweeper(syncer, "0 0 6 * * *", false, nil, zerolog.New(&buf))

	sweeper.RunOnce(context.Background())
	assert.Equal(t, int32(1), syncer.calls.Load())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "lease broken", entry["error"])
	assert.Equal(t, float64(3), entry["leases"])
}

func TestReminderSweeper_StartLogsNextRun(t *testing.T) {
	var buf bytes.Buffer
	sweeper := NewReminderSweeper(&countingSyncer{}, "0 30 7 * * *", false, time.UTC, zerolog.New(&buf))

	require.NoError(t, sweeper.Start())
	defer sweeper.Stop()

	var entry map[string]interface{}
	line, err := buf.ReadBytes('\n')
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(line, &entry))
	assert.Equal(t, "reminder sweep scheduled", entry["message"])

	raw, ok := entry["next_run"].(string)
	require.True(t, ok)
	next, err := time.Parse(time.RFC3339, raw)
	require.NoError(t, err)
	assert.Equal(t, 7, next.UTC().Hour())
	assert.Equal(t, 30, next.UTC().Minute())
	assert.True(t, next.After(time.Now()))
}

func TestReminderSweeper_StartSchedulesAndRunsImmediately(t *testing.T) {
	syncer := &countingSyncer{}
	sweeper := NewReminderSweeper(syncer, "0 0 6 * * *", true, time.UTC, zerolog.Nop())

	require.NoError(t, sweeper.Start())
	defer sweeper.Stop()

	assert.Eventually(t, func() bool { return syncer.calls.Load() == 1 }, time.Second, 10*time.Millisecond)

	next := sweeper.NextRun()
	assert.Equal(t, 6, next.Hour())
	assert.Equal(t, 0, next.Minute())
}

func TestReminderSweeper_InvalidSpec(t *testing.T) {
	sweeper := NewReminderSweeper(&countingSyncer{}, "whenever", false, nil, zerolog.Nop())
	assert.Error(t, sweeper.Start())
}
