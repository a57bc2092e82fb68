package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	appcosting "github.com/erp/costing/internal/application/costing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeMaintainer struct {
	mu          sync.Mutex
	cleanups    int
	cleanupErrs []error
	expiring    []appcosting.BatchResponse
	windows     []time.Duration
}

func (f *fakeMaintainer) CleanupEmptyBatches(_ context.Context, warehouseID *uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups++
	if len(f.cleanupErrs) > 0 {
		err := f.cleanupErrs[0]
		f.cleanupErrs = f.cleanupErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	return 1, nil
}

func (f *fakeMaintainer) ListExpiringBatches(_ context.Context, within time.Duration, _ *uuid.UUID) ([]appcosting.BatchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = append(f.windows, within)
	return f.expiring, nil
}

func (f *fakeMaintainer) cleanupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleanups
}

func testConfig() Config {
	return Config{
		Enabled:       true,
		Interval:      10 * time.Millisecond,
		JobTimeout:    time.Second,
		RetryAttempts: 0,
		RetryDelay:    time.Millisecond,
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero interval", mutate: func(c *Config) { c.Interval = 0 }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.JobTimeout = 0 }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.RetryAttempts = -1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(cfg, nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRegister(t *testing.T) {
	s, err := New(testConfig(), zap.NewNop())
	require.NoError(t, err)

	noop := JobFunc{JobName: "noop", Fn: func(context.Context) error { return nil }}
	require.NoError(t, s.Register(noop))
	assert.ErrorIs(t, s.Register(noop), ErrDuplicateJob)

	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()
	assert.ErrorIs(t, s.Register(JobFunc{JobName: "late", Fn: noop.Fn}), ErrSchedulerRunning)
}

func TestRunOnce_RetriesThenRecordsState(t *testing.T) {
	cfg := testConfig()
	cfg.RetryAttempts = 2
	s, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	svc := &fakeMaintainer{cleanupErrs: []error{errors.New("deadlock"), nil}}
	require.NoError(t, s.Register(NewCleanupJob(svc)))

	s.RunOnce(context.Background())

	assert.Equal(t, 2, svc.cleanupCount())
	states := s.States()
	require.Len(t, states, 1)
	assert.Equal(t, JobCleanupEmptyBatches, states[0].Name)
	assert.Equal(t, JobStatusSuccess, states[0].Status)
	assert.Equal(t, 2, states[0].Runs)
	assert.Equal(t, 1, states[0].Failures)
	assert.Empty(t, states[0].LastError)
	assert.NotNil(t, states[0].LastEnded)
}

func TestRunOnce_GivesUpAfterRetries(t *testing.T) {
	cfg := testConfig()
	cfg.RetryAttempts = 1
	s, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	boom := errors.New("boom")
	svc := &fakeMaintainer{cleanupErrs: []error{boom, boom, boom}}
	require.NoError(t, s.Register(NewCleanupJob(svc)))

	s.RunOnce(context.Background())

	assert.Equal(t, 2, svc.cleanupCount())
	state := s.States()[0]
	assert.Equal(t, JobStatusFailed, state.Status)
	assert.Equal(t, "boom", state.LastError)
	assert.Equal(t, 2, state.Failures)
}

func TestRunOnce_JobTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.JobTimeout = 5 * time.Millisecond
	s, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Register(JobFunc{JobName: "slow", Fn: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}))
	s.RunOnce(context.Background())

	state := s.States()[0]
	assert.Equal(t, JobStatusFailed, state.Status)
	assert.Contains(t, state.LastError, "deadline exceeded")
}

func TestStartStop_TicksJobs(t *testing.T) {
	s, err := New(testConfig(), zap.NewNop())
	require.NoError(t, err)

	var runs atomic.Int32
	require.NoError(t, s.Register(JobFunc{JobName: "tick", Fn: func(context.Context) error {
		runs.Add(1)
		return nil
	}}))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop(ctx))
}

func TestStart_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	s, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestMaintenanceScheduler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	expiry := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	svc := &fakeMaintainer{expiring: []appcosting.BatchResponse{{
		ID:                uuid.New(),
		BatchNumber:       "B-1",
		RemainingQuantity: decimal.NewFromInt(4),
		ExpiryDate:        &expiry,
	}}}

	cfg := testConfig()
	cfg.RunOnStart = true
	s, err := NewMaintenanceScheduler(cfg, svc, 72*time.Hour, zap.New(core))
	require.NoError(t, err)

	states := s.States()
	require.Len(t, states, 2)
	assert.Equal(t, JobCleanupEmptyBatches, states[0].Name)
	assert.Equal(t, JobExpiryScan, states[1].Name)

	s.RunOnce(context.Background())

	assert.Equal(t, 1, svc.cleanupCount())
	assert.Equal(t, []time.Duration{72 * time.Hour}, svc.windows)
	warned := logs.FilterMessage("Batch expiring soon").All()
	require.Len(t, warned, 1)
	assert.Equal(t, "B-1", warned[0].ContextMap()["batch_number"])
}

func TestMaintenanceScheduler_NoExpiryWindow(t *testing.T) {
	s, err := NewMaintenanceScheduler(testConfig(), &fakeMaintainer{}, 0, nil)
	require.NoError(t, err)
	require.Len(t, s.States(), 1)
}
