package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobStatus represents the outcome of the last run of a job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is a unit of periodic maintenance work
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobFunc adapts a function to the Job interface
type JobFunc struct {
	JobName string
	Fn      func(ctx context.Context) error
}

func (f JobFunc) Name() string                  { return f.JobName }
func (f JobFunc) Run(ctx context.Context) error { return f.Fn(ctx) }

// JobState is a snapshot of a registered job
type JobState struct {
	Name        string
	Status      JobStatus
	Runs        int
	Failures    int
	LastError   string
	LastStarted *time.Time
	LastEnded   *time.Time
}

// Config holds scheduler configuration
type Config struct {
	Enabled       bool
	Interval      time.Duration
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	// RunOnStart runs every job once as soon as the scheduler starts
	RunOnStart bool
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		Interval:      time.Hour,
		JobTimeout:    5 * time.Minute,
		RetryAttempts: 2,
		RetryDelay:    10 * time.Second,
	}
}

func (c Config) validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	if c.RetryAttempts < 0 || c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry settings must not be negative", ErrInvalidConfig)
	}
	return nil
}

type registeredJob struct {
	job   Job
	state JobState
}

// Scheduler runs registered jobs on a fixed interval. Jobs run one after
// another so maintenance work never overlaps itself.
type Scheduler struct {
	config Config
	logger *zap.Logger

	jobs      []*registeredJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	runMu     sync.Mutex
	isRunning bool
}

// New creates a new scheduler instance
func New(config Config, logger *zap.Logger) (*Scheduler, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{config: config, logger: logger}, nil
}

// Register adds a job. Jobs must be registered before Start.
func (s *Scheduler) Register(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerRunning
	}
	for _, r := range s.jobs {
		if r.job.Name() == job.Name() {
			return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name())
		}
	}
	s.jobs = append(s.jobs, &registeredJob{
		job:   job,
		state: JobState{Name: job.Name(), Status: JobStatusPending},
	})
	return nil
}

// Start starts the scheduler loop. A disabled scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Maintenance scheduler disabled")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Maintenance scheduler started",
		zap.Int("jobs", len(s.jobs)),
		zap.Duration("interval", s.config.Interval),
	)
	return nil
}

// Stop cancels the loop and waits for the running job to return
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Maintenance scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Maintenance scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.RunOnce(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs every registered job once, retrying failures
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.Lock()
	jobs := append([]*registeredJob(nil), s.jobs...)
	s.mu.Unlock()

	for _, r := range jobs {
		if ctx.Err() != nil {
			return
		}
		s.runJob(ctx, r)
	}
}

func (s *Scheduler) runJob(ctx context.Context, r *registeredJob) {
	name := r.job.Name()
	for attempt := 0; ; attempt++ {
		s.markStarted(r)

		jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
		err := r.job.Run(jobCtx)
		cancel()

		s.markEnded(r, err)
		if err == nil {
			s.logger.Debug("Job completed", zap.String("job", name), zap.Int("attempt", attempt+1))
			return
		}

		s.logger.Error("Job failed",
			zap.String("job", name),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if attempt >= s.config.RetryAttempts {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.config.RetryDelay):
		}
	}
}

func (s *Scheduler) markStarted(r *registeredJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	r.state.Status = JobStatusRunning
	r.state.LastStarted = &now
}

func (s *Scheduler) markEnded(r *registeredJob, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	r.state.Runs++
	r.state.LastEnded = &now
	if err != nil {
		r.state.Status = JobStatusFailed
		r.state.Failures++
		r.state.LastError = err.Error()
		return
	}
	r.state.Status = JobStatusSuccess
	r.state.LastError = ""
}

// States returns a snapshot of every registered job in registration order
func (s *Scheduler) States() []JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobState, len(s.jobs))
	for i, r := range s.jobs {
		out[i] = r.state
	}
	return out
}
