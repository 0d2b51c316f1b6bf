// Package scheduler runs periodic background jobs for Tournament Hub,
// such as rebuilding the cached leaderboards of active tournaments.
// Scheduling is delegated to gocron; this package adds job naming,
// per-run timeouts, metrics and structured logging.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alem-hub/tournament-hub/pkg/logger"
	"github.com/go-co-op/gocron/v2"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOB INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Job defines the interface that all scheduled jobs must implement.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job.
	// The context is cancelled when the scheduler is stopping or the run times out.
	Run(ctx context.Context) error

	// Description returns a human-readable description of the job.
	Description() string
}

// JobResult contains the result of a job execution.
type JobResult struct {
	JobName     string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Success     bool
	Error       error
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// Scheduler manages and executes scheduled jobs.
type Scheduler struct {
	mu sync.RWMutex

	cron       gocron.Scheduler
	log        *logger.Logger
	jobTimeout time.Duration

	jobs    map[string]gocron.Job
	running bool

	// ctx is the parent of every run; cancelled by Stop.
	ctx    context.Context
	cancel context.CancelFunc

	metrics *SchedulerMetrics

	runsMu   sync.RWMutex
	lastRuns map[string]JobResult
}

// Config contains configuration for the Scheduler.
type Config struct {
	Logger *logger.Logger

	// MaxConcurrentJobs caps jobs running at once across the scheduler.
	MaxConcurrentJobs int

	// JobTimeout bounds a single run. Zero means no timeout.
	JobTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentJobs: 4,
		JobTimeout:        5 * time.Minute,
	}
}

// New creates a Scheduler. Jobs run in UTC.
func New(config Config) (*Scheduler, error) {
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.MaxConcurrentJobs <= 0 {
		config.MaxConcurrentJobs = 4
	}
	log := config.Logger.With(logger.Component("scheduler"))

	cron, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLimitConcurrentJobs(uint(config.MaxConcurrentJobs), gocron.LimitModeReschedule),
		gocron.WithLogger(cronLogger{log: log}),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       cron,
		log:        log,
		jobTimeout: config.JobTimeout,
		jobs:       make(map[string]gocron.Job),
		ctx:        ctx,
		cancel:     cancel,
		metrics:    NewSchedulerMetrics(),
		lastRuns:   make(map[string]JobResult),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// JOB REGISTRATION
// ══════════════════════════════════════════════════════════════════════════════

// Register schedules job every interval. A run that is still going when the
// next one is due is not overlapped; the next run is rescheduled.
// With immediately set, the first run happens as soon as the scheduler starts.
func (s *Scheduler) Register(job Job, interval time.Duration, immediately bool) error {
	if job == nil {
		return ErrNilJob
	}
	if interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}

	options := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if immediately {
		options = append(options, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	scheduled, err := s.cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() error {
			result := s.execute(job)
			return result.Error
		}),
		options...,
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}

	s.jobs[name] = scheduled
	s.log.Info("job registered",
		logger.String("job", name),
		logger.String("description", job.Description()),
		logger.Duration("interval", interval),
	)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start begins running registered jobs.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerAlreadyRunning
	}
	if s.ctx.Err() != nil {
		return ErrSchedulerStopped
	}

	s.cron.Start()
	s.running = true
	s.log.Info("scheduler started", logger.Int("jobs", len(s.jobs)))
	return nil
}

// Stop cancels running jobs and waits for them to return.
// A stopped scheduler cannot be started again.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return nil
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	// Shutdown waits for in-flight runs, which record results under runsMu.
	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}

	s.log.Info("scheduler stopped")
	return nil
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// ══════════════════════════════════════════════════════════════════════════════
// EXECUTION
// ══════════════════════════════════════════════════════════════════════════════

func (s *Scheduler) execute(job Job) JobResult {
	ctx := s.ctx
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	name := job.Name()
	result := JobResult{JobName: name, StartedAt: time.Now().UTC()}

	err := runSafely(ctx, job)

	result.CompletedAt = time.Now().UTC()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)
	result.Success = err == nil
	result.Error = err

	s.metrics.RecordExecution(name, result.Duration, result.Success)
	s.runsMu.Lock()
	s.lastRuns[name] = result
	s.runsMu.Unlock()

	if err != nil {
		s.log.Error("job failed", logger.String("job", name), logger.Latency(result.Duration), logger.Err(err))
	} else {
		s.log.Debug("job completed", logger.String("job", name), logger.Latency(result.Duration))
	}
	return result
}

func runSafely(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()
	return job.Run(ctx)
}

// RunNow asks gocron to run a registered job immediately, outside its schedule.
// The run is asynchronous; its result shows up in LastRun.
func (s *Scheduler) RunNow(jobName string) error {
	s.mu.RLock()
	job, ok := s.jobs[jobName]
	running := s.running
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}
	if !running {
		return ErrSchedulerNotRunning
	}
	return job.RunNow()
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS & INFO
// ══════════════════════════════════════════════════════════════════════════════

// JobInfo contains information about a registered job.
type JobInfo struct {
	Name    string
	NextRun time.Time
	LastRun *JobResult
}

// ListJobs returns information about all registered jobs.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.runsMu.RLock()
	defer s.runsMu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, job := range s.jobs {
		info := JobInfo{Name: name}
		if next, err := job.NextRun(); err == nil {
			info.NextRun = next
		}
		if last, ok := s.lastRuns[name]; ok {
			info.LastRun = &last
		}
		infos = append(infos, info)
	}
	return infos
}

// LastRun returns the result of the job's latest completed run.
func (s *Scheduler) LastRun(jobName string) (JobResult, bool) {
	s.runsMu.RLock()
	defer s.runsMu.RUnlock()
	r, ok := s.lastRuns[jobName]
	return r, ok
}

// Metrics returns scheduler metrics.
func (s *Scheduler) Metrics() *SchedulerMetrics {
	return s.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// SchedulerMetrics tracks scheduler performance metrics.
type SchedulerMetrics struct {
	mu sync.RWMutex

	TotalExecutions int64
	TotalSuccesses  int64
	TotalFailures   int64
	TotalDuration   time.Duration

	ExecutionsByJob map[string]int64
	FailuresByJob   map[string]int64
}

// NewSchedulerMetrics creates a new metrics tracker.
func NewSchedulerMetrics() *SchedulerMetrics {
	return &SchedulerMetrics{
		ExecutionsByJob: make(map[string]int64),
		FailuresByJob:   make(map[string]int64),
	}
}

// RecordExecution records a job execution.
func (m *SchedulerMetrics) RecordExecution(jobName string, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalExecutions++
	m.TotalDuration += duration
	m.ExecutionsByJob[jobName]++

	if success {
		m.TotalSuccesses++
	} else {
		m.TotalFailures++
		m.FailuresByJob[jobName]++
	}
}

// Snapshot returns a point-in-time snapshot of metrics.
func (m *SchedulerMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		TotalExecutions: m.TotalExecutions,
		TotalSuccesses:  m.TotalSuccesses,
		TotalFailures:   m.TotalFailures,
	}
	if m.TotalExecutions > 0 {
		snap.AverageDuration = m.TotalDuration / time.Duration(m.TotalExecutions)
		snap.SuccessRate = float64(m.TotalSuccesses) / float64(m.TotalExecutions)
	}
	return snap
}

// Executions returns how many times the job ran.
func (m *SchedulerMetrics) Executions(jobName string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ExecutionsByJob[jobName]
}

// MetricsSnapshot is a point-in-time snapshot of scheduler metrics.
type MetricsSnapshot struct {
	TotalExecutions int64
	TotalSuccesses  int64
	TotalFailures   int64
	SuccessRate     float64
	AverageDuration time.Duration
}

// ══════════════════════════════════════════════════════════════════════════════
// GOCRON LOGGER ADAPTER
// ══════════════════════════════════════════════════════════════════════════════

// cronLogger routes gocron's internal logs into the application logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Debug(msg string, args ...any) { l.log.Debug(msg, pairs(args)...) }
func (l cronLogger) Info(msg string, args ...any)  { l.log.Info(msg, pairs(args)...) }
func (l cronLogger) Warn(msg string, args ...any)  { l.log.Warn(msg, pairs(args)...) }
func (l cronLogger) Error(msg string, args ...any) { l.log.Error(msg, pairs(args)...) }

// pairs turns slog-style alternating key/value args into fields.
func pairs(args []any) []logger.Field {
	fields := make([]logger.Field, 0, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 >= len(args) {
			fields = append(fields, logger.Any("extra", args[i]))
			break
		}
		if err, ok := args[i+1].(error); ok {
			fields = append(fields, logger.String(key, err.Error()))
			continue
		}
		fields = append(fields, logger.Any(key, args[i+1]))
	}
	return fields
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrNilJob is returned when trying to register a nil job.
	ErrNilJob = errors.New("job cannot be nil")

	// ErrInvalidInterval is returned for non-positive intervals.
	ErrInvalidInterval = errors.New("interval must be positive")

	// ErrJobAlreadyExists is returned when a job with the same name already exists.
	ErrJobAlreadyExists = errors.New("job already exists")

	// ErrJobNotFound is returned when a job is not found.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobPanicked wraps a panic recovered from a job run.
	ErrJobPanicked = errors.New("job panicked")

	// ErrSchedulerAlreadyRunning is returned when Start is called on a running scheduler.
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")

	// ErrSchedulerNotRunning is returned by RunNow before Start.
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrSchedulerStopped is returned when Start is called after Stop.
	ErrSchedulerStopped = errors.New("scheduler is stopped")
)
