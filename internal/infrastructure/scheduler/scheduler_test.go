package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	runs  atomic.Int32
	fail  bool
	panic bool
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counts runs" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.panic {
		panic("kaboom")
	}
	if j.fail {
		return errors.New("failed on purpose")
	}
	return ctx.Err()
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(Config{MaxConcurrentJobs: 2, JobTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestScheduler_RunsImmediatelyAndRecords(t *testing.T) {
	s := newTestScheduler(t)
	job := &countingJob{name: "count"}

	require.NoError(t, s.Register(job, time.Hour, true))
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	require.Eventually(t, func() bool {
		_, ok := s.LastRun("count")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	result, _ := s.LastRun("count")
	assert.True(t, result.Success)
	assert.Equal(t, int32(1), job.runs.Load())
	assert.Equal(t, int64(1), s.Metrics().Executions("count"))

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "count", jobs[0].Name)
	assert.NotNil(t, jobs[0].LastRun)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(), ErrSchedulerStopped)
}

func TestScheduler_FailuresAndPanicsAreRecorded(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.Register(&countingJob{name: "fail", fail: true}, time.Hour, true))
	require.NoError(t, s.Register(&countingJob{name: "panic", panic: true}, time.Hour, true))
	require.NoError(t, s.Start())

	require.Eventually(t, func() bool {
		return s.Metrics().Snapshot().TotalExecutions == 2
	}, 2*time.Second, 10*time.Millisecond)

	snap := s.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalFailures)
	assert.Zero(t, snap.SuccessRate)

	result, ok := s.LastRun("panic")
	require.True(t, ok)
	assert.ErrorIs(t, result.Error, ErrJobPanicked)
}

func TestScheduler_RunNow(t *testing.T) {
	s := newTestScheduler(t)
	job := &countingJob{name: "manual"}
	require.NoError(t, s.Register(job, time.Hour, false))

	assert.ErrorIs(t, s.RunNow("manual"), ErrSchedulerNotRunning)
	assert.ErrorIs(t, s.RunNow("missing"), ErrJobNotFound)

	require.NoError(t, s.Start())
	require.NoError(t, s.RunNow("manual"))

	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_RegisterValidation(t *testing.T) {
	s := newTestScheduler(t)

	assert.ErrorIs(t, s.Register(nil, time.Minute, false), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "x"}, 0, false), ErrInvalidInterval)

	require.NoError(t, s.Register(&countingJob{name: "x"}, time.Minute, false))
	assert.ErrorIs(t, s.Register(&countingJob{name: "x"}, time.Minute, false), ErrJobAlreadyExists)

	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrSchedulerAlreadyRunning)
}

func TestPairs(t *testing.T) {
	fields := pairs([]any{"job", "count", "error", errors.New("boom"), "dangling"})
	require.Len(t, fields, 3)
	assert.Equal(t, "job", fields[0].Key)
	assert.Equal(t, "boom", fields[1].Value)
	assert.Equal(t, "extra", fields[2].Key)
}
