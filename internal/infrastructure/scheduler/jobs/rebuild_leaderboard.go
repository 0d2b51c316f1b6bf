// Package jobs contains the scheduled jobs of Tournament Hub.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alem-hub/tournament-hub/internal/domain/leaderboard"
	"github.com/alem-hub/tournament-hub/internal/domain/shared"
	"github.com/alem-hub/tournament-hub/internal/domain/tournament"
	"github.com/alem-hub/tournament-hub/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRefresher recomputes and caches tournament leaderboards.
// Implemented by the tournament service.
type LeaderboardRefresher interface {
	GetTournamentsByStatus(ctx context.Context, status tournament.Status) ([]*tournament.Tournament, error)
	RefreshLeaderboard(ctx context.Context, tournamentID shared.ID) ([]leaderboard.Movement, error)
}

// Locker is a lock shared between worker processes.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, name string) error
}

// RebuildLeaderboardJob refreshes the cached leaderboard of every active
// tournament and logs rank movements since the previous build.
type RebuildLeaderboardJob struct {
	refresher LeaderboardRefresher
	log       *logger.Logger
	config    RebuildLeaderboardConfig

	lastStats atomic.Pointer[RebuildStats]
}

// RebuildLeaderboardConfig contains configuration for the rebuild job.
type RebuildLeaderboardConfig struct {
	// Concurrency is the number of tournaments rebuilt in parallel.
	Concurrency int

	// Timeout is the maximum duration for one run.
	Timeout time.Duration

	// Locker, when set, lets only one worker run the rebuild per tick.
	// Lock errors do not block the run.
	Locker Locker
}

// DefaultRebuildLeaderboardConfig returns sensible defaults.
func DefaultRebuildLeaderboardConfig() RebuildLeaderboardConfig {
	return RebuildLeaderboardConfig{
		Concurrency: 4,
		Timeout:     time.Minute,
	}
}

// RebuildStats contains statistics from a rebuild run.
type RebuildStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Tournaments int
	Rebuilt     int
	Movements   int
	Skipped     bool
	Errors      []error
}

// NewRebuildLeaderboardJob creates a new rebuild leaderboard job.
func NewRebuildLeaderboardJob(refresher LeaderboardRefresher, log *logger.Logger, config RebuildLeaderboardConfig) *RebuildLeaderboardJob {
	if log == nil {
		log = logger.Nop()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}

	return &RebuildLeaderboardJob{
		refresher: refresher,
		log:       log.With(logger.Component("rebuild_leaderboard")),
		config:    config,
	}
}

// Name returns the job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Recomputes cached leaderboards of active tournaments"
}

// Run executes the rebuild job. A failure for one tournament does not stop
// the others; the run reports an error if any tournament failed.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	stats := &RebuildStats{StartedAt: time.Now().UTC()}
	defer func() {
		stats.CompletedAt = time.Now().UTC()
		stats.Duration = stats.CompletedAt.Sub(stats.StartedAt)
		j.lastStats.Store(stats)
	}()

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	if j.config.Locker != nil {
		release, ok := j.acquire(ctx)
		if !ok {
			stats.Skipped = true
			return nil
		}
		defer release()
	}

	active, err := j.refresher.GetTournamentsByStatus(ctx, tournament.StatusActive)
	if err != nil {
		return fmt.Errorf("list active tournaments: %w", err)
	}
	stats.Tournaments = len(active)
	if len(active) == 0 {
		return nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.config.Concurrency)

	for _, t := range active {
		id := t.ID()
		g.Go(func() error {
			movements, err := j.refresher.RefreshLeaderboard(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Errors = append(stats.Errors, fmt.Errorf("tournament %s: %w", id, err))
				j.log.Error("leaderboard rebuild failed", logger.TournamentID(id.Int64()), logger.Err(err))
				// Other tournaments keep going.
				return nil
			}
			stats.Rebuilt++
			stats.Movements += len(movements)
			j.logMovements(id, movements)
			return nil
		})
	}
	_ = g.Wait()

	j.log.Info("leaderboards rebuilt",
		logger.Int("tournaments", stats.Tournaments),
		logger.Int("rebuilt", stats.Rebuilt),
		logger.Int("movements", stats.Movements),
	)

	if len(stats.Errors) > 0 {
		return fmt.Errorf("rebuild completed with %d errors", len(stats.Errors))
	}
	return nil
}

func (j *RebuildLeaderboardJob) acquire(ctx context.Context) (release func(), ok bool) {
	ttl := j.config.Timeout
	if ttl <= 0 {
		ttl = time.Minute
	}

	held, err := j.config.Locker.TryLock(ctx, j.Name(), ttl)
	if err != nil {
		j.log.Warn("rebuild lock unavailable, running anyway", logger.Err(err))
		return func() {}, true
	}
	if !held {
		j.log.Debug("another worker holds the rebuild lock, skipping")
		return nil, false
	}

	return func() {
		if err := j.config.Locker.Unlock(context.WithoutCancel(ctx), j.Name()); err != nil {
			j.log.Warn("failed to release rebuild lock", logger.Err(err))
		}
	}, true
}

func (j *RebuildLeaderboardJob) logMovements(id shared.ID, movements []leaderboard.Movement) {
	if !j.log.Enabled(logger.LevelDebug) {
		return
	}
	for _, m := range movements {
		j.log.Debug("rank moved",
			logger.TournamentID(id.Int64()),
			logger.ParticipantID(m.ParticipantID.Int64()),
			logger.Int("old_rank", int(m.OldRank)),
			logger.Int("new_rank", int(m.NewRank)),
			logger.String("direction", string(m.Direction())),
		)
	}
}

// LastStats returns statistics of the latest run, nil before the first one.
func (j *RebuildLeaderboardJob) LastStats() *RebuildStats {
	return j.lastStats.Load()
}
