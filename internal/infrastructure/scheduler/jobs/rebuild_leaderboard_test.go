package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alem-hub/tournament-hub/internal/domain/leaderboard"
	"github.com/alem-hub/tournament-hub/internal/domain/shared"
	"github.com/alem-hub/tournament-hub/internal/domain/tournament"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	mu        sync.Mutex
	active    []*tournament.Tournament
	listErr   error
	failFor   map[int64]bool
	refreshed []int64
}

func (f *fakeRefresher) GetTournamentsByStatus(_ context.Context, status tournament.Status) ([]*tournament.Tournament, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if status != tournament.StatusActive {
		return nil, nil
	}
	return f.active, nil
}

func (f *fakeRefresher) RefreshLeaderboard(_ context.Context, id shared.ID) ([]leaderboard.Movement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, id.Int64())
	if f.failFor[id.Int64()] {
		return nil, errors.New("cache unavailable")
	}
	return []leaderboard.Movement{{ParticipantID: 101, NewRank: 1}}, nil
}

func activeTournament(id int64) *tournament.Tournament {
	return tournament.Restore(shared.MustID(id), tournament.Attributes{Name: "T", Type: tournament.TypeDuel}, tournament.StatusActive, nil, nil)
}

func TestRebuildLeaderboardJob_RebuildsEveryActiveTournament(t *testing.T) {
	f := &fakeRefresher{active: []*tournament.Tournament{activeTournament(1), activeTournament(2), activeTournament(3)}}
	job := NewRebuildLeaderboardJob(f, nil, DefaultRebuildLeaderboardConfig())

	assert.Nil(t, job.LastStats())
	require.NoError(t, job.Run(context.Background()))

	assert.ElementsMatch(t, []int64{1, 2, 3}, f.refreshed)
	stats := job.LastStats()
	require.NotNil(t, stats)
	assert.Equal(t, 3, stats.Tournaments)
	assert.Equal(t, 3, stats.Rebuilt)
	assert.Equal(t, 3, stats.Movements)
	assert.Equal(t, "rebuild_leaderboard", job.Name())
}

func TestRebuildLeaderboardJob_ContinuesPastFailures(t *testing.T) {
	f := &fakeRefresher{
		active:  []*tournament.Tournament{activeTournament(1), activeTournament(2)},
		failFor: map[int64]bool{1: true},
	}
	job := NewRebuildLeaderboardJob(f, nil, RebuildLeaderboardConfig{Concurrency: 1})

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, f.refreshed)
	assert.Equal(t, 1, job.LastStats().Rebuilt)
	assert.Len(t, job.LastStats().Errors, 1)
}

func TestRebuildLeaderboardJob_ListFailure(t *testing.T) {
	f := &fakeRefresher{listErr: errors.New("db down")}
	job := NewRebuildLeaderboardJob(f, nil, DefaultRebuildLeaderboardConfig())

	assert.Error(t, job.Run(context.Background()))
	assert.Zero(t, job.LastStats().Tournaments)
}

func TestRebuildLeaderboardJob_NoActiveTournaments(t *testing.T) {
	job := NewRebuildLeaderboardJob(&fakeRefresher{}, nil, DefaultRebuildLeaderboardConfig())
	require.NoError(t, job.Run(context.Background()))
	assert.Zero(t, job.LastStats().Rebuilt)
}

type fakeLocker struct {
	held     bool
	err      error
	unlocked int
}

func (l *fakeLocker) TryLock(context.Context, string, time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeLocker) Unlock(context.Context, string) error {
	l.held = false
	l.unlocked++
	return nil
}

func TestRebuildLeaderboardJob_Locker(t *testing.T) {
	f := &fakeRefresher{active: []*tournament.Tournament{activeTournament(1)}}

	busy := &fakeLocker{held: true}
	job := NewRebuildLeaderboardJob(f, nil, RebuildLeaderboardConfig{Locker: busy})
	require.NoError(t, job.Run(context.Background()))
	assert.True(t, job.LastStats().Skipped)
	assert.Empty(t, f.refreshed)

	free := &fakeLocker{}
	job = NewRebuildLeaderboardJob(f, nil, RebuildLeaderboardConfig{Locker: free})
	require.NoError(t, job.Run(context.Background()))
	assert.False(t, job.LastStats().Skipped)
	assert.Equal(t, []int64{1}, f.refreshed)
	assert.Equal(t, 1, free.unlocked)
	assert.False(t, free.held)

	broken := &fakeLocker{err: errors.New("redis down")}
	job = NewRebuildLeaderboardJob(f, nil, RebuildLeaderboardConfig{Locker: broken})
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []int64{1, 1}, f.refreshed)
}
