package memory

import (
	"context"
	"sync"
	"time"

	"github.com/alem-hub/tournament-hub/internal/domain/leaderboard"
	"github.com/alem-hub/tournament-hub/internal/domain/shared"
)

type cachedSnapshot struct {
	snapshot  *leaderboard.Snapshot
	expiresAt time.Time
}

// LeaderboardCache implements leaderboard.Cache in process memory.
// Used when Redis is disabled and in tests.
type LeaderboardCache struct {
	mu      sync.RWMutex
	entries map[int64]cachedSnapshot
	now     func() time.Time
}

// NewLeaderboardCache creates an empty cache.
func NewLeaderboardCache() *LeaderboardCache {
	return &LeaderboardCache{
		entries: make(map[int64]cachedSnapshot),
		now:     time.Now,
	}
}

var _ leaderboard.Cache = (*LeaderboardCache)(nil)

// Get implements leaderboard.Cache.
func (c *LeaderboardCache) Get(_ context.Context, tournamentID shared.ID) (*leaderboard.Snapshot, error) {
	c.mu.RLock()
	cached, ok := c.entries[tournamentID.Int64()]
	c.mu.RUnlock()

	if !ok || !c.now().Before(cached.expiresAt) {
		return nil, leaderboard.ErrCacheMiss
	}
	return copySnapshot(cached.snapshot), nil
}

// Set implements leaderboard.Cache.
func (c *LeaderboardCache) Set(_ context.Context, snapshot *leaderboard.Snapshot, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[snapshot.TournamentID.Int64()] = cachedSnapshot{
		snapshot:  copySnapshot(snapshot),
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Invalidate implements leaderboard.Cache.
func (c *LeaderboardCache) Invalidate(_ context.Context, tournamentID shared.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, tournamentID.Int64())
	return nil
}

// Len returns the number of cached tournaments, expired ones included.
func (c *LeaderboardCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func copySnapshot(s *leaderboard.Snapshot) *leaderboard.Snapshot {
	cp := *s
	cp.Entries = append([]leaderboard.Entry(nil), s.Entries...)
	if cp.Entries == nil {
		cp.Entries = []leaderboard.Entry{}
	}
	return &cp
}
