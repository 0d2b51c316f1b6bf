package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/alem-hub/tournament-hub/internal/domain/leaderboard"
	"github.com/alem-hub/tournament-hub/internal/domain/shared"
	"github.com/alem-hub/tournament-hub/pkg/circuitbreaker"
	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache stores computed tournament leaderboards in Redis.
//
// Layout per tournament:
//   - Sorted Set "leaderboard:tournament:{id}" stores participantID -> total
//   - String "leaderboard:tournament:{id}:generated" stores the build time
//
// The string key marks the snapshot as present, so an empty leaderboard
// is cached too. Both keys expire together.
//
// With a breaker, an open circuit turns reads into cache misses and fails
// writes fast, so callers fall back to the store without waiting on Redis.
type LeaderboardCache struct {
	cache   *Cache
	breaker *circuitbreaker.CircuitBreaker
}

const keyTournamentLeaderboard = PrefixLeaderboard + "tournament:"

// LeaderboardCacheOption configures a LeaderboardCache.
type LeaderboardCacheOption func(*LeaderboardCache)

// WithBreaker guards every Redis round trip with cb.
func WithBreaker(cb *circuitbreaker.CircuitBreaker) LeaderboardCacheOption {
	return func(l *LeaderboardCache) {
		l.breaker = cb
	}
}

// NewLeaderboardCache creates a new LeaderboardCache instance.
func NewLeaderboardCache(cache *Cache, opts ...LeaderboardCacheOption) *LeaderboardCache {
	l := &LeaderboardCache{cache: cache}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// guard runs fn through the breaker when one is configured.
func (l *LeaderboardCache) guard(ctx context.Context, fn func(context.Context) error) error {
	if l.breaker == nil {
		return fn(ctx)
	}
	return l.breaker.Execute(ctx, fn)
}

// IsCacheFailure reports whether err should count against the breaker.
// Misses are normal traffic.
func IsCacheFailure(err error) bool {
	return !errors.Is(err, leaderboard.ErrCacheMiss)
}

var _ leaderboard.Cache = (*LeaderboardCache)(nil)

func scoresKey(tournamentID shared.ID) string {
	return keyTournamentLeaderboard + tournamentID.String()
}

func generatedKey(tournamentID shared.ID) string {
	return scoresKey(tournamentID) + ":generated"
}

// Set replaces the cached leaderboard atomically.
func (l *LeaderboardCache) Set(ctx context.Context, snapshot *leaderboard.Snapshot, ttl time.Duration) error {
	if snapshot == nil {
		return ErrCacheNilValue
	}
	if ttl <= 0 {
		ttl = TTLLeaderboardCache
	}

	zKey := scoresKey(snapshot.TournamentID)
	members := toZ(snapshot.Entries)

	err := l.guard(ctx, func(ctx context.Context) error {
		pipe := l.cache.Client().TxPipeline()
		pipe.Del(ctx, zKey)
		if len(members) > 0 {
			pipe.ZAdd(ctx, zKey, members...)
			pipe.Expire(ctx, zKey, ttl)
		}
		pipe.Set(ctx, generatedKey(snapshot.TournamentID), snapshot.GeneratedAt.UTC().Format(time.RFC3339Nano), ttl)

		_, err := pipe.Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("cache leaderboard %s: %w", snapshot.TournamentID, err)
	}
	return nil
}

// Get returns the cached leaderboard or leaderboard.ErrCacheMiss.
func (l *LeaderboardCache) Get(ctx context.Context, tournamentID shared.ID) (*leaderboard.Snapshot, error) {
	var snap *leaderboard.Snapshot
	err := l.guard(ctx, func(ctx context.Context) error {
		var err error
		snap, err = l.read(ctx, tournamentID)
		return err
	})
	if circuitbreaker.IsRejected(err) {
		return nil, leaderboard.ErrCacheMiss
	}
	return snap, err
}

func (l *LeaderboardCache) read(ctx context.Context, tournamentID shared.ID) (*leaderboard.Snapshot, error) {
	pipe := l.cache.Client().Pipeline()
	generatedCmd := pipe.Get(ctx, generatedKey(tournamentID))
	rangeCmd := pipe.ZRevRangeWithScores(ctx, scoresKey(tournamentID), 0, -1)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read leaderboard %s: %w", tournamentID, err)
	}

	generated, err := generatedCmd.Result()
	if errors.Is(err, redis.Nil) {
		return nil, leaderboard.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	members, err := rangeCmd.Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	return fromZ(tournamentID, generated, members)
}

// Invalidate drops the cached leaderboard.
// A rejected call leaves the old snapshot to expire with its TTL.
func (l *LeaderboardCache) Invalidate(ctx context.Context, tournamentID shared.ID) error {
	return l.guard(ctx, func(ctx context.Context) error {
		return l.cache.Delete(ctx, scoresKey(tournamentID), generatedKey(tournamentID))
	})
}

func toZ(entries []leaderboard.Entry) []redis.Z {
	members := make([]redis.Z, 0, len(entries))
	for _, e := range entries {
		members = append(members, redis.Z{
			Score:  float64(e.Score),
			Member: e.ParticipantID.String(),
		})
	}
	return members
}

// fromZ rebuilds a snapshot. Redis orders equal scores lexicographically,
// so ranks are recomputed with leaderboard.Sort.
func fromZ(tournamentID shared.ID, generated string, members []redis.Z) (*leaderboard.Snapshot, error) {
	generatedAt, err := time.Parse(time.RFC3339Nano, generated)
	if err != nil {
		return nil, fmt.Errorf("%w: generated at: %v", ErrCacheSerialization, err)
	}

	entries := make([]leaderboard.Entry, 0, len(members))
	for _, m := range members {
		raw, ok := m.Member.(string)
		if !ok {
			return nil, fmt.Errorf("%w: member %v", ErrCacheSerialization, m.Member)
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: member %q: %v", ErrCacheSerialization, raw, err)
		}
		entries = append(entries, leaderboard.Entry{
			ParticipantID: shared.ParticipantID(id),
			Score:         shared.Score(int(m.Score)),
		})
	}
	leaderboard.Sort(entries)

	return &leaderboard.Snapshot{
		TournamentID: tournamentID,
		Entries:      entries,
		GeneratedAt:  generatedAt,
	}, nil
}
