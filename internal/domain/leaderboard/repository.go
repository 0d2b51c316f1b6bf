package leaderboard

import (
	"context"
	"errors"
	"time"

	"github.com/alem-hub/tournament-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// ErrCacheMiss возвращается, когда снапшота нет в кеше или он устарел.
var ErrCacheMiss = errors.New("leaderboard cache miss")

// Cache определяет контракт для кеширования лидерборда турнира.
// Кеш не является источником истины: при промахе лидерборд
// пересчитывается из хранилища турниров.
type Cache interface {
	// Get возвращает закешированный снапшот.
	// Возвращает ErrCacheMiss, если снапшота нет.
	Get(ctx context.Context, tournamentID shared.ID) (*Snapshot, error)

	// Set сохраняет снапшот с TTL.
	Set(ctx context.Context, snapshot *Snapshot, ttl time.Duration) error

	// Invalidate сбрасывает кеш турнира.
	Invalidate(ctx context.Context, tournamentID shared.ID) error
}
