// Package memory provides in-process implementations of the tournament and
// challenge stores. Each store instance owns its data; nothing is shared
// between instances.
package memory

import (
	"context"
	"sync"

	"github.com/alem-hub/tournament-hub/internal/domain/shared"
	"github.com/alem-hub/tournament-hub/internal/domain/tournament"
)

// TournamentRepository implements tournament.Repository in memory.
type TournamentRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*tournament.Tournament
	order  []int64
}

// NewTournamentRepository creates an empty store. IDs start at 1.
func NewTournamentRepository() *TournamentRepository {
	return &TournamentRepository{
		nextID: 1,
		byID:   make(map[int64]*tournament.Tournament),
	}
}

// Compile-time check.
var _ tournament.Repository = (*TournamentRepository)(nil)

// Save implements tournament.Repository.
func (r *TournamentRepository) Save(ctx context.Context, t *tournament.Tournament) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, assigned := t.ID().Value()
	if !assigned {
		id = r.nextID
		if err := t.AssignID(shared.MustID(id)); err != nil {
			return err
		}
		r.nextID++
	}

	if _, exists := r.byID[id]; !exists {
		r.order = append(r.order, id)
		if id >= r.nextID {
			r.nextID = id + 1
		}
	}
	r.byID[id] = t.Clone()
	return nil
}

// FindByID implements tournament.Repository.
func (r *TournamentRepository) FindByID(ctx context.Context, id shared.ID) (*tournament.Tournament, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id.Int64()]
	if !ok || !id.IsAssigned() {
		return nil, shared.ErrTournamentNotFound
	}
	return t.Clone(), nil
}

// FindAll implements tournament.Repository.
func (r *TournamentRepository) FindAll(ctx context.Context) ([]*tournament.Tournament, error) {
	return r.filter(ctx, func(*tournament.Tournament) bool { return true })
}

// FindByStatus implements tournament.Repository.
func (r *TournamentRepository) FindByStatus(ctx context.Context, status tournament.Status) ([]*tournament.Tournament, error) {
	return r.filter(ctx, func(t *tournament.Tournament) bool { return t.Status() == status })
}

// FindByType implements tournament.Repository.
func (r *TournamentRepository) FindByType(ctx context.Context, tournamentType tournament.Type) ([]*tournament.Tournament, error) {
	return r.filter(ctx, func(t *tournament.Tournament) bool { return t.Type() == tournamentType })
}

func (r *TournamentRepository) filter(ctx context.Context, keep func(*tournament.Tournament) bool) ([]*tournament.Tournament, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*tournament.Tournament, 0, len(r.order))
	for _, id := range r.order {
		if t := r.byID[id]; keep(t) {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}
