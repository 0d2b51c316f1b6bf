package memory

import (
	"context"
	"sync"

	"github.com/alem-hub/tournament-hub/internal/domain/challenge"
	"github.com/alem-hub/tournament-hub/internal/domain/shared"
)

// ChallengeRepository implements challenge.Repository in memory.
type ChallengeRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*challenge.Challenge
	order  []int64
}

// NewChallengeRepository creates an empty store. IDs start at 1.
func NewChallengeRepository() *ChallengeRepository {
	return &ChallengeRepository{
		nextID: 1,
		byID:   make(map[int64]*challenge.Challenge),
	}
}

var _ challenge.Repository = (*ChallengeRepository)(nil)

// Save implements challenge.Repository.
func (r *ChallengeRepository) Save(ctx context.Context, c *challenge.Challenge) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, assigned := c.ID().Value()
	if !assigned {
		id = r.nextID
		if err := c.AssignID(shared.MustID(id)); err != nil {
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
	r.byID[id] = c.Clone()
	return nil
}

// FindByID implements challenge.Repository.
func (r *ChallengeRepository) FindByID(ctx context.Context, id shared.ID) (*challenge.Challenge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id.Int64()]
	if !ok || !id.IsAssigned() {
		return nil, shared.ErrChallengeNotFound
	}
	return c.Clone(), nil
}

// FindAll implements challenge.Repository.
func (r *ChallengeRepository) FindAll(ctx context.Context) ([]*challenge.Challenge, error) {
	return r.filter(ctx, func(*challenge.Challenge) bool { return true })
}

// FindByTournament implements challenge.Repository.
func (r *ChallengeRepository) FindByTournament(ctx context.Context, tournamentID shared.ID) ([]*challenge.Challenge, error) {
	return r.filter(ctx, func(c *challenge.Challenge) bool { return c.TournamentID() == tournamentID })
}

// FindByType implements challenge.Repository.
func (r *ChallengeRepository) FindByType(ctx context.Context, challengeType challenge.Type) ([]*challenge.Challenge, error) {
	return r.filter(ctx, func(c *challenge.Challenge) bool { return c.Attributes().Type == challengeType })
}

func (r *ChallengeRepository) filter(ctx context.Context, keep func(*challenge.Challenge) bool) ([]*challenge.Challenge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*challenge.Challenge, 0, len(r.order))
	for _, id := range r.order {
		if c := r.byID[id]; keep(c) {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}
