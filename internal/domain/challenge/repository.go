package challenge

import (
	"context"

	"github.com/alem-hub/tournament-hub/internal/domain/shared"
)

// Repository is the challenge store contract. Lookups return copies in
// insertion (id) order. The store does not check that the parent
// tournament exists.
type Repository interface {
	// Save assigns the next id to an unsaved challenge, otherwise overwrites.
	Save(ctx context.Context, c *Challenge) error

	// FindByID returns shared.ErrChallengeNotFound when absent.
	FindByID(ctx context.Context, id shared.ID) (*Challenge, error)

	FindAll(ctx context.Context) ([]*Challenge, error)

	// FindByTournament returns every challenge whose parent id matches.
	FindByTournament(ctx context.Context, tournamentID shared.ID) ([]*Challenge, error)

	FindByType(ctx context.Context, challengeType Type) ([]*Challenge, error)
}
