package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alem-hub/tournament-hub/internal/domain/challenge"
	"github.com/alem-hub/tournament-hub/internal/domain/leaderboard"
	"github.com/alem-hub/tournament-hub/internal/domain/shared"
	"github.com/alem-hub/tournament-hub/internal/domain/tournament"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTournament(t *testing.T, name string, typ tournament.Type) *tournament.Tournament {
	t.Helper()
	tr, err := tournament.New(tournament.Attributes{
		Name:      name,
		Type:      typ,
		Rules:     []string{"fair play"},
		StartDate: time.Date(2024, 10, 31, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC),
		Location:  "Hogwarts",
	})
	require.NoError(t, err)
	return tr
}

func newChallenge(t *testing.T, tournamentID int64, typ challenge.Type) *challenge.Challenge {
	t.Helper()
	c, err := challenge.New(shared.MustID(tournamentID), challenge.Attributes{
		Name:          "Lake",
		Type:          typ,
		MaxPoints:     100,
		ScheduledDate: time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return c
}

func TestTournamentRepository_SequentialIDsAndRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewTournamentRepository()

	first := newTournament(t, "First", tournament.TypeDuel)
	second := newTournament(t, "Second", tournament.TypeKnowledge)

	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	assert.Equal(t, int64(1), first.ID().Int64())
	assert.Equal(t, int64(2), second.ID().Int64())

	found, err := repo.FindByID(ctx, second.ID())
	require.NoError(t, err)
	assert.Equal(t, second.ID(), found.ID())
	assert.Equal(t, second.Attributes(), found.Attributes())
	assert.Equal(t, second.Status(), found.Status())
	assert.Equal(t, second.Participants(), found.Participants())
	assert.Equal(t, second.Results(), found.Results())
}

func TestTournamentRepository_NotFound(t *testing.T) {
	repo := NewTournamentRepository()

	_, err := repo.FindByID(context.Background(), shared.MustID(99))
	assert.ErrorIs(t, err, shared.ErrTournamentNotFound)

	_, err = repo.FindByID(context.Background(), shared.Unassigned)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestTournamentRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewTournamentRepository()
	tr := newTournament(t, "Cup", tournament.TypeDuel)
	require.NoError(t, repo.Save(ctx, tr))

	loaded, err := repo.FindByID(ctx, tr.ID())
	require.NoError(t, err)
	_, err = loaded.Register(101)
	require.NoError(t, err)

	again, err := repo.FindByID(ctx, tr.ID())
	require.NoError(t, err)
	assert.Empty(t, again.Participants())

	require.NoError(t, repo.Save(ctx, loaded))
	again, err = repo.FindByID(ctx, tr.ID())
	require.NoError(t, err)
	assert.Equal(t, []shared.ParticipantID{101}, again.Participants())
}

func TestTournamentRepository_Filters(t *testing.T) {
	ctx := context.Background()
	repo := NewTournamentRepository()

	a := newTournament(t, "A", tournament.TypeDuel)
	b := newTournament(t, "B", tournament.TypeQuidditch)
	c := newTournament(t, "C", tournament.TypeDuel)
	require.NoError(t, b.Start())
	for _, tr := range []*tournament.Tournament{a, b, c} {
		require.NoError(t, repo.Save(ctx, tr))
	}

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{all[0].Name(), all[1].Name(), all[2].Name()})

	duels, err := repo.FindByType(ctx, tournament.TypeDuel)
	require.NoError(t, err)
	require.Len(t, duels, 2)
	assert.Equal(t, "A", duels[0].Name())
	assert.Equal(t, "C", duels[1].Name())

	active, err := repo.FindByStatus(ctx, tournament.StatusActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "B", active[0].Name())

	finished, err := repo.FindByStatus(ctx, tournament.StatusFinished)
	require.NoError(t, err)
	assert.Empty(t, finished)
}

func TestTournamentRepository_ConcurrentSavesGetUniqueIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewTournamentRepository()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr, err := tournament.New(tournament.Attributes{Name: "T", Type: tournament.TypeDuel})
			if err == nil {
				_ = repo.Save(ctx, tr)
			}
		}()
	}
	wg.Wait()

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, n)

	seen := make(map[int64]bool, n)
	for i, tr := range all {
		id := tr.ID().Int64()
		assert.False(t, seen[id])
		seen[id] = true
		if i > 0 {
			assert.Greater(t, id, all[i-1].ID().Int64())
		}
	}
}

func TestChallengeRepository_FindByTournament(t *testing.T) {
	ctx := context.Background()
	repo := NewChallengeRepository()

	c1 := newChallenge(t, 1, challenge.TypeIndividual)
	c2 := newChallenge(t, 2, challenge.TypeTeam)
	c3 := newChallenge(t, 1, challenge.TypeHouse)
	for _, c := range []*challenge.Challenge{c1, c2, c3} {
		require.NoError(t, repo.Save(ctx, c))
	}

	assert.Equal(t, int64(3), c3.ID().Int64())

	got, err := repo.FindByTournament(ctx, shared.MustID(1))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, c1.ID(), got[0].ID())
	assert.Equal(t, c3.ID(), got[1].ID())

	none, err := repo.FindByTournament(ctx, shared.MustID(9))
	require.NoError(t, err)
	assert.Empty(t, none)

	teams, err := repo.FindByType(ctx, challenge.TypeTeam)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, c2.ID(), teams[0].ID())
}

func TestChallengeRepository_RoundTripAndOverwrite(t *testing.T) {
	ctx := context.Background()
	repo := NewChallengeRepository()

	c := newChallenge(t, 1, challenge.TypeIndividual)
	require.NoError(t, repo.Save(ctx, c))

	found, err := repo.FindByID(ctx, c.ID())
	require.NoError(t, err)
	assert.Equal(t, c.Attributes(), found.Attributes())
	assert.Equal(t, c.TournamentID(), found.TournamentID())

	found.SetScore(101, 85)
	require.NoError(t, repo.Save(ctx, found))

	again, err := repo.FindByID(ctx, c.ID())
	require.NoError(t, err)
	score, ok := again.Score(101)
	assert.True(t, ok)
	assert.Equal(t, shared.Score(85), score)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = repo.FindByID(ctx, shared.MustID(2))
	assert.ErrorIs(t, err, shared.ErrChallengeNotFound)
}

func TestRepository_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTournamentRepository().FindAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	err = NewChallengeRepository().Save(ctx, newChallenge(t, 1, challenge.TypeIndividual))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLeaderboardCache(t *testing.T) {
	ctx := context.Background()
	cache := NewLeaderboardCache()
	now := time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	id := shared.MustID(1)
	_, err := cache.Get(ctx, id)
	assert.ErrorIs(t, err, leaderboard.ErrCacheMiss)

	snap := leaderboard.NewSnapshot(id, map[shared.ParticipantID]shared.Score{101: 10})
	require.NoError(t, cache.Set(ctx, snap, time.Minute))

	got, err := cache.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, snap.Entries, got.Entries)

	now = now.Add(2 * time.Minute)
	_, err = cache.Get(ctx, id)
	assert.ErrorIs(t, err, leaderboard.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, snap, time.Minute))
	require.NoError(t, cache.Invalidate(ctx, id))
	_, err = cache.Get(ctx, id)
	assert.ErrorIs(t, err, leaderboard.ErrCacheMiss)
}
