package eventhandler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alem-hub/tournament-hub/internal/domain/leaderboard"
	"github.com/alem-hub/tournament-hub/internal/domain/shared"
	"github.com/alem-hub/tournament-hub/internal/infrastructure/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	mu    sync.Mutex
	calls []shared.ID
	err   error
}

func (f *fakeRefresher) RefreshLeaderboard(_ context.Context, id shared.ID) ([]leaderboard.Movement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	return nil, f.err
}

func TestTournamentIDOf(t *testing.T) {
	score := shared.Score(85)
	recorded := shared.NewResultRecordedEvent(shared.MustID(9), shared.MustID(3), 101, score, nil, score)

	id, err := TournamentIDOf(recorded)
	require.NoError(t, err)
	assert.Equal(t, shared.MustID(3), id)

	// Round trip through the wire envelope, as events from Redis arrive.
	env, err := messaging.NewEnvelope(recorded)
	require.NoError(t, err)
	decoded, err := messaging.EventFromEnvelope(env)
	require.NoError(t, err)

	id, err = TournamentIDOf(decoded)
	require.NoError(t, err)
	assert.Equal(t, shared.MustID(3), id)

	finished := shared.NewTournamentStatusChangedEvent(shared.EventTournamentFinished, shared.MustID(5), "active", "finished")
	id, err = TournamentIDOf(finished)
	require.NoError(t, err)
	assert.Equal(t, shared.MustID(5), id)

	_, err = TournamentIDOf(shared.NewTournamentCreatedEvent(shared.Unassigned, "x", "duel"))
	assert.Error(t, err)
}

func TestRefreshLeaderboardHandler_Subscriptions(t *testing.T) {
	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{AsyncMode: false})
	defer bus.Close()

	refresher := &fakeRefresher{}
	h := NewRefreshLeaderboardHandler(refresher, nil, RefreshLeaderboardConfig{})
	require.NoError(t, h.Register(bus))

	score := shared.Score(10)
	require.NoError(t, bus.Publish(shared.NewResultRecordedEvent(shared.MustID(1), shared.MustID(2), 101, score, nil, score)))
	require.NoError(t, bus.Publish(shared.NewTournamentStatusChangedEvent(shared.EventTournamentFinished, shared.MustID(2), "active", "finished")))
	require.NoError(t, bus.Publish(shared.NewTournamentCreatedEvent(shared.MustID(4), "ignored", "duel")))

	assert.Equal(t, []shared.ID{shared.MustID(2), shared.MustID(2)}, refresher.calls)
}

func TestRefreshLeaderboardHandler_Errors(t *testing.T) {
	finished := shared.NewTournamentStatusChangedEvent(shared.EventTournamentFinished, shared.MustID(2), "active", "finished")

	missing := &fakeRefresher{err: shared.ErrTournamentNotFound}
	assert.NoError(t, NewRefreshLeaderboardHandler(missing, nil, RefreshLeaderboardConfig{}).Handle(finished))

	broken := &fakeRefresher{err: errors.New("redis down")}
	assert.Error(t, NewRefreshLeaderboardHandler(broken, nil, RefreshLeaderboardConfig{}).Handle(finished))
}
