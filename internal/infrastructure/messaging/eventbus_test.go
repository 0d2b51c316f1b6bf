package messaging

import (
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alem-hub/tournament-hub/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false})
}

func TestInMemoryEventBus_DeliversByType(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var started, all int
	require.NoError(t, bus.Subscribe(shared.EventTournamentStarted, func(shared.Event) error {
		started++
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		all++
		return nil
	}))

	id := shared.MustID(1)
	require.NoError(t, bus.Publish(shared.NewTournamentStatusChangedEvent(shared.EventTournamentStarted, id, "planned", "active")))
	require.NoError(t, bus.Publish(shared.NewTournamentCreatedEvent(id, "Cup", "duel")))

	assert.Equal(t, 1, started)
	assert.Equal(t, 2, all)
	assert.Equal(t, int64(1), bus.Metrics().Published(shared.EventTournamentStarted))
}

func TestInMemoryEventBus_HandlerFailuresAreContained(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var after int
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("boom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return errors.New("nope") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		after++
		return nil
	}))

	err := bus.Publish(shared.NewTournamentCreatedEvent(shared.MustID(1), "Cup", "duel"))
	require.NoError(t, err)
	assert.Equal(t, 1, after)
	assert.Equal(t, int64(2), bus.Metrics().Failures())
}

func TestInMemoryEventBus_Closed(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewTournamentCreatedEvent(shared.MustID(1), "Cup", "duel"))
	assert.ErrorIs(t, err, ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)
	assert.ErrorIs(t, syncBus().Subscribe(shared.EventTournamentCreated, nil), ErrNilHandler)
}

func TestInMemoryEventBus_AsyncCloseWaits(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2})

	var handled atomic.Int32
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		time.Sleep(5 * time.Millisecond)
		handled.Add(1)
		return nil
	}))

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(shared.NewTournamentCreatedEvent(shared.MustID(1), "Cup", "duel")))
	}
	// Give every handler time to take a worker slot before closing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, bus.Close())
	assert.Equal(t, int32(3), handled.Load())
}

func TestEnvelopeRoundTrip(t *testing.T) {
	prev := shared.Score(80)
	event := shared.NewResultRecordedEvent(shared.MustID(4), shared.MustID(1), 101, 92, &prev, 177)

	env, err := NewEnvelope(event)
	require.NoError(t, err)
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, shared.EventResultRecorded, env.Type)
	assert.Equal(t, "4", env.AggregateID)

	decoded, err := EventFromEnvelope(env)
	require.NoError(t, err)
	assert.Equal(t, shared.EventResultRecorded, decoded.EventType())
	assert.Equal(t, "4", decoded.AggregateID())
	assert.True(t, event.OccurredAt().Equal(decoded.OccurredAt()))

	payload := decoded.Payload()
	// JSON numbers decode as float64.
	assert.Equal(t, float64(1), payload["tournament_id"])
	assert.Equal(t, float64(101), payload["participant_id"])
	assert.Equal(t, float64(92), payload["score"])
	assert.Equal(t, float64(80), payload["previous_score"])
	assert.Equal(t, float64(177), payload["tournament_total"])
}

func TestEnvelope_CarriesCorrelationID(t *testing.T) {
	event := shared.NewTournamentCreatedEvent(shared.MustID(1), "Cup", "duel")
	event.BaseEvent = event.BaseEvent.WithCorrelationID("req-42")

	env, err := NewEnvelope(event)
	require.NoError(t, err)
	assert.Equal(t, "req-42", env.CorrelationID)
}

func TestRedisEventBus_HandleMessage(t *testing.T) {
	bus := NewRedisEventBus(nil, RedisEventBusConfig{Local: InMemoryEventBusConfig{AsyncMode: false}})
	defer bus.Close()

	var received []shared.Event
	require.NoError(t, bus.Subscribe(shared.EventResultRecorded, func(e shared.Event) error {
		received = append(received, e)
		return nil
	}))

	env, err := NewEnvelope(shared.NewResultRecordedEvent(shared.MustID(2), shared.MustID(1), 101, 85, nil, 85))
	require.NoError(t, err)

	remote, err := json.Marshal(redisMessage{InstanceID: "other", Envelope: env})
	require.NoError(t, err)
	require.NoError(t, bus.handleMessage(string(remote)))

	own, err := json.Marshal(redisMessage{InstanceID: bus.instanceID, Envelope: env})
	require.NoError(t, err)
	require.NoError(t, bus.handleMessage(string(own)))

	require.Len(t, received, 1)
	assert.Equal(t, "2", received[0].AggregateID())

	assert.Error(t, bus.handleMessage("not json"))
}
