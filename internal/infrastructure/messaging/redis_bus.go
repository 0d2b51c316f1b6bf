package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/alem-hub/tournament-hub/internal/domain/shared"
	"github.com/alem-hub/tournament-hub/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultEventsChannel is the Redis channel the bus uses when none is configured.
const DefaultEventsChannel = "tournament-hub:events"

// ══════════════════════════════════════════════════════════════════════════════
// REDIS EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// RedisEventBus delivers events to local handlers and fans them out to other
// processes over Redis Pub/Sub. Events received from Redis are dispatched
// to the local handlers only; messages this instance published are skipped.
type RedisEventBus struct {
	client     *redis.Client
	channel    string
	instanceID string
	local      *InMemoryEventBus
	log        *logger.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// redisMessage is the wire format on the channel.
type redisMessage struct {
	InstanceID string               `json:"instance_id"`
	Envelope   shared.EventEnvelope `json:"envelope"`
}

// RedisEventBusConfig contains configuration for RedisEventBus.
type RedisEventBusConfig struct {
	Channel string
	Local   InMemoryEventBusConfig
	Logger  *logger.Logger
}

// NewRedisEventBus creates a bus on top of an existing client.
// Call Listen to start receiving remote events.
func NewRedisEventBus(client *redis.Client, config RedisEventBusConfig) *RedisEventBus {
	if config.Channel == "" {
		config.Channel = DefaultEventsChannel
	}
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.Local.Logger == nil {
		config.Local.Logger = config.Logger
	}

	return &RedisEventBus{
		client:     client,
		channel:    config.Channel,
		instanceID: uuid.NewString(),
		local:      NewInMemoryEventBus(config.Local),
		log:        config.Logger.With(logger.Component("redis_event_bus")),
	}
}

var _ shared.EventBus = (*RedisEventBus)(nil)

// Subscribe implements shared.EventSubscriber.
func (b *RedisEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.local.Subscribe(eventType, handler)
}

// SubscribeAll implements shared.EventSubscriber.
func (b *RedisEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.local.SubscribeAll(handler)
}

// Publish dispatches locally, then publishes to Redis.
// A Redis failure is returned after local handlers have run.
func (b *RedisEventBus) Publish(event shared.Event) error {
	if err := b.local.Publish(event); err != nil {
		return err
	}

	env, err := NewEnvelope(event)
	if err != nil {
		return err
	}
	data, err := json.Marshal(redisMessage{InstanceID: b.instanceID, Envelope: env})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := b.client.Publish(context.Background(), b.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", event.EventType(), err)
	}
	return nil
}

// Listen subscribes to the channel and dispatches remote events until ctx
// is done or Close is called. It returns once the subscription is confirmed.
func (b *RedisEventBus) Listen(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}
	if b.pubsub != nil {
		return errors.New("already listening")
	}

	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	b.pubsub = pubsub
	b.cancel = cancel
	b.done = make(chan struct{})

	go b.loop(ctx, pubsub.Channel(), b.done)

	b.log.Info("listening for remote events", logger.String("channel", b.channel))
	return nil
}

func (b *RedisEventBus) loop(ctx context.Context, messages <-chan *redis.Message, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if err := b.handleMessage(msg.Payload); err != nil {
				b.log.Warn("dropping remote event", logger.Err(err))
			}
		}
	}
}

func (b *RedisEventBus) handleMessage(payload string) error {
	var msg redisMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if msg.InstanceID == b.instanceID {
		return nil
	}

	event, err := EventFromEnvelope(msg.Envelope)
	if err != nil {
		return err
	}
	return b.local.Publish(event)
}

// Close stops listening and closes the local bus.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	pubsub, cancel, done := b.pubsub, b.cancel, b.done
	b.mu.Unlock()

	var err error
	if pubsub != nil {
		cancel()
		err = pubsub.Close()
		<-done
	}
	return errors.Join(err, b.local.Close())
}

// Metrics returns the local bus metrics.
func (b *RedisEventBus) Metrics() *EventBusMetrics {
	return b.local.Metrics()
}
