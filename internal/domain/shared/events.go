// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types.
const (
	// Tournament events
	EventTournamentCreated     EventType = "tournament.created"
	EventParticipantRegistered EventType = "tournament.participant_registered"
	EventTournamentStarted     EventType = "tournament.started"
	EventTournamentFinished    EventType = "tournament.finished"

	// Challenge events
	EventChallengeCreated EventType = "challenge.created"
	EventResultRecorded   EventType = "challenge.result_recorded"

	// Leaderboard events
	EventLeaderboardUpdated EventType = "leaderboard.updated"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID ID) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID.String(),
		Version:     1,
	}
}

// Correlation returns the correlation ID, empty if none was set.
func (e BaseEvent) Correlation() string {
	return e.CorrelationID
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Tournament Events
// ═══════════════════════════════════════════════════════════════════════════

// TournamentCreatedEvent is emitted when a tournament is created.
type TournamentCreatedEvent struct {
	BaseEvent
	Name string `json:"name"`
	Type string `json:"tournament_type"`
}

// Payload implements Event interface.
func (e TournamentCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"name":            e.Name,
		"tournament_type": e.Type,
	}
}

// NewTournamentCreatedEvent creates a new TournamentCreatedEvent.
func NewTournamentCreatedEvent(tournamentID ID, name, tournamentType string) TournamentCreatedEvent {
	return TournamentCreatedEvent{
		BaseEvent: NewBaseEvent(EventTournamentCreated, tournamentID),
		Name:      name,
		Type:      tournamentType,
	}
}

// ParticipantRegisteredEvent is emitted when a participant joins a roster.
type ParticipantRegisteredEvent struct {
	BaseEvent
	ParticipantID ParticipantID `json:"participant_id"`
	RosterSize    int           `json:"roster_size"`
}

// Payload implements Event interface.
func (e ParticipantRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"participant_id": e.ParticipantID.Int64(),
		"roster_size":    e.RosterSize,
	}
}

// NewParticipantRegisteredEvent creates a new ParticipantRegisteredEvent.
func NewParticipantRegisteredEvent(tournamentID ID, participantID ParticipantID, rosterSize int) ParticipantRegisteredEvent {
	return ParticipantRegisteredEvent{
		BaseEvent:     NewBaseEvent(EventParticipantRegistered, tournamentID),
		ParticipantID: participantID,
		RosterSize:    rosterSize,
	}
}

// TournamentStatusChangedEvent is emitted on start and finish.
type TournamentStatusChangedEvent struct {
	BaseEvent
	From string `json:"from"`
	To   string `json:"to"`
}

// Payload implements Event interface.
func (e TournamentStatusChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"from": e.From,
		"to":   e.To,
	}
}

// NewTournamentStatusChangedEvent creates the started/finished event matching eventType.
func NewTournamentStatusChangedEvent(eventType EventType, tournamentID ID, from, to string) TournamentStatusChangedEvent {
	return TournamentStatusChangedEvent{
		BaseEvent: NewBaseEvent(eventType, tournamentID),
		From:      from,
		To:        to,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Challenge Events
// ═══════════════════════════════════════════════════════════════════════════

// ChallengeCreatedEvent is emitted when a challenge is added to a tournament.
type ChallengeCreatedEvent struct {
	BaseEvent
	TournamentID ID     `json:"-"`
	Name         string `json:"name"`
	MaxPoints    int    `json:"max_points"`
}

// Payload implements Event interface.
func (e ChallengeCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"tournament_id": e.TournamentID.Int64(),
		"name":          e.Name,
		"max_points":    e.MaxPoints,
	}
}

// NewChallengeCreatedEvent creates a new ChallengeCreatedEvent.
func NewChallengeCreatedEvent(challengeID, tournamentID ID, name string, maxPoints int) ChallengeCreatedEvent {
	return ChallengeCreatedEvent{
		BaseEvent:    NewBaseEvent(EventChallengeCreated, challengeID),
		TournamentID: tournamentID,
		Name:         name,
		MaxPoints:    maxPoints,
	}
}

// ResultRecordedEvent is emitted after a challenge score is recorded.
// TournamentTotal is zero when the parent tournament no longer exists.
type ResultRecordedEvent struct {
	BaseEvent
	TournamentID    ID            `json:"-"`
	ParticipantID   ParticipantID `json:"participant_id"`
	Score           Score         `json:"score"`
	PreviousScore   *Score        `json:"previous_score,omitempty"`
	TournamentTotal Score         `json:"tournament_total"`
}

// Payload implements Event interface.
func (e ResultRecordedEvent) Payload() map[string]interface{} {
	payload := map[string]interface{}{
		"tournament_id":    e.TournamentID.Int64(),
		"participant_id":   e.ParticipantID.Int64(),
		"score":            e.Score.Int(),
		"tournament_total": e.TournamentTotal.Int(),
	}
	if e.PreviousScore != nil {
		payload["previous_score"] = e.PreviousScore.Int()
	}
	return payload
}

// IsCorrection returns true if the participant already had a score for the challenge.
func (e ResultRecordedEvent) IsCorrection() bool {
	return e.PreviousScore != nil
}

// NewResultRecordedEvent creates a new ResultRecordedEvent.
func NewResultRecordedEvent(challengeID, tournamentID ID, participantID ParticipantID, score Score, previous *Score, total Score) ResultRecordedEvent {
	return ResultRecordedEvent{
		BaseEvent:       NewBaseEvent(EventResultRecorded, challengeID),
		TournamentID:    tournamentID,
		ParticipantID:   participantID,
		Score:           score,
		PreviousScore:   previous,
		TournamentTotal: total,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Leaderboard Events
// ═══════════════════════════════════════════════════════════════════════════

// LeaderboardUpdatedEvent is emitted when a tournament leaderboard is rebuilt.
type LeaderboardUpdatedEvent struct {
	BaseEvent
	Entries int `json:"entries"`
}

// Payload implements Event interface.
func (e LeaderboardUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"entries": e.Entries,
	}
}

// NewLeaderboardUpdatedEvent creates a new LeaderboardUpdatedEvent.
func NewLeaderboardUpdatedEvent(tournamentID ID, entries int) LeaderboardUpdatedEvent {
	return LeaderboardUpdatedEvent{
		BaseEvent: NewBaseEvent(EventLeaderboardUpdated, tournamentID),
		Entries:   entries,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
