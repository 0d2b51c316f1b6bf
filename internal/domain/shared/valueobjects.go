// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"strconv"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// Entity Identity
// ═══════════════════════════════════════════════════════════════════════════

// ID is the identity of a persisted entity. The zero value is Unassigned:
// the entity has not been saved yet. Stores assign an ID on first save.
type ID struct {
	value    int64
	assigned bool
}

// Unassigned is the identity of an entity that has never been saved.
var Unassigned = ID{}

// NewID creates an assigned identity.
func NewID(value int64) (ID, error) {
	if value <= 0 {
		return Unassigned, ErrInvalidEntityID
	}
	return ID{value: value, assigned: true}, nil
}

// MustID is NewID for values known to be valid (store counters, tests).
func MustID(value int64) ID {
	id, err := NewID(value)
	if err != nil {
		panic(err)
	}
	return id
}

// Value returns the numeric identity and whether it is assigned.
func (id ID) Value() (int64, bool) {
	return id.value, id.assigned
}

// Int64 returns the numeric identity, 0 when unassigned.
func (id ID) Int64() int64 {
	return id.value
}

// IsAssigned reports whether the entity has been persisted.
func (id ID) IsAssigned() bool {
	return id.assigned
}

// String returns the string representation.
func (id ID) String() string {
	if !id.assigned {
		return "unassigned"
	}
	return strconv.FormatInt(id.value, 10)
}

// ═══════════════════════════════════════════════════════════════════════════
// Participant
// ═══════════════════════════════════════════════════════════════════════════

// ParticipantID is an opaque reference to a student owned by the student
// directory. It is never resolved or validated here: any int64, zero and
// negative values included, is a participant.
type ParticipantID int64

// Int64 returns the underlying int64 value.
func (p ParticipantID) Int64() int64 {
	return int64(p)
}

// String returns the string representation.
func (p ParticipantID) String() string {
	return strconv.FormatInt(int64(p), 10)
}

// ═══════════════════════════════════════════════════════════════════════════
// Score
// ═══════════════════════════════════════════════════════════════════════════

// Score is a number of points. Challenge scores are raw points for one event,
// tournament scores are cumulative totals.
type Score int

// Int returns the underlying int value.
func (s Score) Int() int {
	return int(s)
}

// Add returns s + other.
func (s Score) Add(other Score) Score {
	return s + other
}

// ═══════════════════════════════════════════════════════════════════════════
// Date Range
// ═══════════════════════════════════════════════════════════════════════════

// DateRange is a closed calendar interval.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// IsValid reports whether End is not before Start.
func (r DateRange) IsValid() bool {
	return !r.End.Before(r.Start)
}

// Contains reports whether t falls within the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Days returns the number of calendar days covered by the range.
func (r DateRange) Days() int {
	if !r.IsValid() {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}
