package shared

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	var zero ID
	assert.Equal(t, Unassigned, zero)
	assert.False(t, zero.IsAssigned())
	assert.Equal(t, "unassigned", zero.String())

	id, err := NewID(42)
	require.NoError(t, err)
	v, ok := id.Value()
	assert.True(t, ok)
	assert.Equal(t, int64(42), v)
	assert.Equal(t, "42", id.String())

	_, err = NewID(0)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestParticipantID(t *testing.T) {
	assert.Equal(t, "101", ParticipantID(101).String())
	assert.Equal(t, "-7", ParticipantID(-7).String())
	assert.Equal(t, int64(0), ParticipantID(0).Int64())
}

func TestDateRange(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	r := DateRange{Start: start, End: start.AddDate(0, 0, 2)}

	assert.True(t, r.IsValid())
	assert.Equal(t, 3, r.Days())
	assert.True(t, r.Contains(start.AddDate(0, 0, 1)))
	assert.False(t, r.Contains(start.AddDate(0, 0, 3)))

	reversed := DateRange{Start: r.End, End: r.Start}
	assert.False(t, reversed.IsValid())
	assert.Equal(t, 0, reversed.Days())
}

func TestDomainError_Matching(t *testing.T) {
	assert.True(t, IsNotFound(ErrTournamentNotFound))
	assert.True(t, IsPrecondition(ErrTournamentNotPlanned))
	assert.True(t, IsPrecondition(ErrTournamentFinished))
	assert.False(t, IsPrecondition(ErrChallengeNotFound))

	cause := errors.New("connection reset")
	wrapped := WrapError("tournament", "Save", ErrServiceUnavailable, "store failed", cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, IsRetryable(wrapped))
	assert.Equal(t, "tournament.Save: store failed: connection reset", wrapped.Error())
}
