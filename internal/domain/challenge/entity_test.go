package challenge

import (
	"testing"
	"time"

	"github.com/alem-hub/tournament-hub/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attrs() Attributes {
	return Attributes{
		Name:          "Dragon task",
		Description:   "Retrieve the golden egg",
		Type:          TypeIndividual,
		MaxPoints:     100,
		ScheduledDate: time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestNew(t *testing.T) {
	c, err := New(shared.MustID(1), attrs())
	require.NoError(t, err)

	assert.False(t, c.ID().IsAssigned())
	assert.Equal(t, int64(1), c.TournamentID().Int64())
	assert.Equal(t, attrs(), c.Attributes())
	assert.Empty(t, c.Participants())
	assert.Empty(t, c.Scores())
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name         string
		tournamentID shared.ID
		mutate       func(a *Attributes)
		wantErr      error
	}{
		{"no tournament", shared.Unassigned, func(*Attributes) {}, shared.ErrMissingTournamentLink},
		{"empty name", shared.MustID(1), func(a *Attributes) { a.Name = "" }, shared.ErrInvalidChallengeName},
		{"unknown type", shared.MustID(1), func(a *Attributes) { a.Type = "relay" }, shared.ErrInvalidChallengeType},
		{"zero max points", shared.MustID(1), func(a *Attributes) { a.MaxPoints = 0 }, shared.ErrInvalidMaxPoints},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := attrs()
			tt.mutate(&a)

			c, err := New(tt.tournamentID, a)
			assert.Nil(t, c)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestChallenge_SetScoreOverwrites(t *testing.T) {
	c, err := New(shared.MustID(1), attrs())
	require.NoError(t, err)

	prev := c.SetScore(101, 85)
	assert.Nil(t, prev)

	prev = c.SetScore(101, 90)
	require.NotNil(t, prev)
	assert.Equal(t, shared.Score(85), *prev)

	score, ok := c.Score(101)
	assert.True(t, ok)
	assert.Equal(t, shared.Score(90), score)
	assert.Equal(t, []shared.ParticipantID{101}, c.Participants())
}

func TestChallenge_AddParticipantKeepsDuplicates(t *testing.T) {
	c, err := New(shared.MustID(1), attrs())
	require.NoError(t, err)

	c.AddParticipant(101)
	c.AddParticipant(101)

	assert.Equal(t, []shared.ParticipantID{101, 101}, c.Participants())
}

func TestChallenge_ExceedsMax(t *testing.T) {
	c, err := New(shared.MustID(1), attrs())
	require.NoError(t, err)

	assert.False(t, c.ExceedsMax(100))
	assert.True(t, c.ExceedsMax(101))
}

func TestChallenge_CloneIsDeep(t *testing.T) {
	c, err := New(shared.MustID(1), attrs())
	require.NoError(t, err)
	c.SetScore(101, 10)

	cp := c.Clone()
	cp.SetScore(101, 20)
	cp.SetScore(102, 30)

	score, _ := c.Score(101)
	assert.Equal(t, shared.Score(10), score)
	assert.Len(t, c.Scores(), 1)
	assert.Len(t, c.Participants(), 1)
}
