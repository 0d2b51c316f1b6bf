// Package challenge contains the domain model of a single scored event
// inside a tournament.
package challenge

import (
	"strings"
	"time"

	"github.com/alem-hub/tournament-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// Enums
// ═══════════════════════════════════════════════════════════════════════════

// Type is the format of a challenge.
type Type string

const (
	// TypeIndividual is scored per student.
	TypeIndividual Type = "individual"
	// TypeTeam is scored per team of students.
	TypeTeam Type = "team"
	// TypeHouse is scored per school house.
	TypeHouse Type = "house"
)

// IsValid checks if the type is known.
func (t Type) IsValid() bool {
	switch t {
	case TypeIndividual, TypeTeam, TypeHouse:
		return true
	default:
		return false
	}
}

// String returns the type as stored and shown.
func (t Type) String() string {
	return string(t)
}

// ═══════════════════════════════════════════════════════════════════════════
// Attributes
// ═══════════════════════════════════════════════════════════════════════════

// Attributes are the caller-supplied fields of a challenge.
type Attributes struct {
	Name          string
	Description   string
	Type          Type
	MaxPoints     int
	ScheduledDate time.Time
}

// Validate checks the attributes before a challenge is created.
func (a Attributes) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return shared.ErrInvalidChallengeName
	}
	if !a.Type.IsValid() {
		return shared.ErrInvalidChallengeType
	}
	if a.MaxPoints <= 0 {
		return shared.ErrInvalidMaxPoints
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Challenge
// ═══════════════════════════════════════════════════════════════════════════

// Challenge is one scored event belonging to exactly one tournament.
// Scores are raw points for this event; re-recording overwrites.
type Challenge struct {
	id           shared.ID
	tournamentID shared.ID
	attrs        Attributes
	participants []shared.ParticipantID
	scores       map[shared.ParticipantID]shared.Score
}

// New creates an unsaved challenge linked to tournamentID.
func New(tournamentID shared.ID, attrs Attributes) (*Challenge, error) {
	if !tournamentID.IsAssigned() {
		return nil, shared.ErrMissingTournamentLink
	}
	if err := attrs.Validate(); err != nil {
		return nil, err
	}
	attrs.Name = strings.TrimSpace(attrs.Name)

	return &Challenge{
		tournamentID: tournamentID,
		attrs:        attrs,
		scores:       make(map[shared.ParticipantID]shared.Score),
	}, nil
}

// Restore rebuilds a challenge loaded from storage without validation.
func Restore(
	id, tournamentID shared.ID,
	attrs Attributes,
	participants []shared.ParticipantID,
	scores map[shared.ParticipantID]shared.Score,
) *Challenge {
	c := &Challenge{
		id:           id,
		tournamentID: tournamentID,
		attrs:        attrs,
		scores:       make(map[shared.ParticipantID]shared.Score, len(scores)),
	}
	if len(participants) > 0 {
		c.participants = append([]shared.ParticipantID(nil), participants...)
	}
	for p, s := range scores {
		c.scores[p] = s
	}
	return c
}

// ID returns the identity, Unassigned until the first save.
func (c *Challenge) ID() shared.ID { return c.id }

// TournamentID returns the owning tournament. It never changes.
func (c *Challenge) TournamentID() shared.ID { return c.tournamentID }

// Attributes returns the descriptive fields.
func (c *Challenge) Attributes() Attributes { return c.attrs }

// Name returns the challenge name.
func (c *Challenge) Name() string { return c.attrs.Name }

// MaxPoints returns the informational score ceiling.
func (c *Challenge) MaxPoints() int { return c.attrs.MaxPoints }

// Participants returns the participant list in the order it was built.
func (c *Challenge) Participants() []shared.ParticipantID {
	out := make([]shared.ParticipantID, len(c.participants))
	copy(out, c.participants)
	return out
}

// Scores returns a copy of the per-participant scores.
func (c *Challenge) Scores() map[shared.ParticipantID]shared.Score {
	out := make(map[shared.ParticipantID]shared.Score, len(c.scores))
	for p, s := range c.scores {
		out[p] = s
	}
	return out
}

// Score returns the score recorded for p.
func (c *Challenge) Score(p shared.ParticipantID) (shared.Score, bool) {
	s, ok := c.scores[p]
	return s, ok
}

// AssignID sets the store-issued identity. It can only be set once.
func (c *Challenge) AssignID(id shared.ID) error {
	if c.id.IsAssigned() {
		return shared.ErrIDAlreadyAssigned
	}
	if !id.IsAssigned() {
		return shared.ErrInvalidEntityID
	}
	c.id = id
	return nil
}

// AddParticipant appends p to the participant list. Duplicates are kept.
func (c *Challenge) AddParticipant(p shared.ParticipantID) {
	c.participants = append(c.participants, p)
}

// SetScore records the score for p, overwriting any earlier value, and
// returns the previous score if there was one. A participant scoring for
// the first time is appended to the participant list.
func (c *Challenge) SetScore(p shared.ParticipantID, score shared.Score) (previous *shared.Score) {
	if old, ok := c.scores[p]; ok {
		previous = &old
	} else {
		c.AddParticipant(p)
	}
	c.scores[p] = score
	return previous
}

// ExceedsMax reports whether score is above the challenge's max points.
// Max points is informational and never enforced.
func (c *Challenge) ExceedsMax(score shared.Score) bool {
	return score.Int() > c.attrs.MaxPoints
}

// Clone returns a deep copy.
func (c *Challenge) Clone() *Challenge {
	return Restore(c.id, c.tournamentID, c.attrs, c.participants, c.scores)
}
