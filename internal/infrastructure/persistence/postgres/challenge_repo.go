package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/alem-hub/tournament-hub/internal/domain/challenge"
	"github.com/alem-hub/tournament-hub/internal/domain/shared"
	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHALLENGE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ChallengeRepository implements challenge.Repository for PostgreSQL.
type ChallengeRepository struct {
	conn *Connection
}

// NewChallengeRepository creates a new ChallengeRepository.
func NewChallengeRepository(conn *Connection) *ChallengeRepository {
	return &ChallengeRepository{conn: conn}
}

var _ challenge.Repository = (*ChallengeRepository)(nil)

type challengeRow struct {
	ID            int64
	TournamentID  int64
	Name          string
	Description   string
	Type          string
	MaxPoints     int
	ScheduledDate *time.Time
}

const selectChallenges = `
	SELECT id, tournament_id, name, description, challenge_type, max_points, scheduled_date
	FROM challenges
`

// Save implements challenge.Repository.
func (r *ChallengeRepository) Save(ctx context.Context, c *challenge.Challenge) error {
	attrs := c.Attributes()
	var scheduled *time.Time
	if !attrs.ScheduledDate.IsZero() {
		scheduled = &attrs.ScheduledDate
	}

	id, assigned := c.ID().Value()

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if !assigned {
			err := tx.QueryRow(ctx, `
				INSERT INTO challenges (tournament_id, name, description, challenge_type, max_points, scheduled_date)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id
			`,
				c.TournamentID().Int64(), attrs.Name, attrs.Description, string(attrs.Type), attrs.MaxPoints, scheduled,
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("insert challenge: %w", err)
			}
		} else {
			_, err := tx.Exec(ctx, `
				INSERT INTO challenges (id, tournament_id, name, description, challenge_type, max_points, scheduled_date)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (id) DO UPDATE SET
					tournament_id = EXCLUDED.tournament_id,
					name = EXCLUDED.name,
					description = EXCLUDED.description,
					challenge_type = EXCLUDED.challenge_type,
					max_points = EXCLUDED.max_points,
					scheduled_date = EXCLUDED.scheduled_date,
					updated_at = NOW()
			`,
				id, c.TournamentID().Int64(), attrs.Name, attrs.Description, string(attrs.Type), attrs.MaxPoints, scheduled,
			)
			if err != nil {
				return fmt.Errorf("upsert challenge %d: %w", id, err)
			}
		}

		batch := &pgx.Batch{}
		batch.Queue(`DELETE FROM challenge_participants WHERE challenge_id = $1`, id)
		for i, p := range c.Participants() {
			batch.Queue(
				`INSERT INTO challenge_participants (challenge_id, position, participant_id) VALUES ($1, $2, $3)`,
				id, i, p.Int64(),
			)
		}
		batch.Queue(`DELETE FROM challenge_scores WHERE challenge_id = $1`, id)
		for p, s := range c.Scores() {
			batch.Queue(
				`INSERT INTO challenge_scores (challenge_id, participant_id, score) VALUES ($1, $2, $3)`,
				id, p.Int64(), s.Int(),
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("write scores of challenge %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if !assigned {
		return c.AssignID(shared.MustID(id))
	}
	return nil
}

// FindByID implements challenge.Repository.
func (r *ChallengeRepository) FindByID(ctx context.Context, id shared.ID) (*challenge.Challenge, error) {
	if !id.IsAssigned() {
		return nil, shared.ErrChallengeNotFound
	}

	found, err := r.find(ctx, "WHERE id = $1", id.Int64())
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, shared.ErrChallengeNotFound
	}
	return found[0], nil
}

// FindAll implements challenge.Repository.
func (r *ChallengeRepository) FindAll(ctx context.Context) ([]*challenge.Challenge, error) {
	return r.find(ctx, "")
}

// FindByTournament implements challenge.Repository.
func (r *ChallengeRepository) FindByTournament(ctx context.Context, tournamentID shared.ID) ([]*challenge.Challenge, error) {
	return r.find(ctx, "WHERE tournament_id = $1", tournamentID.Int64())
}

// FindByType implements challenge.Repository.
func (r *ChallengeRepository) FindByType(ctx context.Context, challengeType challenge.Type) ([]*challenge.Challenge, error) {
	return r.find(ctx, "WHERE challenge_type = $1", string(challengeType))
}

func (r *ChallengeRepository) find(ctx context.Context, where string, args ...interface{}) ([]*challenge.Challenge, error) {
	var out []*challenge.Challenge

	err := r.conn.WithTx(ctx, ReadOnlyTxOptions(), func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectChallenges+where+" ORDER BY id", args...)
		if err != nil {
			return fmt.Errorf("query challenges: %w", err)
		}
		records, err := pgx.CollectRows(rows, pgx.RowToStructByPos[challengeRow])
		if err != nil {
			return fmt.Errorf("scan challenges: %w", err)
		}

		out = make([]*challenge.Challenge, 0, len(records))
		if len(records) == 0 {
			return nil
		}

		ids := make([]int64, len(records))
		for i, rec := range records {
			ids[i] = rec.ID
		}

		participants, err := loadChallengeParticipants(ctx, tx, ids)
		if err != nil {
			return err
		}
		scores, err := loadChallengeScores(ctx, tx, ids)
		if err != nil {
			return err
		}

		for _, rec := range records {
			attrs := challenge.Attributes{
				Name:        rec.Name,
				Description: rec.Description,
				Type:        challenge.Type(rec.Type),
				MaxPoints:   rec.MaxPoints,
			}
			if rec.ScheduledDate != nil {
				attrs.ScheduledDate = *rec.ScheduledDate
			}
			out = append(out, challenge.Restore(
				shared.MustID(rec.ID),
				shared.MustID(rec.TournamentID),
				attrs,
				participants[rec.ID],
				scores[rec.ID],
			))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func loadChallengeParticipants(ctx context.Context, q Querier, ids []int64) (map[int64][]shared.ParticipantID, error) {
	rows, err := q.Query(ctx, `
		SELECT challenge_id, participant_id
		FROM challenge_participants
		WHERE challenge_id = ANY($1)
		ORDER BY challenge_id, position
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query challenge participants: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]shared.ParticipantID, len(ids))
	for rows.Next() {
		var challengeID, participantID int64
		if err := rows.Scan(&challengeID, &participantID); err != nil {
			return nil, fmt.Errorf("scan challenge participant: %w", err)
		}
		out[challengeID] = append(out[challengeID], shared.ParticipantID(participantID))
	}
	return out, rows.Err()
}

func loadChallengeScores(ctx context.Context, q Querier, ids []int64) (map[int64]map[shared.ParticipantID]shared.Score, error) {
	rows, err := q.Query(ctx, `
		SELECT challenge_id, participant_id, score
		FROM challenge_scores
		WHERE challenge_id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query challenge scores: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]map[shared.ParticipantID]shared.Score, len(ids))
	for rows.Next() {
		var challengeID, participantID int64
		var score int
		if err := rows.Scan(&challengeID, &participantID, &score); err != nil {
			return nil, fmt.Errorf("scan challenge score: %w", err)
		}
		if out[challengeID] == nil {
			out[challengeID] = make(map[shared.ParticipantID]shared.Score)
		}
		out[challengeID][shared.ParticipantID(participantID)] = shared.Score(score)
	}
	return out, rows.Err()
}
