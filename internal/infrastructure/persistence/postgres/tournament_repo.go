package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/alem-hub/tournament-hub/internal/domain/shared"
	"github.com/alem-hub/tournament-hub/internal/domain/tournament"
	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOURNAMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// TournamentRepository implements tournament.Repository for PostgreSQL.
type TournamentRepository struct {
	conn *Connection
}

// NewTournamentRepository creates a new TournamentRepository.
func NewTournamentRepository(conn *Connection) *TournamentRepository {
	return &TournamentRepository{conn: conn}
}

var _ tournament.Repository = (*TournamentRepository)(nil)

// tournamentRow mirrors the tournaments columns in select order.
type tournamentRow struct {
	ID          int64
	Name        string
	Description string
	Type        string
	Rules       []string
	StartDate   time.Time
	EndDate     time.Time
	Location    string
	Status      string
}

const selectTournaments = `
	SELECT id, name, description, tournament_type, rules, start_date, end_date, location, status
	FROM tournaments
`

// ─────────────────────────────────────────────────────────────────────────────
// Write
// ─────────────────────────────────────────────────────────────────────────────

// Save inserts a new tournament or replaces a stored one, roster and
// results included, in one transaction. New tournaments get their ID from
// the tournaments sequence.
func (r *TournamentRepository) Save(ctx context.Context, t *tournament.Tournament) error {
	attrs := t.Attributes()
	rules := attrs.Rules
	if rules == nil {
		rules = []string{}
	}

	id, assigned := t.ID().Value()

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if !assigned {
			err := tx.QueryRow(ctx, `
				INSERT INTO tournaments (
					name, slug, description, tournament_type, rules,
					start_date, end_date, location, status
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				RETURNING id
			`,
				attrs.Name, t.Slug(), attrs.Description, string(attrs.Type), rules,
				attrs.StartDate, attrs.EndDate, attrs.Location, string(t.Status()),
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("insert tournament: %w", err)
			}
		} else {
			_, err := tx.Exec(ctx, `
				INSERT INTO tournaments (
					id, name, slug, description, tournament_type, rules,
					start_date, end_date, location, status
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name,
					slug = EXCLUDED.slug,
					description = EXCLUDED.description,
					tournament_type = EXCLUDED.tournament_type,
					rules = EXCLUDED.rules,
					start_date = EXCLUDED.start_date,
					end_date = EXCLUDED.end_date,
					location = EXCLUDED.location,
					status = EXCLUDED.status,
					updated_at = NOW()
			`,
				id, attrs.Name, t.Slug(), attrs.Description, string(attrs.Type), rules,
				attrs.StartDate, attrs.EndDate, attrs.Location, string(t.Status()),
			)
			if err != nil {
				return fmt.Errorf("upsert tournament %d: %w", id, err)
			}
		}

		batch := &pgx.Batch{}
		batch.Queue(`DELETE FROM tournament_participants WHERE tournament_id = $1`, id)
		for i, p := range t.Participants() {
			batch.Queue(
				`INSERT INTO tournament_participants (tournament_id, participant_id, position) VALUES ($1, $2, $3)`,
				id, p.Int64(), i,
			)
		}
		batch.Queue(`DELETE FROM tournament_results WHERE tournament_id = $1`, id)
		for p, total := range t.Results() {
			batch.Queue(
				`INSERT INTO tournament_results (tournament_id, participant_id, total) VALUES ($1, $2, $3)`,
				id, p.Int64(), total.Int(),
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("write roster of tournament %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if !assigned {
		return t.AssignID(shared.MustID(id))
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Read
// ─────────────────────────────────────────────────────────────────────────────

// FindByID implements tournament.Repository.
func (r *TournamentRepository) FindByID(ctx context.Context, id shared.ID) (*tournament.Tournament, error) {
	if !id.IsAssigned() {
		return nil, shared.ErrTournamentNotFound
	}

	found, err := r.find(ctx, "WHERE id = $1", id.Int64())
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, shared.ErrTournamentNotFound
	}
	return found[0], nil
}

// FindAll implements tournament.Repository.
func (r *TournamentRepository) FindAll(ctx context.Context) ([]*tournament.Tournament, error) {
	return r.find(ctx, "")
}

// FindByStatus implements tournament.Repository.
func (r *TournamentRepository) FindByStatus(ctx context.Context, status tournament.Status) ([]*tournament.Tournament, error) {
	return r.find(ctx, "WHERE status = $1", string(status))
}

// FindByType implements tournament.Repository.
func (r *TournamentRepository) FindByType(ctx context.Context, tournamentType tournament.Type) ([]*tournament.Tournament, error) {
	return r.find(ctx, "WHERE tournament_type = $1", string(tournamentType))
}

// find loads matching tournaments with their rosters from one snapshot,
// ordered by ID (creation order).
func (r *TournamentRepository) find(ctx context.Context, where string, args ...interface{}) ([]*tournament.Tournament, error) {
	var out []*tournament.Tournament

	err := r.conn.WithTx(ctx, ReadOnlyTxOptions(), func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectTournaments+where+" ORDER BY id", args...)
		if err != nil {
			return fmt.Errorf("query tournaments: %w", err)
		}
		records, err := pgx.CollectRows(rows, pgx.RowToStructByPos[tournamentRow])
		if err != nil {
			return fmt.Errorf("scan tournaments: %w", err)
		}
		if len(records) == 0 {
			out = []*tournament.Tournament{}
			return nil
		}

		ids := make([]int64, len(records))
		for i, rec := range records {
			ids[i] = rec.ID
		}

		rosters, err := loadRosters(ctx, tx, ids)
		if err != nil {
			return err
		}
		results, err := loadResults(ctx, tx, ids)
		if err != nil {
			return err
		}

		out = make([]*tournament.Tournament, 0, len(records))
		for _, rec := range records {
			out = append(out, tournament.Restore(
				shared.MustID(rec.ID),
				tournament.Attributes{
					Name:        rec.Name,
					Description: rec.Description,
					Type:        tournament.Type(rec.Type),
					Rules:       rec.Rules,
					StartDate:   rec.StartDate,
					EndDate:     rec.EndDate,
					Location:    rec.Location,
				},
				tournament.Status(rec.Status),
				rosters[rec.ID],
				results[rec.ID],
			))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func loadRosters(ctx context.Context, q Querier, ids []int64) (map[int64][]shared.ParticipantID, error) {
	rows, err := q.Query(ctx, `
		SELECT tournament_id, participant_id
		FROM tournament_participants
		WHERE tournament_id = ANY($1)
		ORDER BY tournament_id, position
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query rosters: %w", err)
	}
	defer rows.Close()

	rosters := make(map[int64][]shared.ParticipantID, len(ids))
	for rows.Next() {
		var tournamentID, participantID int64
		if err := rows.Scan(&tournamentID, &participantID); err != nil {
			return nil, fmt.Errorf("scan roster: %w", err)
		}
		rosters[tournamentID] = append(rosters[tournamentID], shared.ParticipantID(participantID))
	}
	return rosters, rows.Err()
}

func loadResults(ctx context.Context, q Querier, ids []int64) (map[int64]map[shared.ParticipantID]shared.Score, error) {
	rows, err := q.Query(ctx, `
		SELECT tournament_id, participant_id, total
		FROM tournament_results
		WHERE tournament_id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	results := make(map[int64]map[shared.ParticipantID]shared.Score, len(ids))
	for rows.Next() {
		var tournamentID, participantID int64
		var total int
		if err := rows.Scan(&tournamentID, &participantID, &total); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if results[tournamentID] == nil {
			results[tournamentID] = make(map[shared.ParticipantID]shared.Score)
		}
		results[tournamentID][shared.ParticipantID(participantID)] = shared.Score(total)
	}
	return results, rows.Err()
}
