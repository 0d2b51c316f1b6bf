package leaderboard

import (
	"time"

	"github.com/alem-hub/tournament-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot - лидерборд турнира на момент построения.
// Хранится в кеше и сравнивается с предыдущим при пересборке.
type Snapshot struct {
	TournamentID shared.ID
	Entries      []Entry
	GeneratedAt  time.Time
}

// NewSnapshot строит снапшот из суммарных очков турнира.
func NewSnapshot(tournamentID shared.ID, results map[shared.ParticipantID]shared.Score) *Snapshot {
	return &Snapshot{
		TournamentID: tournamentID,
		Entries:      Build(results),
		GeneratedAt:  time.Now().UTC(),
	}
}

// IsEmpty проверяет, пуст ли снапшот.
func (s *Snapshot) IsEmpty() bool {
	return s == nil || len(s.Entries) == 0
}

// RankOf возвращает ранг участника (0, если его нет в снапшоте).
func (s *Snapshot) RankOf(p shared.ParticipantID) Rank {
	if s == nil {
		return 0
	}
	if e, ok := Find(s.Entries, p); ok {
		return e.Rank
	}
	return 0
}

// ══════════════════════════════════════════════════════════════════════════════
// DIFF
// ══════════════════════════════════════════════════════════════════════════════

// Movement - изменение позиции одного участника между снапшотами.
type Movement struct {
	ParticipantID shared.ParticipantID
	OldRank       Rank
	NewRank       Rank
	Change        RankChange
}

// Direction возвращает направление движения. Участник без старого ранга - новый.
func (m Movement) Direction() RankDirection {
	if m.OldRank == 0 {
		return RankDirectionNew
	}
	return m.Change.Direction()
}

// Diff сравнивает два снапшота и возвращает движения участников,
// чья позиция изменилась, в порядке нового лидерборда.
// old может быть nil (первая сборка): тогда все участники новые.
func Diff(old, current *Snapshot) []Movement {
	if current == nil {
		return nil
	}

	movements := make([]Movement, 0)
	for _, e := range current.Entries {
		oldRank := old.RankOf(e.ParticipantID)
		if oldRank == e.Rank {
			continue
		}

		m := Movement{
			ParticipantID: e.ParticipantID,
			OldRank:       oldRank,
			NewRank:       e.Rank,
		}
		if oldRank != 0 {
			// Был 3, стал 1 = +2
			m.Change = RankChange(int(oldRank) - int(e.Rank))
		}
		movements = append(movements, m)
	}
	return movements
}
