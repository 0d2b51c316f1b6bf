// Package leaderboard содержит доменную модель лидерборда турнира:
// ранжирование суммарных очков участников.
package leaderboard

import (
	"fmt"
	"sort"

	"github.com/alem-hub/tournament-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank представляет позицию участника в лидерборде.
// Rank начинается с 1 (первое место).
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// String возвращает строковое представление ранга.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// RankChange представляет изменение позиции в рейтинге.
// Положительное значение = подъём, отрицательное = падение.
type RankChange int

// Direction возвращает направление изменения.
func (rc RankChange) Direction() RankDirection {
	switch {
	case rc > 0:
		return RankDirectionUp
	case rc < 0:
		return RankDirectionDown
	default:
		return RankDirectionStable
	}
}

// String возвращает строковое представление изменения.
func (rc RankChange) String() string {
	switch {
	case rc > 0:
		return fmt.Sprintf("+%d", rc)
	case rc < 0:
		return fmt.Sprintf("%d", rc)
	default:
		return "±0"
	}
}

// RankDirection определяет направление изменения ранга.
type RankDirection string

const (
	RankDirectionUp     RankDirection = "up"
	RankDirectionDown   RankDirection = "down"
	RankDirectionStable RankDirection = "stable"
	RankDirectionNew    RankDirection = "new"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry - одна строка лидерборда.
type Entry struct {
	Rank          Rank                 `json:"rank"`
	ParticipantID shared.ParticipantID `json:"participant_id"`
	Score         shared.Score         `json:"score"`
}

// String возвращает строковое представление записи.
func (e Entry) String() string {
	return fmt.Sprintf("%s participant=%d score=%d", e.Rank, e.ParticipantID, e.Score)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// ══════════════════════════════════════════════════════════════════════════════

// Build строит лидерборд из суммарных очков турнира.
// Порядок: очки по убыванию, при равенстве - ID участника по возрастанию.
// Одинаковые очки дают одинаковый ранг ("shared rank"), следующий ранг
// пропускается: 1, 1, 3.
func Build(results map[shared.ParticipantID]shared.Score) []Entry {
	entries := make([]Entry, 0, len(results))
	for p, s := range results {
		entries = append(entries, Entry{ParticipantID: p, Score: s})
	}
	Sort(entries)
	return entries
}

// Sort упорядочивает записи и пересчитывает ранги на месте.
func Sort(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ParticipantID < entries[j].ParticipantID
	})

	for i := range entries {
		if i > 0 && entries[i].Score == entries[i-1].Score {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = Rank(i + 1)
	}
}

// Top возвращает первые n записей уже отсортированного лидерборда.
func Top(entries []Entry, n int) []Entry {
	if n <= 0 {
		return []Entry{}
	}
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]Entry, n)
	copy(out, entries[:n])
	return out
}

// Find возвращает запись участника.
func Find(entries []Entry, p shared.ParticipantID) (Entry, bool) {
	for _, e := range entries {
		if e.ParticipantID == p {
			return e, true
		}
	}
	return Entry{}, false
}
