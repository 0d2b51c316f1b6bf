package leaderboard

import (
	"testing"

	"github.com/alem-hub/tournament-hub/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_OrderAndSharedRanks(t *testing.T) {
	entries := Build(map[shared.ParticipantID]shared.Score{
		102: 171,
		103: 173,
		101: 173,
		104: 10,
	})

	assert.Equal(t, []Entry{
		{Rank: 1, ParticipantID: 101, Score: 173},
		{Rank: 1, ParticipantID: 103, Score: 173},
		{Rank: 3, ParticipantID: 102, Score: 171},
		{Rank: 4, ParticipantID: 104, Score: 10},
	}, entries)
}

func TestBuild_Empty(t *testing.T) {
	entries := Build(nil)

	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestBuild_IsDeterministic(t *testing.T) {
	results := map[shared.ParticipantID]shared.Score{5: 1, 3: 1, 9: 1, 1: 1, 7: 1}

	first := Build(results)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Build(results))
	}
	assert.Equal(t, shared.ParticipantID(1), first[0].ParticipantID)
}

func TestTopAndFind(t *testing.T) {
	entries := Build(map[shared.ParticipantID]shared.Score{1: 30, 2: 20, 3: 10})

	assert.Len(t, Top(entries, 2), 2)
	assert.Len(t, Top(entries, 10), 3)
	assert.Empty(t, Top(entries, 0))

	e, ok := Find(entries, 2)
	require.True(t, ok)
	assert.Equal(t, Rank(2), e.Rank)

	_, ok = Find(entries, 42)
	assert.False(t, ok)
}

func TestDiff(t *testing.T) {
	id := shared.MustID(1)
	old := NewSnapshot(id, map[shared.ParticipantID]shared.Score{1: 30, 2: 20})
	current := NewSnapshot(id, map[shared.ParticipantID]shared.Score{1: 30, 2: 40, 3: 5})

	moves := Diff(old, current)
	require.Len(t, moves, 3)

	assert.Equal(t, Movement{ParticipantID: 2, OldRank: 2, NewRank: 1, Change: 1}, moves[0])
	assert.Equal(t, RankDirectionUp, moves[0].Direction())

	assert.Equal(t, shared.ParticipantID(1), moves[1].ParticipantID)
	assert.Equal(t, RankDirectionDown, moves[1].Direction())

	assert.Equal(t, shared.ParticipantID(3), moves[2].ParticipantID)
	assert.Equal(t, RankDirectionNew, moves[2].Direction())
}

func TestDiff_FirstSnapshot(t *testing.T) {
	current := NewSnapshot(shared.MustID(1), map[shared.ParticipantID]shared.Score{1: 30})

	moves := Diff(nil, current)
	require.Len(t, moves, 1)
	assert.Equal(t, RankDirectionNew, moves[0].Direction())
}

func TestRankChange_String(t *testing.T) {
	assert.Equal(t, "+2", RankChange(2).String())
	assert.Equal(t, "-1", RankChange(-1).String())
	assert.Equal(t, "±0", RankChange(0).String())
}
