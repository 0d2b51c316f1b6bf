package controller

import (
	"context"
	"testing"

	"github.com/alem-hub/tournament-hub/internal/application/service"
	"github.com/alem-hub/tournament-hub/internal/infrastructure/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController() (*TournamentController, *memory.TournamentRepository, *memory.ChallengeRepository) {
	tournaments := memory.NewTournamentRepository()
	challenges := memory.NewChallengeRepository()
	svc := service.NewTournamentService(tournaments, challenges)
	return NewTournamentController(svc, nil), tournaments, challenges
}

func triwizardRequest() CreateTournamentRequest {
	return CreateTournamentRequest{
		Name:        "Torneio Tribruxo",
		Description: "Competição entre escolas de magia",
		Type:        "knowledge",
		Rules:       []string{"Três tarefas"},
		StartDate:   "2024-10-31",
		EndDate:     "2024-12-25",
		Location:    "Hogwarts",
	}
}

func TestCreateTournament_MalformedDates(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		modify func(*CreateTournamentRequest)
	}{
		{"bad start", func(r *CreateTournamentRequest) { r.StartDate = "31/31/2024" }},
		{"bad end", func(r *CreateTournamentRequest) { r.EndDate = "soon" }},
		{"empty start", func(r *CreateTournamentRequest) { r.StartDate = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, tournaments, _ := newController()
			req := triwizardRequest()
			tt.modify(&req)

			resp := ctrl.CreateTournament(ctx, req)
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Message, "failed to create tournament")
			assert.Zero(t, resp.ID)

			all, err := tournaments.FindAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestCreateTournament_AcceptsRFC3339(t *testing.T) {
	ctx := context.Background()
	ctrl, tournaments, _ := newController()

	req := triwizardRequest()
	req.StartDate = "2024-10-31T18:00:00Z"
	resp := ctrl.CreateTournament(ctx, req)
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, int64(1), resp.ID)

	all, err := tournaments.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 0, all[0].Attributes().StartDate.Hour())
}

func TestCreateChallenge_Requests(t *testing.T) {
	ctx := context.Background()
	ctrl, _, challenges := newController()
	require.True(t, ctrl.CreateTournament(ctx, triwizardRequest()).Success)

	resp := ctrl.CreateChallenge(ctx, CreateChallengeRequest{
		TournamentID: 1, Name: "Lago Negro", Type: "individual", MaxPoints: 100, Date: "2024-12-xx",
	})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "date")

	resp = ctrl.CreateChallenge(ctx, CreateChallengeRequest{
		TournamentID: 0, Name: "Lago Negro", Type: "individual", MaxPoints: 100,
	})
	assert.False(t, resp.Success)

	all, err := challenges.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	resp = ctrl.CreateChallenge(ctx, CreateChallengeRequest{
		TournamentID: 1, Name: "Lago Negro", Type: "individual", MaxPoints: 100,
	})
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, int64(1), resp.ID)
}

func TestController_EndToEnd(t *testing.T) {
	ctx := context.Background()
	ctrl, _, _ := newController()

	created := ctrl.CreateTournament(ctx, triwizardRequest())
	require.True(t, created.Success, created.Message)
	tid := created.ID

	for _, p := range []int64{101, 102, 103} {
		require.True(t, ctrl.RegisterParticipant(ctx, tid, p).Success)
	}
	require.True(t, ctrl.StartTournament(ctx, tid).Success)
	assert.False(t, ctrl.StartTournament(ctx, tid).Success)

	dragon := ctrl.CreateChallenge(ctx, CreateChallengeRequest{
		TournamentID: tid, Name: "Dragão Húngaro", Type: "individual", MaxPoints: 100, Date: "2024-11-15",
	})
	lake := ctrl.CreateChallenge(ctx, CreateChallengeRequest{
		TournamentID: tid, Name: "Lago Negro", Type: "individual", MaxPoints: 100, Date: "2024-12-01",
	})
	require.True(t, dragon.Success)
	require.True(t, lake.Success)

	scores := map[int64][2]int{101: {85, 88}, 102: {92, 79}, 103: {78, 95}}
	for p, s := range scores {
		require.True(t, ctrl.RecordResult(ctx, dragon.ID, p, s[0]).Success)
		require.True(t, ctrl.RecordResult(ctx, lake.ID, p, s[1]).Success)
	}

	board := ctrl.GetLeaderboard(ctx, tid)
	require.True(t, board.Success)
	assert.Equal(t, []LeaderboardRow{
		{Rank: 1, ParticipantID: 101, Score: 173},
		{Rank: 1, ParticipantID: 103, Score: 173},
		{Rank: 3, ParticipantID: 102, Score: 171},
	}, board.Data)

	outsider := ctrl.RecordResult(ctx, dragon.ID, 104, 99)
	assert.False(t, outsider.Success)
	assert.Contains(t, outsider.Message, "failed to record result")

	require.True(t, ctrl.FinishTournament(ctx, tid).Success)
	resp := ctrl.RegisterParticipant(ctx, tid, 104)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "failed to register participant")
}

func TestGetLeaderboard_Unknown(t *testing.T) {
	ctx := context.Background()
	ctrl, _, _ := newController()

	for _, id := range []int64{0, 42} {
		resp := ctrl.GetLeaderboard(ctx, id)
		assert.True(t, resp.Success)
		assert.Equal(t, []LeaderboardRow{}, resp.Data)
	}
}

func TestRecordResult_Failures(t *testing.T) {
	ctx := context.Background()
	ctrl, _, _ := newController()

	assert.False(t, ctrl.RecordResult(ctx, 1, 101, 10).Success)
	assert.False(t, ctrl.RecordResult(ctx, -1, 101, 10).Success)
	assert.False(t, ctrl.FinishTournament(ctx, 9).Success)
}
