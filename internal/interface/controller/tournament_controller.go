// Package controller is the in-process boundary of Tournament Hub.
// It accepts plain request records, parses calendar dates and turns
// service errors into success/message results for a presentation layer.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/alem-hub/tournament-hub/internal/domain/challenge"
	"github.com/alem-hub/tournament-hub/internal/domain/leaderboard"
	"github.com/alem-hub/tournament-hub/internal/domain/shared"
	"github.com/alem-hub/tournament-hub/internal/domain/tournament"
	"github.com/alem-hub/tournament-hub/pkg/logger"
	"github.com/alem-hub/tournament-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUESTS & RESPONSES
// ══════════════════════════════════════════════════════════════════════════════

// CreateTournamentRequest holds the raw input for a new tournament.
// Dates are YYYY-MM-DD (RFC 3339 is accepted too).
type CreateTournamentRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Rules       []string `json:"rules"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	Location    string   `json:"location"`
}

// CreateChallengeRequest holds the raw input for a new challenge.
// Date may be empty when the challenge is not scheduled yet.
type CreateChallengeRequest struct {
	TournamentID int64  `json:"tournament_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Type         string `json:"type"`
	MaxPoints    int    `json:"max_points"`
	Date         string `json:"date"`
}

// Response is the result of every controller call.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	ID      int64       `json:"id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// LeaderboardRow is one line of a leaderboard response.
type LeaderboardRow struct {
	Rank          int   `json:"rank"`
	ParticipantID int64 `json:"participant_id"`
	Score         int   `json:"score"`
}

func ok(message string) Response {
	return Response{Success: true, Message: message}
}

func failed(message string, err error) Response {
	return Response{Success: false, Message: fmt.Sprintf("%s: %v", message, err)}
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTROLLER
// ══════════════════════════════════════════════════════════════════════════════

// TournamentService is the part of the application service the controller uses.
type TournamentService interface {
	CreateTournament(ctx context.Context, attrs tournament.Attributes) (shared.ID, error)
	RegisterParticipant(ctx context.Context, tournamentID shared.ID, participantID shared.ParticipantID) error
	StartTournament(ctx context.Context, tournamentID shared.ID) error
	FinishTournament(ctx context.Context, tournamentID shared.ID) error
	CreateChallenge(ctx context.Context, tournamentID shared.ID, attrs challenge.Attributes) (shared.ID, error)
	RecordResult(ctx context.Context, challengeID shared.ID, participantID shared.ParticipantID, score shared.Score) error
	GetLeaderboard(ctx context.Context, tournamentID shared.ID) ([]leaderboard.Entry, error)
}

// TournamentController adapts TournamentService to request/response records.
type TournamentController struct {
	service TournamentService
	log     *logger.Logger
}

// NewTournamentController creates a controller. A nil log disables logging.
func NewTournamentController(service TournamentService, log *logger.Logger) *TournamentController {
	if log == nil {
		log = logger.Nop()
	}
	return &TournamentController{
		service: service,
		log:     log.With(logger.Component("tournament_controller")),
	}
}

// CreateTournament parses the request and creates a planned tournament.
func (c *TournamentController) CreateTournament(ctx context.Context, req CreateTournamentRequest) Response {
	const failure = "failed to create tournament"

	start, err := timeutil.ParseDate(req.StartDate)
	if err != nil {
		return c.reject(failure, fmt.Errorf("start date: %w", err))
	}
	end, err := timeutil.ParseDate(req.EndDate)
	if err != nil {
		return c.reject(failure, fmt.Errorf("end date: %w", err))
	}

	id, err := c.service.CreateTournament(ctx, tournament.Attributes{
		Name:        req.Name,
		Description: req.Description,
		Type:        tournament.Type(req.Type),
		Rules:       req.Rules,
		StartDate:   start,
		EndDate:     end,
		Location:    req.Location,
	})
	if err != nil {
		return c.reject(failure, err)
	}

	resp := ok("tournament created")
	resp.ID = id.Int64()
	return resp
}

// RegisterParticipant enrols a participant in a planned tournament.
func (c *TournamentController) RegisterParticipant(ctx context.Context, tournamentID, participantID int64) Response {
	const failure = "failed to register participant"

	id, err := shared.NewID(tournamentID)
	if err != nil {
		return c.reject(failure, err)
	}
	if err := c.service.RegisterParticipant(ctx, id, shared.ParticipantID(participantID)); err != nil {
		return c.reject(failure, err)
	}
	return ok("participant registered")
}

// StartTournament moves a tournament to active.
func (c *TournamentController) StartTournament(ctx context.Context, tournamentID int64) Response {
	return c.transition(ctx, tournamentID, c.service.StartTournament, "tournament started", "failed to start tournament")
}

// FinishTournament moves a tournament to finished.
func (c *TournamentController) FinishTournament(ctx context.Context, tournamentID int64) Response {
	return c.transition(ctx, tournamentID, c.service.FinishTournament, "tournament finished", "failed to finish tournament")
}

func (c *TournamentController) transition(
	ctx context.Context,
	tournamentID int64,
	apply func(context.Context, shared.ID) error,
	success, failure string,
) Response {
	id, err := shared.NewID(tournamentID)
	if err != nil {
		return c.reject(failure, err)
	}
	if err := apply(ctx, id); err != nil {
		return c.reject(failure, err)
	}
	return ok(success)
}

// CreateChallenge parses the request and creates a challenge.
func (c *TournamentController) CreateChallenge(ctx context.Context, req CreateChallengeRequest) Response {
	const failure = "failed to create challenge"

	tournamentID, err := shared.NewID(req.TournamentID)
	if err != nil {
		return c.reject(failure, err)
	}

	var scheduled time.Time
	if req.Date != "" {
		if scheduled, err = timeutil.ParseDate(req.Date); err != nil {
			return c.reject(failure, fmt.Errorf("date: %w", err))
		}
	}

	id, err := c.service.CreateChallenge(ctx, tournamentID, challenge.Attributes{
		Name:          req.Name,
		Description:   req.Description,
		Type:          challenge.Type(req.Type),
		MaxPoints:     req.MaxPoints,
		ScheduledDate: scheduled,
	})
	if err != nil {
		return c.reject(failure, err)
	}

	resp := ok("challenge created")
	resp.ID = id.Int64()
	return resp
}

// RecordResult records a participant's score in a challenge.
func (c *TournamentController) RecordResult(ctx context.Context, challengeID, participantID int64, score int) Response {
	const failure = "failed to record result"

	id, err := shared.NewID(challengeID)
	if err != nil {
		return c.reject(failure, err)
	}
	if err := c.service.RecordResult(ctx, id, shared.ParticipantID(participantID), shared.Score(score)); err != nil {
		return c.reject(failure, err)
	}
	return ok("result recorded")
}

// GetLeaderboard returns the ranked rows of a tournament in Data.
// Unknown tournaments yield an empty list.
func (c *TournamentController) GetLeaderboard(ctx context.Context, tournamentID int64) Response {
	rows := make([]LeaderboardRow, 0)

	id, err := shared.NewID(tournamentID)
	if err != nil {
		return Response{Success: true, Data: rows}
	}

	entries, err := c.service.GetLeaderboard(ctx, id)
	if err != nil {
		return c.reject("failed to build leaderboard", err)
	}
	for _, e := range entries {
		rows = append(rows, LeaderboardRow{
			Rank:          int(e.Rank),
			ParticipantID: e.ParticipantID.Int64(),
			Score:         e.Score.Int(),
		})
	}
	return Response{Success: true, Data: rows}
}

func (c *TournamentController) reject(message string, err error) Response {
	c.log.Debug(message, logger.Err(err))
	return failed(message, err)
}
