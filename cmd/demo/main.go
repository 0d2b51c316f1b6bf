// Package main - демонстрация Tournament Hub.
//
// Проходит полный сценарий Турнира Трёх Волшебников через контроллер:
// создание турнира, регистрация участников, старт, два испытания,
// запись результатов, лидерборд, завершение и отказ в поздней регистрации.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alem-hub/tournament-hub/config"
	"github.com/alem-hub/tournament-hub/internal/app"
	"github.com/alem-hub/tournament-hub/internal/interface/controller"
	"github.com/alem-hub/tournament-hub/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := app.NewLogger(cfg).With(logger.Component("demo"))

	container, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Warn("shutdown errors", logger.Err(err))
		}
	}()

	return scenario(ctx, container.Controller, log)
}

// ══════════════════════════════════════════════════════════════════════════════
// SCENARIO
// ══════════════════════════════════════════════════════════════════════════════

var participants = []int64{101, 102, 103}

// scores[challenge][i] is the score of participants[i].
var scores = map[string][]int{
	"Dragão Húngaro": {85, 92, 78},
	"Lago Negro":     {88, 79, 95},
}

func scenario(ctx context.Context, ctrl *controller.TournamentController, log *logger.Logger) error {
	created := ctrl.CreateTournament(ctx, controller.CreateTournamentRequest{
		Name:        "Torneio Tribruxo",
		Description: "Competição entre as escolas de magia",
		Type:        "knowledge",
		Rules:       []string{"Três tarefas", "Um campeão por escola"},
		StartDate:   "2024-10-31",
		EndDate:     "2024-12-25",
		Location:    "Hogwarts",
	})
	if err := step(log, "create tournament", created); err != nil {
		return err
	}
	tournamentID := created.ID

	for _, p := range participants {
		if err := step(log, "register participant", ctrl.RegisterParticipant(ctx, tournamentID, p)); err != nil {
			return err
		}
	}
	if err := step(log, "start tournament", ctrl.StartTournament(ctx, tournamentID)); err != nil {
		return err
	}

	for _, ch := range []struct{ name, date string }{
		{"Dragão Húngaro", "2024-11-15"},
		{"Lago Negro", "2024-12-01"},
	} {
		resp := ctrl.CreateChallenge(ctx, controller.CreateChallengeRequest{
			TournamentID: tournamentID,
			Name:         ch.name,
			Type:         "individual",
			MaxPoints:    100,
			Date:         ch.date,
		})
		if err := step(log, "create challenge", resp); err != nil {
			return err
		}
		for i, p := range participants {
			if err := step(log, "record result", ctrl.RecordResult(ctx, resp.ID, p, scores[ch.name][i])); err != nil {
				return err
			}
		}
	}

	board := ctrl.GetLeaderboard(ctx, tournamentID)
	if err := step(log, "leaderboard", board); err != nil {
		return err
	}
	rows, _ := board.Data.([]controller.LeaderboardRow)
	for _, row := range rows {
		log.Info("leaderboard row",
			logger.Int("rank", row.Rank),
			logger.ParticipantID(row.ParticipantID),
			logger.Score(row.Score),
		)
	}

	if err := step(log, "finish tournament", ctrl.FinishTournament(ctx, tournamentID)); err != nil {
		return err
	}

	late := ctrl.RegisterParticipant(ctx, tournamentID, 104)
	if late.Success {
		return errors.New("registration after finish was accepted")
	}
	log.Info("late registration rejected", logger.String("message", late.Message))
	return nil
}

func step(log *logger.Logger, name string, resp controller.Response) error {
	if !resp.Success {
		log.Error(name+" failed", logger.String("message", resp.Message))
		return fmt.Errorf("%s: %s", name, resp.Message)
	}
	fields := []logger.Field{logger.Operation(name)}
	if resp.ID != 0 {
		fields = append(fields, logger.Int64("id", resp.ID))
	}
	log.Info(resp.Message, fields...)
	return nil
}
