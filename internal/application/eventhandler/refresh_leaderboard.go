// Package eventhandler содержит обработчики доменных событий.
// Обработчики - "реактивная" часть системы: они реагируют на изменения
// и запускают побочные эффекты, такие как обновление кешей.
package eventhandler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/alem-hub/tournament-hub/internal/domain/leaderboard"
	"github.com/alem-hub/tournament-hub/internal/domain/shared"
	"github.com/alem-hub/tournament-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// REFRESH LEADERBOARD HANDLER
// Пересобирает лидерборд турнира после записи результата или завершения.
// События могут прийти из другого процесса через Redis, поэтому ID турнира
// достаётся как из типизированного события, так и из payload.
// ═══════════════════════════════════════════════════════════════════════════

// Refresher пересчитывает и кеширует лидерборд турнира.
type Refresher interface {
	RefreshLeaderboard(ctx context.Context, tournamentID shared.ID) ([]leaderboard.Movement, error)
}

// RefreshLeaderboardConfig содержит конфигурацию обработчика.
type RefreshLeaderboardConfig struct {
	// Timeout ограничивает одну пересборку.
	Timeout time.Duration
}

// DefaultRefreshLeaderboardConfig возвращает конфигурацию по умолчанию.
func DefaultRefreshLeaderboardConfig() RefreshLeaderboardConfig {
	return RefreshLeaderboardConfig{Timeout: 10 * time.Second}
}

// RefreshLeaderboardHandler обновляет кеш лидерборда по событиям.
type RefreshLeaderboardHandler struct {
	refresher Refresher
	log       *logger.Logger
	config    RefreshLeaderboardConfig
}

// NewRefreshLeaderboardHandler создаёт обработчик.
func NewRefreshLeaderboardHandler(refresher Refresher, log *logger.Logger, config RefreshLeaderboardConfig) *RefreshLeaderboardHandler {
	if log == nil {
		log = logger.Nop()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultRefreshLeaderboardConfig().Timeout
	}
	return &RefreshLeaderboardHandler{
		refresher: refresher,
		log:       log.With(logger.Component("refresh_leaderboard_handler")),
		config:    config,
	}
}

// Register подписывает обработчик на события, меняющие лидерборд.
func (h *RefreshLeaderboardHandler) Register(bus shared.EventSubscriber) error {
	for _, t := range []shared.EventType{shared.EventResultRecorded, shared.EventTournamentFinished} {
		if err := bus.Subscribe(t, h.Handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", t, err)
		}
	}
	return nil
}

// Handle реализует shared.EventHandler.
func (h *RefreshLeaderboardHandler) Handle(event shared.Event) error {
	tournamentID, err := TournamentIDOf(event)
	if err != nil {
		h.log.Warn("event without tournament id",
			logger.EventType(string(event.EventType())),
			logger.Err(err),
		)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	movements, err := h.refresher.RefreshLeaderboard(ctx, tournamentID)
	if shared.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("refresh leaderboard %s: %w", tournamentID, err)
	}

	h.log.Info("leaderboard refreshed",
		logger.EventType(string(event.EventType())),
		logger.TournamentID(tournamentID.Int64()),
		logger.Int("movements", len(movements)),
	)
	return nil
}

// TournamentIDOf извлекает ID турнира из события.
// Для tournament.* событий это aggregate id, для результатов - поле payload.
func TournamentIDOf(event shared.Event) (shared.ID, error) {
	switch e := event.(type) {
	case shared.ResultRecordedEvent:
		return e.TournamentID, nil
	case *shared.ResultRecordedEvent:
		return e.TournamentID, nil
	}

	if event.EventType() != shared.EventResultRecorded {
		id, err := strconv.ParseInt(event.AggregateID(), 10, 64)
		if err != nil {
			return shared.Unassigned, fmt.Errorf("aggregate id %q: %w", event.AggregateID(), err)
		}
		return shared.NewID(id)
	}

	// После JSON числа приходят как float64.
	switch v := event.Payload()["tournament_id"].(type) {
	case float64:
		return shared.NewID(int64(v))
	case int64:
		return shared.NewID(v)
	case int:
		return shared.NewID(int64(v))
	default:
		return shared.Unassigned, fmt.Errorf("payload tournament_id has type %T", v)
	}
}
