package tournament

import (
	"context"

	"github.com/alem-hub/tournament-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Контракт хранилища турниров. Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранилища турниров.
// Все выборки возвращают турниры в порядке вставки (по возрастанию ID).
// Хранилище отдаёт копии: изменения вернувшейся сущности не видны,
// пока она не сохранена повторно.
type Repository interface {
	// Save присваивает следующий ID турниру без идентификатора и вставляет его,
	// иначе перезаписывает существующую запись (last-write-wins).
	Save(ctx context.Context, t *Tournament) error

	// FindByID возвращает турнир по ID.
	// Возвращает shared.ErrTournamentNotFound, если турнир не найден.
	FindByID(ctx context.Context, id shared.ID) (*Tournament, error)

	// FindAll возвращает все турниры.
	FindAll(ctx context.Context) ([]*Tournament, error)

	// FindByStatus возвращает турниры с указанным статусом.
	FindByStatus(ctx context.Context, status Status) ([]*Tournament, error)

	// FindByType возвращает турниры указанной категории.
	FindByType(ctx context.Context, tournamentType Type) ([]*Tournament, error)
}
