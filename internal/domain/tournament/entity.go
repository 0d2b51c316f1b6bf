// Package tournament содержит доменную модель школьного турнира.
// Это ядро бизнес-логики - здесь нет внешних зависимостей, кроме slug.
package tournament

import (
	"strings"
	"time"

	"github.com/alem-hub/tournament-hub/internal/domain/shared"
	"github.com/gosimple/slug"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Type определяет категорию соревнования.
type Type string

const (
	// TypeQuidditch - командный матч по квиддичу.
	TypeQuidditch Type = "quidditch"
	// TypeDuel - дуэльный турнир.
	TypeDuel Type = "duel"
	// TypeKnowledge - интеллектуальное состязание.
	TypeKnowledge Type = "knowledge"
	// TypeCooperative - кооперативное испытание.
	TypeCooperative Type = "cooperative"
)

// IsValid проверяет, что тип известен.
func (t Type) IsValid() bool {
	switch t {
	case TypeQuidditch, TypeDuel, TypeKnowledge, TypeCooperative:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление типа.
func (t Type) String() string {
	return string(t)
}

// Status определяет стадию жизненного цикла турнира.
type Status string

const (
	// StatusPlanned - турнир создан, идёт набор участников.
	StatusPlanned Status = "planned"
	// StatusActive - турнир идёт, записываются результаты.
	StatusActive Status = "active"
	// StatusFinished - турнир завершён, терминальное состояние.
	StatusFinished Status = "finished"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusPlanned, StatusActive, StatusFinished:
		return true
	default:
		return false
	}
}

// CanTransitionTo проверяет допустимость перехода.
// planned -> active -> finished, назад дороги нет.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPlanned:
		return next == StatusActive
	case StatusActive:
		return next == StatusFinished
	default:
		return false
	}
}

// IsTerminal возвращает true для завершённого турнира.
func (s Status) IsTerminal() bool {
	return s == StatusFinished
}

// String возвращает строковое представление статуса.
func (s Status) String() string {
	return string(s)
}

// ══════════════════════════════════════════════════════════════════════════════
// ATTRIBUTES
// ══════════════════════════════════════════════════════════════════════════════

// Attributes - описательные поля турнира, которые задаёт вызывающий код.
type Attributes struct {
	Name        string
	Description string
	Type        Type
	Rules       []string
	StartDate   time.Time
	EndDate     time.Time
	Location    string
}

// Validate проверяет атрибуты перед созданием турнира.
func (a Attributes) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return shared.ErrInvalidTournamentName
	}
	if !a.Type.IsValid() {
		return shared.ErrInvalidTournamentType
	}
	if !a.Period().IsValid() {
		return shared.ErrInvalidDateRange
	}
	return nil
}

// Period возвращает интервал проведения турнира.
func (a Attributes) Period() shared.DateRange {
	return shared.DateRange{Start: a.StartDate, End: a.EndDate}
}

func (a Attributes) clone() Attributes {
	if a.Rules != nil {
		a.Rules = append([]string(nil), a.Rules...)
	}
	return a
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: TOURNAMENT
// ══════════════════════════════════════════════════════════════════════════════

// Tournament - соревнование из нескольких испытаний со своим статусом,
// составом участников и накопленными очками.
type Tournament struct {
	id     shared.ID
	attrs  Attributes
	status Status

	// participants хранит порядок регистрации, index - быстрый поиск.
	participants []shared.ParticipantID
	index        map[shared.ParticipantID]struct{}

	// results - суммарные очки участника по всем испытаниям.
	results map[shared.ParticipantID]shared.Score
}

// New создаёт турнир в статусе planned без идентификатора.
func New(attrs Attributes) (*Tournament, error) {
	if err := attrs.Validate(); err != nil {
		return nil, err
	}
	attrs.Name = strings.TrimSpace(attrs.Name)

	return &Tournament{
		attrs:   attrs.clone(),
		status:  StatusPlanned,
		index:   make(map[shared.ParticipantID]struct{}),
		results: make(map[shared.ParticipantID]shared.Score),
	}, nil
}

// Restore восстанавливает турнир из хранилища. Валидация не выполняется:
// данные уже были проверены при создании.
func Restore(
	id shared.ID,
	attrs Attributes,
	status Status,
	participants []shared.ParticipantID,
	results map[shared.ParticipantID]shared.Score,
) *Tournament {
	t := &Tournament{
		id:      id,
		attrs:   attrs.clone(),
		status:  status,
		index:   make(map[shared.ParticipantID]struct{}, len(participants)),
		results: make(map[shared.ParticipantID]shared.Score, len(results)),
	}
	for _, p := range participants {
		t.appendParticipant(p)
	}
	for p, s := range results {
		t.results[p] = s
	}
	return t
}

// ══════════════════════════════════════════════════════════════════════════════
// ACCESSORS
// ══════════════════════════════════════════════════════════════════════════════

// ID возвращает идентификатор (Unassigned до первого сохранения).
func (t *Tournament) ID() shared.ID { return t.id }

// Attributes возвращает копию описательных полей.
func (t *Tournament) Attributes() Attributes { return t.attrs.clone() }

// Name возвращает название турнира.
func (t *Tournament) Name() string { return t.attrs.Name }

// Type возвращает категорию турнира.
func (t *Tournament) Type() Type { return t.attrs.Type }

// Status возвращает текущий статус.
func (t *Tournament) Status() Status { return t.status }

// Slug возвращает URL-безопасную метку, построенную из названия.
func (t *Tournament) Slug() string {
	return slug.Make(t.attrs.Name)
}

// Participants возвращает участников в порядке регистрации.
func (t *Tournament) Participants() []shared.ParticipantID {
	out := make([]shared.ParticipantID, len(t.participants))
	copy(out, t.participants)
	return out
}

// HasParticipant проверяет, зарегистрирован ли участник.
func (t *Tournament) HasParticipant(p shared.ParticipantID) bool {
	_, ok := t.index[p]
	return ok
}

// Results возвращает копию таблицы суммарных очков.
func (t *Tournament) Results() map[shared.ParticipantID]shared.Score {
	out := make(map[shared.ParticipantID]shared.Score, len(t.results))
	for p, s := range t.results {
		out[p] = s
	}
	return out
}

// Result возвращает суммарные очки участника.
func (t *Tournament) Result(p shared.ParticipantID) (shared.Score, bool) {
	s, ok := t.results[p]
	return s, ok
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// AssignID присваивает идентификатор. Вызывается только хранилищем,
// повторное присвоение запрещено.
func (t *Tournament) AssignID(id shared.ID) error {
	if t.id.IsAssigned() {
		return shared.ErrIDAlreadyAssigned
	}
	if !id.IsAssigned() {
		return shared.ErrInvalidEntityID
	}
	t.id = id
	return nil
}

// Register добавляет участника в состав. Работает только в статусе planned.
// Повторная регистрация не ошибка: added=false.
func (t *Tournament) Register(p shared.ParticipantID) (added bool, err error) {
	if t.status != StatusPlanned {
		return false, shared.ErrTournamentNotPlanned
	}
	if t.HasParticipant(p) {
		return false, nil
	}
	t.appendParticipant(p)
	return true, nil
}

// Start переводит турнир planned -> active.
func (t *Tournament) Start() error {
	if !t.status.CanTransitionTo(StatusActive) {
		return shared.ErrTournamentNotPlanned
	}
	t.status = StatusActive
	return nil
}

// Finish переводит турнир active -> finished.
func (t *Tournament) Finish() error {
	if !t.status.CanTransitionTo(StatusFinished) {
		return shared.ErrTournamentNotActive
	}
	t.status = StatusFinished
	return nil
}

// SetResult записывает суммарные очки участника. Результаты бывают только у
// участников из состава, иначе ErrParticipantNotEnrolled.
// Политика накопления (сложение или замена) - забота сервиса.
func (t *Tournament) SetResult(p shared.ParticipantID, total shared.Score) error {
	if !t.HasParticipant(p) {
		return shared.ErrParticipantNotEnrolled
	}
	t.results[p] = total
	return nil
}

// AcceptsChallenges возвращает true, если к турниру можно добавлять испытания.
func (t *Tournament) AcceptsChallenges() bool {
	return !t.status.IsTerminal()
}

// Clone возвращает глубокую копию. Хранилища отдают только копии.
func (t *Tournament) Clone() *Tournament {
	return Restore(t.id, t.attrs, t.status, t.participants, t.results)
}

func (t *Tournament) appendParticipant(p shared.ParticipantID) {
	if _, ok := t.index[p]; ok {
		return
	}
	t.index[p] = struct{}{}
	t.participants = append(t.participants, p)
}
