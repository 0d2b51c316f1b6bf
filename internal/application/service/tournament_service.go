// Package service contains the application services of Tournament Hub.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/alem-hub/tournament-hub/internal/domain/challenge"
	"github.com/alem-hub/tournament-hub/internal/domain/leaderboard"
	"github.com/alem-hub/tournament-hub/internal/domain/shared"
	"github.com/alem-hub/tournament-hub/internal/domain/tournament"
	"github.com/alem-hub/tournament-hub/pkg/logger"
	"github.com/alem-hub/tournament-hub/pkg/timeutil"
	"golang.org/x/sync/singleflight"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE POLICY
// ══════════════════════════════════════════════════════════════════════════════

// ScorePolicy decides how a challenge score is folded into the tournament total.
type ScorePolicy string

const (
	// ScorePolicyAdditive adds every recorded score to the total.
	// Re-recording the same challenge counts twice.
	ScorePolicyAdditive ScorePolicy = "additive"

	// ScorePolicyReplace adjusts the total by the difference to the
	// participant's previous score in the same challenge.
	ScorePolicyReplace ScorePolicy = "replace"
)

// IsValid reports whether the policy is known.
func (p ScorePolicy) IsValid() bool {
	return p == ScorePolicyAdditive || p == ScorePolicyReplace
}

// contribution returns how much the tournament total changes.
func (p ScorePolicy) contribution(score shared.Score, previous *shared.Score) shared.Score {
	if p == ScorePolicyReplace && previous != nil {
		return score - *previous
	}
	return score
}

// ══════════════════════════════════════════════════════════════════════════════
// TOURNAMENT SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// TournamentService owns the tournament state machine, folds challenge scores
// into tournament totals and builds leaderboards. It is the only component
// that changes relationships between tournaments and challenges.
//
// Read-modify-write sequences on one tournament (and its challenges) are
// serialised, so concurrent RecordResult calls each apply exactly one update.
// Leaderboard builds take the same lock before they write the cache.
type TournamentService struct {
	tournaments tournament.Repository
	challenges  challenge.Repository

	publisher shared.EventPublisher
	cache     leaderboard.Cache
	cacheTTL  time.Duration
	policy    ScorePolicy
	log       *logger.Logger

	locks  *keyedMutex
	flight singleflight.Group
}

// Option configures a TournamentService.
type Option func(*TournamentService)

// WithLogger sets the service logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *TournamentService) {
		if log != nil {
			s.log = log
		}
	}
}

// WithEventPublisher publishes domain events after successful operations.
func WithEventPublisher(p shared.EventPublisher) Option {
	return func(s *TournamentService) { s.publisher = p }
}

// WithLeaderboardCache caches computed leaderboards for ttl.
func WithLeaderboardCache(cache leaderboard.Cache, ttl time.Duration) Option {
	return func(s *TournamentService) {
		s.cache = cache
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithScorePolicy selects the score policy. Unknown values are ignored.
func WithScorePolicy(p ScorePolicy) Option {
	return func(s *TournamentService) {
		if p.IsValid() {
			s.policy = p
		}
	}
}

// NewTournamentService creates the service over the given stores.
func NewTournamentService(tournaments tournament.Repository, challenges challenge.Repository, opts ...Option) *TournamentService {
	s := &TournamentService{
		tournaments: tournaments,
		challenges:  challenges,
		cacheTTL:    5 * time.Minute,
		policy:      ScorePolicyAdditive,
		log:         logger.Nop(),
		locks:       newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("tournament_service"))
	return s
}

// Policy returns the active score policy.
func (s *TournamentService) Policy() ScorePolicy {
	return s.policy
}

// ══════════════════════════════════════════════════════════════════════════════
// TOURNAMENT LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// CreateTournament validates attrs and stores a new planned tournament.
func (s *TournamentService) CreateTournament(ctx context.Context, attrs tournament.Attributes) (shared.ID, error) {
	t, err := tournament.New(attrs)
	if err != nil {
		s.log.Debug("tournament rejected", logger.Operation("CreateTournament"), logger.Err(err))
		return shared.Unassigned, err
	}

	if err := s.tournaments.Save(ctx, t); err != nil {
		return shared.Unassigned, fmt.Errorf("save tournament: %w", err)
	}

	s.log.Info("tournament created",
		logger.TournamentID(t.ID().Int64()),
		logger.Slug(t.Slug()),
		logger.String("type", t.Type().String()),
		logger.Int("days", attrs.Period().Days()),
	)
	s.publish(shared.NewTournamentCreatedEvent(t.ID(), t.Name(), t.Type().String()))
	return t.ID(), nil
}

// RegisterParticipant adds a participant to a planned tournament.
// Registering the same participant again succeeds without changes.
func (s *TournamentService) RegisterParticipant(ctx context.Context, tournamentID shared.ID, participantID shared.ParticipantID) error {
	unlock := s.locks.Lock(tournamentID.Int64())
	defer unlock()

	t, err := s.tournaments.FindByID(ctx, tournamentID)
	if err != nil {
		return s.rejected("RegisterParticipant", tournamentID, err)
	}

	added, err := t.Register(participantID)
	if err != nil {
		return s.rejected("RegisterParticipant", tournamentID, err)
	}
	if !added {
		return nil
	}

	if err := s.tournaments.Save(ctx, t); err != nil {
		return fmt.Errorf("save tournament %s: %w", tournamentID, err)
	}

	s.log.Info("participant registered",
		logger.TournamentID(tournamentID.Int64()),
		logger.ParticipantID(participantID.Int64()),
	)
	s.publish(shared.NewParticipantRegisteredEvent(tournamentID, participantID, len(t.Participants())))
	return nil
}

// StartTournament moves a planned tournament to active.
func (s *TournamentService) StartTournament(ctx context.Context, tournamentID shared.ID) error {
	return s.transition(ctx, "StartTournament", tournamentID, (*tournament.Tournament).Start, shared.EventTournamentStarted)
}

// FinishTournament moves an active tournament to finished.
func (s *TournamentService) FinishTournament(ctx context.Context, tournamentID shared.ID) error {
	if err := s.transition(ctx, "FinishTournament", tournamentID, (*tournament.Tournament).Finish, shared.EventTournamentFinished); err != nil {
		return err
	}
	s.invalidate(ctx, tournamentID)
	return nil
}

func (s *TournamentService) transition(
	ctx context.Context,
	op string,
	tournamentID shared.ID,
	apply func(*tournament.Tournament) error,
	eventType shared.EventType,
) error {
	unlock := s.locks.Lock(tournamentID.Int64())
	defer unlock()

	t, err := s.tournaments.FindByID(ctx, tournamentID)
	if err != nil {
		return s.rejected(op, tournamentID, err)
	}

	from := t.Status()
	if err := apply(t); err != nil {
		return s.rejected(op, tournamentID, err)
	}

	if err := s.tournaments.Save(ctx, t); err != nil {
		return fmt.Errorf("save tournament %s: %w", tournamentID, err)
	}

	s.log.Info("tournament status changed",
		logger.TournamentID(tournamentID.Int64()),
		logger.String("from", from.String()),
		logger.Status(t.Status().String()),
	)
	s.publish(shared.NewTournamentStatusChangedEvent(eventType, tournamentID, from.String(), t.Status().String()))
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CHALLENGES & RESULTS
// ══════════════════════════════════════════════════════════════════════════════

// CreateChallenge stores a new challenge under an existing tournament that is
// not finished.
func (s *TournamentService) CreateChallenge(ctx context.Context, tournamentID shared.ID, attrs challenge.Attributes) (shared.ID, error) {
	unlock := s.locks.Lock(tournamentID.Int64())
	defer unlock()

	t, err := s.tournaments.FindByID(ctx, tournamentID)
	if err != nil {
		return shared.Unassigned, s.rejected("CreateChallenge", tournamentID, err)
	}
	if !t.AcceptsChallenges() {
		return shared.Unassigned, s.rejected("CreateChallenge", tournamentID, shared.ErrTournamentFinished)
	}

	c, err := challenge.New(tournamentID, attrs)
	if err != nil {
		return shared.Unassigned, s.rejected("CreateChallenge", tournamentID, err)
	}

	if err := s.challenges.Save(ctx, c); err != nil {
		return shared.Unassigned, fmt.Errorf("save challenge: %w", err)
	}

	s.log.Info("challenge created",
		logger.TournamentID(tournamentID.Int64()),
		logger.ChallengeID(c.ID().Int64()),
		logger.Int("max_points", c.MaxPoints()),
	)
	if period, date := t.Attributes().Period(), attrs.ScheduledDate; !date.IsZero() && !period.Start.IsZero() && !period.Contains(date) {
		s.log.Warn("challenge scheduled outside the tournament period",
			logger.ChallengeID(c.ID().Int64()),
			logger.String("date", timeutil.FormatDateStr(date)),
			logger.String("start", timeutil.FormatDateStr(period.Start)),
			logger.String("end", timeutil.FormatDateStr(period.End)),
		)
	}
	s.publish(shared.NewChallengeCreatedEvent(c.ID(), tournamentID, c.Name(), c.MaxPoints()))
	return c.ID(), nil
}

// RecordResult sets a participant's score in a challenge and folds it into
// the tournament total according to the score policy.
//
// The challenge score is always overwritten. A participant outside the
// tournament roster is rejected before anything changes. If the parent
// tournament no longer exists only the challenge is updated. Max points is
// not enforced; a score above it is logged.
//
// The challenge is written first. When the tournament write then fails, the
// challenge is written back as it was, so a score never exists without its
// share of the total.
func (s *TournamentService) RecordResult(ctx context.Context, challengeID shared.ID, participantID shared.ParticipantID, score shared.Score) error {
	// The tournament link is immutable, so it can be read before locking.
	c, err := s.challenges.FindByID(ctx, challengeID)
	if err != nil {
		return s.rejected("RecordResult", shared.Unassigned, err)
	}
	tournamentID := c.TournamentID()

	unlock := s.locks.Lock(tournamentID.Int64())
	defer unlock()

	c, err = s.challenges.FindByID(ctx, challengeID)
	if err != nil {
		return s.rejected("RecordResult", tournamentID, err)
	}

	t, err := s.tournaments.FindByID(ctx, tournamentID)
	if err != nil && !shared.IsNotFound(err) {
		return fmt.Errorf("load tournament %s: %w", tournamentID, err)
	}
	if err != nil {
		t = nil
	}

	before := c.Clone()
	previous := c.SetScore(participantID, score)

	var total shared.Score
	if t != nil {
		current, _ := t.Result(participantID)
		total = current + s.policy.contribution(score, previous)
		if err := t.SetResult(participantID, total); err != nil {
			return s.rejected("RecordResult", tournamentID, err)
		}
	}

	if c.ExceedsMax(score) {
		s.log.Warn("score exceeds max points",
			logger.ChallengeID(challengeID.Int64()),
			logger.ParticipantID(participantID.Int64()),
			logger.Score(score.Int()),
			logger.Int("max_points", c.MaxPoints()),
		)
	}
	if err := s.challenges.Save(ctx, c); err != nil {
		return fmt.Errorf("save challenge %s: %w", challengeID, err)
	}

	if t == nil {
		s.log.Warn("result recorded for challenge without tournament",
			logger.ChallengeID(challengeID.Int64()),
			logger.TournamentID(tournamentID.Int64()),
		)
	} else {
		if err := s.tournaments.Save(ctx, t); err != nil {
			s.revertChallenge(ctx, before)
			return fmt.Errorf("save tournament %s: %w", tournamentID, err)
		}
		s.invalidate(ctx, tournamentID)
	}

	s.log.Info("result recorded",
		logger.ChallengeID(challengeID.Int64()),
		logger.TournamentID(tournamentID.Int64()),
		logger.ParticipantID(participantID.Int64()),
		logger.Score(score.Int()),
		logger.Int("total", total.Int()),
		logger.Bool("correction", previous != nil),
	)
	s.publish(shared.NewResultRecordedEvent(challengeID, tournamentID, participantID, score, previous, total))
	return nil
}

// revertChallenge writes back a challenge whose new score could not be
// matched by a tournament total. It runs even if ctx is already cancelled.
func (s *TournamentService) revertChallenge(ctx context.Context, before *challenge.Challenge) {
	if err := s.challenges.Save(context.WithoutCancel(ctx), before); err != nil {
		s.log.Error("challenge score kept without tournament total",
			logger.ChallengeID(before.ID().Int64()),
			logger.TournamentID(before.TournamentID().Int64()),
			logger.Err(err),
		)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboard returns the ranked totals of a tournament, highest first,
// ties by participant ID. An unknown tournament yields an empty leaderboard.
//
// A snapshot is built and cached under the tournament lock, so a result
// recorded meanwhile invalidates it only after it has been written.
func (s *TournamentService) GetLeaderboard(ctx context.Context, tournamentID shared.ID) ([]leaderboard.Entry, error) {
	if s.cache != nil {
		snap, err := s.cache.Get(ctx, tournamentID)
		if err == nil {
			return snap.Entries, nil
		}
		if !errors.Is(err, leaderboard.ErrCacheMiss) {
			s.log.Warn("leaderboard cache read failed", logger.TournamentID(tournamentID.Int64()), logger.Err(err))
		}
	}

	key := strconv.FormatInt(tournamentID.Int64(), 10)
	v, err, _ := s.flight.Do(key, func() (interface{}, error) {
		unlock := s.locks.Lock(tournamentID.Int64())
		defer unlock()

		snap, err := s.buildSnapshot(ctx, tournamentID)
		if err != nil {
			return nil, err
		}
		s.store(ctx, snap)
		return snap, nil
	})
	if shared.IsNotFound(err) {
		return []leaderboard.Entry{}, nil
	}
	if err != nil {
		return nil, err
	}

	// The snapshot may be shared with concurrent callers.
	entries := v.(*leaderboard.Snapshot).Entries
	return append(make([]leaderboard.Entry, 0, len(entries)), entries...), nil
}

// RefreshLeaderboard recomputes and caches a tournament's leaderboard and
// returns the rank movements since the previously cached one.
func (s *TournamentService) RefreshLeaderboard(ctx context.Context, tournamentID shared.ID) ([]leaderboard.Movement, error) {
	old, current, err := s.rebuild(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	s.publish(shared.NewLeaderboardUpdatedEvent(tournamentID, len(current.Entries)))

	return leaderboard.Diff(old, current), nil
}

// rebuild swaps the cached snapshot for a fresh one under the tournament lock
// and returns both.
func (s *TournamentService) rebuild(ctx context.Context, tournamentID shared.ID) (old, current *leaderboard.Snapshot, err error) {
	unlock := s.locks.Lock(tournamentID.Int64())
	defer unlock()

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, tournamentID); err == nil {
			old = cached
		}
	}

	current, err = s.buildSnapshot(ctx, tournamentID)
	if err != nil {
		return nil, nil, err
	}
	s.store(ctx, current)
	return old, current, nil
}

func (s *TournamentService) buildSnapshot(ctx context.Context, tournamentID shared.ID) (*leaderboard.Snapshot, error) {
	t, err := s.tournaments.FindByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return leaderboard.NewSnapshot(tournamentID, t.Results()), nil
}

func (s *TournamentService) store(ctx context.Context, snap *leaderboard.Snapshot) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, snap, s.cacheTTL); err != nil {
		s.log.Warn("leaderboard cache write failed", logger.TournamentID(snap.TournamentID.Int64()), logger.Err(err))
	}
}

func (s *TournamentService) invalidate(ctx context.Context, tournamentID shared.ID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, tournamentID); err != nil {
		s.log.Warn("leaderboard cache invalidation failed", logger.TournamentID(tournamentID.Int64()), logger.Err(err))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// GetTournament returns a tournament by ID.
func (s *TournamentService) GetTournament(ctx context.Context, id shared.ID) (*tournament.Tournament, error) {
	return s.tournaments.FindByID(ctx, id)
}

// ListTournaments returns all tournaments in creation order.
func (s *TournamentService) ListTournaments(ctx context.Context) ([]*tournament.Tournament, error) {
	return s.tournaments.FindAll(ctx)
}

// GetTournamentsByStatus returns tournaments with the given status.
func (s *TournamentService) GetTournamentsByStatus(ctx context.Context, status tournament.Status) ([]*tournament.Tournament, error) {
	return s.tournaments.FindByStatus(ctx, status)
}

// GetTournamentsByType returns tournaments of the given type.
func (s *TournamentService) GetTournamentsByType(ctx context.Context, tournamentType tournament.Type) ([]*tournament.Tournament, error) {
	return s.tournaments.FindByType(ctx, tournamentType)
}

// GetChallenge returns a challenge by ID.
func (s *TournamentService) GetChallenge(ctx context.Context, id shared.ID) (*challenge.Challenge, error) {
	return s.challenges.FindByID(ctx, id)
}

// GetChallengesByTournament returns the challenges of a tournament in creation order.
func (s *TournamentService) GetChallengesByTournament(ctx context.Context, tournamentID shared.ID) ([]*challenge.Challenge, error) {
	return s.challenges.FindByTournament(ctx, tournamentID)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// rejected logs a refused precondition and passes the error through.
func (s *TournamentService) rejected(op string, tournamentID shared.ID, err error) error {
	s.log.Debug("operation rejected",
		logger.Operation(op),
		logger.String("tournament_id", tournamentID.String()),
		logger.Err(err),
	)
	return err
}

func (s *TournamentService) publish(event shared.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event); err != nil {
		s.log.Warn("event publish failed", logger.EventType(string(event.EventType())), logger.Err(err))
	}
}
