// Package schedulestore guards reads of the external schedule feed with a
// query timeout, a circuit breaker and shape checks on the returned games.
package schedulestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
	"github.com/riskibarqy/survivor-pool/internal/platform/logging"
	"github.com/riskibarqy/survivor-pool/internal/platform/resilience"
)

const defaultQueryTimeout = 3 * time.Second

var (
	ErrMalformedGame = errors.New("malformed game")
	ErrTimeout       = errors.New("schedule query timed out")
)

type Config struct {
	QueryTimeout   time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Store implements schedule.Repository and schedule.SpreadWriter over an inner store.
type Store struct {
	inner   schedule.Repository
	spreads schedule.SpreadWriter
	timeout time.Duration
	breaker *resilience.CircuitBreaker
	logger  *logging.Logger
}

// New wraps inner. spreads may be nil when the store is read-only.
func New(inner schedule.Repository, spreads schedule.SpreadWriter, cfg Config, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = defaultQueryTimeout
	}
	return &Store{
		inner:   inner,
		spreads: spreads,
		timeout: cfg.QueryTimeout,
		breaker: resilience.NewCircuitBreakerFromConfig("schedule_store", cfg.CircuitBreaker).
			OnStateChange(resilience.LogTransitions(logger.Warn)),
		logger: logger,
	}
}

func (s *Store) ListByWeek(ctx context.Context, week schedule.Week) ([]schedule.Game, error) {
	var out []schedule.Game
	err := s.do(ctx, "list_by_week", func(ctx context.Context) error {
		games, err := s.inner.ListByWeek(ctx, week)
		if err != nil {
			return err
		}
		for _, g := range games {
			if err := validateGame(g); err != nil {
				return err
			}
			if g.Week() != week {
				return fmt.Errorf("%w: game %s belongs to week %s, asked for %s", ErrMalformedGame, g.ID, g.Week().Key(), week.Key())
			}
		}
		out = games
		return nil
	})
	return out, err
}

func (s *Store) NextKickoff(ctx context.Context, at time.Time) (schedule.Game, bool, error) {
	return s.single(ctx, "next_kickoff", func(ctx context.Context) (schedule.Game, bool, error) {
		return s.inner.NextKickoff(ctx, at)
	})
}

func (s *Store) EarliestKickoff(ctx context.Context) (schedule.Game, bool, error) {
	return s.single(ctx, "earliest_kickoff", s.inner.EarliestKickoff)
}

func (s *Store) LatestStartedKickoff(ctx context.Context, at time.Time) (schedule.Game, bool, error) {
	return s.single(ctx, "latest_started_kickoff", func(ctx context.Context) (schedule.Game, bool, error) {
		return s.inner.LatestStartedKickoff(ctx, at)
	})
}

func (s *Store) ListLockedOpenWeeks(ctx context.Context, at time.Time) ([]schedule.Week, error) {
	var out []schedule.Week
	err := s.do(ctx, "list_locked_open_weeks", func(ctx context.Context) error {
		weeks, err := s.inner.ListLockedOpenWeeks(ctx, at)
		if err != nil {
			return err
		}
		for _, w := range weeks {
			if w.SeasonYear <= 0 || w.Number <= 0 || !w.Phase.Valid() {
				return fmt.Errorf("%w: invalid week %s", ErrMalformedGame, w.Key())
			}
		}
		out = weeks
		return nil
	})
	return out, err
}

func (s *Store) UpdateHomeSpread(ctx context.Context, week schedule.Week, homeTeam, awayTeam string, homeSpread float64) (bool, error) {
	if s.spreads == nil {
		return false, fmt.Errorf("schedule store is read-only")
	}
	var updated bool
	err := s.do(ctx, "update_home_spread", func(ctx context.Context) error {
		ok, err := s.spreads.UpdateHomeSpread(ctx, week, homeTeam, awayTeam, homeSpread)
		updated = ok
		return err
	})
	return updated, err
}

func (s *Store) single(ctx context.Context, op string, fn func(context.Context) (schedule.Game, bool, error)) (schedule.Game, bool, error) {
	var (
		game  schedule.Game
		found bool
	)
	err := s.do(ctx, op, func(ctx context.Context) error {
		g, ok, err := fn(ctx)
		if err != nil {
			return err
		}
		if ok {
			if err := validateGame(g); err != nil {
				return err
			}
		}
		game, found = g, ok
		return nil
	})
	return game, found, err
}

func (s *Store) do(ctx context.Context, op string, fn func(context.Context) error) error {
	err := s.breaker.Execute(func() error {
		qctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		err := fn(qctx)
		if err != nil && errors.Is(qctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w after %s: %w", ErrTimeout, s.timeout, err)
		}
		return err
	}, countsAgainstBreaker)
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			s.logger.WarnContext(ctx, "schedule store circuit open", "op", op, "error", err)
		}
		return fmt.Errorf("schedule %s: %w", op, err)
	}
	return nil
}

// Malformed data is a feed content problem, not an availability one.
func countsAgainstBreaker(err error) bool {
	return !errors.Is(err, ErrMalformedGame) && !errors.Is(err, context.Canceled)
}

func validateGame(g schedule.Game) error {
	switch {
	case strings.TrimSpace(g.ID) == "":
		return fmt.Errorf("%w: empty id", ErrMalformedGame)
	case g.SeasonYear <= 0 || g.WeekNumber <= 0:
		return fmt.Errorf("%w: game %s has invalid week %d/%d", ErrMalformedGame, g.ID, g.SeasonYear, g.WeekNumber)
	case !g.Phase.Valid():
		return fmt.Errorf("%w: game %s has invalid phase %q", ErrMalformedGame, g.ID, g.Phase)
	case strings.TrimSpace(g.HomeTeam) == "" || strings.TrimSpace(g.AwayTeam) == "":
		return fmt.Errorf("%w: game %s is missing a team", ErrMalformedGame, g.ID)
	case strings.EqualFold(strings.TrimSpace(g.HomeTeam), strings.TrimSpace(g.AwayTeam)):
		return fmt.Errorf("%w: game %s has the same team on both sides", ErrMalformedGame, g.ID)
	case g.KickoffAt.IsZero():
		return fmt.Errorf("%w: game %s has no kickoff", ErrMalformedGame, g.ID)
	case (g.HomeScore != nil && *g.HomeScore < 0) || (g.AwayScore != nil && *g.AwayScore < 0):
		return fmt.Errorf("%w: game %s has a negative score", ErrMalformedGame, g.ID)
	}
	return nil
}
