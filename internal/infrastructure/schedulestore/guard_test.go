package schedulestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
	schedulemock "github.com/riskibarqy/survivor-pool/internal/mocks/domain/schedule"
	"github.com/riskibarqy/survivor-pool/internal/platform/logging"
	"github.com/riskibarqy/survivor-pool/internal/platform/resilience"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var week1 = schedule.Week{SeasonYear: 2026, Phase: schedule.PhaseRegular, Number: 1}

func validGame(id, home, away string) schedule.Game {
	return schedule.Game{
		ID:         id,
		SeasonYear: 2026,
		Phase:      schedule.PhaseRegular,
		WeekNumber: 1,
		HomeTeam:   home,
		AwayTeam:   away,
		KickoffAt:  time.Date(2026, 9, 10, 20, 0, 0, 0, time.UTC),
		Status:     schedule.StatusScheduled,
	}
}

func TestStore_ListByWeekPassesValidGames(t *testing.T) {
	t.Parallel()

	inner := schedulemock.NewRepository(t)
	inner.On("ListByWeek", mock.Anything, week1).
		Return([]schedule.Game{validGame("g1", "BUF", "MIA")}, nil).
		Once()

	store := New(inner, nil, Config{}, logging.NewNop())
	games, err := store.ListByWeek(context.Background(), week1)
	if err != nil {
		t.Fatalf("list by week: %v", err)
	}
	if len(games) != 1 || games[0].ID != "g1" {
		t.Fatalf("unexpected games: %+v", games)
	}
}

func TestStore_RejectsMalformedGames(t *testing.T) {
	t.Parallel()

	negative := -3
	tests := []struct {
		name string
		game schedule.Game
	}{
		{name: "same team", game: validGame("g1", "BUF", "buf")},
		{name: "missing team", game: validGame("g1", "BUF", " ")},
		{name: "no kickoff", game: func() schedule.Game { g := validGame("g1", "BUF", "MIA"); g.KickoffAt = time.Time{}; return g }()},
		{name: "negative score", game: func() schedule.Game { g := validGame("g1", "BUF", "MIA"); g.HomeScore = &negative; return g }()},
		{name: "other week", game: func() schedule.Game { g := validGame("g1", "BUF", "MIA"); g.WeekNumber = 2; return g }()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			inner := schedulemock.NewRepository(t)
			inner.On("ListByWeek", mock.Anything, week1).
				Return([]schedule.Game{tc.game}, nil).
				Once()

			store := New(inner, nil, Config{}, logging.NewNop())
			_, err := store.ListByWeek(context.Background(), week1)
			if !errors.Is(err, ErrMalformedGame) {
				t.Fatalf("expected ErrMalformedGame, got %v", err)
			}
		})
	}
}

func TestStore_TimeoutSurfacesAsRetryable(t *testing.T) {
	t.Parallel()

	inner := schedulemock.NewRepository(t)
	inner.On("EarliestKickoff", mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(schedule.Game{}, false, context.DeadlineExceeded).
		Once()

	store := New(inner, nil, Config{QueryTimeout: 10 * time.Millisecond}, logging.NewNop())
	_, _, err := store.EarliestKickoff(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestStore_BreakerOpensOnRepeatedOutage(t *testing.T) {
	t.Parallel()

	inner := schedulemock.NewRepository(t)
	inner.On("NextKickoff", mock.Anything, mock.Anything).
		Return(schedule.Game{}, false, errors.New("connection refused")).
		Twice()

	core, logs := observer.New(logging.LevelWarn)
	store := New(inner, nil, Config{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, logging.FromZap(zap.New(core)))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, _, err := store.NextKickoff(ctx, time.Now()); err == nil {
			t.Fatalf("expected outage error on call %d", i)
		}
	}
	_, _, err := store.NextKickoff(ctx, time.Now())
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}

	changes := logs.FilterMessage("circuit breaker state changed").All()
	if len(changes) != 1 {
		t.Fatalf("expected one breaker transition log, got %d", len(changes))
	}
	if fields := changes[0].ContextMap(); fields["dependency"] != "schedule_store" || fields["to"] != string(resilience.CircuitStateOpen) {
		t.Fatalf("unexpected transition fields: %v", fields)
	}
}

func TestStore_MalformedDataDoesNotTripBreaker(t *testing.T) {
	t.Parallel()

	inner := schedulemock.NewRepository(t)
	inner.On("ListByWeek", mock.Anything, week1).
		Return([]schedule.Game{validGame("g1", "BUF", "BUF")}, nil).
		Times(3)

	store := New(inner, nil, Config{
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Minute, HalfOpenMaxReq: 1},
	}, logging.NewNop())

	for i := 0; i < 3; i++ {
		_, err := store.ListByWeek(context.Background(), week1)
		if !errors.Is(err, ErrMalformedGame) {
			t.Fatalf("expected ErrMalformedGame on call %d, got %v", i, err)
		}
	}
}

type spreadRecorder struct {
	calls int
}

func (s *spreadRecorder) UpdateHomeSpread(context.Context, schedule.Week, string, string, float64) (bool, error) {
	s.calls++
	return true, nil
}

func TestStore_UpdateHomeSpread(t *testing.T) {
	t.Parallel()

	inner := schedulemock.NewRepository(t)
	readOnly := New(inner, nil, Config{}, logging.NewNop())
	if _, err := readOnly.UpdateHomeSpread(context.Background(), week1, "BUF", "MIA", -3.5); err == nil {
		t.Fatalf("expected read-only store to reject spread writes")
	}

	writer := &spreadRecorder{}
	store := New(inner, writer, Config{}, logging.NewNop())
	ok, err := store.UpdateHomeSpread(context.Background(), week1, "BUF", "MIA", -3.5)
	if err != nil || !ok || writer.calls != 1 {
		t.Fatalf("unexpected spread write: ok=%v err=%v calls=%d", ok, err, writer.calls)
	}
}
