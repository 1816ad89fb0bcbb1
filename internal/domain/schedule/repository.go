package schedule

import (
	"context"
	"time"
)

// Repository is the read side of the schedule feed.
type Repository interface {
	ListByWeek(ctx context.Context, week Week) ([]Game, error)
	// NextKickoff returns the first game with kickoff_at >= at.
	NextKickoff(ctx context.Context, at time.Time) (Game, bool, error)
	// EarliestKickoff returns the first game of the whole schedule.
	EarliestKickoff(ctx context.Context) (Game, bool, error)
	// LatestStartedKickoff returns the most recent game with kickoff_at <= at.
	LatestStartedKickoff(ctx context.Context, at time.Time) (Game, bool, error)
	// ListLockedOpenWeeks returns weeks whose first kickoff is <= at and that still have a non-final game,
	// most recently locked first.
	ListLockedOpenWeeks(ctx context.Context, at time.Time) ([]Week, error)
}

// SpreadWriter stores point spreads pulled from the odds feed.
type SpreadWriter interface {
	UpdateHomeSpread(ctx context.Context, week Week, homeTeam, awayTeam string, homeSpread float64) (bool, error)
}
