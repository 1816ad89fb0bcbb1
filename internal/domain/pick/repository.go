package pick

import (
	"context"
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/pool"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
)

type Repository interface {
	// Upsert writes the pick keyed by (pool, user, season, phase, week). Concurrent writers resolve last-write-wins.
	Upsert(ctx context.Context, item Pick) (Pick, error)
	// InsertIfAbsent inserts only when no pick exists for the key; it never overwrites.
	InsertIfAbsent(ctx context.Context, item Pick) (bool, error)

	GetForWeek(ctx context.Context, poolID, userID string, week schedule.Week) (Pick, bool, error)
	ListByMember(ctx context.Context, poolID, userID string, seasonYear int) ([]Pick, error)
	ListByPoolWeek(ctx context.Context, poolID string, week schedule.Week) ([]Pick, error)
	ListPendingByWeek(ctx context.Context, week schedule.Week) ([]Pick, error)
	// ListUncountedLosses returns loss picks of the pool/week with counted_in_losses = false.
	ListUncountedLosses(ctx context.Context, poolID string, week schedule.Week) ([]Pick, error)
	// ListUnsettledWeeks returns weeks whose first kickoff is <= at and that still hold a
	// pending pick or a loss not yet counted against its member, earliest lock first.
	ListUnsettledWeeks(ctx context.Context, at time.Time) ([]schedule.Week, error)

	// SetResult moves a pending pick to a final result. It reports false when the pick was no longer pending.
	SetResult(ctx context.Context, pickID string, result Result, gradedAt time.Time) (bool, error)
	// CountLoss atomically flips counted_in_losses on a loss pick and increments the owner's losses,
	// recomputing eliminated against maxLosses. It reports false when the pick was already counted.
	CountLoss(ctx context.Context, pickID string, maxLosses int) (pool.Member, bool, error)
}

// WeekLocker serializes grading of one week across processes.
type WeekLocker interface {
	TryLockWeek(ctx context.Context, week schedule.Week) (release func(), ok bool, err error)
}
