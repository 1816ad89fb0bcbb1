package pick

import (
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
)

type Result string

const (
	ResultPending Result = "pending"
	ResultWin     Result = "win"
	ResultLoss    Result = "loss"
)

// Pick is one member's team for one (season, phase, week) in a pool.
type Pick struct {
	ID              string
	PoolID          string
	UserID          string
	SeasonYear      int
	Phase           schedule.Phase
	WeekNumber      int
	TeamCode        string
	SubmittedAt     time.Time
	WasAutopick     bool
	Result          Result
	CountedInLosses bool
	GradedAt        *time.Time
}

func (p Pick) Week() schedule.Week {
	return schedule.Week{SeasonYear: p.SeasonYear, Phase: p.Phase, Number: p.WeekNumber}
}

func (p Pick) SameWeek(week schedule.Week) bool {
	return p.SeasonYear == week.SeasonYear && p.Phase == week.Phase && p.WeekNumber == week.Number
}

// Committed reports whether the pick has left the editable state.
func (p Pick) Committed() bool {
	return p.CountedInLosses || p.Result != ResultPending
}
