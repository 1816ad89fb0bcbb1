package postgres

import (
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/pick"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
)

type pickTableModel struct {
	ID              string     `db:"id"`
	PoolID          string     `db:"pool_id"`
	UserID          string     `db:"user_id"`
	SeasonYear      int        `db:"season_year"`
	Phase           string     `db:"phase"`
	WeekNumber      int        `db:"week_number"`
	TeamCode        string     `db:"team_code"`
	SubmittedAt     time.Time  `db:"submitted_at"`
	WasAutopick     bool       `db:"was_autopick"`
	Result          string     `db:"result"`
	CountedInLosses bool       `db:"counted_in_losses"`
	GradedAt        *time.Time `db:"graded_at"`
}

func newPickTableModel(item pick.Pick) pickTableModel {
	result := item.Result
	if result == "" {
		result = pick.ResultPending
	}
	return pickTableModel{
		ID:              item.ID,
		PoolID:          item.PoolID,
		UserID:          item.UserID,
		SeasonYear:      item.SeasonYear,
		Phase:           string(item.Phase),
		WeekNumber:      item.WeekNumber,
		TeamCode:        item.TeamCode,
		SubmittedAt:     item.SubmittedAt.UTC(),
		WasAutopick:     item.WasAutopick,
		Result:          string(result),
		CountedInLosses: item.CountedInLosses,
		GradedAt:        item.GradedAt,
	}
}

func (m pickTableModel) toDomain() pick.Pick {
	return pick.Pick{
		ID:              m.ID,
		PoolID:          m.PoolID,
		UserID:          m.UserID,
		SeasonYear:      m.SeasonYear,
		Phase:           schedule.ParsePhase(m.Phase),
		WeekNumber:      m.WeekNumber,
		TeamCode:        m.TeamCode,
		SubmittedAt:     m.SubmittedAt.UTC(),
		WasAutopick:     m.WasAutopick,
		Result:          pick.Result(m.Result),
		CountedInLosses: m.CountedInLosses,
		GradedAt:        m.GradedAt,
	}
}
