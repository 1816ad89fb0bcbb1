package postgres

import (
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
)

type gameTableModel struct {
	ID         string    `db:"id"`
	SeasonYear int       `db:"season_year"`
	Phase      string    `db:"phase"`
	WeekNumber int       `db:"week_number"`
	HomeTeam   string    `db:"home_team"`
	AwayTeam   string    `db:"away_team"`
	KickoffAt  time.Time `db:"kickoff_at"`
	Status     string    `db:"status"`
	HomeScore  *int      `db:"home_score"`
	AwayScore  *int      `db:"away_score"`
	HomeSpread *float64  `db:"home_spread"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (m gameTableModel) toDomain() schedule.Game {
	return schedule.Game{
		ID:         m.ID,
		SeasonYear: m.SeasonYear,
		Phase:      schedule.ParsePhase(m.Phase),
		WeekNumber: m.WeekNumber,
		HomeTeam:   m.HomeTeam,
		AwayTeam:   m.AwayTeam,
		KickoffAt:  m.KickoffAt.UTC(),
		Status:     schedule.NormalizeStatus(m.Status),
		HomeScore:  m.HomeScore,
		AwayScore:  m.AwayScore,
		HomeSpread: m.HomeSpread,
	}
}

// weekRowModel is one grouped (season, phase, week) row with its lock time.
type weekRowModel struct {
	SeasonYear int       `db:"season_year"`
	Phase      string    `db:"phase"`
	WeekNumber int       `db:"week_number"`
	LockAt     time.Time `db:"lock_at"`
}

func (m weekRowModel) toDomain() schedule.Week {
	return schedule.Week{
		SeasonYear: m.SeasonYear,
		Phase:      schedule.ParsePhase(m.Phase),
		Number:     m.WeekNumber,
	}
}
