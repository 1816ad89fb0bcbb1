package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
	qb "github.com/riskibarqy/survivor-pool/internal/platform/querybuilder"
)

const weekColumns = "season_year, phase, week_number"

type ScheduleRepository struct {
	db *sqlx.DB
}

func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) ListByWeek(ctx context.Context, week schedule.Week) ([]schedule.Game, error) {
	query, args, err := qb.Select("*").
		From("games").
		Where(
			qb.Eq("season_year", week.SeasonYear),
			qb.Eq("phase", string(week.Phase)),
			qb.Eq("week_number", week.Number),
		).
		OrderBy("kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list games by week query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list games by week: %w", err)
	}

	out := make([]schedule.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ScheduleRepository) NextKickoff(ctx context.Context, at time.Time) (schedule.Game, bool, error) {
	return r.first(ctx, "next kickoff", qb.Select("*").
		From("games").
		Where(qb.Gte("kickoff_at", at.UTC())).
		OrderBy("kickoff_at", "id"))
}

func (r *ScheduleRepository) EarliestKickoff(ctx context.Context) (schedule.Game, bool, error) {
	return r.first(ctx, "earliest kickoff", qb.Select("*").
		From("games").
		OrderBy("kickoff_at", "id"))
}

func (r *ScheduleRepository) LatestStartedKickoff(ctx context.Context, at time.Time) (schedule.Game, bool, error) {
	return r.first(ctx, "latest started kickoff", qb.Select("*").
		From("games").
		Where(qb.Lte("kickoff_at", at.UTC())).
		OrderBy("kickoff_at DESC", "id DESC"))
}

func (r *ScheduleRepository) ListLockedOpenWeeks(ctx context.Context, at time.Time) ([]schedule.Week, error) {
	query, args, err := qb.Select(weekColumns, "MIN(kickoff_at) AS lock_at").
		From("games").
		GroupBy(weekColumns).
		Having(
			qb.Expr("MIN(kickoff_at) <= ?", at.UTC()),
			qb.Expr("BOOL_OR(status <> 'final' OR home_score IS NULL OR away_score IS NULL)"),
		).
		OrderBy("lock_at DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list locked weeks query: %w", err)
	}

	var rows []weekRowModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list locked weeks: %w", err)
	}

	out := make([]schedule.Week, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ScheduleRepository) UpdateHomeSpread(ctx context.Context, week schedule.Week, homeTeam, awayTeam string, homeSpread float64) (bool, error) {
	query, args, err := qb.Update("games").
		Set("home_spread", homeSpread).
		Set("updated_at", time.Now().UTC()).
		Where(
			qb.Eq("season_year", week.SeasonYear),
			qb.Eq("phase", string(week.Phase)),
			qb.Eq("week_number", week.Number),
			qb.Eq("home_team", homeTeam),
			qb.Eq("away_team", awayTeam),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build update home spread query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update home spread: %w", err)
	}
	return rowsAffected(result)
}

func (r *ScheduleRepository) first(ctx context.Context, op string, builder *qb.SelectBuilder) (schedule.Game, bool, error) {
	query, args, err := builder.Limit(1).ToSQL()
	if err != nil {
		return schedule.Game{}, false, fmt.Errorf("build %s query: %w", op, err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return schedule.Game{}, false, nil
		}
		return schedule.Game{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return row.toDomain(), true, nil
}
