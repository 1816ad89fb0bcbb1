package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/survivor-pool/internal/domain/pick"
	"github.com/riskibarqy/survivor-pool/internal/domain/pool"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
	"github.com/riskibarqy/survivor-pool/internal/platform/logging"
	qb "github.com/riskibarqy/survivor-pool/internal/platform/querybuilder"
)

const pickPhaseOrder = "CASE phase WHEN 'regular' THEN 0 ELSE 1 END"

type PickRepository struct {
	db     *sqlx.DB
	logger *logging.Logger
}

func NewPickRepository(db *sqlx.DB, logger *logging.Logger) *PickRepository {
	if logger == nil {
		logger = logging.Default()
	}
	return &PickRepository{db: db, logger: logger}
}

func (r *PickRepository) Upsert(ctx context.Context, item pick.Pick) (pick.Pick, error) {
	query, args, err := qb.InsertModel("picks", newPickTableModel(item), `ON CONFLICT ON CONSTRAINT picks_one_per_week
DO UPDATE SET
    team_code = EXCLUDED.team_code,
    submitted_at = EXCLUDED.submitted_at,
    was_autopick = EXCLUDED.was_autopick
RETURNING *`)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("build upsert pick query: %w", err)
	}

	var row pickTableModel
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&row); err != nil {
		return pick.Pick{}, fmt.Errorf("upsert pick: %w", err)
	}
	return row.toDomain(), nil
}

func (r *PickRepository) InsertIfAbsent(ctx context.Context, item pick.Pick) (bool, error) {
	query, args, err := qb.InsertModel("picks", newPickTableModel(item), "ON CONFLICT ON CONSTRAINT picks_one_per_week DO NOTHING")
	if err != nil {
		return false, fmt.Errorf("build insert pick query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert pick: %w", err)
	}
	return rowsAffected(result)
}

func (r *PickRepository) GetForWeek(ctx context.Context, poolID, userID string, week schedule.Week) (pick.Pick, bool, error) {
	query, args, err := qb.Select("*").
		From("picks").
		Where(
			qb.Eq("pool_id", poolID),
			qb.Eq("user_id", userID),
			qb.Eq("season_year", week.SeasonYear),
			qb.Eq("phase", string(week.Phase)),
			qb.Eq("week_number", week.Number),
		).
		ToSQL()
	if err != nil {
		return pick.Pick{}, false, fmt.Errorf("build get pick query: %w", err)
	}

	var row pickTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return pick.Pick{}, false, nil
		}
		return pick.Pick{}, false, fmt.Errorf("get pick: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *PickRepository) ListByMember(ctx context.Context, poolID, userID string, seasonYear int) ([]pick.Pick, error) {
	return r.list(ctx, "list member picks",
		qb.Eq("pool_id", poolID),
		qb.Eq("user_id", userID),
		qb.Eq("season_year", seasonYear),
	)
}

func (r *PickRepository) ListByPoolWeek(ctx context.Context, poolID string, week schedule.Week) ([]pick.Pick, error) {
	return r.list(ctx, "list pool week picks",
		qb.Eq("pool_id", poolID),
		qb.Eq("season_year", week.SeasonYear),
		qb.Eq("phase", string(week.Phase)),
		qb.Eq("week_number", week.Number),
	)
}

func (r *PickRepository) ListPendingByWeek(ctx context.Context, week schedule.Week) ([]pick.Pick, error) {
	return r.list(ctx, "list pending picks",
		qb.Eq("season_year", week.SeasonYear),
		qb.Eq("phase", string(week.Phase)),
		qb.Eq("week_number", week.Number),
		qb.Eq("result", string(pick.ResultPending)),
	)
}

func (r *PickRepository) ListUncountedLosses(ctx context.Context, poolID string, week schedule.Week) ([]pick.Pick, error) {
	return r.list(ctx, "list uncounted losses",
		qb.Eq("pool_id", poolID),
		qb.Eq("season_year", week.SeasonYear),
		qb.Eq("phase", string(week.Phase)),
		qb.Eq("week_number", week.Number),
		qb.Eq("result", string(pick.ResultLoss)),
		qb.Eq("counted_in_losses", false),
	)
}

func (r *PickRepository) ListUnsettledWeeks(ctx context.Context, at time.Time) ([]schedule.Week, error) {
	query, args, err := qb.Select("p.season_year", "p.phase", "p.week_number", "MIN(g.kickoff_at) AS lock_at").
		From(`picks p
JOIN games g ON g.season_year = p.season_year AND g.phase = p.phase AND g.week_number = p.week_number`).
		Where(qb.Expr("(p.result = ? OR (p.result = ? AND NOT p.counted_in_losses))",
			string(pick.ResultPending), string(pick.ResultLoss))).
		GroupBy("p.season_year", "p.phase", "p.week_number").
		Having(qb.Expr("MIN(g.kickoff_at) <= ?", at.UTC())).
		OrderBy("lock_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list unsettled weeks query: %w", err)
	}

	var rows []weekRowModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list unsettled weeks: %w", err)
	}

	out := make([]schedule.Week, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// SetResult only moves picks out of pending, so a concurrent or repeated grade
// cannot overwrite a committed result.
func (r *PickRepository) SetResult(ctx context.Context, pickID string, result pick.Result, gradedAt time.Time) (bool, error) {
	query, args, err := qb.Update("picks").
		Set("result", string(result)).
		Set("graded_at", gradedAt.UTC()).
		Where(
			qb.Eq("id", pickID),
			qb.Eq("result", string(pick.ResultPending)),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build set pick result query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("set pick result: %w", err)
	}
	return rowsAffected(res)
}

func (r *PickRepository) CountLoss(ctx context.Context, pickID string, maxLosses int) (pool.Member, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return pool.Member{}, false, fmt.Errorf("begin tx count loss: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	flagQuery, flagArgs, err := qb.Update("picks").
		Set("counted_in_losses", true).
		Where(
			qb.Eq("id", pickID),
			qb.Eq("result", string(pick.ResultLoss)),
			qb.Eq("counted_in_losses", false),
		).
		Suffix("RETURNING pool_id, user_id").
		ToSQL()
	if err != nil {
		return pool.Member{}, false, fmt.Errorf("build flag loss query: %w", err)
	}

	var owner struct {
		PoolID string `db:"pool_id"`
		UserID string `db:"user_id"`
	}
	if err := tx.QueryRowxContext(ctx, flagQuery, flagArgs...).StructScan(&owner); err != nil {
		if isNotFound(err) {
			return pool.Member{}, false, nil
		}
		return pool.Member{}, false, fmt.Errorf("flag loss: %w", err)
	}

	memberQuery, memberArgs, err := qb.Update("pool_members").
		SetExpr("losses", "losses + 1").
		SetExpr("eliminated", "(losses + 1) > ?", maxLosses).
		Set("updated_at", time.Now().UTC()).
		Where(
			qb.Eq("pool_id", owner.PoolID),
			qb.Eq("user_id", owner.UserID),
		).
		Suffix("RETURNING *").
		ToSQL()
	if err != nil {
		return pool.Member{}, false, fmt.Errorf("build increment losses query: %w", err)
	}

	var member poolMemberTableModel
	if err := tx.QueryRowxContext(ctx, memberQuery, memberArgs...).StructScan(&member); err != nil {
		if !isNotFound(err) {
			return pool.Member{}, false, fmt.Errorf("increment losses: %w", err)
		}
		// Kicked members keep their pick history; the loss is still marked counted.
		member = poolMemberTableModel{}
	}

	if err := tx.Commit(); err != nil {
		return pool.Member{}, false, fmt.Errorf("commit count loss: %w", err)
	}
	return member.toDomain(), true, nil
}

// TryLockWeek takes a session-level advisory lock on a dedicated connection so
// grading of one week is serialized across instances.
func (r *PickRepository) TryLockWeek(ctx context.Context, week schedule.Week) (func(), bool, error) {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return func() {}, false, fmt.Errorf("acquire advisory lock connection: %w", err)
	}

	key := "grade:" + week.Key()
	var locked bool
	if err := conn.QueryRowxContext(ctx, "SELECT pg_try_advisory_lock(hashtext($1))", key).Scan(&locked); err != nil {
		_ = conn.Close()
		return func() {}, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !locked {
		_ = conn.Close()
		return func() {}, false, nil
	}

	return func() {
		if _, err := conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock(hashtext($1))", key); err != nil {
			r.logger.Warn("release advisory lock failed", "week", week.Key(), "error", err)
		}
		_ = conn.Close()
	}, true, nil
}

func (r *PickRepository) list(ctx context.Context, op string, conditions ...qb.Condition) ([]pick.Pick, error) {
	query, args, err := qb.Select("*").
		From("picks").
		Where(conditions...).
		OrderBy("season_year", pickPhaseOrder, "week_number", "pool_id", "user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []pickTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]pick.Pick, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
