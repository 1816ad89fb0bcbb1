package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/survivor-pool/internal/domain/pool"
	qb "github.com/riskibarqy/survivor-pool/internal/platform/querybuilder"
)

type PoolRepository struct {
	db *sqlx.DB
}

func NewPoolRepository(db *sqlx.DB) *PoolRepository {
	return &PoolRepository{db: db}
}

func (r *PoolRepository) GetByID(ctx context.Context, poolID string) (pool.Pool, bool, error) {
	query, args, err := qb.Select("*").
		From("pools").
		Where(qb.Eq("id", poolID)).
		ToSQL()
	if err != nil {
		return pool.Pool{}, false, fmt.Errorf("build get pool query: %w", err)
	}

	var row poolTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return pool.Pool{}, false, nil
		}
		return pool.Pool{}, false, fmt.Errorf("get pool: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *PoolRepository) List(ctx context.Context) ([]pool.Pool, error) {
	query, args, err := qb.Select("*").
		From("pools").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list pools query: %w", err)
	}

	var rows []poolTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}

	out := make([]pool.Pool, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// UpdateSettings writes name and max_losses and re-derives eliminated for the
// whole pool in the same transaction.
func (r *PoolRepository) UpdateSettings(ctx context.Context, poolID, name string, maxLosses int) (pool.Pool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return pool.Pool{}, fmt.Errorf("begin tx update pool settings: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	query, args, err := qb.Update("pools").
		Set("name", name).
		Set("max_losses", maxLosses).
		Set("updated_at", now).
		Where(qb.Eq("id", poolID)).
		Suffix("RETURNING *").
		ToSQL()
	if err != nil {
		return pool.Pool{}, fmt.Errorf("build update pool settings query: %w", err)
	}

	var row poolTableModel
	if err := tx.QueryRowxContext(ctx, query, args...).StructScan(&row); err != nil {
		if isNotFound(err) {
			return pool.Pool{}, fmt.Errorf("pool %s not found", poolID)
		}
		return pool.Pool{}, fmt.Errorf("update pool settings: %w", err)
	}

	membersQuery, membersArgs, err := qb.Update("pool_members").
		SetExpr("eliminated", "losses > ?", maxLosses).
		Set("updated_at", now).
		Where(
			qb.Eq("pool_id", poolID),
			qb.Expr("eliminated <> (losses > ?)", maxLosses),
		).
		ToSQL()
	if err != nil {
		return pool.Pool{}, fmt.Errorf("build recompute eliminated query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, membersQuery, membersArgs...); err != nil {
		return pool.Pool{}, fmt.Errorf("recompute eliminated: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return pool.Pool{}, fmt.Errorf("commit update pool settings: %w", err)
	}
	return row.toDomain(), nil
}

func (r *PoolRepository) GetMember(ctx context.Context, poolID, userID string) (pool.Member, bool, error) {
	query, args, err := qb.Select("*").
		From("pool_members").
		Where(
			qb.Eq("pool_id", poolID),
			qb.Eq("user_id", userID),
		).
		ToSQL()
	if err != nil {
		return pool.Member{}, false, fmt.Errorf("build get pool member query: %w", err)
	}

	var row poolMemberTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return pool.Member{}, false, nil
		}
		return pool.Member{}, false, fmt.Errorf("get pool member: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *PoolRepository) ListMembers(ctx context.Context, poolID string) ([]pool.Member, error) {
	query, args, err := qb.Select("*").
		From("pool_members").
		Where(qb.Eq("pool_id", poolID)).
		OrderBy("user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list pool members query: %w", err)
	}

	var rows []poolMemberTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list pool members: %w", err)
	}

	out := make([]pool.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *PoolRepository) ResetLosses(ctx context.Context, poolID, userID string) (bool, error) {
	return r.updateMember(ctx, "reset losses", poolID, userID, qb.Update("pool_members").
		Set("losses", 0).
		Set("eliminated", false))
}

func (r *PoolRepository) SetEliminated(ctx context.Context, poolID, userID string, eliminated bool) (bool, error) {
	return r.updateMember(ctx, "set eliminated", poolID, userID, qb.Update("pool_members").
		Set("eliminated", eliminated))
}

func (r *PoolRepository) SetCommissioner(ctx context.Context, poolID, userID string, commissioner bool) (bool, error) {
	return r.updateMember(ctx, "set commissioner", poolID, userID, qb.Update("pool_members").
		Set("is_commissioner", commissioner))
}

func (r *PoolRepository) RemoveMember(ctx context.Context, poolID, userID string) (bool, error) {
	query, args, err := qb.DeleteFrom("pool_members").
		Where(
			qb.Eq("pool_id", poolID),
			qb.Eq("user_id", userID),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build remove member query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("remove member: %w", err)
	}
	return rowsAffected(result)
}

func (r *PoolRepository) updateMember(ctx context.Context, op, poolID, userID string, update *qb.UpdateBuilder) (bool, error) {
	query, args, err := update.
		Set("updated_at", time.Now().UTC()).
		Where(
			qb.Eq("pool_id", poolID),
			qb.Eq("user_id", userID),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build %s query: %w", op, err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(result)
}
