package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/survivor-pool/internal/domain/runlog"
	qb "github.com/riskibarqy/survivor-pool/internal/platform/querybuilder"
)

type RunLogRepository struct {
	db *sqlx.DB
}

func NewRunLogRepository(db *sqlx.DB) *RunLogRepository {
	return &RunLogRepository{db: db}
}

func (r *RunLogRepository) Append(ctx context.Context, record runlog.Record) error {
	details, err := marshalPayload(record.Details)
	if err != nil {
		return fmt.Errorf("marshal run details: %w", err)
	}

	model := jobRunTableModel{
		ID:         record.ID,
		Kind:       string(record.Kind),
		RanAt:      record.RanAt.UTC(),
		Status:     string(record.Status),
		Message:    record.Message,
		DurationMs: record.DurationMs,
		Details:    details,
	}
	query, args, err := qb.InsertModel("job_runs", model, "")
	if err != nil {
		return fmt.Errorf("build append run query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append run: %w", err)
	}
	return nil
}

func (r *RunLogRepository) ListRecent(ctx context.Context, kind runlog.Kind, limit int) ([]runlog.Record, error) {
	builder := qb.Select("*").
		From("job_runs").
		OrderBy("ran_at DESC", "id DESC").
		Limit(limit)
	if kind != "" {
		builder = builder.Where(qb.Eq("kind", string(kind)))
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list runs query: %w", err)
	}

	var rows []jobRunTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	out := make([]runlog.Record, 0, len(rows))
	for _, row := range rows {
		details, err := unmarshalPayload(row.Details)
		if err != nil {
			return nil, fmt.Errorf("decode run %s details: %w", row.ID, err)
		}
		out = append(out, runlog.Record{
			ID:         row.ID,
			Kind:       runlog.Kind(row.Kind),
			RanAt:      row.RanAt.UTC(),
			Status:     runlog.Status(row.Status),
			Message:    row.Message,
			DurationMs: row.DurationMs,
			Details:    details,
		})
	}
	return out, nil
}

func (r *RunLogRepository) LastOK(ctx context.Context, kind runlog.Kind) (time.Time, bool, error) {
	query, args, err := qb.Select("MAX(ran_at)").
		From("job_runs").
		Where(
			qb.Eq("kind", string(kind)),
			qb.Eq("status", string(runlog.StatusOK)),
		).
		ToSQL()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("build last ok run query: %w", err)
	}

	var ranAt sql.NullTime
	if err := r.db.GetContext(ctx, &ranAt, query, args...); err != nil {
		return time.Time{}, false, fmt.Errorf("last ok run: %w", err)
	}
	if !ranAt.Valid {
		return time.Time{}, false, nil
	}
	return ranAt.Time.UTC(), true, nil
}
