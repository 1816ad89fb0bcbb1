package memory

import (
	"context"
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/runlog"
)

type RunLogRepository struct {
	store *Store
}

func NewRunLogRepository(store *Store) *RunLogRepository {
	return &RunLogRepository{store: store}
}

func (r *RunLogRepository) Append(_ context.Context, record runlog.Record) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.runs = append(r.store.runs, cloneRecord(record))
	return nil
}

// ListRecent returns newest first. An empty kind matches every kind.
func (r *RunLogRepository) ListRecent(_ context.Context, kind runlog.Kind, limit int) ([]runlog.Record, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]runlog.Record, 0)
	for i := len(r.store.runs) - 1; i >= 0; i-- {
		item := r.store.runs[i]
		if kind != "" && item.Kind != kind {
			continue
		}
		out = append(out, cloneRecord(item))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *RunLogRepository) LastOK(_ context.Context, kind runlog.Kind) (time.Time, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var last time.Time
	for _, item := range r.store.runs {
		if item.Kind != kind || item.Status != runlog.StatusOK {
			continue
		}
		if item.RanAt.After(last) {
			last = item.RanAt
		}
	}
	return last, !last.IsZero(), nil
}
