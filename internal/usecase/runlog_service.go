package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/runlog"
	"github.com/riskibarqy/survivor-pool/internal/platform/id"
	"github.com/riskibarqy/survivor-pool/internal/platform/logging"
)

const (
	defaultRunHistoryLimit = 50
	maxRunHistoryLimit     = 200
	defaultRunStaleAfter   = 24 * time.Hour
)

type RunLogConfig struct {
	HistoryLimit int
	StaleAfter   time.Duration
}

type RunHealth struct {
	Kind           runlog.Kind `json:"kind"`
	LastOKAt       *time.Time  `json:"last_ok_at,omitempty"`
	NeedsAttention bool        `json:"needs_attention"`
}

// RunLogService appends and reads grade/autolock run records.
type RunLogService struct {
	repo   runlog.Repository
	ids    id.Generator
	cfg    RunLogConfig
	logger *logging.Logger
	now    func() time.Time
}

func NewRunLogService(repo runlog.Repository, ids id.Generator, cfg RunLogConfig, logger *logging.Logger) *RunLogService {
	if ids == nil {
		ids = id.NewPrefixedGenerator("run_")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultRunHistoryLimit
	}
	if cfg.HistoryLimit > maxRunHistoryLimit {
		cfg.HistoryLimit = maxRunHistoryLimit
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = defaultRunStaleAfter
	}

	return &RunLogService{
		repo:   repo,
		ids:    ids,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Record appends one run row. It is best-effort: a failed write is logged and never
// replaces the outcome of the run itself.
func (s *RunLogService) Record(ctx context.Context, kind runlog.Kind, startedAt time.Time, message string, details map[string]any, runErr error) {
	status := runlog.StatusOK
	if runErr != nil {
		status = runlog.StatusError
		message = runErr.Error()
	}

	record := runlog.Record{
		Kind:       kind,
		RanAt:      startedAt.UTC(),
		Status:     status,
		Message:    message,
		DurationMs: s.now().Sub(startedAt).Milliseconds(),
		Details:    details,
	}
	recordID, err := s.ids.NewID()
	if err != nil {
		s.logger.WarnContext(ctx, "generate run record id failed", "kind", kind, "error", err)
		return
	}
	record.ID = recordID

	if err := s.repo.Append(ctx, record); err != nil {
		s.logger.WarnContext(ctx, "append run record failed",
			"kind", kind,
			"status", status,
			"error", err,
		)
		return
	}

	s.logger.InfoContext(ctx, "run recorded",
		"kind", kind,
		"status", status,
		"duration_ms", record.DurationMs,
		"message", message,
	)
}

// ListRuns returns the newest records first. An empty kind lists every kind.
func (s *RunLogService) ListRuns(ctx context.Context, kind runlog.Kind, limit int) ([]runlog.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RunLogService.ListRuns")
	defer span.End()

	if kind != "" && !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown run kind %q", ErrInvalidInput, kind)
	}
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	if limit > maxRunHistoryLimit {
		limit = maxRunHistoryLimit
	}

	records, err := s.repo.ListRecent(ctx, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("list run records: %w", err)
	}
	return records, nil
}

// Health flags every kind without an ok run inside the stale window.
func (s *RunLogService) Health(ctx context.Context) ([]RunHealth, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RunLogService.Health")
	defer span.End()

	now := s.now()
	out := make([]RunHealth, 0, 2)
	for _, kind := range []runlog.Kind{runlog.KindGrade, runlog.KindAutolock} {
		lastOK, ok, err := s.repo.LastOK(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("last ok %s run: %w", kind, err)
		}
		item := RunHealth{Kind: kind, NeedsAttention: true}
		if ok {
			at := lastOK.UTC()
			item.LastOKAt = &at
			item.NeedsAttention = now.Sub(lastOK) > s.cfg.StaleAfter
		}
		out = append(out, item)
	}
	return out, nil
}
