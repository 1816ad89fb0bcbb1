package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/runlog"
	"github.com/riskibarqy/survivor-pool/internal/infrastructure/repository/memory"
	runlogmock "github.com/riskibarqy/survivor-pool/internal/mocks/domain/runlog"
	"github.com/riskibarqy/survivor-pool/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func TestRunLogService_RecordAndList(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	repo := memory.NewRunLogRepository(memory.NewStore())
	svc := NewRunLogService(repo, nil, RunLogConfig{HistoryLimit: 2}, logging.NewNop())
	svc.now = func() time.Time { return now }

	svc.Record(t.Context(), runlog.KindGrade, now.Add(-2*time.Second), "first", nil, nil)
	svc.Record(t.Context(), runlog.KindAutolock, now.Add(-time.Second), "second", nil, nil)
	svc.Record(t.Context(), runlog.KindGrade, now, "ignored", nil, errors.New("schedule data unavailable"))

	all, err := svc.ListRuns(t.Context(), "", 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("unexpected default limit: got=%d want=2", len(all))
	}
	if all[0].Status != runlog.StatusError || all[0].Message != "schedule data unavailable" {
		t.Fatalf("unexpected newest record: %+v", all[0])
	}
	if all[1].DurationMs != 1000 {
		t.Fatalf("unexpected duration: got=%d want=1000", all[1].DurationMs)
	}

	grades, err := svc.ListRuns(t.Context(), runlog.KindGrade, 10)
	if err != nil {
		t.Fatalf("list grade runs: %v", err)
	}
	if len(grades) != 2 {
		t.Fatalf("unexpected grade run count: got=%d want=2", len(grades))
	}

	if _, err := svc.ListRuns(t.Context(), runlog.Kind("cleanup"), 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRunLogService_Health(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	repo := runlogmock.NewRepository(t)
	repo.On("LastOK", mock.Anything, runlog.KindGrade).Return(now.Add(-2*time.Hour), true, nil).Once()
	repo.On("LastOK", mock.Anything, runlog.KindAutolock).Return(now.Add(-25*time.Hour), true, nil).Once()

	svc := NewRunLogService(repo, nil, RunLogConfig{}, logging.NewNop())
	svc.now = func() time.Time { return now }

	got, err := svc.Health(t.Context())
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected health rows: %+v", got)
	}
	if got[0].Kind != runlog.KindGrade || got[0].NeedsAttention {
		t.Fatalf("grade should be healthy: %+v", got[0])
	}
	if got[1].Kind != runlog.KindAutolock || !got[1].NeedsAttention {
		t.Fatalf("autolock should need attention: %+v", got[1])
	}
}

func TestRunLogService_HealthWithoutRuns(t *testing.T) {
	t.Parallel()

	svc := NewRunLogService(memory.NewRunLogRepository(memory.NewStore()), nil, RunLogConfig{}, logging.NewNop())
	got, err := svc.Health(t.Context())
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	for _, row := range got {
		if !row.NeedsAttention || row.LastOKAt != nil {
			t.Fatalf("expected attention without any ok run: %+v", row)
		}
	}
}
