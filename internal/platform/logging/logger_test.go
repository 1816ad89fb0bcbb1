package logging

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_WritesKeyValueFields(t *testing.T) {
	core, logs := observer.New(LevelDebug)
	logger := FromZap(zap.New(core))

	logger.Warn("apply losses failed", "pool_id", "pool-1", "error", errors.New("boom"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got=%d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["pool_id"] != "pool-1" {
		t.Fatalf("unexpected pool_id field: %v", fields["pool_id"])
	}
	if fields["error"] != "boom" {
		t.Fatalf("unexpected error field: %v", fields["error"])
	}
}

func TestLogger_MirrorReceivesEnabledRecordsOnly(t *testing.T) {
	core, _ := observer.New(LevelInfo)
	logger := FromZap(zap.New(core))

	var mirrored []string
	SetMirror(func(_ context.Context, _ Level, msg string, _ ...any) {
		mirrored = append(mirrored, msg)
	})
	t.Cleanup(func() { SetMirror(nil) })

	logger.Debug("hidden")
	logger.InfoContext(context.Background(), "grade run finished")

	if len(mirrored) != 1 || mirrored[0] != "grade run finished" {
		t.Fatalf("unexpected mirrored records: %v", mirrored)
	}
}

func TestLogger_ContextFieldsFollowTheRun(t *testing.T) {
	core, logs := observer.New(LevelDebug)
	logger := FromZap(zap.New(core))

	ctx := ContextWith(context.Background(), "run_kind", "grade", "week", "2026-regular-1")
	ctx = ContextWith(ctx, "week", "2026-regular-2")

	var mirrored []any
	SetMirror(func(_ context.Context, _ Level, _ string, args ...any) {
		mirrored = args
	})
	t.Cleanup(func() { SetMirror(nil) })

	logger.WarnContext(ctx, "apply losses failed", "pool_id", "pool-1", "run_kind", "autolock")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got=%d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["week"] != "2026-regular-2" {
		t.Fatalf("latest carried week must win, got %v", fields["week"])
	}
	if fields["run_kind"] != "autolock" {
		t.Fatalf("call-site key must win over carried key, got %v", fields["run_kind"])
	}
	if fields["pool_id"] != "pool-1" {
		t.Fatalf("unexpected pool_id field: %v", fields["pool_id"])
	}
	if len(mirrored) != 6 {
		t.Fatalf("mirror must see carried and call-site pairs once each, got %v", mirrored)
	}

	logger.Info("no context")
	if got := logs.All()[1].ContextMap(); len(got) != 0 {
		t.Fatalf("plain calls must not pick up context fields: %v", got)
	}
}
