package observability

import (
	"testing"

	otellog "go.opentelemetry.io/otel/log"
)

func TestShouldSkipUptraceLog(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		args []any
		want bool
	}{
		{name: "healthy check", msg: "http request", args: []any{"path", "/healthz", "status", 200}, want: true},
		{name: "failing check", msg: "http request", args: []any{"path", "/healthz", "status", 503}, want: false},
		{name: "pick submission", msg: "http request", args: []any{"path", "/v1/pools/p1/picks", "status", 200}, want: false},
		{name: "other event on health path", msg: "qstash publish request", args: []any{"path", "/healthz"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldSkipUptraceLog(tt.msg, tt.args); got != tt.want {
				t.Fatalf("shouldSkipUptraceLog() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildOTelLogAttributes(t *testing.T) {
	attrs := buildOTelLogAttributes([]any{
		"pool_id", "office-2025",
		"user_id", "alice",
		"week", "2025-regular-4",
		"attempt", 2,
		"payload",
	})
	if len(attrs) != 5 {
		t.Fatalf("expected 5 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "survivor.pool_id" || attrs[0].Value.AsString() != "office-2025" {
		t.Fatalf("unexpected pool attribute: %+v", attrs[0])
	}
	if attrs[1].Key != "enduser.id" || attrs[2].Key != "survivor.week" {
		t.Fatalf("unexpected domain attribute keys: %s %s", attrs[1].Key, attrs[2].Key)
	}
	if attrs[3].Key != "attempt" || attrs[3].Value.AsInt64() != 2 {
		t.Fatalf("unexpected attempt attribute")
	}
	if attrs[4].Key != "payload" || attrs[4].Value.Kind() != otellog.KindEmpty {
		t.Fatalf("unexpected payload attribute")
	}
}

func TestToOTelLogValue_Map(t *testing.T) {
	v := toOTelLogValue(map[string]any{
		"updated_members": 2,
		"eliminated":      []string{"alice", "bob"},
		"weeks":           []any{"2026-regular-1"},
	}, 0)
	if v.Kind() != otellog.KindMap {
		t.Fatalf("expected map value, got %s", v.Kind())
	}
	items := v.AsMap()
	if len(items) != 3 || items[0].Key != "eliminated" {
		t.Fatalf("expected 3 sorted map items, got %+v", items)
	}
	if got := items[0].Value.AsSlice(); len(got) != 2 || got[1].AsString() != "bob" {
		t.Fatalf("unexpected eliminated list: %+v", got)
	}
	if items[1].Value.AsInt64() != 2 {
		t.Fatalf("unexpected updated_members value: %+v", items[1].Value)
	}
}
