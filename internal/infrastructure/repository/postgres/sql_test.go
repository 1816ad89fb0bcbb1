package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("get pick: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped ErrNoRows to be not found")
	}
	if isNotFound(errors.New("boom")) {
		t.Fatalf("expected unrelated error to not be not found")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Run("matches 23505", func(t *testing.T) {
		err := fmt.Errorf("insert pick: %w", &pq.Error{Code: "23505"})
		if !isUniqueViolation(err) {
			t.Fatalf("expected true for unique violation")
		}
	})

	t.Run("ignores other codes", func(t *testing.T) {
		if isUniqueViolation(&pq.Error{Code: "23503"}) {
			t.Fatalf("expected false for foreign key violation")
		}
		if isUniqueViolation(errors.New("pq: relation picks does not exist")) {
			t.Fatalf("expected false for plain error")
		}
	})
}

func TestOptionalString(t *testing.T) {
	if optionalString("  ") != nil {
		t.Fatalf("expected nil for blank string")
	}
	if got := optionalString(" boom "); got == nil || *got != "boom" {
		t.Fatalf("unexpected optional string: %v", got)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	raw, err := marshalPayload(nil)
	if err != nil || raw != "{}" {
		t.Fatalf("unexpected empty payload: raw=%q err=%v", raw, err)
	}

	raw, err = marshalPayload(map[string]any{"pools_processed": 2, "week": "2026:regular:1"})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	got, err := unmarshalPayload(raw)
	if err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got["week"] != "2026:regular:1" || got["pools_processed"] != float64(2) {
		t.Fatalf("unexpected payload: %+v", got)
	}

	empty, err := unmarshalPayload("null")
	if err != nil || len(empty) != 0 {
		t.Fatalf("unexpected null payload: %+v err=%v", empty, err)
	}
}
