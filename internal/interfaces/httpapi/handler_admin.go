package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/riskibarqy/survivor-pool/internal/domain/runlog"
	"github.com/riskibarqy/survivor-pool/internal/usecase"
)

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRuns")
	defer span.End()

	if h.runs == nil {
		writeError(ctx, w, unavailable("run log"))
		return
	}

	query := r.URL.Query()
	kind := runlog.Kind(strings.ToLower(strings.TrimSpace(query.Get("kind"))))
	limit := 0
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(ctx, w, fmt.Errorf("%w: invalid limit %q", usecase.ErrInvalidInput, raw))
			return
		}
		limit = parsed
	}

	records, err := h.runs.ListRuns(ctx, kind, limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, runRecordsToDTO(records))
}

func (h *Handler) GetRunHealth(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRunHealth")
	defer span.End()

	if h.runs == nil {
		writeError(ctx, w, unavailable("run log"))
		return
	}

	health, err := h.runs.Health(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, health)
}
