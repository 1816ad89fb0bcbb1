package httpapi

import (
	"net/http"

	"github.com/riskibarqy/survivor-pool/internal/usecase"
)

func (h *Handler) RunGradeJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunGradeJob")
	defer span.End()

	if h.grading == nil {
		writeError(ctx, w, unavailable("grading service"))
		return
	}

	var req gradeJobRequest
	if err := h.decodeAndValidate(ctx, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.grading.RunGrade(ctx, usecase.GradeRunInput{
		SeasonYear: req.SeasonYear,
		Phase:      req.phase(),
		WeekNumber: req.WeekNumber,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "run grade job failed",
			"season_year", req.SeasonYear,
			"phase", req.Phase,
			"week_number", req.WeekNumber,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunAutolockJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunAutolockJob")
	defer span.End()

	if h.autopick == nil {
		writeError(ctx, w, unavailable("autopick service"))
		return
	}

	result, err := h.autopick.RunAutolock(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run autolock job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunSyncSpreadsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncSpreadsJob")
	defer span.End()

	if h.spreads == nil {
		writeError(ctx, w, unavailable("spread sync"))
		return
	}

	var req syncSpreadsRequest
	if err := h.decodeAndValidate(ctx, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.spreads.SyncSpreads(ctx, req.week())
	if err != nil {
		h.logger.WarnContext(ctx, "run sync spreads job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
