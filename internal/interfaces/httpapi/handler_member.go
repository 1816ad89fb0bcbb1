package httpapi

import (
	"net/http"

	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
	"github.com/riskibarqy/survivor-pool/internal/usecase"
)

func (h *Handler) GetWeekStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWeekStatus")
	defer span.End()

	if h.weeks == nil {
		writeError(ctx, w, unavailable("week service"))
		return
	}
	if _, err := requirePrincipal(ctx); err != nil {
		writeError(ctx, w, err)
		return
	}
	poolID, err := poolIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	status, err := h.weeks.WeekStatus(ctx, poolID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, status)
}

func (h *Handler) GetEligibleTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetEligibleTeams")
	defer span.End()

	if h.eligibility == nil {
		writeError(ctx, w, unavailable("eligibility service"))
		return
	}
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	poolID, err := poolIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	week, err := weekFromQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.eligibility.View(ctx, usecase.EligibleTeamsInput{
		PoolID: poolID,
		UserID: principal.UserID,
		Week:   week,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, view)
}

func (h *Handler) SubmitPick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitPick")
	defer span.End()

	if h.picks == nil {
		writeError(ctx, w, unavailable("pick service"))
		return
	}
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	poolID, err := poolIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req submitPickRequest
	if err := h.decodeAndValidate(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	phase := schedule.PhaseRegular
	if req.Phase != "" {
		phase = schedule.ParsePhase(req.Phase)
	}

	saved, err := h.picks.SubmitPick(ctx, usecase.SubmitPickInput{
		PoolID:     poolID,
		UserID:     principal.UserID,
		SeasonYear: req.SeasonYear,
		Phase:      phase,
		WeekNumber: req.WeekNumber,
		TeamCode:   req.TeamCode,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, pickToDTO(saved))
}

func (h *Handler) ListMyPicks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyPicks")
	defer span.End()

	if h.picks == nil {
		writeError(ctx, w, unavailable("pick service"))
		return
	}
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	poolID, err := poolIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.picks.ListMyPicks(ctx, poolID, principal.UserID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, picksToDTO(items))
}

func (h *Handler) ListStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListStandings")
	defer span.End()

	if h.pools == nil {
		writeError(ctx, w, unavailable("pool service"))
		return
	}
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	poolID, err := poolIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	members, err := h.pools.ListStandings(ctx, principal.UserID, poolID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, standingsToDTO(members))
}
