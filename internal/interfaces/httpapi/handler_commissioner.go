package httpapi

import (
	"net/http"

	"github.com/riskibarqy/survivor-pool/internal/domain/pool"
	"github.com/riskibarqy/survivor-pool/internal/usecase"
)

func (h *Handler) ForceAutopick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ForceAutopick")
	defer span.End()

	if h.autopick == nil {
		writeError(ctx, w, unavailable("autopick service"))
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

	result, err := h.autopick.CommissionerForceAutopick(ctx, principal.UserID, poolID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	h.logger.InfoContext(ctx, "commissioner forced autopick",
		"pool_id", poolID,
		"actor_id", principal.UserID,
		"inserted", result.AutopicksInserted,
		"failures", len(result.Failures),
	)

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) UpdatePoolSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdatePoolSettings")
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

	var req updateSettingsRequest
	if err := h.decodeAndValidate(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := h.pools.UpdateSettings(ctx, usecase.UpdateSettingsInput{
		ActorID:   principal.UserID,
		PoolID:    poolID,
		Name:      req.Name,
		MaxLosses: req.MaxLosses,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, poolToDTO(updated))
}

func (h *Handler) ApplyMemberAction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApplyMemberAction")
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

	var req memberActionRequest
	if err := h.decodeAndValidate(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.pools.ApplyMemberAction(ctx, usecase.MemberActionInput{
		ActorID:      principal.UserID,
		PoolID:       poolID,
		TargetUserID: req.UserID,
		Action:       pool.MemberAction(req.Action),
		Value:        req.Value,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
