package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerMemberRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/pools/{poolID}/week-status", RequireAuth(verifier, http.HandlerFunc(handler.GetWeekStatus)))
	mux.Handle("GET /v1/pools/{poolID}/eligible-teams", RequireAuth(verifier, http.HandlerFunc(handler.GetEligibleTeams)))
	mux.Handle("POST /v1/pools/{poolID}/picks", RequireAuth(verifier, http.HandlerFunc(handler.SubmitPick)))
	mux.Handle("GET /v1/pools/{poolID}/picks/me", RequireAuth(verifier, http.HandlerFunc(handler.ListMyPicks)))
	mux.Handle("GET /v1/pools/{poolID}/standings", RequireAuth(verifier, http.HandlerFunc(handler.ListStandings)))
}

func registerCommissionerRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/pools/{poolID}/admin/force-autopick", RequireAuth(verifier, http.HandlerFunc(handler.ForceAutopick)))
	mux.Handle("PUT /v1/pools/{poolID}/admin/settings", RequireAuth(verifier, http.HandlerFunc(handler.UpdatePoolSettings)))
	mux.Handle("POST /v1/pools/{poolID}/admin/member-actions", RequireAuth(verifier, http.HandlerFunc(handler.ApplyMemberAction)))
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier, adminEmail string) {
	mux.Handle("GET /v1/admin/runs", RequireAuth(verifier, RequireAdminEmail(adminEmail, http.HandlerFunc(handler.ListRuns))))
	mux.Handle("GET /v1/admin/runs/health", RequireAuth(verifier, RequireAdminEmail(adminEmail, http.HandlerFunc(handler.GetRunHealth))))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/grade", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunGradeJob)))
	mux.Handle("POST /v1/internal/jobs/autolock", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunAutolockJob)))
	mux.Handle("POST /v1/internal/jobs/sync-spreads", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncSpreadsJob)))
}
