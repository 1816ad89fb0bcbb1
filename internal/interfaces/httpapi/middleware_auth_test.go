package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskibarqy/survivor-pool/internal/domain/user"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireInternalJobToken(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		setup  func(r *http.Request)
		target string
		want   int
	}{
		{name: "bearer", token: "s3cret", target: "/job", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer s3cret") }, want: http.StatusOK},
		{name: "header", token: "s3cret", target: "/job", setup: func(r *http.Request) { r.Header.Set(internalJobTokenHeader, "s3cret") }, want: http.StatusOK},
		{name: "query", token: "s3cret", target: "/job?secret=s3cret", setup: func(*http.Request) {}, want: http.StatusOK},
		{name: "wrong", token: "s3cret", target: "/job?secret=nope", setup: func(*http.Request) {}, want: http.StatusUnauthorized},
		{name: "missing", token: "s3cret", target: "/job", setup: func(*http.Request) {}, want: http.StatusUnauthorized},
		{name: "not configured", token: "", target: "/job?secret=", setup: func(*http.Request) {}, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.target, nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			RequireInternalJobToken(tt.token, okHandler()).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestRequireAdminEmail(t *testing.T) {
	tests := []struct {
		name       string
		adminEmail string
		principal  *user.Principal
		want       int
	}{
		{name: "matching email", adminEmail: "Ops@Example.com", principal: &user.Principal{UserID: "u1", Email: "ops@example.com"}, want: http.StatusOK},
		{name: "other email", adminEmail: "ops@example.com", principal: &user.Principal{UserID: "u2", Email: "dev@example.com"}, want: http.StatusForbidden},
		{name: "no admin configured", adminEmail: "", principal: &user.Principal{UserID: "u1", Email: "ops@example.com"}, want: http.StatusForbidden},
		{name: "no principal", adminEmail: "ops@example.com", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/admin/runs", nil)
			if tt.principal != nil {
				req = req.WithContext(withPrincipal(req.Context(), *tt.principal))
			}
			rec := httptest.NewRecorder()

			RequireAdminEmail(tt.adminEmail, okHandler()).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "Bearer abc", want: "abc", ok: true},
		{header: "bearer  abc ", want: "abc", ok: true},
		{header: "Basic abc", ok: false},
		{header: "Bearer ", ok: false},
		{header: "", ok: false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		got, ok := bearerToken(req)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("bearerToken(%q)=%q,%v want %q,%v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
