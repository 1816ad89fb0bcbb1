package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/survivor-pool/internal/config"
	"github.com/riskibarqy/survivor-pool/internal/platform/logging"
	"github.com/riskibarqy/survivor-pool/internal/platform/resilience"
)

func memoryConfig() config.Config {
	return config.Config{
		AppEnv:               config.EnvDev,
		HTTPAddr:             ":0",
		StoreDriver:          config.StoreDriverMemory,
		ScheduleQueryTimeout: time.Second,
		ScheduleCircuit:      resilience.DefaultCircuitBreakerConfig(),
		GradingWorkers:       2,
		AutopickWorkers:      2,
		RunHistoryLimit:      10,
		RunStaleAfter:        time.Hour,
		AnubisBaseURL:        "http://127.0.0.1:1",
		AnubisTimeout:        time.Second,
		InternalJobToken:     "job-secret",
	}
}

func TestNewHTTPServer_MemoryStore(t *testing.T) {
	a, err := NewHTTPServer(memoryConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/autolock", nil)
	req.Header.Set("X-Internal-Job-Token", "job-secret")
	rec = httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("autolock status %d body=%s", rec.Code, rec.Body.String())
	}

	a.PrimeLockSchedule(context.Background())
}

func TestNewHTTPServer_RequiresAddr(t *testing.T) {
	cfg := memoryConfig()
	cfg.HTTPAddr = ""

	if _, err := NewHTTPServer(cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}
