package observability

import (
	"context"
	"runtime"

	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/survivor-pool/internal/config"
	"github.com/riskibarqy/survivor-pool/internal/domain/runlog"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
	"github.com/riskibarqy/survivor-pool/internal/platform/logging"
)

// Grading fans out per pool behind a store-level week lock, so contention shows up in
// the mutex and block profiles. These rates keep their overhead low.
const (
	mutexProfileFraction = 5
	blockProfileRate     = 10_000
)

// InitPyroscope starts continuous profiling when enabled.
func InitPyroscope(cfg config.Config, logger *logging.Logger) (func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if !cfg.PyroscopeEnabled {
		logger.Info("pyroscope disabled", "reason", "PYROSCOPE_ENABLED=false")
		return func() error { return nil }, nil
	}

	prevMutex := runtime.SetMutexProfileFraction(mutexProfileFraction)
	runtime.SetBlockProfileRate(blockProfileRate)

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags:              profileTags(cfg),
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
			pyroscope.ProfileMutexDuration,
			pyroscope.ProfileBlockDuration,
		},
	})
	if err != nil {
		runtime.SetMutexProfileFraction(prevMutex)
		runtime.SetBlockProfileRate(0)
		return nil, err
	}

	logger.Info("pyroscope enabled",
		"server_address", cfg.PyroscopeServerAddress,
		"application", cfg.PyroscopeAppName,
		"store_driver", cfg.StoreDriver,
	)

	return func() error {
		err := profiler.Stop()
		runtime.SetMutexProfileFraction(prevMutex)
		runtime.SetBlockProfileRate(0)
		return err
	}, nil
}

func profileTags(cfg config.Config) map[string]string {
	return map[string]string{
		"env":          cfg.AppEnv,
		"version":      cfg.ServiceVersion,
		"service":      cfg.ServiceName,
		"store_driver": cfg.StoreDriver,
	}
}

// ProfileRun runs fn with run_kind and week profiler labels so a slow grading or
// autolock pass can be isolated in the flame graph. It satisfies usecase.RunProfiler.
func ProfileRun(ctx context.Context, kind runlog.Kind, week schedule.Week, fn func(context.Context)) {
	pyroscope.TagWrapper(ctx, pyroscope.Labels("run_kind", string(kind), "week", week.Key()), fn)
}
