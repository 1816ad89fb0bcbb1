package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/survivor-pool/external/oddsfeed"
	"github.com/riskibarqy/survivor-pool/internal/config"
	"github.com/riskibarqy/survivor-pool/internal/domain/pick"
	"github.com/riskibarqy/survivor-pool/internal/domain/pool"
	"github.com/riskibarqy/survivor-pool/internal/domain/runlog"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
	"github.com/riskibarqy/survivor-pool/internal/infrastructure/account/anubis"
	"github.com/riskibarqy/survivor-pool/internal/infrastructure/jobqueue"
	"github.com/riskibarqy/survivor-pool/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/survivor-pool/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/survivor-pool/internal/infrastructure/schedulestore"
	"github.com/riskibarqy/survivor-pool/internal/interfaces/httpapi"
	"github.com/riskibarqy/survivor-pool/internal/observability"
	idgen "github.com/riskibarqy/survivor-pool/internal/platform/id"
	"github.com/riskibarqy/survivor-pool/internal/platform/logging"
	"github.com/riskibarqy/survivor-pool/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"
)

const autolockPath = "/v1/internal/jobs/autolock"

// stores groups the repositories the usecases read and write, whichever driver backs them.
type stores struct {
	pools     pool.Repository
	picks     pick.Repository
	locker    pick.WeekLocker
	schedule  schedule.Repository
	spreads   schedule.SpreadWriter
	runs      runlog.Repository
	closeFunc func() error
}

// App owns the HTTP server and the resources it must release on shutdown.
type App struct {
	Server    *http.Server
	scheduler *usecase.LockScheduler
	logger    *logging.Logger
	close     func() error
}

func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	st, err := openStores(cfg, logger)
	if err != nil {
		return nil, err
	}

	guarded := schedulestore.New(st.schedule, st.spreads, schedulestore.Config{
		QueryTimeout:   cfg.ScheduleQueryTimeout,
		CircuitBreaker: cfg.ScheduleCircuit,
	}, logger)
	var scheduleRepo schedule.Repository = guarded

	pickIDs := idgen.NewPrefixedGenerator("pick_")
	queue := buildJobQueue(cfg, logger)

	weekSvc := usecase.NewWeekService(st.pools, scheduleRepo)
	runSvc := usecase.NewRunLogService(st.runs, idgen.NewPrefixedGenerator("run_"), usecase.RunLogConfig{
		HistoryLimit: cfg.RunHistoryLimit,
		StaleAfter:   cfg.RunStaleAfter,
	}, logger)
	var profiler usecase.RunProfiler
	if cfg.PyroscopeEnabled {
		profiler = observability.ProfileRun
	}
	scheduler := usecase.NewLockScheduler(scheduleRepo, queue, usecase.LockSchedulerConfig{AutolockPath: autolockPath}, logger)

	services := httpapi.Services{
		Weeks:       weekSvc,
		Eligibility: usecase.NewEligibilityService(st.pools, st.picks, scheduleRepo, weekSvc),
		Picks:       usecase.NewPickService(st.pools, st.picks, scheduleRepo, pickIDs, logger),
		Pools:       usecase.NewPoolService(st.pools, logger),
		Autopick: usecase.NewAutopickService(
			st.pools, st.picks, scheduleRepo, weekSvc, runSvc, scheduler, pickIDs,
			usecase.AutopickConfig{Workers: cfg.AutopickWorkers, Profiler: profiler},
			logger,
		),
		Grading: usecase.NewGradingService(
			st.pools, st.picks, scheduleRepo, st.locker, weekSvc, runSvc, scheduler,
			usecase.GradingConfig{Workers: cfg.GradingWorkers, Profiler: profiler},
			logger,
		),
		Runs:    runSvc,
		Spreads: usecase.NewSpreadService(buildSpreadProvider(cfg, logger), guarded, weekSvc, logger),
	}

	var verifier httpapi.TokenVerifier = anubis.NewClient(
		&http.Client{Timeout: cfg.AnubisTimeout},
		anubis.ClientConfig{
			BaseURL:         cfg.AnubisBaseURL,
			IntrospectPath:  cfg.AnubisIntrospectPath,
			AdminKey:        cfg.AnubisAdminKey,
			CacheTTL:        cfg.AnubisCacheTTL,
			CacheMaxEntries: cfg.AnubisCacheMaxEntries,
			CircuitBreaker:  cfg.AnubisCircuit,
		},
		logger,
	)

	handler := httpapi.NewHandler(services, logger)
	router := httpapi.NewRouter(handler, verifier, logger, httpapi.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
		AdminEmail:         cfg.AdminEmail,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		_ = st.closeFunc()
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server:    server,
		scheduler: scheduler,
		logger:    logger,
		close:     st.closeFunc,
	}, nil
}

// PrimeLockSchedule enqueues the autolock trigger for the next upcoming week so a
// fresh deploy does not wait for the first grading run to arm it.
func (a *App) PrimeLockSchedule(ctx context.Context) {
	scheduled, ok, err := a.scheduler.ScheduleNextLock(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "prime lock schedule failed", "error", err)
		return
	}
	if !ok {
		a.logger.InfoContext(ctx, "no upcoming week to arm autolock for")
		return
	}
	a.logger.InfoContext(ctx, "autolock armed",
		"week", scheduled.Week.Key(),
		"lock_at", scheduled.LockAt.Format(time.RFC3339),
	)
}

func (a *App) Close() error {
	if a == nil || a.close == nil {
		return nil
	}
	return a.close()
}

func openStores(cfg config.Config, logger *logging.Logger) (stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		store := memory.NewStore()
		memory.SeedDev(store, time.Now().UTC())
		scheduleRepo := memory.NewScheduleRepository(store)
		picks := memory.NewPickRepository(store)
		logger.Warn("using in-memory store", "pool_id", memory.SeedPoolID)
		return stores{
			pools:     memory.NewPoolRepository(store),
			picks:     picks,
			locker:    picks,
			schedule:  scheduleRepo,
			spreads:   scheduleRepo,
			runs:      memory.NewRunLogRepository(store),
			closeFunc: func() error { return nil },
		}, nil
	}

	db, err := openDB(cfg)
	if err != nil {
		return stores{}, err
	}
	scheduleRepo := postgres.NewScheduleRepository(db)
	picks := postgres.NewPickRepository(db, logger)
	return stores{
		pools:     postgres.NewPoolRepository(db),
		picks:     picks,
		locker:    picks,
		schedule:  scheduleRepo,
		spreads:   scheduleRepo,
		runs:      postgres.NewRunLogRepository(db),
		closeFunc: db.Close,
	}, nil
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	opts := []otelsql.Option{
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	}
	if name := dbNameFromURL(dsn); name != "" {
		opts = append(opts, otelsql.WithDBName(name))
	}

	db, err := otelsqlx.Open("postgres", dsn, opts...)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

func buildJobQueue(cfg config.Config, logger *logging.Logger) usecase.JobQueue {
	if !cfg.QStashEnabled {
		logger.Info("qstash disabled, autolock relies on external triggers")
		return usecase.NewNoopJobQueue()
	}
	return jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
		BaseURL:          cfg.QStashBaseURL,
		Token:            cfg.QStashToken,
		TargetBaseURL:    cfg.QStashTargetBaseURL,
		Retries:          cfg.QStashRetries,
		InternalJobToken: cfg.InternalJobToken,
		Timeout:          cfg.QStashTimeout,
		CircuitBreaker:   cfg.QStashCircuit,
	}, logger)
}

func buildSpreadProvider(cfg config.Config, logger *logging.Logger) usecase.SpreadProvider {
	if !cfg.OddsFeedEnabled {
		return nil
	}
	return oddsfeed.NewClient(oddsfeed.ClientConfig{
		BaseURL:        cfg.OddsFeedBaseURL,
		APIKey:         cfg.OddsFeedAPIKey,
		Timeout:        cfg.OddsFeedTimeout,
		MaxRetries:     cfg.OddsFeedMaxRetries,
		Logger:         logger,
		CircuitBreaker: cfg.OddsFeedCircuit,
	})
}
