package observability

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/survivor-pool/internal/config"
	"github.com/riskibarqy/survivor-pool/internal/platform/logging"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitBetterStackLogger configures logger fanout to stdout and optional Better Stack.
func InitBetterStackLogger(cfg config.Config, baseLogger *logging.Logger) (*logging.Logger, func(context.Context) error, error) {
	if baseLogger == nil {
		baseLogger = logging.NewJSON(cfg.LogLevel)
	}

	if !cfg.BetterStackEnabled {
		baseLogger.Info("betterstack disabled", "reason", "BETTERSTACK_ENABLED=false")
		return baseLogger, func(context.Context) error { return nil }, nil
	}

	endpoint := normalizeBetterStackEndpoint(cfg.BetterStackEndpoint)
	if endpoint == "" {
		return nil, nil, fmt.Errorf("betterstack endpoint cannot be empty")
	}

	stdoutCore := logging.StdoutCore(cfg.LogLevel)

	syncer := newBetterStackWriteSyncer(
		endpoint,
		strings.TrimSpace(cfg.BetterStackToken),
		cfg.BetterStackTimeout,
	)

	betterStackCore := newRunRecordCore(zapcore.NewCore(
		zapcore.NewJSONEncoder(logging.EncoderConfig()),
		zapcore.AddSync(syncer),
		min(cfg.BetterStackMinLevel, runRecordLevel),
	), cfg.BetterStackMinLevel)

	zapLogger := zap.New(
		zapcore.NewTee(stdoutCore, betterStackCore),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(serviceFields(cfg)...),
	)

	logger := logging.FromZap(zapLogger)
	logger.Info("betterstack enabled",
		"endpoint", endpoint,
		"min_level", cfg.BetterStackMinLevel.String(),
		"service_name", cfg.ServiceName,
		"environment", cfg.AppEnv,
	)

	return logger, func(ctx context.Context) error {
		drainCtx := ctx
		if drainCtx == nil {
			drainCtx = context.Background()
		}
		if _, hasDeadline := drainCtx.Deadline(); !hasDeadline {
			withTimeout, cancel := context.WithTimeout(drainCtx, 5*time.Second)
			defer cancel()
			drainCtx = withTimeout
		}
		if err := syncer.Close(drainCtx); err != nil {
			return fmt.Errorf("drain betterstack queue: %w", err)
		}
		if err := logger.Sync(); err != nil && !isIgnorableLoggerSyncError(err) {
			return err
		}
		return nil
	}, nil
}

// runRecordLevel is the lowest level shipped for records of a grading or autolock run.
const runRecordLevel = zapcore.InfoLevel

const runKindKey = "run_kind"

// runRecordCore ships records at or above minLevel, plus the info records that carry
// a run_kind, so the off-box history of every grade and autolock pass is complete
// even when the source only takes errors.
type runRecordCore struct {
	zapcore.Core
	minLevel zapcore.Level
	inRun    bool
}

func newRunRecordCore(inner zapcore.Core, minLevel zapcore.Level) zapcore.Core {
	return &runRecordCore{Core: inner, minLevel: minLevel}
}

func (c *runRecordCore) With(fields []zapcore.Field) zapcore.Core {
	return &runRecordCore{
		Core:     c.Core.With(fields),
		minLevel: c.minLevel,
		inRun:    c.inRun || hasRunKind(fields),
	}
}

func (c *runRecordCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *runRecordCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.Level < c.minLevel && !c.inRun && !hasRunKind(fields) {
		return nil
	}
	return c.Core.Write(entry, fields)
}

func hasRunKind(fields []zapcore.Field) bool {
	for _, f := range fields {
		if f.Key == runKindKey {
			return true
		}
	}
	return false
}

// serviceFields tags every shipped record so one Better Stack source can hold
// several deployments of the pool API.
func serviceFields(cfg config.Config) []zap.Field {
	fields := []zap.Field{
		zap.String("service", cfg.ServiceName),
		zap.String("env", cfg.AppEnv),
	}
	if version := strings.TrimSpace(cfg.ServiceVersion); version != "" {
		fields = append(fields, zap.String("version", version))
	}
	return fields
}

func normalizeBetterStackEndpoint(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return value
	}
	return "https://" + value
}

// betterStackWriteSyncer ships records as JSON arrays. A grading run logs a burst of
// per-pool records, so records queue up and leave in one request per batch.
type betterStackWriteSyncer struct {
	endpoint   string
	token      string
	client     *http.Client
	queue      chan []byte
	maxBatch   int
	flushEvery time.Duration
	queueMu    sync.RWMutex
	closeOnce  sync.Once
	closed     atomic.Bool
	wg         sync.WaitGroup
	dropped    atomic.Uint64
}

const (
	betterStackMaxBatch   = 100
	betterStackFlushEvery = time.Second
)

func newBetterStackWriteSyncer(endpoint, token string, timeout time.Duration) *betterStackWriteSyncer {
	return startBetterStackWriteSyncer(endpoint, token, timeout, betterStackMaxBatch, betterStackFlushEvery)
}

func startBetterStackWriteSyncer(endpoint, token string, timeout time.Duration, maxBatch int, flushEvery time.Duration) *betterStackWriteSyncer {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	s := &betterStackWriteSyncer{
		endpoint:   endpoint,
		token:      token,
		client:     &http.Client{Timeout: timeout},
		queue:      make(chan []byte, 1024),
		maxBatch:   max(maxBatch, 1),
		flushEvery: flushEvery,
	}
	s.wg.Add(1)
	go s.run()

	return s
}

func (s *betterStackWriteSyncer) Write(p []byte) (int, error) {
	payload := bytes.TrimSpace(p)
	if len(payload) == 0 {
		return len(p), nil
	}

	s.queueMu.RLock()
	defer s.queueMu.RUnlock()
	if s.closed.Load() {
		return len(p), nil
	}

	// zap reuses its buffer once Write returns.
	copied := append([]byte(nil), payload...)

	select {
	case s.queue <- copied:
	default:
		dropped := s.dropped.Add(1)
		if dropped == 1 || dropped%100 == 0 {
			fmt.Fprintf(os.Stderr, "betterstack queue full; dropped logs=%d\n", dropped)
		}
	}

	return len(p), nil
}

func (s *betterStackWriteSyncer) run() {
	defer s.wg.Done()

	batch := bytebufferpool.Get()
	defer bytebufferpool.Put(batch)
	count := 0

	flush := func() {
		if count == 0 {
			return
		}
		_ = batch.WriteByte(']')
		s.send(batch.B)
		batch.Reset()
		count = 0
	}

	ticker := time.NewTicker(s.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-s.queue:
			if !ok {
				flush()
				return
			}
			if count == 0 {
				_ = batch.WriteByte('[')
			} else {
				_ = batch.WriteByte(',')
			}
			_, _ = batch.Write(payload)
			count++
			if count >= s.maxBatch {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (s *betterStackWriteSyncer) send(payload []byte) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		fmt.Fprintf(os.Stderr, "betterstack create request failed: %v\n", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "betterstack send batch failed: %v\n", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		fmt.Fprintf(os.Stderr, "betterstack send batch got non-2xx status=%d\n", resp.StatusCode)
	}
}

func (s *betterStackWriteSyncer) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.closeOnce.Do(func() {
		s.queueMu.Lock()
		s.closed.Store(true)
		close(s.queue)
		s.queueMu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *betterStackWriteSyncer) Sync() error {
	return nil
}

func isIgnorableLoggerSyncError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "bad file descriptor") || strings.Contains(msg, "invalid argument")
}
