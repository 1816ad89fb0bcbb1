package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
	"github.com/riskibarqy/survivor-pool/internal/domain/survivor"
	"github.com/riskibarqy/survivor-pool/internal/platform/logging"
)

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

type LockSchedulerConfig struct {
	AutolockPath string
}

type ScheduledLock struct {
	Week            schedule.Week `json:"week"`
	LockAt          time.Time     `json:"lock_at"`
	DelayMs         int64         `json:"delay_ms"`
	DeduplicationID string        `json:"deduplication_id"`
}

// LockScheduler queues a delayed autolock trigger at the next week's lock time so
// autopick fires at the natural lock instead of waiting for the next cron tick.
type LockScheduler struct {
	scheduleRepo schedule.Repository
	queue        JobQueue
	cfg          LockSchedulerConfig
	logger       *logging.Logger
	now          func() time.Time
}

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func NewLockScheduler(scheduleRepo schedule.Repository, queue JobQueue, cfg LockSchedulerConfig, logger *logging.Logger) *LockScheduler {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.AutolockPath) == "" {
		cfg.AutolockPath = "/v1/internal/jobs/autolock"
	}

	return &LockScheduler{
		scheduleRepo: scheduleRepo,
		queue:        queue,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *LockScheduler) ScheduleNextLock(ctx context.Context) (ScheduledLock, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LockScheduler.ScheduleNextLock")
	defer span.End()

	now := s.now()
	next, ok, err := s.scheduleRepo.NextKickoff(ctx, now)
	if err != nil {
		return ScheduledLock{}, false, upstreamErr("next kickoff", err)
	}
	if !ok {
		return ScheduledLock{}, false, nil
	}

	week := next.Week()
	games, err := loadWeekGames(ctx, s.scheduleRepo, week)
	if err != nil {
		return ScheduledLock{}, false, err
	}
	lockAt, ok := survivor.LockAt(games)
	if !ok {
		return ScheduledLock{}, false, nil
	}

	delay := lockAt.Sub(now)
	if delay < 0 {
		delay = 0
	}
	scheduled := ScheduledLock{
		Week:            week,
		LockAt:          lockAt.UTC(),
		DelayMs:         delay.Milliseconds(),
		DeduplicationID: dedupKey("autolock", week.Key(), lockAt, time.Minute),
	}

	payload := map[string]any{
		"season_year": week.SeasonYear,
		"phase":       week.Phase,
		"week_number": week.Number,
	}
	if err := s.queue.Enqueue(ctx, s.cfg.AutolockPath, payload, delay, scheduled.DeduplicationID); err != nil {
		return ScheduledLock{}, false, fmt.Errorf("%w: enqueue autolock trigger: %v", ErrDependencyUnavailable, err)
	}

	s.logger.InfoContext(ctx, "autolock trigger queued",
		"week", week.Key(),
		"lock_at", scheduled.LockAt,
		"dedup_id", scheduled.DeduplicationID,
	)
	return scheduled, true, nil
}

func dedupKey(prefix, scope string, at time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Minute
	}
	slot := at.UTC().Truncate(bucket).Format("20060102T150405Z")
	prefix = sanitizeDedupSegment(prefix)
	scope = sanitizeDedupSegment(scope)
	return prefix + "-" + scope + "-" + slot
}

func sanitizeDedupSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafeCharRegex.ReplaceAllString(value, "-")
}
