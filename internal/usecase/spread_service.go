package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
	"github.com/riskibarqy/survivor-pool/internal/domain/survivor"
	"github.com/riskibarqy/survivor-pool/internal/platform/logging"
)

// ExternalSpread is one line from the odds feed. HomeSpread < 0 means home is favored.
type ExternalSpread struct {
	HomeTeam   string
	AwayTeam   string
	HomeSpread float64
}

type SpreadProvider interface {
	FetchSpreads(ctx context.Context, week schedule.Week) ([]ExternalSpread, error)
}

type SyncSpreadsResult struct {
	Week      schedule.Week `json:"week"`
	Fetched   int           `json:"fetched"`
	Updated   int           `json:"updated"`
	Unmatched []string      `json:"unmatched,omitempty"`
}

// SpreadService stores odds-feed spreads on games. Spreads only steer autopick.
type SpreadService struct {
	provider SpreadProvider
	writer   schedule.SpreadWriter
	weeks    *WeekService
	logger   *logging.Logger
}

func NewSpreadService(provider SpreadProvider, writer schedule.SpreadWriter, weeks *WeekService, logger *logging.Logger) *SpreadService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SpreadService{
		provider: provider,
		writer:   writer,
		weeks:    weeks,
		logger:   logger,
	}
}

// SyncSpreads pulls spreads for week, or the resolved current week when week is nil.
func (s *SpreadService) SyncSpreads(ctx context.Context, week *schedule.Week) (SyncSpreadsResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SpreadService.SyncSpreads")
	defer span.End()

	if s.provider == nil || s.writer == nil {
		return SyncSpreadsResult{}, fmt.Errorf("%w: odds feed is not configured", ErrDependencyUnavailable)
	}

	var target schedule.Week
	if week != nil {
		if err := validateWeek(*week); err != nil {
			return SyncSpreadsResult{}, err
		}
		target = *week
	} else {
		resolved, err := s.weeks.ResolveCurrentWeek(ctx)
		if err != nil {
			return SyncSpreadsResult{}, err
		}
		target = resolved
	}

	spreads, err := s.provider.FetchSpreads(ctx, target)
	if err != nil {
		return SyncSpreadsResult{}, fmt.Errorf("%w: fetch spreads: %v", ErrUpstreamData, err)
	}

	result := SyncSpreadsResult{Week: target, Fetched: len(spreads)}
	for _, line := range spreads {
		home := survivor.NormalizeTeamCode(line.HomeTeam)
		away := survivor.NormalizeTeamCode(line.AwayTeam)
		updated, err := s.writer.UpdateHomeSpread(ctx, target, home, away, line.HomeSpread)
		if err != nil {
			return result, fmt.Errorf("update spread %s@%s: %w", away, home, err)
		}
		if updated {
			result.Updated++
			continue
		}
		result.Unmatched = append(result.Unmatched, away+"@"+home)
	}

	s.logger.InfoContext(ctx, "spreads synced",
		"week", target.Key(),
		"fetched", result.Fetched,
		"updated", result.Updated,
		"unmatched", len(result.Unmatched),
	)
	return result, nil
}
