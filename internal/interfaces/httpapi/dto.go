package httpapi

import (
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/pick"
	"github.com/riskibarqy/survivor-pool/internal/domain/pool"
	"github.com/riskibarqy/survivor-pool/internal/domain/runlog"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
	"github.com/riskibarqy/survivor-pool/internal/domain/survivor"
)

type submitPickRequest struct {
	SeasonYear int    `json:"season_year" validate:"required,gte=2000,lte=2100"`
	Phase      string `json:"phase" validate:"omitempty,max=32"`
	WeekNumber int    `json:"week_number" validate:"required,gte=1,lte=30"`
	TeamCode   string `json:"team_code" validate:"required,min=1,max=8"`
}

type updateSettingsRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	MaxLosses int    `json:"max_losses" validate:"required,gte=1,lte=5"`
}

type memberActionRequest struct {
	UserID string `json:"user_id" validate:"required,max=128"`
	Action string `json:"action" validate:"required,oneof=reset_losses set_eliminated set_commissioner kick_member"`
	Value  bool   `json:"value"`
}

// gradeJobRequest selects one week when all three fields are set.
type gradeJobRequest struct {
	SeasonYear int    `json:"season_year" validate:"omitempty,gte=2000,lte=2100"`
	Phase      string `json:"phase" validate:"omitempty,max=32"`
	WeekNumber int    `json:"week_number" validate:"omitempty,gte=1,lte=30"`
}

func (r gradeJobRequest) phase() schedule.Phase {
	if r.Phase == "" {
		return ""
	}
	return schedule.ParsePhase(r.Phase)
}

type syncSpreadsRequest struct {
	SeasonYear int    `json:"season_year" validate:"omitempty,gte=2000,lte=2100"`
	Phase      string `json:"phase" validate:"omitempty,max=32"`
	WeekNumber int    `json:"week_number" validate:"omitempty,gte=1,lte=30"`
}

func (r syncSpreadsRequest) week() *schedule.Week {
	if r.SeasonYear <= 0 || r.WeekNumber <= 0 {
		return nil
	}
	phase := schedule.PhaseRegular
	if r.Phase != "" {
		phase = schedule.ParsePhase(r.Phase)
	}
	return &schedule.Week{SeasonYear: r.SeasonYear, Phase: phase, Number: r.WeekNumber}
}

type pickDTO struct {
	ID              string         `json:"id"`
	PoolID          string         `json:"pool_id"`
	UserID          string         `json:"user_id"`
	SeasonYear      int            `json:"season_year"`
	Phase           schedule.Phase `json:"phase"`
	WeekNumber      int            `json:"week_number"`
	WeekLabel       string         `json:"week_label"`
	TeamCode        string         `json:"team_code"`
	SubmittedAt     time.Time      `json:"submitted_at"`
	WasAutopick     bool           `json:"was_autopick"`
	Result          pick.Result    `json:"result"`
	CountedInLosses bool           `json:"counted_in_losses"`
	GradedAt        *time.Time     `json:"graded_at,omitempty"`
}

type standingDTO struct {
	Rank           int       `json:"rank"`
	UserID         string    `json:"user_id"`
	DisplayName    string    `json:"display_name"`
	Losses         int       `json:"losses"`
	Eliminated     bool      `json:"eliminated"`
	IsCommissioner bool      `json:"is_commissioner"`
	JoinedAt       time.Time `json:"joined_at"`
}

type poolDTO struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SeasonYear int       `json:"season_year"`
	MaxLosses  int       `json:"max_losses"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type runRecordDTO struct {
	ID         string         `json:"id"`
	Kind       runlog.Kind    `json:"kind"`
	RanAt      time.Time      `json:"ran_at"`
	Status     runlog.Status  `json:"status"`
	Message    string         `json:"message"`
	DurationMs int64          `json:"duration_ms"`
	Details    map[string]any `json:"details,omitempty"`
}

func pickToDTO(item pick.Pick) pickDTO {
	return pickDTO{
		ID:              item.ID,
		PoolID:          item.PoolID,
		UserID:          item.UserID,
		SeasonYear:      item.SeasonYear,
		Phase:           item.Phase,
		WeekNumber:      item.WeekNumber,
		WeekLabel:       survivor.WeekLabel(item.Phase, item.WeekNumber),
		TeamCode:        item.TeamCode,
		SubmittedAt:     item.SubmittedAt.UTC(),
		WasAutopick:     item.WasAutopick,
		Result:          item.Result,
		CountedInLosses: item.CountedInLosses,
		GradedAt:        item.GradedAt,
	}
}

func picksToDTO(items []pick.Pick) []pickDTO {
	out := make([]pickDTO, 0, len(items))
	for _, item := range items {
		out = append(out, pickToDTO(item))
	}
	return out
}

// standingsToDTO keeps the incoming order; members tied on alive and losses share a rank.
func standingsToDTO(members []pool.Member) []standingDTO {
	out := make([]standingDTO, 0, len(members))
	rank := 0
	for i, m := range members {
		if i == 0 || m.Eliminated != members[i-1].Eliminated || m.Losses != members[i-1].Losses {
			rank = i + 1
		}
		out = append(out, standingDTO{
			Rank:           rank,
			UserID:         m.UserID,
			DisplayName:    m.DisplayName,
			Losses:         m.Losses,
			Eliminated:     m.Eliminated,
			IsCommissioner: m.IsCommissioner,
			JoinedAt:       m.JoinedAt.UTC(),
		})
	}
	return out
}

func poolToDTO(item pool.Pool) poolDTO {
	return poolDTO{
		ID:         item.ID,
		Name:       item.Name,
		SeasonYear: item.SeasonYear,
		MaxLosses:  item.MaxLosses,
		UpdatedAt:  item.UpdatedAt.UTC(),
	}
}

func runRecordsToDTO(items []runlog.Record) []runRecordDTO {
	out := make([]runRecordDTO, 0, len(items))
	for _, item := range items {
		out = append(out, runRecordDTO{
			ID:         item.ID,
			Kind:       item.Kind,
			RanAt:      item.RanAt.UTC(),
			Status:     item.Status,
			Message:    item.Message,
			DurationMs: item.DurationMs,
			Details:    item.Details,
		})
	}
	return out
}
