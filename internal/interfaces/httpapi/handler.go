package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
	"github.com/riskibarqy/survivor-pool/internal/domain/user"
	"github.com/riskibarqy/survivor-pool/internal/platform/logging"
	"github.com/riskibarqy/survivor-pool/internal/usecase"
)

// Services groups the usecases exposed over HTTP. Nil services answer 503.
type Services struct {
	Weeks       *usecase.WeekService
	Eligibility *usecase.EligibilityService
	Picks       *usecase.PickService
	Pools       *usecase.PoolService
	Autopick    *usecase.AutopickService
	Grading     *usecase.GradingService
	Runs        *usecase.RunLogService
	Spreads     *usecase.SpreadService
}

type Handler struct {
	weeks       *usecase.WeekService
	eligibility *usecase.EligibilityService
	picks       *usecase.PickService
	pools       *usecase.PoolService
	autopick    *usecase.AutopickService
	grading     *usecase.GradingService
	runs        *usecase.RunLogService
	spreads     *usecase.SpreadService
	logger      *logging.Logger
	validator   *validator.Validate
}

func NewHandler(services Services, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		weeks:       services.Weeks,
		eligibility: services.Eligibility,
		picks:       services.Picks,
		pools:       services.Pools,
		autopick:    services.Autopick,
		grading:     services.Grading,
		runs:        services.Runs,
		spreads:     services.Spreads,
		logger:      logger,
		validator:   validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeAndValidate reads a strict JSON body into dst. An empty body is accepted
// only when allowEmpty is set.
func (h *Handler) decodeAndValidate(ctx context.Context, r *http.Request, dst any, allowEmpty bool) error {
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if !allowEmpty || !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
		}
	}
	return h.validateRequest(ctx, dst)
}

func requirePrincipal(ctx context.Context) (user.Principal, error) {
	principal, ok := principalFromContext(ctx)
	if !ok || strings.TrimSpace(principal.UserID) == "" {
		return user.Principal{}, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized)
	}
	return principal, nil
}

func poolIDFromPath(r *http.Request) (string, error) {
	poolID := strings.TrimSpace(r.PathValue("poolID"))
	if poolID == "" {
		return "", fmt.Errorf("%w: pool id is required", usecase.ErrInvalidInput)
	}
	return poolID, nil
}

// weekFromQuery reads season_year, phase and week_number. It returns nil when none
// are given so the caller falls back to the current week.
func weekFromQuery(r *http.Request) (*schedule.Week, error) {
	query := r.URL.Query()
	rawSeason := strings.TrimSpace(query.Get("season_year"))
	rawPhase := strings.TrimSpace(query.Get("phase"))
	rawWeek := strings.TrimSpace(query.Get("week_number"))
	if rawSeason == "" && rawPhase == "" && rawWeek == "" {
		return nil, nil
	}
	if rawSeason == "" || rawWeek == "" {
		return nil, fmt.Errorf("%w: season_year and week_number must be given together", usecase.ErrInvalidInput)
	}

	season, err := strconv.Atoi(rawSeason)
	if err != nil || season <= 0 {
		return nil, fmt.Errorf("%w: invalid season_year %q", usecase.ErrInvalidInput, rawSeason)
	}
	number, err := strconv.Atoi(rawWeek)
	if err != nil || number <= 0 {
		return nil, fmt.Errorf("%w: invalid week_number %q", usecase.ErrInvalidInput, rawWeek)
	}
	phase := schedule.PhaseRegular
	if rawPhase != "" {
		phase = schedule.ParsePhase(rawPhase)
	}

	return &schedule.Week{SeasonYear: season, Phase: phase, Number: number}, nil
}

func unavailable(name string) error {
	return fmt.Errorf("%w: %s is not configured", usecase.ErrDependencyUnavailable, name)
}
