// Package oddsfeed reads weekly point spreads from the odds provider.
package oddsfeed

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
	"github.com/riskibarqy/survivor-pool/internal/domain/survivor"
	"github.com/riskibarqy/survivor-pool/internal/platform/logging"
	"github.com/riskibarqy/survivor-pool/internal/platform/resilience"
	"github.com/riskibarqy/survivor-pool/internal/usecase"
	"github.com/valyala/fasthttp"
)

const (
	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 2 << 20
	spreadsPath      = "/v1/spreads"
)

var errOddsTransient = crerr.New("odds feed transient failure")

type ClientConfig struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	http       *fasthttp.Client
	baseURL    string
	apiKey     string
	timeout    time.Duration
	maxRetries int
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	flight     resilience.SingleFlight[[]byte]
	backoff    func(attempt int) time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		http: &fasthttp.Client{
			Name:                "survivor-pool-oddsfeed",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: maxResponseBytes,
		},
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		timeout:    timeout,
		maxRetries: max(cfg.MaxRetries, 0),
		logger:     logger,
		breaker: resilience.NewCircuitBreakerFromConfig("odds_feed", cfg.CircuitBreaker).
			OnStateChange(resilience.LogTransitions(logger.Warn)),
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt+1) * 500 * time.Millisecond
		},
	}
}

type spreadsEnvelope struct {
	Data []spreadItem `json:"data"`
}

type spreadItem struct {
	HomeTeam   string   `json:"home_team"`
	AwayTeam   string   `json:"away_team"`
	HomeSpread *float64 `json:"home_spread"`
}

// FetchSpreads implements usecase.SpreadProvider. Lines without a spread are skipped.
func (c *Client) FetchSpreads(ctx context.Context, week schedule.Week) ([]usecase.ExternalSpread, error) {
	if c.baseURL == "" {
		return nil, crerr.New("odds feed base url is not configured")
	}

	query := url.Values{}
	query.Set("season", strconv.Itoa(week.SeasonYear))
	query.Set("phase", string(week.Phase))
	query.Set("week", strconv.Itoa(week.Number))
	fullURL := c.baseURL + spreadsPath + "?" + query.Encode()

	raw, err, _ := c.flight.Do(ctx, fullURL, func() ([]byte, error) {
		var raw []byte
		callErr := c.breaker.Execute(func() error {
			body, err := c.get(ctx, fullURL)
			raw = body
			return err
		}, isCircuitFailure)
		return raw, callErr
	})
	if err != nil {
		if crerr.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "odds feed circuit breaker rejected request", "week", week.Key(), "error", err)
		}
		return nil, crerr.Wrapf(err, "fetch spreads week=%s", week.Key())
	}

	var envelope spreadsEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, crerr.Wrap(err, "decode odds payload")
	}

	spreads := make([]usecase.ExternalSpread, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		home := survivor.NormalizeTeamCode(item.HomeTeam)
		away := survivor.NormalizeTeamCode(item.AwayTeam)
		if home == "" || away == "" || item.HomeSpread == nil {
			continue
		}
		spreads = append(spreads, usecase.ExternalSpread{
			HomeTeam:   home,
			AwayTeam:   away,
			HomeSpread: *item.HomeSpread,
		})
	}
	return spreads, nil
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, status, err := c.do(ctx, fullURL)
		switch {
		case err != nil:
			lastErr = crerr.Mark(crerr.Wrap(err, "send odds request"), errOddsTransient)
		case status >= 200 && status < 300:
			return body, nil
		case isRetryableStatus(status):
			lastErr = crerr.Mark(crerr.Newf("odds feed status=%d body=%s", status, abbreviate(body)), errOddsTransient)
		default:
			return nil, crerr.Newf("odds feed status=%d body=%s", status, abbreviate(body))
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(c.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "odds feed request failed", "error", lastErr)
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, fullURL string) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, 0, err
	}

	body := append([]byte(nil), resp.Body()...)
	return body, resp.StatusCode(), nil
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, errOddsTransient)
}

func isRetryableStatus(status int) bool {
	return status == fasthttp.StatusRequestTimeout ||
		status == fasthttp.StatusTooManyRequests ||
		status >= fasthttp.StatusInternalServerError
}

func abbreviate(body []byte) string {
	const limit = 256
	text := strings.TrimSpace(string(body))
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
