// Package estimate implements the client for the remote AI-backed nutrient
// estimation endpoint, the last-resort stage of the resolution pipeline.
package estimate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bodybest/backend/internal/domain"
)

const maxAttempts = 3

// Client calls the remote nutrient estimation service. Requests are
// rate-limited, timeout-bounded and retried on transient failures.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// Config holds estimate client configuration
type Config struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	RequestsPerMin int
}

// NewClient creates an estimation client. Timeout bounds each attempt so a
// hanging upstream cannot stall the pipeline's loading state.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	perMin := cfg.RequestsPerMin
	if perMin <= 0 {
		perMin = 60
	}
	limiter := rate.NewLimiter(rate.Limit(float64(perMin)/60.0), 5)

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		rateLimiter: limiter,
		logger:      logger,
	}
}

type estimateRequest struct {
	Food     string `json:"food"`
	Quantity string `json:"quantity"`
}

type estimateResponse struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// Estimate requests a macro profile for a food description and quantity
// representation. Any non-success status, network failure, timeout or
// malformed body is reported as domain.ErrEstimateFailure.
func (c *Client) Estimate(ctx context.Context, food, quantity string) (domain.MacroProfile, error) {
	payload, err := json.Marshal(estimateRequest{Food: food, Quantity: quantity})
	if err != nil {
		return domain.MacroProfile{}, fmt.Errorf("encoding estimate request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1/estimate", c.baseURL)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return domain.MacroProfile{}, fmt.Errorf("%w: rate limiter: %v", domain.ErrEstimateFailure, err)
		}

		profile, retryable, err := c.doEstimate(ctx, reqURL, payload)
		if err == nil {
			return profile, nil
		}
		lastErr = err

		c.logger.Warn("estimate attempt failed",
			zap.Int("attempt", attempt),
			zap.String("food", food),
			zap.Error(err))

		if !retryable || attempt == maxAttempts {
			break
		}

		select {
		case <-time.After(exponentialBackoff(attempt)):
		case <-ctx.Done():
			return domain.MacroProfile{}, fmt.Errorf("%w: %v", domain.ErrEstimateFailure, ctx.Err())
		}
	}

	return domain.MacroProfile{}, lastErr
}

// doEstimate performs a single attempt. The second return value reports
// whether the failure is worth retrying.
func (c *Client) doEstimate(ctx context.Context, reqURL string, payload []byte) (domain.MacroProfile, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return domain.MacroProfile{}, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "bodybest-backend/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.MacroProfile{}, true, fmt.Errorf("%w: %v", domain.ErrEstimateFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.MacroProfile{}, true, fmt.Errorf("%w: reading body: %v", domain.ErrEstimateFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return domain.MacroProfile{}, retryable,
			fmt.Errorf("%w: status %d", domain.ErrEstimateFailure, resp.StatusCode)
	}

	var decoded estimateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return domain.MacroProfile{}, false, fmt.Errorf("%w: decoding body: %v", domain.ErrEstimateFailure, err)
	}

	profile, err := validateProfile(decoded)
	if err != nil {
		return domain.MacroProfile{}, false, err
	}

	return profile, false, nil
}

// validateProfile rejects payloads that would leak NaN, infinities or
// negative values to callers.
func validateProfile(r estimateResponse) (domain.MacroProfile, error) {
	fields := []struct {
		name  string
		value float64
	}{
		{"calories", r.Calories},
		{"protein", r.Protein},
		{"carbs", r.Carbs},
		{"fat", r.Fat},
		{"fiber", r.Fiber},
	}

	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return domain.MacroProfile{}, fmt.Errorf("%w: invalid %s value %v", domain.ErrEstimateFailure, f.name, f.value)
		}
	}

	return domain.MacroProfile{
		Calories: r.Calories,
		Protein:  r.Protein,
		Carbs:    r.Carbs,
		Fat:      r.Fat,
		Fiber:    r.Fiber,
	}, nil
}

// exponentialBackoff returns the wait before retrying the given attempt
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * 500 * time.Millisecond
}
