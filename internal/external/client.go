// Package external is the anti-corruption layer between Routecast and its
// upstream providers (Mapbox, the National Weather Service, Google Places,
// Overpass, OpenAI). Every outbound HTTP call goes through BaseClient, which
// owns circuit breaking, retry/backoff, trace propagation, and the mapping of
// transport failures onto the AppError taxonomy.
package external

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"routecast/internal/types"

	"github.com/sony/gobreaker/v2"
)

// RetryPolicy controls how BaseClient reattempts 429 and 5xx responses.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy suits calls made once or twice per request (geocoding,
// routing), where a transient upstream blip should not fail the pipeline.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		MinWait:    500 * time.Millisecond,
		MaxWait:    10 * time.Second,
	}
}

// NoRetryPolicy disables retries. Used for providers called once per waypoint
// in a fan-out, where retrying would multiply latency across the whole route.
func NoRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 0,
		MinWait:    500 * time.Millisecond,
		MaxWait:    10 * time.Second,
	}
}

// BaseClient is the shared transport for provider clients. Each provider
// embeds one, giving every upstream the same breaker and retry behavior with
// a per-provider breaker name.
type BaseClient struct {
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	retryPolicy RetryPolicy
	userAgent   string
	sleepFn     func(time.Duration) // time.Sleep unless overridden in tests
}

// BaseClientOption is a functional option for configuring a BaseClient.
type BaseClientOption func(*BaseClient)

// WithSleepFunc replaces the inter-retry sleep, letting tests run backoff
// paths without real delays.
func WithSleepFunc(fn func(time.Duration)) BaseClientOption {
	return func(c *BaseClient) {
		c.sleepFn = fn
	}
}

// NewBaseClient builds a BaseClient around httpClient. The breaker opens
// after more than five consecutive failures and probes again after 30s.
func NewBaseClient(
	httpClient *http.Client,
	breakerName string,
	retryPolicy RetryPolicy,
	userAgent string,
	opts ...BaseClientOption,
) *BaseClient {
	bc := &BaseClient{
		client: httpClient,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:        breakerName,
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
			IsSuccessful: func(err error) bool {
				return err == nil
			},
		}),
		retryPolicy: retryPolicy,
		userAgent:   userAgent,
		sleepFn:     time.Sleep,
	}

	for _, opt := range opts {
		opt(bc)
	}

	return bc
}

// Do sends the request through the breaker with retry on 429 and 5xx.
//
// A 2xx/3xx response, or any 4xx other than 429, is handed back untouched;
// the caller owns the body. Exhausted retries, network failures, and an open
// breaker come back as a types.AppError with an upstream error code.
//
// The request ID from the context, when present, is forwarded as
// X-B3-TraceId so provider-side logs can be correlated.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if traceID := types.GetRequestID(req.Context()); traceID != "" {
		req.Header.Set("X-B3-TraceId", traceID)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	// Buffer the body once so POST retries can replay it.
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalUnexpected,
				"failed to read request body for retry support", err)
		}
		req.Body.Close()
	}

	var lastResp *http.Response
	var lastErr error

	attempts := 1 + c.retryPolicy.MaxRetries
	for attempt := 0; attempt < attempts; attempt++ {
		if body != nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
			req.ContentLength = int64(len(body))
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			return c.attempt(req)
		})
		if err == nil {
			return resp, nil
		}

		lastErr = err
		if resp != nil {
			if attempt == attempts-1 {
				lastResp = resp
			} else {
				resp.Body.Close()
			}
		}

		// An open breaker will fail every attempt; stop immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}

		// Non-retryable 4xx: the caller gets the response, not an error.
		if resp != nil && resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			return resp, nil
		}

		if attempt < attempts-1 {
			c.sleepFn(c.computeBackoff(attempt, resp))
		}
	}

	if lastResp != nil {
		lastResp.Body.Close()
	}

	return nil, c.mapError(lastResp, lastErr)
}

// attempt performs one round trip, reporting 429 and 5xx as errors so they
// count against the breaker.
func (c *BaseClient) attempt(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 500 {
		return resp, fmt.Errorf("upstream returned %d", resp.StatusCode)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return resp, fmt.Errorf("upstream returned 429")
	}
	return resp, nil
}

// computeBackoff returns the wait before the next attempt: the Retry-After
// header when the upstream sent one, otherwise exponential backoff with full
// jitter, both clamped to [MinWait, MaxWait].
func (c *BaseClient) computeBackoff(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
				return clampWait(time.Duration(seconds)*time.Second, c.retryPolicy)
			}
			if t, err := http.ParseTime(retryAfter); err == nil {
				return clampWait(time.Until(t), c.retryPolicy)
			}
		}
	}

	ceiling := float64(c.retryPolicy.MinWait) * math.Pow(2, float64(attempt))
	if max := float64(c.retryPolicy.MaxWait); ceiling > max {
		ceiling = max
	}
	floor := float64(c.retryPolicy.MinWait)
	if ceiling <= floor {
		return c.retryPolicy.MinWait
	}
	return time.Duration(floor + rand.Float64()*(ceiling-floor))
}

func clampWait(wait time.Duration, p RetryPolicy) time.Duration {
	if wait <= 0 {
		return p.MinWait
	}
	if wait > p.MaxWait {
		return p.MaxWait
	}
	return wait
}

// mapError turns the terminal transport failure into an AppError.
func (c *BaseClient) mapError(resp *http.Response, err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(types.ErrCodeUpstreamRateLimited,
			"circuit breaker is open; upstream service unavailable", err)
	}

	if resp != nil {
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return types.NewAppError(types.ErrCodeUpstreamRateLimited,
				"upstream rate limit exceeded", err)
		case resp.StatusCode >= 500:
			return types.NewAppError(types.ErrCodeUpstreamUnavailable,
				fmt.Sprintf("upstream returned %d after retries", resp.StatusCode), err)
		}
	}

	// Network error, DNS failure, connection reset.
	return types.NewAppError(types.ErrCodeInternalUnexpected,
		"upstream request failed", err)
}
