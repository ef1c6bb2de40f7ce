package heartrails

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/walkable-stations/internal/domain"
	"github.com/couchcryptid/walkable-stations/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// Default endpoints of the free HeartRails APIs.
const (
	DefaultGeoURL     = "https://geoapi.heartrails.com/api/json"
	DefaultExpressURL = "https://express.heartrails.com/api/json"
)

// Options tunes the retry and throttling behavior of a Client.
type Options struct {
	// Timeout bounds each attempt.
	Timeout time.Duration
	// Retries is the number of additional attempts after the first failure.
	Retries int
	// BaseDelay is the sleep before the first retry; it doubles on each
	// subsequent retry.
	BaseDelay time.Duration
	// MinInterval spaces outbound requests. Zero disables throttling.
	MinInterval time.Duration
	// Clock drives the backoff sleeps. Defaults to the real clock.
	Clock clockwork.Clock
}

// Client performs GET requests against JSON endpoints with bounded retries
// and exponential backoff. It is safe for concurrent use; retry state lives
// on the stack of each GetJSON call.
type Client struct {
	httpClient *http.Client
	retries    int
	baseDelay  time.Duration
	clock      clockwork.Clock
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Client.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}

	var limiter *rate.Limiter
	if opts.MinInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		retries:    retries,
		baseDelay:  opts.BaseDelay,
		clock:      clock,
		limiter:    limiter,
		metrics:    metrics,
		logger:     logger,
	}
}

// GetJSON requests endpoint with params and returns the decoded top-level
// object. An attempt fails on a transport error, a non-2xx status, a body
// that is not a JSON object, or a top-level "error" field. After the last
// failed attempt the returned error is a *domain.APIError naming endpoint.
func (c *Client) GetJSON(ctx context.Context, endpoint string, params url.Values) (map[string]any, error) {
	fullURL := endpoint
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}
	method := params.Get("method")

	var (
		lastErr  error
		attempts int
	)
	for attempts < 1+c.retries {
		if attempts > 0 {
			delay := backoffDelay(c.baseDelay, attempts)
			c.metrics.APIRetries.WithLabelValues(method).Inc()
			c.logger.Debug("retrying heartrails request",
				"method", method,
				"attempt", attempts+1,
				"delay", delay,
				"error", lastErr,
			)
			if err := c.sleep(ctx, delay); err != nil {
				lastErr = err
				break
			}
		}

		attempts++
		body, err := c.attempt(ctx, fullURL, method)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	return nil, &domain.APIError{URL: endpoint, Attempts: attempts, Err: lastErr}
}

func (c *Client) attempt(ctx context.Context, fullURL, method string) (map[string]any, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	start := time.Now()
	body, err := c.do(ctx, fullURL)
	c.metrics.APIDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.metrics.APIRequests.WithLabelValues(method, outcome).Inc()
	return body, err
}

func (c *Client) do(ctx context.Context, fullURL string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(raw, 256))
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, errors.New("decode response: top level is not a JSON object")
	}
	if apiErr, ok := obj["error"]; ok && apiErr != nil {
		return nil, fmt.Errorf("api error: %v", apiErr)
	}
	return obj, nil
}

// sleep waits for d on the client clock or until ctx is done.
func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
		return nil
	}
}

// MaxBackoffDelay caps the sleep between retries.
const MaxBackoffDelay = 30 * time.Second

// backoffDelay is the sleep before retry n (1-based): base * 2^(n-1), capped
// at MaxBackoffDelay.
func backoffDelay(base time.Duration, n int) time.Duration {
	if n < 1 || base <= 0 {
		return 0
	}
	d := min(base, MaxBackoffDelay)
	for i := 1; i < n && d < MaxBackoffDelay; i++ {
		d = min(2*d, MaxBackoffDelay)
	}
	return d
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
