package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	apiPrefix      = "api/2.0/mlflow/"
	pageSize       = 100
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 64 << 10
	maxBackoff     = 5 * time.Minute
)

// Client talks to the MLflow tracking server REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
	retries    int
	backoff    time.Duration
	limiter    rateLimiter
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, primarily for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRetry sets how many times a transient failure is retried and the
// backoff factor. The n-th retry waits backoff * 2^(n-1), capped at five minutes.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		c.retries = max(attempts, 0)
		c.backoff = max(backoff, 0)
	}
}

// WithRateLimit paces requests to at most rps per second. Zero disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.limiter = newTokenBucketLimiter(rps, burst)
	}
}

// New creates a client for the tracking server at baseURI.
func New(baseURI string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURI))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidURI, baseURI, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w %q: only http and https tracking servers are supported", ErrInvalidURI, baseURI)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zap.NewNop(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := *c.httpClient
	hc.Transport = newLoggingTransport(hc.Transport, c.logger)
	c.httpClient = &hc
	return c, nil
}

// SearchRegisteredModels returns every registered model matching filter, following pagination.
func (c *Client) SearchRegisteredModels(ctx context.Context, filter string) ([]RegisteredModel, error) {
	var (
		models []RegisteredModel
		token  string
	)
	for {
		q := url.Values{}
		q.Set("max_results", fmt.Sprint(pageSize))
		if filter != "" {
			q.Set("filter", filter)
		}
		if token != "" {
			q.Set("page_token", token)
		}

		var resp searchRegisteredModelsResponse
		if err := c.get(ctx, "registered-models/search", q, &resp); err != nil {
			return nil, fmt.Errorf("search registered models: %w", err)
		}
		models = append(models, resp.RegisteredModels...)
		if resp.NextPageToken == "" {
			return models, nil
		}
		token = resp.NextPageToken
	}
}

// GetRegisteredModel returns the model with the given name or ErrNotFound.
func (c *Client) GetRegisteredModel(ctx context.Context, name string) (RegisteredModel, error) {
	q := url.Values{}
	q.Set("name", name)

	var resp getRegisteredModelResponse
	if err := c.get(ctx, "registered-models/get", q, &resp); err != nil {
		return RegisteredModel{}, fmt.Errorf("get registered model %q: %w", name, err)
	}
	return resp.RegisteredModel, nil
}

// SearchModelVersions returns every version of the named model, following pagination.
func (c *Client) SearchModelVersions(ctx context.Context, name string) ([]ModelVersion, error) {
	var (
		versions []ModelVersion
		token    string
	)
	for {
		q := url.Values{}
		q.Set("filter", NameFilter(name))
		q.Set("max_results", fmt.Sprint(pageSize))
		if token != "" {
			q.Set("page_token", token)
		}

		var resp searchModelVersionsResponse
		if err := c.get(ctx, "model-versions/search", q, &resp); err != nil {
			return nil, fmt.Errorf("search versions of %q: %w", name, err)
		}
		versions = append(versions, resp.ModelVersions...)
		if resp.NextPageToken == "" {
			return versions, nil
		}
		token = resp.NextPageToken
	}
}

// NameFilter builds a search filter matching a model name exactly.
func NameFilter(name string) string {
	return "name = '" + strings.ReplaceAll(name, "'", `\'`) + "'"
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	target := c.baseURL.ResolveReference(&url.URL{Path: apiPrefix + endpoint, RawQuery: query.Encode()})

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay(attempt)
			c.logger.Debug("retrying tracking request",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			if err := c.sleep(ctx, delay); err != nil {
				return err
			}
		}

		retry, err := c.do(ctx, target.String(), out)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// retryDelay doubles the backoff per attempt without overflowing past maxBackoff.
func (c *Client) retryDelay(attempt int) time.Duration {
	delay := min(c.backoff, maxBackoff)
	for i := 1; i < attempt && delay < maxBackoff; i++ {
		delay *= 2
	}
	return min(delay, maxBackoff)
}

// do performs a single request. The bool result reports whether the failure is transient.
func (c *Client) do(ctx context.Context, target string, out any) (bool, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return false, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{Status: resp.StatusCode}
		var payload errorResponse
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Code = payload.ErrorCode
			apiErr.Message = payload.Message
		}
		return retryableStatus(resp.StatusCode), apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return false, ErrEmptyResponse
		}
		return false, fmt.Errorf("decode response: %w", err)
	}
	return false, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
