package request

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"communityscout/pkg/config"
	"communityscout/pkg/logging"
	"communityscout/pkg/store"
	"communityscout/pkg/tracker"
	"communityscout/pkg/version"
)

var defaultUserAgent = fmt.Sprintf("communityscout/%s", version.Version)

// Client handles HTTP requests with per-provider queuing, response caching,
// backoff, and usage tracking. Provider calls are serialized per host group
// so a burst of category fetches can't trip rate limits.
type Client struct {
	httpClient *http.Client
	cache      store.CacheStore
	tracker    *tracker.Tracker
	backoff    *ProviderBackoff

	retries  int
	cacheTTL time.Duration

	// Queues per provider (domain)
	queues map[string]chan job
	mu     sync.Mutex // Protects queues map
}

// job represents a queued request.
type job struct {
	req      *http.Request
	headers  map[string]string
	cacheKey string
	respChan chan jobResult
}

type jobResult struct {
	body []byte
	err  error
}

// New creates a new Client. cache may be nil; responses are then never
// cached.
func New(c store.CacheStore, t *tracker.Tracker, cfg *config.RequestConfig) *Client {
	timeout := time.Duration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = 3
	}
	cacheTTL := time.Duration(cfg.CacheTTL)
	if cacheTTL <= 0 {
		cacheTTL = 12 * time.Hour
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cache:      c,
		tracker:    t,
		backoff:    NewProviderBackoff(time.Duration(cfg.Backoff.BaseDelay), time.Duration(cfg.Backoff.MaxDelay)),
		retries:    retries,
		cacheTTL:   cacheTTL,
		queues:     make(map[string]chan job),
	}
}

// Get performs a GET request with queuing and caching if key is provided.
func (c *Client) Get(ctx context.Context, u string, headers map[string]string, cacheKey string) ([]byte, error) {
	parsedURL, err := url.Parse(u)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	provider := normalizeProvider(parsedURL.Host)

	if body, hit := c.checkCache(ctx, provider, cacheKey); hit {
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return c.enqueue(ctx, provider, job{req: req, headers: headers, cacheKey: cacheKey, respChan: make(chan jobResult, 1)})
}

// PostJSON performs a POST request with custom headers, queuing, and
// optional caching.
func (c *Client) PostJSON(ctx context.Context, u string, body []byte, headers map[string]string, cacheKey string) ([]byte, error) {
	parsedURL, err := url.Parse(u)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	provider := normalizeProvider(parsedURL.Host)

	if cached, hit := c.checkCache(ctx, provider, cacheKey); hit {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if headers == nil {
		headers = map[string]string{}
	}
	if _, ok := headers["Content-Type"]; !ok {
		headers["Content-Type"] = "application/json"
	}

	return c.enqueue(ctx, provider, job{req: req, headers: headers, cacheKey: cacheKey, respChan: make(chan jobResult, 1)})
}

func (c *Client) checkCache(ctx context.Context, provider, cacheKey string) ([]byte, bool) {
	if cacheKey == "" || c.cache == nil {
		return nil, false
	}
	if val, hit := c.cache.GetCache(ctx, cacheKey); hit {
		c.tracker.TrackCacheHit(provider)
		slog.Debug("Cache Hit", "provider", provider, "key", cacheKey)
		return val, true
	}
	c.tracker.TrackCacheMiss(provider)
	slog.Debug("Cache Miss", "provider", provider, "key", cacheKey)
	return nil, false
}

func (c *Client) enqueue(ctx context.Context, provider string, j job) ([]byte, error) {
	c.dispatch(provider, j)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-j.respChan:
		return res.body, res.err
	}
}

// normalizeProvider groups hosts into logical providers for queue
// serialization and tracking.
func normalizeProvider(host string) string {
	if strings.HasSuffix(host, "places.googleapis.com") {
		return "places"
	}
	if strings.HasSuffix(host, "googleapis.com") {
		return "gemini"
	}
	return host
}

// dispatch sends the job to the provider's queue, creating the queue/worker
// if needed.
func (c *Client) dispatch(provider string, j job) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.queues[provider]
	if !ok {
		q = make(chan job, 100)
		c.queues[provider] = q
		go c.worker(provider, q)
	}

	// Block here if the queue is full, effectively throttling the caller
	select {
	case q <- j:
	case <-j.req.Context().Done():
		// Caller gave up before we could even enqueue
		j.respChan <- jobResult{err: j.req.Context().Err()}
	}
}

// worker processes requests for a specific provider sequentially.
func (c *Client) worker(provider string, q <-chan job) {
	for j := range q {
		if j.req.Context().Err() != nil {
			slog.Warn("Job dropped from queue (context expired)", "provider", provider, "error", j.req.Context().Err())
			j.respChan <- jobResult{err: j.req.Context().Err()}
			continue
		}

		uaSet := false
		for k, v := range j.headers {
			j.req.Header.Set(k, v)
			if http.CanonicalHeaderKey(k) == "User-Agent" {
				uaSet = true
			}
		}
		if !uaSet {
			j.req.Header.Set("User-Agent", defaultUserAgent)
		}

		// Respect any accumulated backoff for this provider before dialing.
		c.backoff.Wait(provider)

		start := time.Now()
		body, err := c.executeWithRetries(j.req)

		// Every outbound provider call goes to the requests log.
		reqLog := logging.Requests().With(
			"provider", provider,
			"method", j.req.Method,
			"host", j.req.URL.Host,
			"path", j.req.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		if err == nil {
			reqLog.Info("Provider request", "bytes", len(body))
		} else {
			reqLog.Warn("Provider request failed", "error", err)
		}

		if err == nil {
			c.tracker.TrackAPISuccess(provider)
			c.backoff.RecordSuccess(provider)
			if j.cacheKey != "" && c.cache != nil {
				if err := c.cache.SetCache(context.Background(), j.cacheKey, body, c.cacheTTL); err != nil {
					slog.Error("Failed to cache response", "url", j.req.URL, "error", err)
				}
			}
		} else {
			c.tracker.TrackAPIFailure(provider)
			c.backoff.RecordFailure(provider)
		}

		j.respChan <- jobResult{body: body, err: err}
	}
}

// executeWithRetries attempts the request with exponential backoff on
// retryable errors.
func (c *Client) executeWithRetries(req *http.Request) ([]byte, error) {
	baseDelay := 500 * time.Millisecond

	for attempt := 0; attempt < c.retries; attempt++ {
		if req.Context().Err() != nil {
			return nil, req.Context().Err()
		}

		logging.Requests().Debug("Network Request", "host", req.URL.Host, "path", req.URL.Path, "attempt", attempt+1)
		resp, err := c.httpClient.Do(req)

		if err != nil {
			if req.Context().Err() != nil {
				return nil, req.Context().Err()
			}

			slog.Warn("Request failed, retrying", "url", req.URL, "attempt", attempt+1, "error", err)
			if !sleepBackoff(req.Context(), attempt, baseDelay) {
				return nil, req.Context().Err()
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode < 600) {
			resp.Body.Close()
			slog.Warn("API Backoff", "status", resp.StatusCode, "url", req.URL, "attempt", attempt+1)
			if !sleepBackoff(req.Context(), attempt, baseDelay) {
				return nil, req.Context().Err()
			}
			continue
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("api error: status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		return body, nil
	}

	return nil, fmt.Errorf("max retries exceeded")
}

// sleepBackoff sleeps 2^attempt * base, returning false if the context died
// first.
func sleepBackoff(ctx context.Context, attempt int, base time.Duration) bool {
	dur := time.Duration(math.Pow(2, float64(attempt))) * base
	select {
	case <-time.After(dur):
		return true
	case <-ctx.Done():
		return false
	}
}
