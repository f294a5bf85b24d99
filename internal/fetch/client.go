package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gabriel/manga-link-finder/internal/metrics"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout = 10 * time.Second

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/105.0.0.0 Safari/537.36"
)

var ErrEmptyURL = errors.New("url is required")

// Fetcher issues single GET requests. Implementations never retry.
type Fetcher interface {
	Get(ctx context.Context, rawURL string, headers http.Header) (*Response, error)
}

type Config struct {
	Timeout time.Duration
	// RatePerHost caps requests per second to one host; zero disables it.
	RatePerHost float64
	Burst       int
}

type Client struct {
	httpClient  *http.Client
	ratePerHost rate.Limit
	burst       int
	logger      *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = cfg.Timeout
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient:  httpClient,
		ratePerHost: rate.Limit(cfg.RatePerHost),
		burst:       cfg.Burst,
		logger:      logger,
		limiters:    map[string]*rate.Limiter{},
	}
}

// BrowserHeaders approximates a desktop Chrome navigation request.
func BrowserHeaders() http.Header {
	headers := http.Header{}
	headers.Set("User-Agent", browserUserAgent)
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	headers.Set("Accept-Language", "en-US,en;q=0.9")
	headers.Set("Referer", "https://www.google.com/")
	headers.Set("Sec-Fetch-Dest", "document")
	headers.Set("Sec-Fetch-Mode", "navigate")
	headers.Set("Sec-Fetch-Site", "none")
	headers.Set("Sec-Fetch-User", "?1")
	headers.Set("Upgrade-Insecure-Requests", "1")
	return headers
}

// JSONHeaders is the override set used for JSON search APIs. origin is
// optional and also becomes the referer.
func JSONHeaders(origin string) http.Header {
	headers := http.Header{}
	headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	headers.Set("Accept", "application/json,text/plain,*/*")
	headers.Set("Accept-Language", "en-US,en;q=0.8")
	headers.Set("Sec-Fetch-Dest", "empty")
	headers.Set("Sec-Fetch-Mode", "cors")
	if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
		headers.Set("Origin", origin)
		headers.Set("Referer", origin+"/")
		headers.Set("Sec-Fetch-Site", "same-site")
	}
	return headers
}

// Get performs one GET with the browser header set, merged with override.
// Transport failures come back as errors; any HTTP status is a Response.
// The caller owns the returned Response and must Close it.
func (c *Client) Get(ctx context.Context, rawURL string, override http.Header) (*Response, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, ErrEmptyURL
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	host := strings.ToLower(parsed.Hostname())

	if limiter := c.limiterFor(host); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for %s rate limit: %w", host, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trimmed, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = mergeHeaders(BrowserHeaders(), override)

	started := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveFetch(host, 0)
		c.logger.Debug("fetch failed", "url", trimmed, "error", err)
		return nil, fmt.Errorf("request %s: %w", host, err)
	}
	metrics.ObserveFetch(host, res.StatusCode)
	c.logger.Debug("fetch completed", "url", trimmed, "status", res.StatusCode, "elapsed", time.Since(started).String())

	return NewResponse(res.StatusCode, res.Header, res.Body), nil
}

func (c *Client) limiterFor(host string) *rate.Limiter {
	if c.ratePerHost <= 0 || host == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	limiter, ok := c.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(c.ratePerHost, c.burst)
		c.limiters[host] = limiter
	}
	return limiter
}

func mergeHeaders(base http.Header, override http.Header) http.Header {
	for key, values := range override {
		base.Del(key)
		for _, value := range values {
			base.Add(key, value)
		}
	}
	return base
}
