package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// Client performs rate-limit-aware HTTP GETs with bounded retries.
//
// One Client is shared by all workers of a crawl run: it is stateless
// between calls, and the underlying http.Client's connection pool is safe
// for concurrent use. Retry state (attempt counter, wait period) lives on
// the stack of each Do call.
//
// Design decision: The original implementation retried by having the
// fetch function call itself, which grows the call stack on pathological
// retry counts. We use an explicit loop with an attempt counter instead;
// the observable behavior (growing-only wait period, one shared attempt
// ceiling for all failure kinds) is unchanged.
type Client struct {
	// httpClient performs the requests. The default follows redirects,
	// which the target sites rely on.
	httpClient *http.Client

	// userAgent is the User-Agent header to send.
	userAgent string

	// timeout is the per-attempt timeout. Each attempt gets its own
	// deadline, independent of the backoff timer.
	timeout time.Duration

	// waitFloor is the starting wait period between retries. Within one
	// Do call the wait only ever grows, never resets.
	waitFloor time.Duration

	// maxAttempts is the shared attempt ceiling. Transport errors, 429
	// responses, 5xx responses, and retryable handler errors all draw
	// from the same budget.
	maxAttempts int

	// maxBodySize limits how much of a response body is read.
	maxBodySize int64

	// sleep waits between attempts. Injectable so tests can observe
	// backoff without real delays.
	sleep func(ctx context.Context, d time.Duration) error

	// logger records retry decisions.
	logger *slog.Logger
}

// Default client tunables. The 30 second values mirror what the target
// sites tolerate in practice: they rate-limit aggressively, and shorter
// waits just burn the retry budget.
const (
	// DefaultTimeout is the per-attempt request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultWaitFloor is the starting retry wait period. A server's
	// Retry-After hint is honored only when it asks for more waiting
	// than this floor; some servers send values that are far too low.
	DefaultWaitFloor = 30 * time.Second

	// DefaultMaxAttempts is the shared retry ceiling per logical fetch.
	DefaultMaxAttempts = 5

	// DefaultMaxBodySize limits response bodies to 10MB. Chord pages
	// are far smaller; the limit guards against misbehaving responses.
	DefaultMaxBodySize = 10 * 1024 * 1024

	// DefaultUserAgent identifies chordcrawl politely but plainly.
	DefaultUserAgent = "chordcrawl/1.0 (+https://github.com/kwitek/chordcrawl)"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, e.g. to install a
// recording transport in tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithWaitFloor sets the starting retry wait period.
func WithWaitFloor(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.waitFloor = d
		}
	}
}

// WithMaxAttempts sets the shared attempt ceiling.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithMaxBodySize sets the maximum response body size to read.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodySize = n
		}
	}
}

// WithLogger sets the logger used for retry decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSleepFunc replaces the between-attempt sleep. Tests use this to
// record requested waits instead of actually waiting.
func WithSleepFunc(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = fn
	}
}

// New creates a Client with the given options applied over the defaults.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{},
		userAgent:   DefaultUserAgent,
		timeout:     DefaultTimeout,
		waitFloor:   DefaultWaitFloor,
		maxAttempts: DefaultMaxAttempts,
		maxBodySize: DefaultMaxBodySize,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Get fetches a URL and returns its body, applying the full retry policy.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := c.Do(ctx, url, func(b []byte) error {
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Do performs one logical fetch of url: it GETs the page and passes the
// body to handle. A non-nil error from handle re-enters the retry loop
// (the caller cannot distinguish "payload not ready yet" from "layout
// changed", so both degrade to retry-then-fail), unless the error is
// marked with Permanent or the context is cancelled.
//
// Retry accounting:
//   - transport errors, timeouts, 5xx, 429, and retryable handle errors
//     each consume one attempt from the same ceiling;
//   - a 429 with a numeric Retry-After raises the wait period to
//     max(server value, current wait); the hint is trusted only when it
//     asks for more waiting than we already planned;
//   - any other non-2xx status returns a *StatusError immediately,
//     without sleeping;
//   - the wait period only ever grows within one Do call.
//
// When the ceiling is exhausted, Do returns a *ExhaustedError wrapping
// the last failure.
func (c *Client) Do(ctx context.Context, url string, handle func(body []byte) error) error {
	wait := c.waitFloor
	var lastErr error

	for attempt := 1; ; attempt++ {
		body, resp, err := c.get(ctx, url)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()

		case err != nil:
			if isPermanent(err) {
				return err
			}
			lastErr = err
			c.logger.Warn("transient fetch error",
				"url", url,
				"attempt", attempt,
				"max_attempts", c.maxAttempts,
				"error", err,
			)

		case resp.StatusCode == http.StatusTooManyRequests:
			wait = nextWait(wait, resp.Header.Get("Retry-After"))
			lastErr = &StatusError{URL: url, StatusCode: resp.StatusCode}
			c.logger.Warn("server rate limited the crawl",
				"url", url,
				"attempt", attempt,
				"wait", wait,
			)

		case resp.StatusCode >= 500:
			lastErr = &StatusError{URL: url, StatusCode: resp.StatusCode}
			c.logger.Warn("server error",
				"url", url,
				"attempt", attempt,
				"status", resp.StatusCode,
			)

		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return &StatusError{URL: url, StatusCode: resp.StatusCode}

		default:
			herr := handle(body)
			if herr == nil {
				return nil
			}
			if isPermanent(herr) || errors.Is(herr, context.Canceled) {
				return herr
			}
			lastErr = herr
			c.logger.Warn("page not usable yet, will retry",
				"url", url,
				"attempt", attempt,
				"error", herr,
			)
		}

		if attempt >= c.maxAttempts {
			return &ExhaustedError{URL: url, Attempts: attempt, Err: lastErr}
		}
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// get performs a single GET attempt with its own deadline.
func (c *Client) get(ctx context.Context, url string) ([]byte, *http.Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		// A malformed URL will not get better with retries.
		return nil, nil, Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, nil, err
	}
	return body, resp, nil
}

// nextWait applies the Retry-After floor rule: a numeric server hint is
// honored only when it asks for more waiting than the current period.
// Absent or malformed hints keep the prior wait unchanged.
func nextWait(current time.Duration, retryAfter string) time.Duration {
	if retryAfter == "" {
		return current
	}
	secs, err := strconv.Atoi(retryAfter)
	if err != nil {
		return current
	}
	if hint := time.Duration(secs) * time.Second; hint > current {
		return hint
	}
	return current
}

// sleepContext waits for d or until the context finishes.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
