package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// discardLogger keeps test output quiet.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingSleeper captures requested waits instead of sleeping.
type recordingSleeper struct {
	waits []time.Duration
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func TestDoRetryCeiling(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	c := New(
		WithMaxAttempts(5),
		WithWaitFloor(30*time.Second),
		WithSleepFunc(sleeper.sleep),
		WithLogger(discardLogger()),
	)

	err := c.Do(context.Background(), srv.URL, func([]byte) error { return nil })

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("want ExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 5 {
		t.Errorf("Attempts = %d, want 5", exhausted.Attempts)
	}
	if got := calls.Load(); got != 5 {
		t.Errorf("server saw %d requests, want 5", got)
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("errors.Is(err, ErrRateLimited) = false, want true: %v", err)
	}

	// Sleep happens between attempts only, and with no Retry-After the
	// wait never moves off the floor: 4 sleeps of 30s each.
	if len(sleeper.waits) != 4 {
		t.Fatalf("slept %d times, want 4", len(sleeper.waits))
	}
	var total time.Duration
	for _, w := range sleeper.waits {
		total += w
	}
	if want := 4 * 30 * time.Second; total != want {
		t.Errorf("total wait = %v, want %v", total, want)
	}
}

func TestDoRetryAfterFloor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		retryAfter string
		wantWait   time.Duration
	}{
		{name: "server hint below floor is ignored", retryAfter: "5", wantWait: 30 * time.Second},
		{name: "server hint above floor is honored", retryAfter: "90", wantWait: 90 * time.Second},
		{name: "malformed hint keeps prior wait", retryAfter: "soon", wantWait: 30 * time.Second},
		{name: "absent hint keeps prior wait", retryAfter: "", wantWait: 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(http.StatusTooManyRequests)
			}))
			defer srv.Close()

			sleeper := &recordingSleeper{}
			c := New(
				WithMaxAttempts(2),
				WithWaitFloor(30*time.Second),
				WithSleepFunc(sleeper.sleep),
				WithLogger(discardLogger()),
			)

			_ = c.Do(context.Background(), srv.URL, func([]byte) error { return nil })

			if len(sleeper.waits) != 1 {
				t.Fatalf("slept %d times, want 1", len(sleeper.waits))
			}
			if sleeper.waits[0] != tt.wantWait {
				t.Errorf("wait = %v, want %v", sleeper.waits[0], tt.wantWait)
			}
		})
	}
}

func TestDoWaitOnlyGrows(t *testing.T) {
	t.Parallel()

	// First response asks for 90s, second sends no hint: the wait must
	// stay at 90s rather than reset to the floor.
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "90")
		}
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	c := New(
		WithMaxAttempts(3),
		WithWaitFloor(30*time.Second),
		WithSleepFunc(sleeper.sleep),
		WithLogger(discardLogger()),
	)

	_ = c.Do(context.Background(), srv.URL, func([]byte) error { return nil })

	want := []time.Duration{90 * time.Second, 90 * time.Second}
	if len(sleeper.waits) != len(want) {
		t.Fatalf("slept %d times, want %d", len(sleeper.waits), len(want))
	}
	for i, w := range want {
		if sleeper.waits[i] != w {
			t.Errorf("wait[%d] = %v, want %v", i, sleeper.waits[i], w)
		}
	}
}

func TestDoStatusErrorIsImmediate(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	c := New(WithSleepFunc(sleeper.sleep), WithLogger(discardLogger()))

	err := c.Do(context.Background(), srv.URL, func([]byte) error { return nil })

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("want StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want %d", statusErr.StatusCode, http.StatusNotFound)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1 (no retries for 404)", got)
	}
	if len(sleeper.waits) != 0 {
		t.Errorf("slept %d times, want 0", len(sleeper.waits))
	}
	if errors.Is(err, ErrRateLimited) {
		t.Error("404 matched ErrRateLimited, want no match")
	}
}

func TestDoServerErrorIsRetried(t *testing.T) {
	t.Parallel()

	// 5xx counts as transient: the first attempt fails, the second
	// succeeds, and handle runs exactly once.
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	c := New(WithSleepFunc(sleeper.sleep), WithLogger(discardLogger()))

	var handled int
	err := c.Do(context.Background(), srv.URL, func(body []byte) error {
		handled++
		if string(body) != "ok" {
			t.Errorf("body = %q, want %q", body, "ok")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if handled != 1 {
		t.Errorf("handle ran %d times, want 1", handled)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server saw %d requests, want 2", got)
	}
}

func TestDoHandleErrorIsRetried(t *testing.T) {
	t.Parallel()

	// An unusable payload re-enters the same retry loop: the page is
	// served fine, but handle keeps rejecting it.
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, "<html></html>")
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	c := New(
		WithMaxAttempts(3),
		WithSleepFunc(sleeper.sleep),
		WithLogger(discardLogger()),
	)

	errEmpty := errors.New("no payload in page")
	err := c.Do(context.Background(), srv.URL, func([]byte) error { return errEmpty })

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("want ExhaustedError, got %v", err)
	}
	if !errors.Is(err, errEmpty) {
		t.Errorf("exhausted error should wrap the handler error, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d requests, want 3", got)
	}
}

func TestDoPermanentHandleErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, "body")
	}))
	defer srv.Close()

	c := New(WithSleepFunc((&recordingSleeper{}).sleep), WithLogger(discardLogger()))

	errStop := errors.New("stop")
	err := c.Do(context.Background(), srv.URL, func([]byte) error { return Permanent(errStop) })
	if !errors.Is(err, errStop) {
		t.Fatalf("want wrapped stop error, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}
}

func TestDoContextCancellationStopsRetries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := New(
		WithLogger(discardLogger()),
		WithSleepFunc(func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		}),
	)

	err := c.Do(ctx, srv.URL, func([]byte) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestGetReturnsBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "hello")
	}))
	defer srv.Close()

	c := New(WithLogger(discardLogger()))
	body, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(body) != "hello" {
		t.Errorf("body = %q, want %q", body, "hello")
	}
}

func TestNextWait(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		current    time.Duration
		retryAfter string
		want       time.Duration
	}{
		{name: "empty keeps current", current: 30 * time.Second, retryAfter: "", want: 30 * time.Second},
		{name: "lower hint ignored", current: 30 * time.Second, retryAfter: "5", want: 30 * time.Second},
		{name: "higher hint wins", current: 30 * time.Second, retryAfter: "120", want: 120 * time.Second},
		{name: "non-numeric keeps current", current: 45 * time.Second, retryAfter: "Wed, 21 Oct", want: 45 * time.Second},
		{name: "equal hint keeps current", current: 30 * time.Second, retryAfter: "30", want: 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := nextWait(tt.current, tt.retryAfter); got != tt.want {
				t.Errorf("nextWait(%v, %q) = %v, want %v", tt.current, tt.retryAfter, got, tt.want)
			}
		})
	}
}
