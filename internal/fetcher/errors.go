package fetcher

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRateLimited identifies fetch failures caused by 429 responses.
// errors.Is(err, ErrRateLimited) matches through any wrapping,
// including an ExhaustedError whose final attempt was rate limited.
var ErrRateLimited = errors.New("rate limited")

// StatusError reports a non-2xx HTTP status. For 429 and 5xx it is
// retried internally and only surfaces wrapped in an ExhaustedError;
// for other statuses it surfaces immediately.
type StatusError struct {
	// URL is the page that returned the status.
	URL string

	// StatusCode is the HTTP status code received.
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

// Is matches a 429 StatusError against ErrRateLimited.
func (e *StatusError) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}

// ExhaustedError reports that one logical fetch ran out of retry budget.
// It identifies the URL and how many attempts were made, and wraps the
// last underlying failure.
type ExhaustedError struct {
	// URL is the page that could not be retrieved.
	URL string

	// Attempts is how many attempts were made before giving up.
	Attempts int

	// Err is the failure of the final attempt.
	Err error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up on %s after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

// Unwrap exposes the final attempt's failure for errors.Is/As.
func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// permanentError marks a handler error that must not be retried.
type permanentError struct {
	err error
}

// Error implements the error interface.
func (e *permanentError) Error() string {
	return e.err.Error()
}

// Unwrap exposes the wrapped error.
func (e *permanentError) Unwrap() error {
	return e.err
}

// Permanent marks err so that Client.Do surfaces it immediately instead
// of consuming retry budget on it. Handler errors are retried by default
// because a page whose payload has not propagated yet looks identical to
// one whose layout changed.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// isPermanent reports whether err carries the Permanent marker.
func isPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}
