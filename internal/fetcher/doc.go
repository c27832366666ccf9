// Package fetcher implements rate-limit-aware HTTP fetching with bounded
// retries.
//
// The target sites signal rate limiting with HTTP 429 plus an optional
// numeric Retry-After header. The Client honors the server hint only when
// it asks for more waiting than the client's own floor, grows the wait
// period monotonically within one logical fetch, and charges every kind
// of transient failure (transport error, timeout, 429, 5xx, unusable
// payload) against a single shared attempt ceiling.
//
// Extraction runs inside the retry loop via Client.Do's handle callback,
// so a page whose embedded payload is empty is retried exactly like a
// network failure. This is deliberate: the upstream cannot be told apart
// from a page whose layout changed, and retry-then-fail is the behavior
// production experience validated.
package fetcher
