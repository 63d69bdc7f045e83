package providers

import (
	"fmt"
	"time"
)

// RateLimitedError is returned when a provider responds 429; Retry carries
// the delay the provider asked for. No client in this module sleeps or
// retries on it: the worker marks the request failed like any other error.
type RateLimitedError struct {
	Provider string
	Retry    time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s: rate limited, retry after %s", e.Provider, e.Retry)
}

// ProviderError wraps a provider's failure to match a request (not-found,
// empty search result, an absent XEM mapping) together with the query that
// failed.
type ProviderError struct {
	Provider string
	Query    string
	Cause    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: could not resolve %q: %v", e.Provider, e.Query, e.Cause)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// TransportError wraps a network/5xx failure. The worker marks the request
// failed like any other error; the next full scan clears failed rows and
// re-enqueues the videos the catalog still has unmatched.
type TransportError struct {
	Provider string
	Cause    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Provider, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }
