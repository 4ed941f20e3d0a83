package bookdl

import "context"

// Fetcher retrieves rendered markup from URLs.
// Implementations may use browser automation to handle JavaScript-rendered
// content and must support concurrent use: each Fetch runs in its own
// navigation context so that multiple chapters can download in parallel
// without interfering.
type Fetcher interface {
	// Fetch navigates to the URL, waits for the page to render, and returns
	// the rendered markup. The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (markup string, err error)

	// Close releases fetch resources.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// DomainLimiter throttles requests on a per-domain basis.
// Wait blocks until a request to the domain is allowed or the context is
// canceled.
type DomainLimiter interface {
	Wait(ctx context.Context, domain string) error
}
