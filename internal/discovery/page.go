package discovery

import (
	"context"
	"time"
)

// Page is the live listing view a discovery pass drives. Implementations
// wrap a browser tab; tests use scripted fakes.
type Page interface {
	// Navigate loads url and waits for the document to be usable
	Navigate(ctx context.Context, url string) error
	// DismissConsent clicks away cookie and consent prompts, best effort
	DismissConsent(ctx context.Context)
	// WaitForContent blocks until at least one item link is present or timeout
	WaitForContent(ctx context.Context, timeout time.Duration) error
	// Scroll triggers loading of further content
	Scroll(ctx context.Context) error
	// VisibleLinks returns the hrefs of item links currently in the document
	VisibleLinks(ctx context.Context) ([]string, error)
	// ChallengeVisible reports whether a verification wall is shown
	ChallengeVisible(ctx context.Context) (bool, error)
	// ObserveResponses calls fn with the URL of every network response until
	// stop is called or ctx ends. fn may be called from another goroutine.
	ObserveResponses(ctx context.Context, fn func(url string)) (stop func(), err error)
}

// SessionSaver persists browser session state between runs
type SessionSaver interface {
	SaveSession() error
}
