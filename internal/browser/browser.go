// Package browser abstracts the scriptable browser the session layer drives.
// The production implementation runs a headless Chrome over the DevTools
// protocol; tests substitute an in-memory scripted browser.
package browser

import (
	"context"
	"time"

	"github.com/yoshiori/zen-downloader/internal/models"
)

// Browser is the minimal surface the login flow and the authenticated API
// calls need. Selector arguments are CSS selectors. Exists is a single
// instantaneous check; callers own any retry policy.
type Browser interface {
	// Navigate loads the given URL in the active tab.
	Navigate(ctx context.Context, url string) error
	// WaitReady waits until the page reports it finished loading, up to
	// timeout. Callers treat a timeout as non-fatal and proceed with
	// whatever DOM state is present.
	WaitReady(ctx context.Context, timeout time.Duration) error
	// Exists reports whether a selector currently matches an element.
	Exists(ctx context.Context, selector string) (bool, error)
	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error
	// Type focuses the first element matching selector and types text into it.
	Type(ctx context.Context, selector, text string) error
	// Submit submits the form enclosing the first element matching selector.
	Submit(ctx context.Context, selector string) error
	// Evaluate runs a JavaScript expression in the page, awaiting promises,
	// and JSON-decodes the result into out.
	Evaluate(ctx context.Context, expr string, out interface{}) error
	// Content returns the current document's HTML.
	Content(ctx context.Context) (string, error)
	// Cookies returns every cookie the browser currently holds.
	Cookies(ctx context.Context) ([]models.Cookie, error)
	// SetCookies installs cookies into the browser before navigation.
	SetCookies(ctx context.Context, cookies []models.Cookie) error
	// Close shuts the browser down. The Browser is unusable afterwards.
	Close() error
}

// Factory creates a Browser on demand. The session manager calls it lazily,
// on the first operation that actually needs one.
type Factory func(ctx context.Context) (Browser, error)
