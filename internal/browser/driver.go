// internal/browser/driver.go
package browser

import (
	"context"
	"time"
)

// LocatorKind selects the query language a Locator is written in.
type LocatorKind string

const (
	ByCSS   LocatorKind = "css"
	ByXPath LocatorKind = "xpath"
)

// Locator is one strategy for finding a UI element. A candidate-locator list
// is an ordered set of Locators for the same logical field, most-specific
// first; the ordering is the single point of adaptation when the remote
// markup changes.
type Locator struct {
	Kind  LocatorKind
	Query string
}

// CSS returns a CSS-selector locator.
func CSS(query string) Locator { return Locator{Kind: ByCSS, Query: query} }

// XPath returns an XPath locator.
func XPath(query string) Locator { return Locator{Kind: ByXPath, Query: query} }

// SelectOption describes one option of a single-choice control.
type SelectOption struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
}

// Driver is the set of page primitives the step library is written against.
// The production implementation is Session (one chromedp tab); tests script a
// fake.
//
// Timeouts on the wait primitives are soft signals: a timed-out wait returns
// an error, but callers are expected to re-check state afterwards rather than
// trusting the wait alone, because the remote application's readiness signals
// race with its client-side routing.
type Driver interface {
	// Navigate loads a URL and waits for the document body to be ready.
	Navigate(ctx context.Context, url string) error

	// WaitVisible blocks until the element is present and visible, or the
	// timeout elapses.
	WaitVisible(ctx context.Context, loc Locator, timeout time.Duration) error

	// WaitFunc blocks until the JavaScript expression evaluates truthy, or
	// the timeout elapses.
	WaitFunc(ctx context.Context, expr string, timeout time.Duration) error

	// Exists reports whether the element is currently present and visible.
	Exists(ctx context.Context, loc Locator) (bool, error)

	// Text returns the trimmed visible text of the element.
	Text(ctx context.Context, loc Locator) (string, error)

	// Click dispatches a click on the element.
	Click(ctx context.Context, loc Locator) error

	// Fill clears the element and types the value into it.
	Fill(ctx context.Context, loc Locator, value string) error

	// Press sends a single key (e.g. "\r") to the element.
	Press(ctx context.Context, loc Locator, key string) error

	// SelectValue selects the option with the given underlying value on a
	// single-choice control and fires the change events the page expects.
	SelectValue(ctx context.Context, loc Locator, value string) error

	// Options enumerates the options of a single-choice control.
	Options(ctx context.Context, loc Locator) ([]SelectOption, error)

	// Check sets a checkbox-like control to checked.
	Check(ctx context.Context, loc Locator) error

	// Evaluate runs a JavaScript expression and unmarshals its result.
	Evaluate(ctx context.Context, expr string, out interface{}) error

	// Location returns the current page URL.
	Location(ctx context.Context) (string, error)

	// Screenshot captures the page as a diagnostic artifact keyed by label.
	// It is best-effort: failures are logged, never returned, and the empty
	// string stands for "no artifact".
	Screenshot(ctx context.Context, label string) string
}
