// internal/pipeline/waits.go
package pipeline

import (
	"context"
	"time"
)

// Every bounded wait and settle delay in the step library, named. The
// settle delays cover the spots where the remote application exposes no
// observable readiness signal at all; everything else is an explicit
// condition wait. They are variables so a test can shrink them.
var (
	// resolveAttempt bounds each single candidate-locator attempt.
	resolveAttempt = 2 * time.Second

	// widgetResultsWait bounds the wait for the institution selector's
	// results list to open.
	widgetResultsWait = 5 * time.Second

	// widgetSearchSettle lets the selector filter its results after typing.
	widgetSearchSettle = 500 * time.Millisecond

	// widgetSelectSettle lets the selector close after a choice.
	widgetSelectSettle = 1 * time.Second

	// routeChangeWait bounds the post-login route-change condition.
	routeChangeWait = 8 * time.Second

	// postSubmitSettle is the fixed settle after the login submit, before
	// outcome signals are read.
	postSubmitSettle = 3 * time.Second

	// listContainerWait bounds the wait for the offerings list container.
	listContainerWait = 10 * time.Second

	// formControlWait bounds the wait for the form's first required control.
	formControlWait = 10 * time.Second

	// dependentSelectWait bounds the wait for the dependent account selector.
	dependentSelectWait = 5 * time.Second

	// dependentSelectSettle lets the dependent selector repopulate after the
	// first selection.
	dependentSelectSettle = 2 * time.Second

	// authFieldWait bounds the wait for the authorization-code field.
	authFieldWait = 10 * time.Second

	// submissionEvidenceSettle is the fixed settle before the final evidence
	// screenshot is captured.
	submissionEvidenceSettle = 5 * time.Second
)

// settle blocks for the given duration, honoring context cancellation.
func settle(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
