// internal/pipeline/errors.go
package pipeline

import "errors"

// The step error taxonomy. Step-level errors never cross the pipeline
// boundary as errors; the pipeline converts them to Outcome statuses.
var (
	// ErrAuthenticationFailed: explicit error signal, or no success signal,
	// after the login sequence. Terminal for that account only.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrResourceUnavailable: discovery found nothing eligible. Terminal for
	// the whole batch, since there is nothing to act on.
	ErrResourceUnavailable = errors.New("no eligible resource available")

	// ErrSubmissionChainExhausted: every fallback submit tier failed to
	// locate an actionable control. Terminal for that account.
	ErrSubmissionChainExhausted = errors.New("submit control not found in any fallback tier")

	// ErrOperatorCancelled: explicit decline at the interactive confirmation.
	// Terminal but benign for that account.
	ErrOperatorCancelled = errors.New("cancelled by operator")
)
