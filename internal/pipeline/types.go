// internal/pipeline/types.go
package pipeline

// Status is the terminal classification of one account's run.
type Status string

const (
	StatusSubmitted        Status = "submitted"
	StatusAlreadyCompleted Status = "already-completed"
	StatusSkipped          Status = "skipped"
	StatusFailed           Status = "failed"
)

// CandidateResource is one scraped row of the offerings listing. It is
// transient and rebuilt each discovery pass; matching across sessions is by
// Name, because row order and completion state differ per account.
type CandidateResource struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Group       string `json:"group"`
	ActionLabel string `json:"action"`
	Index       int    `json:"index"`
}

// Outcome is the terminal, reported result of one account's pipeline run.
// Exactly one Outcome exists per account per run; it is immutable once
// created.
type Outcome struct {
	Account  string `json:"account"`
	Status   Status `json:"status"`
	Reason   string `json:"reason"`
	Artifact string `json:"artifact,omitempty"`
}

// StepResult is the internal per-step result consumed immediately by the
// state machine to decide the next transition. It is never persisted.
type StepResult struct {
	OK     bool
	Reason string
	// Artifact is the diagnostic screenshot captured on failure, if any.
	Artifact string
	// Cancelled marks an explicit operator decline, which is benign:
	// the pipeline maps it to StatusSkipped, not StatusFailed.
	Cancelled bool
}

func failure(reason, artifact string) StepResult {
	return StepResult{Reason: reason, Artifact: artifact}
}

func success(reason string) StepResult {
	return StepResult{OK: true, Reason: reason}
}
