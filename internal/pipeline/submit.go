// internal/pipeline/submit.go
package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/dkharel/meroflow/internal/accounts"
	"github.com/dkharel/meroflow/internal/browser"
)

// Confirmer gates the irreversible submission. The interactive
// implementation prompts the operator once per account; a decline is a
// benign cancellation, never a failure.
type Confirmer interface {
	Confirm(ctx context.Context, account string, res CandidateResource) (bool, error)
}

// AlwaysConfirm approves every submission without prompting.
type AlwaysConfirm struct{}

func (AlwaysConfirm) Confirm(context.Context, string, CandidateResource) (bool, error) {
	return true, nil
}

// scriptedSubmitExpr builds the last submit tier: straight from page
// JavaScript, click the first enabled submit-typed control whose text
// carries the submit label. The text check keeps this tier from firing an
// unrelated submit control.
func scriptedSubmitExpr(label string) string {
	return fmt.Sprintf(`
(() => {
	const btn = Array.from(document.querySelectorAll("button[type='submit']:not([disabled])"))
		.find(b => b.textContent.includes(%s));
	if (!btn) { return false; }
	btn.click();
	return true;
})()`, strconv.Quote(label))
}

// SubmitStep runs the confirmation gate, enters the authorization code, and
// fires the submit action through a fallback chain of tiers. A tier is tried
// only when the previous tier's control is absent; a located control that
// fails to click fails the step outright, because its click may have
// partially fired.
type SubmitStep struct {
	confirmer Confirmer
	logger    *zap.Logger
}

func NewSubmitStep(confirmer Confirmer, logger *zap.Logger) *SubmitStep {
	return &SubmitStep{
		confirmer: confirmer,
		logger:    logger.Named("submit"),
	}
}

func (s *SubmitStep) Run(ctx context.Context, d browser.Driver, acct accounts.Account, res CandidateResource) StepResult {
	log := s.logger.With(zap.String("account", acct.Name), zap.String("resource", res.Name))

	if err := d.WaitVisible(ctx, locAuthorizationCode, authFieldWait); err != nil {
		return failure("authorization page did not load", d.Screenshot(ctx, "authorize_missing"))
	}
	d.Screenshot(ctx, "confirm_page")

	ok, err := s.confirmer.Confirm(ctx, acct.Name, res)
	if err != nil {
		return failure(fmt.Sprintf("confirmation prompt: %v", err), "")
	}
	if !ok {
		log.Info("Submission declined by operator.")
		return StepResult{Cancelled: true, Reason: ErrOperatorCancelled.Error()}
	}

	if err := d.Fill(ctx, locAuthorizationCode, acct.TransactionPIN); err != nil {
		return failure(fmt.Sprintf("fill authorization code: %v", err), d.Screenshot(ctx, "authorize_fill_failed"))
	}

	if sr := s.fireSubmit(ctx, d, log); !sr.OK {
		return sr
	}

	settle(ctx, submissionEvidenceSettle)
	shot := d.Screenshot(ctx, "submission_evidence")
	log.Info("Submission fired.")
	return StepResult{OK: true, Artifact: shot}
}

func (s *SubmitStep) fireSubmit(ctx context.Context, d browser.Driver, log *zap.Logger) StepResult {
	tiers := []struct {
		name string
		loc  browser.Locator
	}{
		{"labelled submit", browser.XPath(fmt.Sprintf(
			`//button[contains(normalize-space(.), '%s')][not(@disabled)]`, submitLikeText))},
		{"confirmation panel submit", locConfirmPanelSubmit},
		{"primary submit", locPrimarySubmit},
	}

	for _, tier := range tiers {
		present, err := d.Exists(ctx, tier.loc)
		if err != nil || !present {
			log.Debug("Submit tier not actionable.", zap.String("tier", tier.name))
			continue
		}
		if err := d.Click(ctx, tier.loc); err != nil {
			return failure(fmt.Sprintf("click %s: %v", tier.name, err), d.Screenshot(ctx, "submit_click_failed"))
		}
		log.Debug("Submit fired.", zap.String("tier", tier.name))
		return success("")
	}

	var clicked bool
	if err := d.Evaluate(ctx, scriptedSubmitExpr(submitLikeText), &clicked); err == nil && clicked {
		log.Debug("Submit fired.", zap.String("tier", "scripted submit"))
		return success("")
	}

	return failure(ErrSubmissionChainExhausted.Error(), d.Screenshot(ctx, "submit_exhausted"))
}
