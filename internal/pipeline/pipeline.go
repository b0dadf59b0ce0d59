// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dkharel/meroflow/internal/accounts"
	"github.com/dkharel/meroflow/internal/browser"
)

// Pipeline is the per-account state machine: authenticate, re-locate the
// target inside the account's own session, detect prior completion, fill the
// form, and submit. Every terminal state maps to exactly one Outcome; step
// errors and panics never escape the account they belong to.
type Pipeline struct {
	auth      *AuthStep
	discovery *DiscoveryStep
	form      *FormStep
	submit    *SubmitStep
	logger    *zap.Logger
}

func NewPipeline(auth *AuthStep, discovery *DiscoveryStep, form *FormStep, submit *SubmitStep, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		auth:      auth,
		discovery: discovery,
		form:      form,
		submit:    submit,
		logger:    logger.Named("pipeline"),
	}
}

// Authenticate runs the login flow. Panics are absorbed into a failed
// StepResult so one misbehaving session cannot take down the batch.
func (p *Pipeline) Authenticate(ctx context.Context, d browser.Driver, acct accounts.Account) (result StepResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Authentication panicked.",
				zap.String("account", acct.Name), zap.Any("panic", r))
			result = failure(fmt.Sprintf("internal error: %v", r), "")
		}
	}()
	return p.auth.Run(ctx, d, acct)
}

// Discover scrapes the offerings listing through an already-authenticated
// session.
func (p *Pipeline) Discover(ctx context.Context, d browser.Driver) ([]CandidateResource, error) {
	return p.discovery.Run(ctx, d)
}

// Apply drives one authenticated account against the named target through to
// a terminal Outcome. The target is re-located inside this session because
// row order and completion state differ per account.
func (p *Pipeline) Apply(ctx context.Context, d browser.Driver, acct accounts.Account, target string) (out Outcome) {
	log := p.logger.With(zap.String("account", acct.Name), zap.String("target", target))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Account run panicked.", zap.Any("panic", r))
			out = Outcome{
				Account: acct.Name,
				Status:  StatusFailed,
				Reason:  fmt.Sprintf("internal error: %v", r),
			}
		}
	}()

	res, found, err := p.discovery.Locate(ctx, d, target)
	if err != nil {
		return Outcome{
			Account: acct.Name,
			Status:  StatusFailed,
			Reason:  fmt.Sprintf("locate target: %v", err),
		}
	}
	if !found {
		log.Warn("Target not listed for this account.")
		return Outcome{
			Account: acct.Name,
			Status:  StatusFailed,
			Reason:  "resource not found in list",
		}
	}

	if p.discovery.Completed(res) {
		log.Info("Target already applied.", zap.String("action", res.ActionLabel))
		return Outcome{
			Account: acct.Name,
			Status:  StatusAlreadyCompleted,
			Reason:  fmt.Sprintf("action label %q marks a prior application", res.ActionLabel),
		}
	}

	if sr := p.form.Run(ctx, d, acct, res); !sr.OK {
		return Outcome{Account: acct.Name, Status: StatusFailed, Reason: sr.Reason, Artifact: sr.Artifact}
	}

	sr := p.submit.Run(ctx, d, acct, res)
	switch {
	case sr.Cancelled:
		return Outcome{Account: acct.Name, Status: StatusSkipped, Reason: sr.Reason}
	case !sr.OK:
		return Outcome{Account: acct.Name, Status: StatusFailed, Reason: sr.Reason, Artifact: sr.Artifact}
	}

	log.Info("Application submitted.")
	return Outcome{
		Account:  acct.Name,
		Status:   StatusSubmitted,
		Reason:   "submitted",
		Artifact: sr.Artifact,
	}
}
