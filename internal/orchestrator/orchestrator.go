// internal/orchestrator/orchestrator.go

// Package orchestrator sequences the whole batch: one session per account,
// strictly sequential phases, one Outcome per input account. It deliberately
// runs accounts one at a time; the remote application throttles aggressive
// parallel clients, so pacing is the feature, not a limitation.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dkharel/meroflow/internal/accounts"
	"github.com/dkharel/meroflow/internal/browser"
	"github.com/dkharel/meroflow/internal/pipeline"
)

// ManagedSession is one account's live browser session plus its lifecycle.
type ManagedSession interface {
	browser.Driver
	Close(ctx context.Context) error
}

// Factory opens per-account sessions. The production implementation is
// browser.Manager.
type Factory interface {
	NewSession(ctx context.Context, account string) (ManagedSession, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ctx context.Context, account string) (ManagedSession, error)

func (f FactoryFunc) NewSession(ctx context.Context, account string) (ManagedSession, error) {
	return f(ctx, account)
}

// AccountPipeline is the per-account state machine the orchestrator drives.
// The production implementation is pipeline.Pipeline.
type AccountPipeline interface {
	Authenticate(ctx context.Context, d browser.Driver, acct accounts.Account) pipeline.StepResult
	Discover(ctx context.Context, d browser.Driver) ([]pipeline.CandidateResource, error)
	Apply(ctx context.Context, d browser.Driver, acct accounts.Account, target string) pipeline.Outcome
}

// TargetSelector picks the single target for the batch out of the eligible
// candidates. The interactive implementation prompts the operator.
type TargetSelector interface {
	Select(candidates []pipeline.CandidateResource) (pipeline.CandidateResource, error)
}

// AutoSelector picks the candidate at a fixed position without prompting.
type AutoSelector struct {
	Index int
}

func (s AutoSelector) Select(candidates []pipeline.CandidateResource) (pipeline.CandidateResource, error) {
	if s.Index < 0 || s.Index >= len(candidates) {
		return pipeline.CandidateResource{}, fmt.Errorf("target index %d out of range, %d candidates", s.Index, len(candidates))
	}
	return candidates[s.Index], nil
}

// Orchestrator runs the batch. Outcomes are returned in input order and
// there is exactly one per input account, whatever happens to the sessions.
type Orchestrator struct {
	factory  Factory
	pipe     AccountPipeline
	selector TargetSelector
	limiter  *rate.Limiter
	logger   *zap.Logger
}

func New(factory Factory, pipe AccountPipeline, selector TargetSelector, pace time.Duration, logger *zap.Logger) *Orchestrator {
	if pace <= 0 {
		pace = time.Millisecond
	}
	return &Orchestrator{
		factory:  factory,
		pipe:     pipe,
		selector: selector,
		limiter:  rate.NewLimiter(rate.Every(pace), 1),
		logger:   logger.Named("orchestrator"),
	}
}

type liveAccount struct {
	idx     int
	account accounts.Account
	session ManagedSession
}

// Run drives every account to a terminal Outcome. Sessions are closed before
// it returns, including on early exits.
func (o *Orchestrator) Run(ctx context.Context, accts []accounts.Account) []pipeline.Outcome {
	outcomes := make([]pipeline.Outcome, len(accts))
	for i, a := range accts {
		outcomes[i] = pipeline.Outcome{
			Account: a.Name,
			Status:  pipeline.StatusFailed,
			Reason:  "not reached",
		}
	}

	var live []liveAccount
	defer func() {
		for _, la := range live {
			if err := la.session.Close(ctx); err != nil {
				o.logger.Warn("Session close failed.",
					zap.String("account", la.account.Name), zap.Error(err))
			}
		}
	}()

	// Phase 1: authenticate every account in its own session.
	for i, a := range accts {
		if err := o.limiter.Wait(ctx); err != nil {
			outcomes[i] = pipeline.Outcome{Account: a.Name, Status: pipeline.StatusFailed, Reason: err.Error()}
			continue
		}

		sess, err := o.factory.NewSession(ctx, a.Name)
		if err != nil {
			o.logger.Error("Session creation failed.", zap.String("account", a.Name), zap.Error(err))
			outcomes[i] = pipeline.Outcome{
				Account: a.Name,
				Status:  pipeline.StatusFailed,
				Reason:  fmt.Sprintf("open session: %v", err),
			}
			continue
		}

		sr := o.pipe.Authenticate(ctx, sess, a)
		if !sr.OK {
			outcomes[i] = pipeline.Outcome{
				Account:  a.Name,
				Status:   pipeline.StatusFailed,
				Reason:   fmt.Sprintf("%v: %s", pipeline.ErrAuthenticationFailed, sr.Reason),
				Artifact: sr.Artifact,
			}
			if err := sess.Close(ctx); err != nil {
				o.logger.Warn("Session close failed.", zap.String("account", a.Name), zap.Error(err))
			}
			continue
		}
		live = append(live, liveAccount{idx: i, account: a, session: sess})
	}

	if len(live) == 0 {
		o.logger.Error("No account authenticated; nothing to do.")
		return outcomes
	}

	// Phase 2: discover once, through the first authenticated session.
	candidates, err := o.pipe.Discover(ctx, live[0].session)
	if err != nil {
		o.fillLive(outcomes, live, pipeline.StatusFailed, fmt.Sprintf("discovery: %v", err))
		return outcomes
	}
	if len(candidates) == 0 {
		o.logger.Info("No eligible resource listed.")
		o.fillLive(outcomes, live, pipeline.StatusSkipped, pipeline.ErrResourceUnavailable.Error())
		return outcomes
	}

	// Phase 3: pick the batch target.
	target, err := o.selector.Select(candidates)
	if err != nil {
		o.fillLive(outcomes, live, pipeline.StatusSkipped, fmt.Sprintf("no target selected: %v", err))
		return outcomes
	}
	o.logger.Info("Target selected.",
		zap.String("target", target.Name), zap.Int("accounts", len(live)))

	// Phase 4: apply account by account.
	for _, la := range live {
		if err := o.limiter.Wait(ctx); err != nil {
			outcomes[la.idx] = pipeline.Outcome{Account: la.account.Name, Status: pipeline.StatusFailed, Reason: err.Error()}
			continue
		}
		outcomes[la.idx] = o.pipe.Apply(ctx, la.session, la.account, target.Name)
	}
	return outcomes
}

func (o *Orchestrator) fillLive(outcomes []pipeline.Outcome, live []liveAccount, status pipeline.Status, reason string) {
	for _, la := range live {
		outcomes[la.idx] = pipeline.Outcome{Account: la.account.Name, Status: status, Reason: reason}
	}
}
