// internal/pipeline/form.go
package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/dkharel/meroflow/internal/accounts"
	"github.com/dkharel/meroflow/internal/browser"
)

// FormStep opens a candidate's application form and fills it from the
// account's stored details, up to and including the proceed action.
type FormStep struct {
	resolver *browser.Resolver
	logger   *zap.Logger
}

func NewFormStep(resolver *browser.Resolver, logger *zap.Logger) *FormStep {
	return &FormStep{
		resolver: resolver,
		logger:   logger.Named("form"),
	}
}

func (f *FormStep) Run(ctx context.Context, d browser.Driver, acct accounts.Account, res CandidateResource) StepResult {
	log := f.logger.With(zap.String("account", acct.Name), zap.String("resource", res.Name))

	if err := d.Click(ctx, actionLocator(res.Index)); err != nil {
		return failure(fmt.Sprintf("open application form: %v", err), d.Screenshot(ctx, "form_open_failed"))
	}
	if err := d.WaitVisible(ctx, locBankSelect, formControlWait); err != nil {
		return failure("application form did not load", d.Screenshot(ctx, "form_load_failed"))
	}
	d.Screenshot(ctx, "form_loaded")

	if sr := f.choose(ctx, d, "bank", locBankSelect); !sr.OK {
		return sr
	}

	// The account selector repopulates off the bank choice; give it room
	// before reading its options.
	settle(ctx, dependentSelectSettle)
	if err := d.WaitVisible(ctx, locAccountSelect, dependentSelectWait); err != nil {
		return failure("account selector did not appear", d.Screenshot(ctx, "form_account_missing"))
	}
	if sr := f.choose(ctx, d, "account", locAccountSelect); !sr.OK {
		return sr
	}

	if err := d.Fill(ctx, locQuantity, strconv.Itoa(acct.AppliedQuantity)); err != nil {
		return failure(fmt.Sprintf("fill applied quantity: %v", err), d.Screenshot(ctx, "form_fill_failed"))
	}
	if err := d.Fill(ctx, locReference, acct.CRN); err != nil {
		return failure(fmt.Sprintf("fill reference number: %v", err), d.Screenshot(ctx, "form_fill_failed"))
	}

	// Some renderings pre-check or omit the disclaimer; a failed check is
	// tolerated, the proceed control is the real gate.
	if err := d.Check(ctx, locDisclaimer); err != nil {
		log.Debug("Disclaimer checkbox not interactable.", zap.Error(err))
	}

	d.Screenshot(ctx, "form_filled")

	proceedLoc, err := f.resolver.Resolve(ctx, d, "proceed", locProceed, resolveAttempt)
	if err != nil {
		return failure(err.Error(), d.Screenshot(ctx, "form_proceed_missing"))
	}
	if err := d.Click(ctx, proceedLoc); err != nil {
		return failure(fmt.Sprintf("click proceed: %v", err), d.Screenshot(ctx, "form_proceed_failed"))
	}

	log.Info("Application form completed.")
	return success("")
}

// choose picks an option on a single-choice control: the sole enabled
// non-placeholder option when there is exactly one, otherwise the first.
func (f *FormStep) choose(ctx context.Context, d browser.Driver, field string, loc browser.Locator) StepResult {
	opts, err := d.Options(ctx, loc)
	if err != nil {
		return failure(fmt.Sprintf("read %s options: %v", field, err), "")
	}
	usable := opts[:0:0]
	for _, o := range opts {
		if o.Value != "" && !o.Disabled {
			usable = append(usable, o)
		}
	}
	if len(usable) == 0 {
		return failure(fmt.Sprintf("no usable %s option", field), d.Screenshot(ctx, "form_"+field+"_empty"))
	}
	if err := d.SelectValue(ctx, loc, usable[0].Value); err != nil {
		return failure(fmt.Sprintf("select %s: %v", field, err), "")
	}
	return success("")
}
