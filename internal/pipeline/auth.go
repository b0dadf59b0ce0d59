// internal/pipeline/auth.go
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dkharel/meroflow/internal/accounts"
	"github.com/dkharel/meroflow/internal/browser"
)

// AuthStep drives the credentialed login flow for a single account and
// classifies the result from the post-submit page state.
type AuthStep struct {
	loginURL string
	resolver *browser.Resolver
	logger   *zap.Logger
}

func NewAuthStep(loginURL string, resolver *browser.Resolver, logger *zap.Logger) *AuthStep {
	return &AuthStep{
		loginURL: loginURL,
		resolver: resolver,
		logger:   logger.Named("auth"),
	}
}

// Run performs the full login sequence. A returned StepResult with OK=false
// always carries a reason; the caller decides how to aggregate it.
func (a *AuthStep) Run(ctx context.Context, d browser.Driver, acct accounts.Account) StepResult {
	log := a.logger.With(zap.String("account", acct.Name))

	if err := d.Navigate(ctx, a.loginURL); err != nil {
		return failure(fmt.Sprintf("navigate to login page: %v", err), "")
	}

	if err := a.selectInstitution(ctx, d, acct.DPCode); err != nil {
		shot := d.Screenshot(ctx, "institution_select_failed")
		log.Warn("Institution selection failed.", zap.Error(err))
		return StepResult{OK: false, Reason: fmt.Sprintf("select institution: %v", err), Artifact: shot}
	}

	userLoc, err := a.resolver.Resolve(ctx, d, "username", locUsername, resolveAttempt)
	if err != nil {
		return failure(err.Error(), "")
	}
	if err := d.Fill(ctx, userLoc, acct.Username); err != nil {
		return failure(fmt.Sprintf("fill username: %v", err), "")
	}

	passLoc, err := a.resolver.Resolve(ctx, d, "password", locPassword, resolveAttempt)
	if err != nil {
		return failure(err.Error(), "")
	}
	if err := d.Fill(ctx, passLoc, acct.Password); err != nil {
		return failure(fmt.Sprintf("fill password: %v", err), "")
	}

	submitLoc, err := a.resolver.Resolve(ctx, d, "login submit", locLoginSubmit, resolveAttempt)
	if err != nil {
		return failure(err.Error(), "")
	}
	if err := d.Click(ctx, submitLoc); err != nil {
		return failure(fmt.Sprintf("click login submit: %v", err), "")
	}

	// The route change is a soft signal; classification below still runs
	// when the hash never moves within the window.
	if err := d.WaitFunc(ctx, routeLeftLoginExpr, routeChangeWait); err != nil {
		log.Debug("Login route did not change within the wait window.")
	}
	settle(ctx, postSubmitSettle)

	ok, reason := a.classify(ctx, d)
	if !ok {
		shot := d.Screenshot(ctx, "login_failed")
		log.Warn("Authentication failed.", zap.String("reason", reason))
		return StepResult{OK: false, Reason: reason, Artifact: shot}
	}

	log.Info("Authenticated.")
	return success("")
}

// selectInstitution picks the account's depository participant. The
// searchable widget is preferred; two fallbacks cover markup drift.
func (a *AuthStep) selectInstitution(ctx context.Context, d browser.Driver, dpCode string) error {
	if err := d.WaitVisible(ctx, locInstitutionToggle[0], authFieldWait); err != nil {
		return fmt.Errorf("institution widget not present: %w", err)
	}
	if err := d.Click(ctx, locInstitutionToggle[0]); err != nil {
		return fmt.Errorf("open institution widget: %w", err)
	}

	// Primary path: wait for the results list to open, type into the
	// widget's search box, and accept the highlighted result.
	if err := d.WaitVisible(ctx, locInstitutionResults, widgetResultsWait); err != nil {
		a.logger.Debug("Institution results list did not open.", zap.Error(err))
	}
	if err := d.WaitVisible(ctx, locInstitutionSearch, widgetResultsWait); err == nil {
		if err := d.Fill(ctx, locInstitutionSearch, dpCode); err == nil {
			settle(ctx, widgetSearchSettle)
			if err := d.Click(ctx, locInstitutionHighlighted); err == nil {
				settle(ctx, widgetSelectSettle)
				return nil
			}
			if err := d.Press(ctx, locInstitutionSearch, "\r"); err == nil {
				settle(ctx, widgetSelectSettle)
				return nil
			}
		}
	}

	// Fallback: click the result entry whose text carries the code.
	optByText := browser.XPath(fmt.Sprintf(
		`//li[contains(@class,'select2-results__option')][contains(normalize-space(.), '%s')]`, dpCode))
	if err := d.Click(ctx, optByText); err == nil {
		settle(ctx, widgetSelectSettle)
		return nil
	}

	// Last resort: set the underlying select directly.
	if err := d.SelectValue(ctx, locInstitutionRawSelect, dpCode); err == nil {
		settle(ctx, widgetSelectSettle)
		return nil
	}
	return fmt.Errorf("no interaction path accepted code %q", dpCode)
}

// classify inspects the post-submit page. An on-page error banner wins over
// every positive signal; absent one, any of route change, login-form
// disappearance, or an authenticated-area marker counts as success.
func (a *AuthStep) classify(ctx context.Context, d browser.Driver) (bool, string) {
	for _, loc := range locLoginError {
		present, err := d.Exists(ctx, loc)
		if err != nil || !present {
			continue
		}
		text, _ := d.Text(ctx, loc)
		text = strings.TrimSpace(text)
		if text == "" {
			text = "login rejected"
		}
		return false, text
	}

	if loc, err := d.Location(ctx); err == nil && !strings.Contains(loc, loginRouteToken) {
		return true, ""
	}
	if present, err := d.Exists(ctx, locUsername[0]); err == nil && !present {
		return true, ""
	}
	for _, loc := range locAuthenticatedMarker {
		if present, err := d.Exists(ctx, loc); err == nil && present {
			return true, ""
		}
	}
	return false, "no post-login signal observed"
}
