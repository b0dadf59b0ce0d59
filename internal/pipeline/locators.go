// internal/pipeline/locators.go
package pipeline

import (
	"fmt"

	"github.com/dkharel/meroflow/internal/browser"
)

// The candidate-locator tables for every logical field the pipeline touches.
// Ordering is most-specific-first; this file is the single point of
// adaptation when the remote markup changes.

// -- Login surface --

var (
	locInstitutionToggle = []browser.Locator{
		browser.CSS("span.select2-selection"),
	}

	locInstitutionSearch = browser.CSS("input.select2-search__field")

	locInstitutionResults = browser.CSS(".select2-results")

	// The highlighted or pre-selected entry of the open results list.
	locInstitutionHighlighted = browser.CSS(
		"li.select2-results__option--highlighted, li.select2-results__option[aria-selected='true']")

	// Raw value-select on the underlying control; the last-resort fallback
	// when the searchable widget is not interactable.
	locInstitutionRawSelect = browser.CSS("select.select2-hidden-accessible")

	locUsername = []browser.Locator{
		browser.CSS("input[formcontrolname='username']"),
		browser.CSS("input#username"),
		browser.CSS("input[placeholder*='User']"),
	}

	locPassword = []browser.Locator{
		browser.CSS("input[formcontrolname='password']"),
		browser.CSS("input[type='password']"),
	}

	locLoginSubmit = []browser.Locator{
		browser.CSS("button.btn.sign-in"),
		browser.CSS("button[type='submit']"),
		browser.XPath(`//button[contains(normalize-space(.), 'Login')]`),
	}

	// Post-login outcome signals.
	locLoginError = []browser.Locator{
		browser.CSS(".toast-error .toast-message"),
		browser.CSS(".alert.alert-danger"),
		browser.CSS(".error-msg"),
	}

	locAuthenticatedMarker = []browser.Locator{
		browser.CSS("app-dashboard"),
		browser.CSS(".sidebar"),
	}
)

// loginRouteToken marks the login route in the page URL.
const loginRouteToken = "#/login"

// routeLeftLoginExpr is the condition polled after submitting credentials.
const routeLeftLoginExpr = `window.location.hash !== '#/login'`

// -- Offerings listing --

var (
	locOfferingRow = browser.CSS("div.company-list")
)

// actionLocator targets the action control of the offerings row at idx.
func actionLocator(idx int) browser.Locator {
	return browser.XPath(fmt.Sprintf(
		`(//div[contains(@class,'company-list')])[%d]//button[contains(@class,'btn-issue')]`, idx+1))
}

// -- Application form --

var (
	locBankSelect    = browser.CSS("select#selectBank")
	locAccountSelect = browser.CSS("select#accountNumber")
	locQuantity      = browser.CSS("input#appliedKitta")
	locReference     = browser.CSS("input#crnNumber")
	locDisclaimer    = browser.CSS("input#disclaimer")

	locProceed = []browser.Locator{
		browser.CSS("button.btn-primary[type='submit']"),
		browser.XPath(`//button[contains(normalize-space(.), 'Proceed')]`),
	}
)

// -- Authorization & submission --

var (
	locAuthorizationCode = browser.CSS("input#transactionPIN")

	// Tier 2: submit control scoped under the confirmation panel.
	locConfirmPanelSubmit = browser.CSS("div.confirm-page-btn button.btn-primary[type='submit']")

	// Tier 3: any submit-typed control with the known primary class.
	locPrimarySubmit = browser.CSS("button.btn-primary[type='submit']")
)

// submitLikeText is the visible text denoting the final submit action.
const submitLikeText = "Apply"
