// internal/pipeline/form_test.go
package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dkharel/meroflow/internal/browser"
)

func newFormStep() *FormStep {
	logger := zap.NewNop()
	return NewFormStep(browser.NewResolver(logger), logger)
}

func testResource() CandidateResource {
	return CandidateResource{
		Name:        "Alpha Hydro",
		Category:    "IPO",
		Group:       "Ordinary Shares",
		ActionLabel: "Apply",
		Index:       0,
	}
}

// showApplicationForm scripts a fully rendered application form.
func showApplicationForm(d *fakeDriver) {
	d.show(
		actionLocator(0).Query,
		locBankSelect.Query,
		locAccountSelect.Query,
		locQuantity.Query,
		locReference.Query,
		locDisclaimer.Query,
		locProceed[0].Query,
	)
	d.options[locBankSelect.Query] = []browser.SelectOption{
		{Value: "", Label: "Select your bank"},
		{Value: "42", Label: "Everest Bank"},
	}
	d.options[locAccountSelect.Query] = []browser.SelectOption{
		{Value: "", Label: "Select account"},
		{Value: "acc-1", Label: "0123456789"},
	}
}

func TestFormStepFillsAndProceeds(t *testing.T) {
	shrinkWaits(t)
	d := newFakeDriver()
	showApplicationForm(d)

	sr := newFormStep().Run(context.Background(), d, testAccount(), testResource())

	require.True(t, sr.OK, "reason: %s", sr.Reason)
	assert.Contains(t, d.clicked, actionLocator(0).Query)
	assert.Equal(t, "42", d.selected[locBankSelect.Query])
	assert.Equal(t, "acc-1", d.selected[locAccountSelect.Query])
	assert.Equal(t, "10", d.filled[locQuantity.Query])
	assert.Equal(t, "CRN123", d.filled[locReference.Query])
	assert.Contains(t, d.checked, locDisclaimer.Query)
	assert.Contains(t, d.clicked, locProceed[0].Query)
	assert.Contains(t, d.shots, "form_loaded")
	assert.Contains(t, d.shots, "form_filled")
}

func TestFormStepPicksFirstOfManyOptions(t *testing.T) {
	shrinkWaits(t)
	d := newFakeDriver()
	showApplicationForm(d)
	d.options[locBankSelect.Query] = []browser.SelectOption{
		{Value: "", Label: "Select your bank"},
		{Value: "7", Label: "Nabil Bank"},
		{Value: "42", Label: "Everest Bank"},
		{Value: "99", Label: "Closed Branch", Disabled: true},
	}

	sr := newFormStep().Run(context.Background(), d, testAccount(), testResource())

	require.True(t, sr.OK, "reason: %s", sr.Reason)
	assert.Equal(t, "7", d.selected[locBankSelect.Query])
}

func TestFormStepNoUsableBankOption(t *testing.T) {
	shrinkWaits(t)
	d := newFakeDriver()
	showApplicationForm(d)
	d.options[locBankSelect.Query] = []browser.SelectOption{
		{Value: "", Label: "Select your bank"},
		{Value: "13", Label: "Suspended Bank", Disabled: true},
	}

	sr := newFormStep().Run(context.Background(), d, testAccount(), testResource())

	require.False(t, sr.OK)
	assert.Contains(t, sr.Reason, "no usable bank option")
}

func TestFormStepToleratesMissingDisclaimer(t *testing.T) {
	shrinkWaits(t)
	d := newFakeDriver()
	showApplicationForm(d)
	d.visible[locDisclaimer.Query] = false

	sr := newFormStep().Run(context.Background(), d, testAccount(), testResource())

	require.True(t, sr.OK, "reason: %s", sr.Reason)
}

func TestFormStepMissingProceedIsFatal(t *testing.T) {
	shrinkWaits(t)
	d := newFakeDriver()
	showApplicationForm(d)
	d.visible[locProceed[0].Query] = false

	sr := newFormStep().Run(context.Background(), d, testAccount(), testResource())

	require.False(t, sr.OK)
	assert.Contains(t, sr.Reason, "proceed")
	assert.Contains(t, d.shots, "form_proceed_missing")
}

func TestFormStepFormNeverLoads(t *testing.T) {
	shrinkWaits(t)
	d := newFakeDriver()
	d.show(actionLocator(0).Query)

	sr := newFormStep().Run(context.Background(), d, testAccount(), testResource())

	require.False(t, sr.OK)
	assert.Contains(t, sr.Reason, "did not load")
	assert.Contains(t, d.shots, "form_load_failed")
}
