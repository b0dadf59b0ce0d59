// internal/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dkharel/meroflow/internal/browser"
)

func newTestPipeline(c Confirmer) *Pipeline {
	logger := zap.NewNop()
	resolver := browser.NewResolver(logger)
	return NewPipeline(
		NewAuthStep(testLoginURL, resolver, logger),
		newDiscoveryStep(),
		NewFormStep(resolver, logger),
		NewSubmitStep(c, logger),
		logger,
	)
}

// fullApplicationPage scripts every surface the post-auth pipeline touches:
// the offerings listing, the form, and the authorization page.
func fullApplicationPage(action string) *fakeDriver {
	d := newFakeDriver()
	d.show(locOfferingRow.Query)
	d.rows = []CandidateResource{
		{Name: "Alpha Hydro", Category: "IPO", Group: "Ordinary Shares", ActionLabel: action, Index: 0},
	}
	showApplicationForm(d)
	d.show(locAuthorizationCode.Query, labelledSubmitQuery)
	return d
}

func TestPipelineApplySubmits(t *testing.T) {
	shrinkWaits(t)
	d := fullApplicationPage("Apply")

	out := newTestPipeline(AlwaysConfirm{}).Apply(context.Background(), d, testAccount(), "Alpha Hydro")

	require.Equal(t, StatusSubmitted, out.Status, "reason: %s", out.Reason)
	assert.Equal(t, "ram", out.Account)
	assert.NotEmpty(t, out.Artifact)
	assert.Contains(t, d.clicked, labelledSubmitQuery)
}

func TestPipelineApplyIsIdempotent(t *testing.T) {
	shrinkWaits(t)
	// A prior run left the row's action control relabelled.
	d := fullApplicationPage("Edit")

	out := newTestPipeline(AlwaysConfirm{}).Apply(context.Background(), d, testAccount(), "Alpha Hydro")

	require.Equal(t, StatusAlreadyCompleted, out.Status)
	assert.Contains(t, out.Reason, "Edit")
	// The form was never opened, nothing was submitted.
	assert.NotContains(t, d.clicked, actionLocator(0).Query)
	assert.Empty(t, d.filled)
}

func TestPipelineApplyTargetNotListedFails(t *testing.T) {
	shrinkWaits(t)
	d := fullApplicationPage("Apply")

	out := newTestPipeline(AlwaysConfirm{}).Apply(context.Background(), d, testAccount(), "Unlisted Co")

	require.Equal(t, StatusFailed, out.Status)
	assert.Contains(t, out.Reason, "resource not found in list")
	// The form was never touched for a row this account cannot see.
	assert.Empty(t, d.clicked)
	assert.Empty(t, d.filled)
}

func TestPipelineApplyOperatorDeclineSkips(t *testing.T) {
	shrinkWaits(t)
	d := fullApplicationPage("Apply")

	out := newTestPipeline(&scriptedConfirmer{approve: false}).Apply(context.Background(), d, testAccount(), "Alpha Hydro")

	require.Equal(t, StatusSkipped, out.Status)
	assert.Contains(t, out.Reason, "cancelled")
}

func TestPipelineApplyFormFailureFails(t *testing.T) {
	shrinkWaits(t)
	d := fullApplicationPage("Apply")
	d.visible[locBankSelect.Query] = false

	out := newTestPipeline(AlwaysConfirm{}).Apply(context.Background(), d, testAccount(), "Alpha Hydro")

	require.Equal(t, StatusFailed, out.Status)
	assert.NotEmpty(t, out.Artifact)
}

func TestPipelineApplyPanicIsIsolated(t *testing.T) {
	shrinkWaits(t)
	d := fullApplicationPage("Apply")
	d.navPanic = true

	out := newTestPipeline(AlwaysConfirm{}).Apply(context.Background(), d, testAccount(), "Alpha Hydro")

	require.Equal(t, StatusFailed, out.Status)
	assert.Contains(t, out.Reason, "internal error")
	assert.Equal(t, "ram", out.Account)
}

func TestPipelineAuthenticatePanicIsIsolated(t *testing.T) {
	shrinkWaits(t)
	d := newFakeDriver()
	d.navPanic = true

	sr := newTestPipeline(AlwaysConfirm{}).Authenticate(context.Background(), d, testAccount())

	require.False(t, sr.OK)
	assert.Contains(t, sr.Reason, "internal error")
}
