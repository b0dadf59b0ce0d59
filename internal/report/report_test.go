// internal/report/report_test.go
package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkharel/meroflow/internal/pipeline"
)

func sampleOutcomes() []pipeline.Outcome {
	return []pipeline.Outcome{
		{Account: "ram", Status: pipeline.StatusSubmitted, Reason: "submitted"},
		{Account: "sita", Status: pipeline.StatusAlreadyCompleted, Reason: "action label \"Edit\" marks a prior application"},
		{Account: "hari", Status: pipeline.StatusSkipped, Reason: "cancelled by operator"},
		{Account: "gita", Status: pipeline.StatusFailed, Reason: "authentication failed: Invalid credentials"},
	}
}

func TestBuildTalliesOutcomes(t *testing.T) {
	r := Build("Alpha Hydro", sampleOutcomes())

	assert.Equal(t, "Alpha Hydro", r.Target)
	assert.Equal(t, 4, r.Total)
	assert.Equal(t, 1, r.Submitted)
	assert.Equal(t, 1, r.Completed)
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, 1, r.Failed)
	assert.False(t, r.GeneratedAt.IsZero())

	// Outcomes keep input order.
	require.Len(t, r.Outcomes, 4)
	assert.Equal(t, "ram", r.Outcomes[0].Account)
	assert.Equal(t, "gita", r.Outcomes[3].Account)
}

func TestJSONWriterToFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "report.json")
	r := Build("Alpha Hydro", sampleOutcomes())

	require.NoError(t, JSONWriter{Destination: dest}.Write(r))

	raw, err := os.ReadFile(dest)
	require.NoError(t, err)

	var got Report
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, r.Target, got.Target)
	assert.Equal(t, r.Failed, got.Failed)
	require.Len(t, got.Outcomes, 4)
	assert.Equal(t, pipeline.StatusSubmitted, got.Outcomes[0].Status)
}

func TestJSONWriterRejectsBadPath(t *testing.T) {
	err := JSONWriter{Destination: filepath.Join(t.TempDir(), "missing", "report.json")}.Write(Report{})
	assert.Error(t, err)
}
