// internal/browser/manager_test.go
package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dkharel/meroflow/internal/config"
)

func TestNewSessionRejectsMalformedBrowserArg(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Browser.Args = []string{"--"}
	m := NewManager(cfg, zap.NewNop())

	_, err := m.NewSession(context.Background(), "ram")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid browser argument")

	// Initialization failure is sticky; no later call may launch a browser.
	_, again := m.NewSession(context.Background(), "sita")
	assert.Equal(t, err, again)

	assert.NoError(t, m.Shutdown(context.Background()))
}

func TestSanitizeLabel(t *testing.T) {
	assert.Equal(t, "form_loaded", sanitizeLabel("form_loaded"))
	assert.Equal(t, "member_2__ipo_", sanitizeLabel("member 2 (ipo)"))
}
