// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/dkharel/meroflow/internal/config"
)

const shutdownGracePeriod = 15 * time.Second

// Manager owns the browser process (one exec allocator) and creates one tab
// per account. Sessions are never shared between accounts.
type Manager struct {
	logger *zap.Logger
	cfg    *config.Config

	allocCtx    context.Context
	allocCancel context.CancelFunc

	sessions map[string]*Session
	mu       sync.RWMutex
	wg       sync.WaitGroup

	initOnce sync.Once
	initErr  error
}

// NewManager creates a browser manager. The browser process itself is not
// launched until the first session is requested.
func NewManager(cfg *config.Config, logger *zap.Logger) *Manager {
	return &Manager{
		logger:   logger.Named("browser_manager"),
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// initialize builds the exec allocator once.
func (m *Manager) initialize(ctx context.Context) error {
	m.initOnce.Do(func() {
		m.logger.Info("Launching browser.", zap.Bool("headless", m.cfg.Browser.Headless))

		opts := []chromedp.ExecAllocatorOption{
			chromedp.NoFirstRun,
			chromedp.NoDefaultBrowserCheck,
			chromedp.NoSandbox,
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		}
		if m.cfg.Browser.Headless {
			opts = append(opts, chromedp.Headless)
		}
		for _, arg := range m.cfg.Browser.Args {
			name, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
			if name == "" {
				m.initErr = fmt.Errorf("invalid browser argument %q", arg)
				return
			}
			if found {
				opts = append(opts, chromedp.Flag(name, value))
			} else {
				opts = append(opts, chromedp.Flag(name, true))
			}
		}

		// The allocator must outlive the operational context that triggered
		// initialization; sessions close it during Shutdown.
		m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(Detach(ctx), opts...)
	})
	return m.initErr
}

// NewSession opens a fresh tab bound to one account.
func (m *Manager) NewSession(ctx context.Context, account string) (*Session, error) {
	if err := m.initialize(ctx); err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(m.allocCtx)

	// Materialize the tab so the CDP connection is established before any
	// step runs against it.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to open browser tab for account %q: %w", account, err)
	}

	m.wg.Add(1)
	session := newSession(tabCtx, tabCancel, account, m.cfg.DiagnosticsDir(), m.logger, nil)
	session.onClose = func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.sessions, session.ID())
		m.wg.Done()
		m.logger.Debug("Session removed from manager.", zap.String("session_id", session.ID()))
	}

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	m.logger.Info("New session created.", zap.String("session_id", session.ID()), zap.String("account", account))
	return session, nil
}

// Shutdown closes all sessions and the browser process. It is unconditional:
// callers defer it so cleanup also happens on interrupt and abort paths.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.allocCtx == nil {
		return nil
	}
	m.logger.Info("Shutting down browser manager.")

	m.mu.RLock()
	sessionsToClose := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessionsToClose = append(sessionsToClose, s)
	}
	m.mu.RUnlock()

	for _, s := range sessionsToClose {
		if err := s.Close(ctx); err != nil {
			m.logger.Warn("Error closing session during shutdown.", zap.String("session_id", s.ID()), zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Debug("All sessions closed.")
	case <-time.After(shutdownGracePeriod):
		m.logger.Warn("Timeout waiting for sessions to close; forcing browser shutdown.")
	}

	m.allocCancel()
	m.logger.Info("Browser manager shutdown complete.")
	return nil
}
