// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session owns one browser tab bound to exactly one account. It implements
// Driver on top of chromedp and holds the tab's cookie/auth state for the
// lifetime of the run.
type Session struct {
	id      string
	account string
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *zap.Logger

	shotDir string
	onClose func()

	mu       sync.Mutex
	isClosed bool
}

var _ Driver = (*Session)(nil)

func newSession(ctx context.Context, cancel context.CancelFunc, account, shotDir string, logger *zap.Logger, onClose func()) *Session {
	sessionID := uuid.New().String()
	return &Session{
		id:      sessionID,
		account: account,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger.With(zap.String("session_id", sessionID), zap.String("account", account)),
		shotDir: shotDir,
		onClose: onClose,
	}
}

// ID returns the unique identifier for the session.
func (s *Session) ID() string {
	return s.id
}

// Account returns the identifier of the account this session is bound to.
func (s *Session) Account() string {
	return s.account
}

// Close terminates the tab. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	s.mu.Unlock()

	s.logger.Debug("Closing browser session.")
	if s.cancel != nil {
		s.cancel()
	}
	if s.onClose != nil {
		s.onClose()
	}
	return nil
}

// runActions executes chromedp actions, respecting both the session lifetime
// (s.ctx) and the incoming operational context.
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// queryOpt maps a locator kind onto the matching chromedp query option.
func queryOpt(loc Locator) chromedp.QueryOption {
	if loc.Kind == ByXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// jsElement builds a JavaScript expression evaluating to the located element
// or null.
func jsElement(loc Locator) string {
	q := strconv.Quote(loc.Query)
	if loc.Kind == ByXPath {
		return fmt.Sprintf(
			`document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`, q)
	}
	return fmt.Sprintf(`document.querySelector(%s)`, q)
}

// Navigate loads a URL and waits for the document body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating.", zap.String("url", url))
	if err := s.runActions(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// WaitVisible blocks until the element is visible or the timeout elapses.
func (s *Session) WaitVisible(ctx context.Context, loc Locator, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.runActions(waitCtx, chromedp.WaitVisible(loc.Query, queryOpt(loc))); err != nil {
		return fmt.Errorf("element %q not visible within %v: %w", loc.Query, timeout, err)
	}
	return nil
}

// WaitFunc polls a JavaScript expression until truthy or the timeout elapses.
// A timeout is a soft signal; callers re-check state afterwards.
func (s *Session) WaitFunc(ctx context.Context, expr string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.runActions(waitCtx, chromedp.Poll(expr, nil, chromedp.WithPollingTimeout(timeout))); err != nil {
		return fmt.Errorf("condition %q not satisfied within %v: %w", expr, timeout, err)
	}
	return nil
}

// visibleExpr wraps jsElement with a visibility check: the element must exist
// and occupy layout space.
func visibleExpr(loc Locator) string {
	return fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		const rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	})()`, jsElement(loc))
}

// Exists reports whether the element is present and visible.
func (s *Session) Exists(ctx context.Context, loc Locator) (bool, error) {
	var present bool
	if err := s.runActions(ctx, chromedp.Evaluate(visibleExpr(loc), &present)); err != nil {
		return false, fmt.Errorf("existence check for %q failed: %w", loc.Query, err)
	}
	return present, nil
}

// Text returns the trimmed text content of the element.
func (s *Session) Text(ctx context.Context, loc Locator) (string, error) {
	expr := fmt.Sprintf(`(() => {
		const el = %s;
		return el ? el.textContent.trim() : "";
	})()`, jsElement(loc))
	var text string
	if err := s.runActions(ctx, chromedp.Evaluate(expr, &text)); err != nil {
		return "", fmt.Errorf("failed to read text of %q: %w", loc.Query, err)
	}
	return text, nil
}

// Click dispatches a click on the element.
func (s *Session) Click(ctx context.Context, loc Locator) error {
	if err := s.runActions(ctx, chromedp.Click(loc.Query, queryOpt(loc))); err != nil {
		return fmt.Errorf("failed to click %q: %w", loc.Query, err)
	}
	return nil
}

// Fill clears the element and types the value key by key, which fires the
// input events client-side form frameworks listen for.
func (s *Session) Fill(ctx context.Context, loc Locator, value string) error {
	opt := queryOpt(loc)
	if err := s.runActions(ctx,
		chromedp.Clear(loc.Query, opt),
		chromedp.SendKeys(loc.Query, value, opt),
	); err != nil {
		return fmt.Errorf("failed to fill %q: %w", loc.Query, err)
	}
	return nil
}

// Press sends a single key to the element.
func (s *Session) Press(ctx context.Context, loc Locator, key string) error {
	if err := s.runActions(ctx, chromedp.SendKeys(loc.Query, key, queryOpt(loc))); err != nil {
		return fmt.Errorf("failed to send key to %q: %w", loc.Query, err)
	}
	return nil
}

// SelectValue sets the value of a single-choice control and dispatches the
// input/change events the page's framework needs to observe the selection.
func (s *Session) SelectValue(ctx context.Context, loc Locator, value string) error {
	expr := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		el.value = %s;
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	})()`, jsElement(loc), strconv.Quote(value))
	var ok bool
	if err := s.runActions(ctx, chromedp.Evaluate(expr, &ok)); err != nil {
		return fmt.Errorf("failed to select value on %q: %w", loc.Query, err)
	}
	if !ok {
		return fmt.Errorf("select control %q not found", loc.Query)
	}
	return nil
}

// Options enumerates the options of a single-choice control.
func (s *Session) Options(ctx context.Context, loc Locator) ([]SelectOption, error) {
	expr := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el || !el.options) return [];
		return Array.from(el.options).map(o => ({
			value: o.value,
			label: (o.textContent || "").trim(),
			disabled: o.disabled,
		}));
	})()`, jsElement(loc))
	var opts []SelectOption
	if err := s.runActions(ctx, chromedp.Evaluate(expr, &opts)); err != nil {
		return nil, fmt.Errorf("failed to enumerate options of %q: %w", loc.Query, err)
	}
	return opts, nil
}

// Check sets a checkbox-like control to checked.
func (s *Session) Check(ctx context.Context, loc Locator) error {
	expr := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		if (!el.checked) {
			el.checked = true;
			el.dispatchEvent(new Event('change', { bubbles: true }));
		}
		return true;
	})()`, jsElement(loc))
	var ok bool
	if err := s.runActions(ctx, chromedp.Evaluate(expr, &ok)); err != nil {
		return fmt.Errorf("failed to check %q: %w", loc.Query, err)
	}
	if !ok {
		return fmt.Errorf("checkbox %q not found", loc.Query)
	}
	return nil
}

// Evaluate runs a JavaScript expression and unmarshals its result into out.
func (s *Session) Evaluate(ctx context.Context, expr string, out interface{}) error {
	if err := s.runActions(ctx, chromedp.Evaluate(expr, out)); err != nil {
		return fmt.Errorf("script evaluation failed: %w", err)
	}
	return nil
}

// Location returns the current page URL.
func (s *Session) Location(ctx context.Context) (string, error) {
	var urlstr string
	if err := s.runActions(ctx, chromedp.Location(&urlstr)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return urlstr, nil
}

// Screenshot captures the page into the diagnostics directory. Best-effort:
// any failure is logged and swallowed, and the empty string is returned.
func (s *Session) Screenshot(ctx context.Context, label string) string {
	if s.shotDir == "" {
		return ""
	}

	var buf []byte
	shotCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	capture := chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithCaptureBeyondViewport(true).
			Do(ctx)
		return err
	})
	if err := s.runActions(shotCtx, capture); err != nil {
		s.logger.Debug("Screenshot capture failed.", zap.String("label", label), zap.Error(err))
		return ""
	}

	if err := os.MkdirAll(s.shotDir, 0o755); err != nil {
		s.logger.Debug("Could not create diagnostics directory.", zap.Error(err))
		return ""
	}
	path := filepath.Join(s.shotDir, fmt.Sprintf("%s_%s.png", sanitizeLabel(label), sanitizeLabel(s.account)))
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		s.logger.Debug("Could not write screenshot.", zap.String("path", path), zap.Error(err))
		return ""
	}

	s.logger.Debug("Screenshot captured.", zap.String("path", path))
	return path
}

func sanitizeLabel(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, label)
}
