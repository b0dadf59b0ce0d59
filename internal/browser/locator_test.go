// internal/browser/locator_test.go
package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// waitStub implements only the primitive the resolver uses.
type waitStub struct {
	Driver
	visible  map[string]bool
	attempts []string
}

func (s *waitStub) WaitVisible(_ context.Context, loc Locator, _ time.Duration) error {
	s.attempts = append(s.attempts, loc.Query)
	if s.visible[loc.Query] {
		return nil
	}
	return errors.New("not visible")
}

func TestResolveReturnsFirstVisibleCandidate(t *testing.T) {
	d := &waitStub{visible: map[string]bool{"input#username": true}}
	candidates := []Locator{
		CSS("input[formcontrolname='username']"),
		CSS("input#username"),
		CSS("input[placeholder*='User']"),
	}

	loc, err := NewResolver(zap.NewNop()).Resolve(context.Background(), d, "username", candidates, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, "input#username", loc.Query)
	// The first candidate was tried and failed; the third was never needed.
	assert.Equal(t, []string{"input[formcontrolname='username']", "input#username"}, d.attempts)
}

func TestResolveExhaustionIsTyped(t *testing.T) {
	d := &waitStub{visible: map[string]bool{}}
	candidates := []Locator{CSS("a"), XPath("//b"), CSS("c")}

	_, err := NewResolver(zap.NewNop()).Resolve(context.Background(), d, "proceed", candidates, time.Millisecond)

	require.Error(t, err)
	var nf *FieldNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "proceed", nf.Field)
	assert.Equal(t, 3, nf.Candidates)
	assert.Len(t, d.attempts, 3, "each candidate gets exactly one attempt")
}

func TestResolveHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := &waitStub{visible: map[string]bool{"a": true}}

	_, err := NewResolver(zap.NewNop()).Resolve(ctx, d, "field", []Locator{CSS("a")}, time.Millisecond)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, d.attempts)
}
