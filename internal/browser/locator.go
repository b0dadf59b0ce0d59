// internal/browser/locator.go
package browser

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// FieldNotFoundError reports that every candidate locator for a logical field
// was tried and none resolved. It is recoverable by the calling step's own
// fallback logic, or terminal for that step only; callers decide.
type FieldNotFoundError struct {
	Field      string
	Candidates int
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("field %q not found after trying %d candidate locator(s)", e.Field, e.Candidates)
}

// Resolver resolves logical fields against a page through ordered
// candidate-locator lists. Each candidate gets exactly one bounded attempt;
// the first that appears wins. There is no retry across the full list.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a locator resolver.
func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logger.Named("locator")}
}

// Resolve tries each candidate in order within attemptTimeout and returns the
// first locator whose element became visible. Exhaustion is reported as a
// *FieldNotFoundError.
func (r *Resolver) Resolve(ctx context.Context, d Driver, field string, candidates []Locator, attemptTimeout time.Duration) (Locator, error) {
	for i, loc := range candidates {
		if err := ctx.Err(); err != nil {
			return Locator{}, err
		}
		if err := d.WaitVisible(ctx, loc, attemptTimeout); err != nil {
			r.logger.Debug("Candidate locator did not resolve.",
				zap.String("field", field),
				zap.Int("candidate", i),
				zap.String("query", loc.Query),
				zap.Error(err))
			continue
		}
		if i > 0 {
			r.logger.Debug("Field resolved by fallback candidate.",
				zap.String("field", field),
				zap.Int("candidate", i),
				zap.String("query", loc.Query))
		}
		return loc, nil
	}
	return Locator{}, &FieldNotFoundError{Field: field, Candidates: len(candidates)}
}
