// internal/pipeline/discovery.go
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dkharel/meroflow/internal/browser"
)

// scrapeOfferingsScript reads every offerings row in one pass. Scraping in
// page JavaScript keeps the row fields consistent with each other even while
// the list re-renders.
const scrapeOfferingsScript = `
(() => {
	const rows = Array.from(document.querySelectorAll('div.company-list'));
	return rows.map((row, i) => {
		const pick = (sel) => {
			const el = row.querySelector(sel);
			return el ? el.textContent.trim() : '';
		};
		return {
			name: pick('.company-name span') || pick('.company-name'),
			category: pick('.share-of-type'),
			group: pick('.isin'),
			action: pick('button.btn-issue'),
			index: i,
		};
	});
})()`

// DiscoveryStep scrapes the offerings listing and reduces it to the eligible
// candidates. Rows are matched across sessions by Name only; Index is valid
// solely within the session that scraped it.
type DiscoveryStep struct {
	offeringsURL  string
	categoryToken string
	groupToken    string
	completed     []string
	logger        *zap.Logger
}

func NewDiscoveryStep(offeringsURL, categoryToken, groupToken string, completedLabels []string, logger *zap.Logger) *DiscoveryStep {
	return &DiscoveryStep{
		offeringsURL:  offeringsURL,
		categoryToken: strings.ToLower(categoryToken),
		groupToken:    strings.ToLower(groupToken),
		completed:     completedLabels,
		logger:        logger.Named("discovery"),
	}
}

// Run loads the offerings listing and returns the eligible rows in page
// order. An empty listing is a valid result, not an error.
func (s *DiscoveryStep) Run(ctx context.Context, d browser.Driver) ([]CandidateResource, error) {
	rows, err := s.scrape(ctx, d)
	if err != nil {
		return nil, err
	}

	eligible := make([]CandidateResource, 0, len(rows))
	for _, r := range rows {
		if s.eligible(r) {
			eligible = append(eligible, r)
		}
	}
	s.logger.Info("Offerings scraped.",
		zap.Int("rows", len(rows)),
		zap.Int("eligible", len(eligible)))
	return eligible, nil
}

// Locate re-scrapes the listing inside the given session and finds the row
// named name. The second return is false when the row is absent for this
// account.
func (s *DiscoveryStep) Locate(ctx context.Context, d browser.Driver, name string) (CandidateResource, bool, error) {
	rows, err := s.scrape(ctx, d)
	if err != nil {
		return CandidateResource{}, false, err
	}
	for _, r := range rows {
		if strings.EqualFold(r.Name, name) {
			return r, true, nil
		}
	}
	return CandidateResource{}, false, nil
}

// Completed reports whether the row's action label marks a prior application
// by this account.
func (s *DiscoveryStep) Completed(r CandidateResource) bool {
	label := strings.ToLower(strings.TrimSpace(r.ActionLabel))
	for _, l := range s.completed {
		if label == strings.ToLower(l) {
			return true
		}
	}
	return false
}

// ActionLocator returns the locator for the row's action control. The index
// must come from a scrape of the same session.
func (s *DiscoveryStep) ActionLocator(r CandidateResource) browser.Locator {
	return actionLocator(r.Index)
}

func (s *DiscoveryStep) scrape(ctx context.Context, d browser.Driver) ([]CandidateResource, error) {
	if err := d.Navigate(ctx, s.offeringsURL); err != nil {
		return nil, fmt.Errorf("navigate to offerings: %w", err)
	}
	if err := d.WaitVisible(ctx, locOfferingRow, listContainerWait); err != nil {
		// No rows rendered within the window: treat as an empty listing.
		s.logger.Debug("Offerings container never rendered.", zap.Error(err))
		return nil, nil
	}

	var rows []CandidateResource
	if err := d.Evaluate(ctx, scrapeOfferingsScript, &rows); err != nil {
		return nil, fmt.Errorf("scrape offerings: %w", err)
	}
	return rows, nil
}

func (s *DiscoveryStep) eligible(r CandidateResource) bool {
	return strings.Contains(strings.ToLower(r.Category), s.categoryToken) &&
		strings.Contains(strings.ToLower(r.Group), s.groupToken)
}
