// internal/pipeline/driver_test.go
package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dkharel/meroflow/internal/browser"
)

// fakeDriver is a scriptable page: element state is keyed by locator query.
// Visible elements satisfy waits, clicks, and fills; hidden elements satisfy
// only the script-backed primitives (SelectValue, Options), matching how the
// real session drives them through page JavaScript.
type fakeDriver struct {
	visible map[string]bool
	hidden  map[string]bool
	texts   map[string]string
	options map[string][]browser.SelectOption

	rows          []CandidateResource
	scriptedClick bool
	location      string

	navErr   error
	navPanic bool
	evalErr  error
	clickErr map[string]error
	fillErr  map[string]error

	navigated []string
	waits     []string
	clicked   []string
	filled    map[string]string
	selected  map[string]string
	pressed   []string
	checked   []string
	shots     []string
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		visible:  make(map[string]bool),
		hidden:   make(map[string]bool),
		texts:    make(map[string]string),
		options:  make(map[string][]browser.SelectOption),
		clickErr: make(map[string]error),
		fillErr:  make(map[string]error),
		filled:   make(map[string]string),
		selected: make(map[string]string),
	}
}

func (f *fakeDriver) show(queries ...string) {
	for _, q := range queries {
		f.visible[q] = true
	}
}

func (f *fakeDriver) Navigate(_ context.Context, url string) error {
	if f.navPanic {
		panic("tab gone")
	}
	if f.navErr != nil {
		return f.navErr
	}
	f.navigated = append(f.navigated, url)
	return nil
}

func (f *fakeDriver) WaitVisible(_ context.Context, loc browser.Locator, _ time.Duration) error {
	f.waits = append(f.waits, loc.Query)
	if f.visible[loc.Query] {
		return nil
	}
	return fmt.Errorf("not visible: %s", loc.Query)
}

func (f *fakeDriver) WaitFunc(context.Context, string, time.Duration) error { return nil }

func (f *fakeDriver) Exists(_ context.Context, loc browser.Locator) (bool, error) {
	return f.visible[loc.Query], nil
}

func (f *fakeDriver) Text(_ context.Context, loc browser.Locator) (string, error) {
	return f.texts[loc.Query], nil
}

func (f *fakeDriver) Click(_ context.Context, loc browser.Locator) error {
	if err := f.clickErr[loc.Query]; err != nil {
		return err
	}
	if !f.visible[loc.Query] {
		return fmt.Errorf("not clickable: %s", loc.Query)
	}
	f.clicked = append(f.clicked, loc.Query)
	return nil
}

func (f *fakeDriver) Fill(_ context.Context, loc browser.Locator, value string) error {
	if err := f.fillErr[loc.Query]; err != nil {
		return err
	}
	if !f.visible[loc.Query] {
		return fmt.Errorf("not fillable: %s", loc.Query)
	}
	f.filled[loc.Query] = value
	return nil
}

func (f *fakeDriver) Press(_ context.Context, loc browser.Locator, key string) error {
	if !f.visible[loc.Query] {
		return fmt.Errorf("not pressable: %s", loc.Query)
	}
	f.pressed = append(f.pressed, loc.Query+":"+key)
	return nil
}

func (f *fakeDriver) SelectValue(_ context.Context, loc browser.Locator, value string) error {
	if !f.visible[loc.Query] && !f.hidden[loc.Query] {
		return fmt.Errorf("no such select: %s", loc.Query)
	}
	f.selected[loc.Query] = value
	return nil
}

func (f *fakeDriver) Options(_ context.Context, loc browser.Locator) ([]browser.SelectOption, error) {
	if !f.visible[loc.Query] && !f.hidden[loc.Query] {
		return nil, fmt.Errorf("no such select: %s", loc.Query)
	}
	return f.options[loc.Query], nil
}

func (f *fakeDriver) Check(_ context.Context, loc browser.Locator) error {
	if !f.visible[loc.Query] {
		return fmt.Errorf("not checkable: %s", loc.Query)
	}
	f.checked = append(f.checked, loc.Query)
	return nil
}

func (f *fakeDriver) Evaluate(_ context.Context, _ string, out interface{}) error {
	if f.evalErr != nil {
		return f.evalErr
	}
	switch v := out.(type) {
	case *[]CandidateResource:
		*v = f.rows
	case *bool:
		*v = f.scriptedClick
	}
	return nil
}

func (f *fakeDriver) Location(context.Context) (string, error) {
	return f.location, nil
}

func (f *fakeDriver) Screenshot(_ context.Context, label string) string {
	f.shots = append(f.shots, label)
	return label + ".png"
}

var _ browser.Driver = (*fakeDriver)(nil)

// shrinkWaits collapses every wait and settle to a millisecond for the
// duration of the test. Tests in this package must not run in parallel.
func shrinkWaits(t *testing.T) {
	t.Helper()
	ps := []*time.Duration{
		&resolveAttempt, &widgetResultsWait, &widgetSearchSettle,
		&widgetSelectSettle, &routeChangeWait, &postSubmitSettle,
		&listContainerWait, &formControlWait, &dependentSelectWait,
		&dependentSelectSettle, &authFieldWait, &submissionEvidenceSettle,
	}
	saved := make([]time.Duration, len(ps))
	for i, p := range ps {
		saved[i] = *p
		*p = time.Millisecond
	}
	t.Cleanup(func() {
		for i, p := range ps {
			*p = saved[i]
		}
	})
}
