// internal/report/report.go

// Package report renders the end-of-run summary consumed by operators and
// by anything parsing the run output downstream.
package report

import (
	"fmt"
	"io"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/dkharel/meroflow/internal/pipeline"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Report is the full run summary. Outcomes stay in input-account order.
type Report struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Target      string             `json:"target"`
	Total       int                `json:"total"`
	Submitted   int                `json:"submitted"`
	Completed   int                `json:"already_completed"`
	Skipped     int                `json:"skipped"`
	Failed      int                `json:"failed"`
	Outcomes    []pipeline.Outcome `json:"outcomes"`
}

// Build tallies the outcomes into a Report.
func Build(target string, outcomes []pipeline.Outcome) Report {
	r := Report{
		GeneratedAt: time.Now().UTC(),
		Target:      target,
		Total:       len(outcomes),
		Outcomes:    outcomes,
	}
	for _, o := range outcomes {
		switch o.Status {
		case pipeline.StatusSubmitted:
			r.Submitted++
		case pipeline.StatusAlreadyCompleted:
			r.Completed++
		case pipeline.StatusSkipped:
			r.Skipped++
		default:
			r.Failed++
		}
	}
	return r
}

// Writer renders a Report to some destination.
type Writer interface {
	Write(r Report) error
}

// JSONWriter renders the report as indented JSON to a file, or to stdout
// when the destination is empty or "stdout".
type JSONWriter struct {
	Destination string
}

func (w JSONWriter) Write(r Report) error {
	out, err := w.open()
	if err != nil {
		return err
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

func (w JSONWriter) open() (io.WriteCloser, error) {
	if w.Destination == "" || w.Destination == "stdout" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(w.Destination)
	if err != nil {
		return nil, fmt.Errorf("create report file: %w", err)
	}
	return f, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
