// cmd/interactive.go
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dkharel/meroflow/internal/pipeline"
)

// prompter wraps the operator-facing stdin prompts. The reader and writer
// are injectable so the prompts are testable without a terminal.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

func (p *prompter) readLine() string {
	if !p.in.Scan() {
		return ""
	}
	return strings.TrimSpace(p.in.Text())
}

// Select lists the eligible candidates and asks the operator to pick one.
// An empty answer picks the first; anything non-numeric aborts selection.
func (p *prompter) Select(candidates []pipeline.CandidateResource) (pipeline.CandidateResource, error) {
	fmt.Fprintln(p.out, "Eligible offerings:")
	for i, c := range candidates {
		fmt.Fprintf(p.out, "  [%d] %s (%s, %s)\n", i+1, c.Name, c.Category, c.Group)
	}
	fmt.Fprintf(p.out, "Apply which offering? [1]: ")

	answer := p.readLine()
	if answer == "" {
		return candidates[0], nil
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(candidates) {
		return pipeline.CandidateResource{}, fmt.Errorf("invalid selection %q", answer)
	}
	return candidates[n-1], nil
}

// Confirm asks before the irreversible submission for one account. Only an
// explicit yes proceeds.
func (p *prompter) Confirm(ctx context.Context, account string, res pipeline.CandidateResource) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(p.out, "Submit application for %s on %q? [y/N]: ", account, res.Name)
	switch strings.ToLower(p.readLine()) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
