// Package report accumulates per-rule outcomes for one patch session and
// renders them as a line-oriented terminal report.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

// Outcome classifies one rule application attempt.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
)

// Result records one rule outcome. A rule that matches several anchor
// occurrences produces one Result per occurrence. Line is 1-based; 0 means
// the rule never anchored anywhere.
type Result struct {
	Rule    string
	Outcome Outcome
	Reason  string
	Line    int
}

// Report is the append-only log of one session's rule outcomes. Err is set
// when the session aborted (unbalanced region or I/O failure) and names the
// failing rule.
type Report struct {
	Path     string
	Results  []Result
	Duration time.Duration
	Err      string
}

// Add appends one result.
func (r *Report) Add(res Result) {
	r.Results = append(r.Results, res)
}

// Applied returns the number of applied results.
func (r *Report) Applied() int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == OutcomeApplied {
			n++
		}
	}
	return n
}

// Skipped returns the number of skipped results.
func (r *Report) Skipped() int {
	return len(r.Results) - r.Applied()
}

var (
	appliedMark = color.New(color.FgGreen).Sprint("+")
	skippedMark = color.New(color.FgYellow).Sprint("-")
	failMark    = color.New(color.FgRed).Sprint("!")
	pathStyle   = color.New(color.Bold)
)

// Render writes one line per rule outcome followed by a summary line. A
// session with zero applied rules and no error is a valid outcome: the file
// was already fully migrated.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintln(w, pathStyle.Sprint(r.Path))
	for _, res := range r.Results {
		mark := appliedMark
		detail := fmt.Sprintf("line %d", res.Line)
		if res.Outcome == OutcomeSkipped {
			mark = skippedMark
			detail = res.Reason
		}
		fmt.Fprintf(w, "  %s %-32s %s  %s\n", mark, res.Rule, res.Outcome, detail)
	}
	if r.Err != "" {
		fmt.Fprintf(w, "  %s session aborted: %s\n", failMark, r.Err)
		return
	}
	fmt.Fprintf(w, "  %d applied, %d skipped in %s\n", r.Applied(), r.Skipped(), r.Duration.Round(time.Microsecond))
}
