// Package rules compiles a declarative migration definition into an ordered
// list of executable mutation rules. Each rule pairs an anchor with a guarded
// transformation; a rule whose effect is already present skips instead of
// re-applying, so repeated runs converge to a fixed point.
package rules

import (
	"fmt"
	"strings"

	"refan/internal/buffer"
	"refan/internal/report"
	"refan/internal/scan"
	"refan/pkg/migrate"
)

// defaultWindow bounds the lookaround used by call fan-out guards when the
// migration does not set one.
const defaultWindow = 12

// Rule is one executable mutation. Apply runs a full pass over the buffer,
// transforming every anchor occurrence, and returns one result per
// occurrence (or a single skipped result when the anchor is absent). A
// non-nil error aborts the session; the buffer must then be discarded.
type Rule interface {
	Name() string
	Apply(buf *buffer.Buffer) ([]report.Result, error)
}

// Compile translates the migration's rule specs, in declared order, into
// executable rules. Static validation (kinds, ordering) happens earlier in
// internal/parser; Compile only refuses specs it cannot execute.
func Compile(m *migrate.Migration) ([]Rule, error) {
	out := make([]Rule, 0, len(m.Rules))
	for _, spec := range m.Rules {
		r, err := compileOne(m, spec)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", spec.Name, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func compileOne(m *migrate.Migration, spec migrate.RuleSpec) (Rule, error) {
	switch spec.Kind {
	case migrate.KindFieldFanout:
		return &fieldFanout{
			name:     spec.Name,
			block:    scan.Anchor{Patterns: []string{spec.Block}},
			match:    scan.Anchor{Patterns: spec.Match, Exact: spec.Exact},
			variants: m.Variants,
			template: spec.Template,
			dedupe:   spec.Dedupe,
		}, nil
	case migrate.KindCallFanout:
		w := spec.Window
		if w == 0 {
			w = defaultWindow
		}
		return &callFanout{
			name:       spec.Name,
			match:      scan.Anchor{Patterns: spec.Match, Exact: spec.Exact},
			variants:   m.Variants,
			template:   spec.Template,
			errVariant: spec.ErrVariant,
			collection: spec.Collection,
			combine:    spec.Combine,
			window:     w,
		}, nil
	case migrate.KindAggregate:
		accType := spec.AccType
		if accType == "" {
			accType = "float64"
		}
		elemVar := spec.ElemVar
		if elemVar == "" {
			elemVar = "rec"
		}
		return &aggregate{
			name:        spec.Name,
			match:       scan.Anchor{Patterns: spec.Match, Exact: spec.Exact},
			variants:    m.Variants,
			accumulator: spec.Accumulator,
			collection:  spec.Collection,
			field:       spec.Field,
			accType:     accType,
			elemVar:     elemVar,
			consume:     spec.Consume,
		}, nil
	case migrate.KindPlaceholder, migrate.KindRewrite:
		match := spec.Match
		if len(match) == 0 {
			match = []string{spec.Find}
		}
		return &lineReplace{
			name:    spec.Name,
			match:   scan.Anchor{Patterns: match, Exact: spec.Exact},
			find:    spec.Find,
			replace: spec.Replace,
			all:     spec.All,
		}, nil
	default:
		return nil, fmt.Errorf("unknown rule kind %q", spec.Kind)
	}
}

// leadingWS returns the indentation prefix of a line.
func leadingWS(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' && s[i] != '\t' {
			return s[:i]
		}
	}
	return s
}

// lineEOL returns the terminator to reuse for lines inserted near src.
func lineEOL(src buffer.Line) string {
	if src.EOL == "" {
		return "\n"
	}
	return src.EOL
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

// bufferContains reports whether any line in [start, end] contains sub.
func bufferContains(buf *buffer.Buffer, start, end int, sub string) bool {
	for i := start; i <= end && i < buf.Len(); i++ {
		if strings.Contains(buf.Text(i), sub) {
			return true
		}
	}
	return false
}

func expandAll(variants []migrate.Variant, template string) []string {
	out := make([]string, len(variants))
	for i, v := range variants {
		out[i] = v.Expand(template)
	}
	return out
}

func applied(rule string, line int) report.Result {
	return report.Result{Rule: rule, Outcome: report.OutcomeApplied, Line: line + 1}
}

func skipped(rule, reason string, line int) report.Result {
	return report.Result{Rule: rule, Outcome: report.OutcomeSkipped, Reason: reason, Line: line + 1}
}

// notFound builds the single skipped result for a pass that never anchored.
// When every name the rule would introduce is already present, the reason is
// "already applied" rather than "anchor not found", so a re-run over a fully
// migrated file reads honestly in the report.
func notFound(rule string, buf *buffer.Buffer, markers []string) report.Result {
	if len(markers) > 0 {
		all := true
		for _, m := range markers {
			if !bufferContains(buf, 0, buf.Len()-1, m) {
				all = false
				break
			}
		}
		if all {
			return report.Result{Rule: rule, Outcome: report.OutcomeSkipped, Reason: "already applied"}
		}
	}
	return report.Result{Rule: rule, Outcome: report.OutcomeSkipped, Reason: "anchor not found"}
}
