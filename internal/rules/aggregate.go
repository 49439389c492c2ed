package rules

import (
	"fmt"
	"strings"

	"refan/internal/buffer"
	"refan/internal/report"
	"refan/internal/scan"
	"refan/pkg/migrate"
)

// aggregate replaces the obsolete single-variant accumulator declaration, and
// the summation loops that follow it, with a combined declaration plus one
// synthesized loop per variant. It must run after the call fan-out that
// introduces the per-variant collections; internal/parser rejects migrations
// that order it earlier.
type aggregate struct {
	name        string
	match       scan.Anchor
	variants    []migrate.Variant
	accumulator string
	collection  string
	field       string
	accType     string
	elemVar     string
	consume     []string
}

func (r *aggregate) Name() string { return r.name }

func (r *aggregate) Apply(buf *buffer.Buffer) ([]report.Result, error) {
	var results []report.Result
	accs := expandAll(r.variants, r.accumulator)
	cursor := 0
	for {
		idx, ok := scan.Find(buf, cursor, r.match)
		if !ok {
			break
		}
		if containsAll(buf.Text(idx), accs) {
			results = append(results, skipped(r.name, "all accumulators declared", idx))
			cursor = idx + 1
			continue
		}

		end, err := r.consumeLoops(buf, idx)
		if err != nil {
			return results, err
		}

		src := buf.Line(idx)
		indent, eol := leadingWS(src.Text), lineEOL(src)
		lines := r.synthesize(indent, eol, accs)
		buf.Splice(idx, end-idx+1, lines)
		results = append(results, applied(r.name, idx))
		cursor = idx + len(lines)
	}
	if len(results) == 0 {
		results = append(results, notFound(r.name, buf, accs))
	}
	return results, nil
}

// consumeLoops extends the span past any summation loops immediately after
// the declaration that range over an obsolete or per-variant collection.
// Those loops are superseded by the synthesized set.
func (r *aggregate) consumeLoops(buf *buffer.Buffer, idx int) (int, error) {
	keys := append(expandAll(r.variants, r.collection), r.consume...)
	end := idx
	for end+1 < buf.Len() {
		next := buf.Text(end + 1)
		if !strings.Contains(next, "range ") || !containsAny(next, keys) {
			break
		}
		reg, err := scan.Extract(buf, end+1)
		if err != nil {
			return 0, err
		}
		end = reg.End
	}
	return end, nil
}

func (r *aggregate) synthesize(indent, eol string, accs []string) []buffer.Line {
	decl := fmt.Sprintf("%svar %s %s", indent, strings.Join(accs, ", "), r.accType)
	lines := []buffer.Line{{Text: decl, EOL: eol}}
	for i, v := range r.variants {
		coll := v.Expand(r.collection)
		lines = append(lines,
			buffer.Line{Text: fmt.Sprintf("%sfor _, %s := range %s {", indent, r.elemVar, coll), EOL: eol},
			buffer.Line{Text: fmt.Sprintf("%s\t%s += %s.%s", indent, accs[i], r.elemVar, r.field), EOL: eol},
			buffer.Line{Text: indent + "}", EOL: eol},
		)
	}
	return lines
}
