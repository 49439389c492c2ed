package rules

import (
	"fmt"
	"strings"

	"refan/internal/buffer"
	"refan/internal/report"
	"refan/internal/scan"
	"refan/pkg/migrate"
)

// callFanout expands a single collection-producing call into one call per
// variant, in declared order. When a combine spec is present it also emits
// the concatenation step that builds the ordered superset collection, so any
// downstream indexing or counting logic operates over a deterministic order.
type callFanout struct {
	name       string
	match      scan.Anchor
	variants   []migrate.Variant
	template   string
	errVariant string
	collection string
	combine    *migrate.CombineSpec
	window     int
}

func (r *callFanout) Name() string { return r.name }

func (r *callFanout) Apply(buf *buffer.Buffer) ([]report.Result, error) {
	var results []report.Result
	collections := expandAll(r.variants, r.collection)
	cursor := 0
	for {
		idx, ok := scan.Find(buf, cursor, r.match)
		if !ok {
			break
		}
		// Guard: every variant collection already present near the anchor
		// means a partially-rerun migration; do not fan out twice.
		lo := max(0, idx-r.window)
		hi := min(buf.Len()-1, idx+r.window)
		already := true
		for _, c := range collections {
			if !bufferContains(buf, lo, hi, c) {
				already = false
				break
			}
		}
		if already {
			results = append(results, skipped(r.name, "all variant calls present", idx))
			cursor = idx + 1
			continue
		}

		src := buf.Line(idx)
		indent, eol := leadingWS(src.Text), lineEOL(src)
		calls := make([]buffer.Line, len(r.variants))
		for i, v := range r.variants {
			text := v.Expand(r.template)
			text = strings.ReplaceAll(text, "{err}", r.errFor(v))
			calls[i] = buffer.Line{Text: indent + text, EOL: eol}
		}
		buf.Splice(idx, 1, calls)
		results = append(results, applied(r.name, idx))
		cursor = idx + len(calls)

		if r.combine != nil {
			res, next := r.applyCombine(buf, cursor, collections, indent, eol)
			if res != nil {
				results = append(results, *res)
			}
			cursor = next
		}
	}
	if len(results) == 0 {
		results = append(results, notFound(r.name, buf, collections))
	}
	return results, nil
}

func (r *callFanout) errFor(v migrate.Variant) string {
	if v.Name == r.errVariant {
		return "err"
	}
	return "_"
}

// applyCombine inserts the superset concatenation immediately before the
// combine anchor. The combine is guarded separately from the calls: a
// half-migrated file may carry the calls but not yet the combine.
func (r *callFanout) applyCombine(buf *buffer.Buffer, from int, collections []string, indent, eol string) (*report.Result, int) {
	c := r.combine
	bi, ok := scan.Find(buf, from, scan.Anchor{Patterns: []string{c.Before}})
	if !ok {
		res := skipped(r.name, fmt.Sprintf("combine anchor %q not found", c.Before), from)
		return &res, from
	}
	if bufferContains(buf, from, bi, c.Name+" :=") {
		res := skipped(r.name, "combined collection present", bi)
		return &res, bi + 1
	}

	caps := make([]string, len(collections))
	for i, coll := range collections {
		caps[i] = "len(" + coll + ")"
	}
	lines := []buffer.Line{
		{Text: fmt.Sprintf("%s%s := make([]%s, 0, %s)", indent, c.Name, c.Elem, strings.Join(caps, "+")), EOL: eol},
	}
	for _, coll := range collections {
		lines = append(lines, buffer.Line{
			Text: fmt.Sprintf("%s%s = append(%s, %s...)", indent, c.Name, c.Name, coll),
			EOL:  eol,
		})
	}
	lines = append(lines, buffer.Line{Text: "", EOL: eol})

	buf.Insert(bi, lines)
	res := applied(r.name, bi)
	return &res, bi + len(lines) + 1
}
