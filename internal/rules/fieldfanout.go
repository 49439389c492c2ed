package rules

import (
	"refan/internal/buffer"
	"refan/internal/report"
	"refan/internal/scan"
	"refan/pkg/migrate"
)

// fieldFanout replaces the single-variant declaration inside a block with one
// declaration per variant, in declared order, preserving the original line's
// indentation and terminator. Declarations for other variants already present
// in the block are absorbed rather than duplicated.
type fieldFanout struct {
	name     string
	block    scan.Anchor
	match    scan.Anchor
	variants []migrate.Variant
	template string
	dedupe   string
}

func (r *fieldFanout) Name() string { return r.name }

func (r *fieldFanout) Apply(buf *buffer.Buffer) ([]report.Result, error) {
	var results []report.Result
	cursor := 0
	for {
		open, ok := scan.Find(buf, cursor, r.block)
		if !ok {
			break
		}
		reg, err := scan.Extract(buf, open)
		if err != nil {
			return results, err
		}
		res, next := r.applyRegion(buf, reg)
		results = append(results, res)
		cursor = next
	}
	if len(results) == 0 {
		results = append(results, notFound(r.name, buf, expandAll(r.variants, r.dedupe)))
	}
	return results, nil
}

func (r *fieldFanout) applyRegion(buf *buffer.Buffer, reg scan.Region) (report.Result, int) {
	dedupes := expandAll(r.variants, r.dedupe)

	// Idempotency guard: the superset condition, not merely the absence of
	// the original line. A block that already declares every variant skips.
	all := true
	for _, d := range dedupes {
		if !bufferContains(buf, reg.Start, reg.End, d) {
			all = false
			break
		}
	}
	if all {
		return skipped(r.name, "all variants declared", reg.Start), reg.End + 1
	}

	// Rebuild the block interior: drop the single-variant line and any stray
	// per-variant lines, remember where the first of them sat.
	insertAt := -1
	indent, eol := "", "\n"
	var kept []buffer.Line
	for i := reg.Start + 1; i < reg.End; i++ {
		line := buf.Line(i)
		if r.match.Match(line.Text) || containsAny(line.Text, dedupes) {
			if insertAt == -1 {
				insertAt = len(kept)
				indent = leadingWS(line.Text)
				eol = lineEOL(line)
			}
			continue
		}
		kept = append(kept, line)
	}
	if insertAt == -1 {
		return skipped(r.name, "declaration not found in block", reg.Start), reg.End + 1
	}

	decls := make([]buffer.Line, len(r.variants))
	for i, v := range r.variants {
		decls[i] = buffer.Line{Text: indent + v.Expand(r.template), EOL: eol}
	}

	interior := make([]buffer.Line, 0, len(kept)+len(decls))
	interior = append(interior, kept[:insertAt]...)
	interior = append(interior, decls...)
	interior = append(interior, kept[insertAt:]...)

	buf.Splice(reg.Start+1, reg.End-reg.Start-1, interior)
	newEnd := reg.Start + 1 + len(interior)
	return applied(r.name, reg.Start+1+insertAt), newEnd + 1
}
