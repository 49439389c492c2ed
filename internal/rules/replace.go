package rules

import (
	"strings"

	"refan/internal/buffer"
	"refan/internal/report"
	"refan/internal/scan"
)

// lineReplace backs both the placeholder and rewrite kinds: a line matching
// the anchor has find substituted with replace. For placeholders, find spans
// the literal zero value together with its pending-work annotation, so the
// annotation disappears with the substitution.
type lineReplace struct {
	name    string
	match   scan.Anchor
	find    string
	replace string
	all     bool
}

func (r *lineReplace) Name() string { return r.name }

func (r *lineReplace) Apply(buf *buffer.Buffer) ([]report.Result, error) {
	var results []report.Result
	cursor := 0
	for {
		idx, ok := scan.Find(buf, cursor, r.match)
		if !ok {
			break
		}
		text := buf.Text(idx)
		if strings.Contains(text, r.replace) {
			results = append(results, skipped(r.name, "already applied", idx))
			cursor = idx + 1
			if !r.all {
				break
			}
			continue
		}
		if !strings.Contains(text, r.find) {
			// anchor alternates can be broader than find; keep scanning
			cursor = idx + 1
			continue
		}
		src := buf.Line(idx)
		buf.Splice(idx, 1, []buffer.Line{{Text: strings.Replace(text, r.find, r.replace, 1), EOL: src.EOL}})
		results = append(results, applied(r.name, idx))
		cursor = idx + 1
		if !r.all {
			break
		}
	}
	if len(results) == 0 {
		results = append(results, notFound(r.name, buf, []string{r.replace}))
	}
	return results, nil
}
