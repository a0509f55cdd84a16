package diag

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"cgbridge/internal/source"
)

// SessionLocation is printed for diagnostics without a span.
const SessionLocation = "<session>"

// Location renders sp as "path:line:col", or SessionLocation when sp
// cannot be resolved.
func Location(fs *source.FileSet, sp source.Span, global bool) string {
	if global || fs == nil || fs.Get(sp.File) == nil {
		return SessionLocation
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", fs.DisplayPath(sp.File), start.Line, start.Col)
}

type shortLine struct {
	label, code, loc, msg string
	path                  string
	line, col             uint32
}

// FormatShortDiagnostics renders one line per diagnostic (and per note when
// includeNotes is set), ordered by location:
//
//	error CG4005 units/a.toml:2:1 message
//	fatal CG4001 <session> message
func FormatShortDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	lines := make([]shortLine, 0, len(diags))
	add := func(label string, code Code, sp source.Span, global bool, msg string) {
		l := shortLine{
			label: label,
			code:  code.ID(),
			loc:   Location(fs, sp, global),
			msg:   strings.Join(strings.Fields(msg), " "),
			path:  SessionLocation,
		}
		if l.loc != SessionLocation {
			start, _ := fs.Resolve(sp)
			l.path, l.line, l.col = fs.DisplayPath(sp.File), start.Line, start.Col
		}
		lines = append(lines, l)
	}
	for _, d := range diags {
		add(d.Severity.Label(), d.Code, d.Primary, d.Global, d.Message)
		if includeNotes {
			for _, n := range d.Notes {
				add("note", d.Code, n.Span, false, n.Msg)
			}
		}
	}
	slices.SortStableFunc(lines, func(a, b shortLine) int {
		return cmp.Or(cmp.Compare(a.path, b.path), cmp.Compare(a.line, b.line), cmp.Compare(a.col, b.col))
	})

	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s %s %s %s", l.label, l.code, l.loc, l.msg)
	}
	return sb.String()
}
