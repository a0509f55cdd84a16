package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"cgbridge/internal/diag"
	"cgbridge/internal/source"
)

type palette struct {
	sev      map[diag.Severity]*color.Color
	location *color.Color
	gutter   *color.Color
	caret    *color.Color
	note     *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		sev: map[diag.Severity]*color.Color{
			diag.SevInfo:    color.New(color.FgCyan, color.Bold),
			diag.SevWarning: color.New(color.FgYellow, color.Bold),
			diag.SevError:   color.New(color.FgRed, color.Bold),
			diag.SevFatal:   color.New(color.FgRed, color.Bold, color.Underline),
		},
		location: color.New(color.Bold),
		gutter:   color.New(color.FgBlue),
		caret:    color.New(color.FgGreen, color.Bold),
		note:     color.New(color.FgBlue, color.Bold),
	}
	all := []*color.Color{p.location, p.gutter, p.caret, p.note}
	for _, c := range p.sev {
		all = append(all, c)
	}
	for _, c := range all {
		// глобальный color.NoColor не учитываем: решение принимает вызывающий
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes с аналогичным форматом.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	p := newPalette(opts.Color)
	items := bag.Items()
	n := limit(len(items), opts.Max)
	for i := range n {
		d := &items[i]
		if i > 0 {
			fmt.Fprintln(w)
		}
		loc := location(fs, d.Primary, d.Global, opts.PathMode)
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			p.location.Sprint(loc),
			p.sev[d.Severity].Sprint(d.Severity.String()),
			d.Code.ID(),
			d.Message,
		)
		if !d.Global {
			excerpt(w, fs, d.Primary, opts, p)
		}
		if !opts.ShowNotes {
			continue
		}
		for _, note := range d.Notes {
			fmt.Fprintf(w, "  %s %s: %s\n",
				p.note.Sprint("note:"),
				location(fs, note.Span, false, opts.PathMode),
				note.Msg,
			)
		}
	}
	if hidden := len(items) - n + bag.Dropped(); hidden > 0 {
		fmt.Fprintf(w, "\n... %d more diagnostic(s) not shown\n", hidden)
	}
}

func location(fs *source.FileSet, sp source.Span, global bool, mode PathMode) string {
	if global || fs == nil || fs.Get(sp.File) == nil {
		return diag.SessionLocation
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", formatPath(fs, sp.File, mode), start.Line, start.Col)
}

// excerpt печатает строку диагностики (и opts.Context строк до неё) и
// подчёркивает span в пределах первой строки.
func excerpt(w io.Writer, fs *source.FileSet, sp source.Span, opts PrettyOpts, p palette) {
	if fs == nil {
		return
	}
	f := fs.Get(sp.File)
	if f == nil {
		return
	}
	start, end := fs.Resolve(sp)
	if start.Line == 0 {
		return
	}
	first := start.Line
	if opts.Context > 0 {
		ctx := uint32(opts.Context) //nolint:gosec // положительный int8
		if ctx >= first {
			first = 1
		} else {
			first -= ctx
		}
	}
	gw := len(fmt.Sprint(start.Line))
	for ln := first; ln <= start.Line; ln++ {
		text := clip(f.GetLine(ln), opts.Width)
		fmt.Fprintf(w, " %s %s\n", p.gutter.Sprintf("%*d |", gw, ln), text)
	}

	line := f.GetLine(start.Line)
	col := int(start.Col) - 1
	if col > len(line) {
		col = len(line)
	}
	endCol := len(line)
	if end.Line == start.Line {
		endCol = min(int(end.Col)-1, len(line))
	}

	var pad strings.Builder
	for _, r := range line[:col] {
		if r == '\t' {
			pad.WriteByte('\t')
			continue
		}
		pad.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	width := 1
	if endCol > col {
		width = max(runewidth.StringWidth(line[col:endCol]), 1)
	}
	mark := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, " %s %s%s\n", p.gutter.Sprintf("%*s |", gw, ""), pad.String(), p.caret.Sprint(mark))
}

func clip(line string, width uint8) string {
	if width == 0 || runewidth.StringWidth(line) <= int(width) {
		return line
	}
	return runewidth.Truncate(line, int(width), "…")
}
