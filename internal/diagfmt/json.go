package diagfmt

import (
	"encoding/json"
	"io"

	"cgbridge/internal/diag"
	"cgbridge/internal/source"
)

// Position is a 1-based line and byte column.
type Position struct {
	Line uint32 `json:"line"`
	Col  uint32 `json:"col"`
}

// Location is a byte range of a file; From/To are set with
// JSONOpts.IncludePositions.
type Location struct {
	File  string    `json:"file"`
	Start uint32    `json:"start"`
	End   uint32    `json:"end"`
	From  *Position `json:"from,omitempty"`
	To    *Position `json:"to,omitempty"`
}

type NoteEntry struct {
	Message  string   `json:"message"`
	Location Location `json:"location"`
}

// Entry is one diagnostic.
type Entry struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	// нет у диагностик уровня сессии
	Location *Location   `json:"location,omitempty"`
	Notes    []NoteEntry `json:"notes,omitempty"`
}

// Report is the document written by JSON.
type Report struct {
	Diagnostics []Entry `json:"diagnostics"`
	Shown       int     `json:"shown"`
	// Total includes diagnostics the bag itself dropped.
	Total int `json:"total"`
	// Aborted: at least one unit stopped at a fatal diagnostic.
	Aborted bool `json:"aborted"`
}

func locate(fs *source.FileSet, sp source.Span, opts JSONOpts) Location {
	loc := Location{File: diag.SessionLocation, Start: sp.Start, End: sp.End}
	if fs == nil {
		return loc
	}
	loc.File = formatPath(fs, sp.File, opts.PathMode)
	if opts.IncludePositions && fs.Get(sp.File) != nil {
		from, to := fs.Resolve(sp)
		loc.From = &Position{Line: from.Line, Col: from.Col}
		loc.To = &Position{Line: to.Line, Col: to.Col}
	}
	return loc
}

// BuildReport converts bag without encoding it.
func BuildReport(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) Report {
	items := bag.Items()
	n := limit(len(items), opts.Max)
	r := Report{
		Diagnostics: make([]Entry, 0, n),
		Shown:       n,
		Total:       len(items) + bag.Dropped(),
		Aborted:     bag.HasFatal(),
	}
	for _, d := range items[:n] {
		e := Entry{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Title:    d.Code.Title(),
			Message:  d.Message,
		}
		if !d.Global && fs != nil && fs.Get(d.Primary.File) != nil {
			loc := locate(fs, d.Primary, opts)
			e.Location = &loc
		}
		if opts.IncludeNotes {
			for _, note := range d.Notes {
				e.Notes = append(e.Notes, NoteEntry{Message: note.Msg, Location: locate(fs, note.Span, opts)})
			}
		}
		r.Diagnostics = append(r.Diagnostics, e)
	}
	return r
}

// JSON writes bag as an indented Report.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildReport(bag, fs, opts))
}
