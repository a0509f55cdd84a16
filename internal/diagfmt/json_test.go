package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"cgbridge/internal/diag"
	"cgbridge/internal/source"
)

func TestJSONBasic(t *testing.T) {
	fs := source.NewFileSet()
	bag := shiftBag(t, fs, "units/shifts.toml")

	var buf bytes.Buffer
	err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename, IncludeNotes: true})
	if err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	var r Report
	if err := json.Unmarshal(buf.Bytes(), &r); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if r.Shown != 1 || r.Total != 1 || !r.Aborted {
		t.Fatalf("unexpected report header %+v", r)
	}
	d := r.Diagnostics[0]
	if d.Severity != "FATAL" || d.Code != "CG4001" || d.Title != "Missing language item" {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if d.Location == nil || d.Location.File != "shifts.toml" || d.Location.From == nil || *d.Location.From != (Position{Line: 3, Col: 10}) {
		t.Fatalf("unexpected location %+v", d.Location)
	}
	if len(d.Notes) != 1 || d.Notes[0].Message != "in function shr" || d.Notes[0].Location.From.Line != 2 {
		t.Fatalf("unexpected notes %+v", d.Notes)
	}
}

func TestJSONWithoutPositionsOrNotes(t *testing.T) {
	fs := source.NewFileSet()
	bag := shiftBag(t, fs, "shifts.toml")

	r := BuildReport(bag, fs, JSONOpts{PathMode: PathModeBasename})
	d := r.Diagnostics[0]
	if d.Location.From != nil || d.Location.Start == 0 {
		t.Fatalf("unexpected location %+v", d.Location)
	}
	if d.Notes != nil {
		t.Fatalf("notes must be omitted")
	}
}

func TestJSONCountsDroppedAndMax(t *testing.T) {
	bag := diag.NewBag(4)
	for range 6 {
		bag.Add(diag.NewGlobal(diag.SevError, diag.ICEBug, "internal error"))
	}
	var buf bytes.Buffer
	if err := JSON(&buf, bag, nil, JSONOpts{Max: 3}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	var r Report
	if err := json.Unmarshal(buf.Bytes(), &r); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if r.Shown != 3 || r.Total != 6 || r.Aborted {
		t.Fatalf("unexpected report header %+v", r)
	}
	if r.Diagnostics[0].Location != nil {
		t.Fatalf("session diagnostics have no location")
	}
}
