// Package testkit holds checks shared by tests of several packages.
package testkit

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"cgbridge/internal/mir"
	"cgbridge/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a decoded unit:
// 1) every span points into sf and is non-empty and within content bounds
// 2) a function span covers exactly the quoted function name
// 3) locals and statements never span more than one line
func CheckSpanInvariants(u *mir.Unit, sf *source.File) error {
	if u == nil || sf == nil {
		return fmt.Errorf("nil unit or file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	check := func(what string, sp source.Span) error {
		if sp.File != sf.ID {
			return fmt.Errorf("%s: span points to different file id: got=%d want=%d", what, sp.File, sf.ID)
		}
		if sp.End <= sp.Start {
			return fmt.Errorf("%s: empty span %v", what, sp)
		}
		if sp.End > lenContent {
			return fmt.Errorf("%s: span end beyond content: %d > %d", what, sp.End, lenContent)
		}
		return nil
	}
	oneLine := func(what string, sp source.Span) error {
		if err := check(what, sp); err != nil {
			return err
		}
		if strings.Contains(sf.Text(sp), "\n") {
			return fmt.Errorf("%s: span %v crosses a line break", what, sp)
		}
		return nil
	}

	for _, f := range u.Funcs {
		if err := check("fn "+f.Name, f.Span); err != nil {
			return err
		}
		if got, want := sf.Text(f.Span), strconv.Quote(f.Name); got != want {
			return fmt.Errorf("fn %s: span covers %q, want %q", f.Name, got, want)
		}
		for i := range f.Locals {
			if err := oneLine(fmt.Sprintf("fn %s local %s", f.Name, f.Locals[i].Name), f.Locals[i].Span); err != nil {
				return err
			}
		}
		for i := range f.Instrs {
			if err := oneLine(fmt.Sprintf("fn %s instr %d", f.Name, i), f.Instrs[i].Span); err != nil {
				return err
			}
		}
	}
	return nil
}
