package ui

import (
	"errors"
	"strings"
	"testing"

	"cgbridge/internal/buildpipeline"
)

func TestApplyEventTracksUnits(t *testing.T) {
	m := NewProgressModel("build demo", []string{"units/a.toml", "units/b.toml"}, nil).(*progressModel)

	m.applyEvent(buildpipeline.Event{Unit: "units/a.toml", Stage: buildpipeline.StageCodegen, Status: buildpipeline.StatusWorking})
	if m.items[0].status != "codegen" {
		t.Fatalf("want codegen, got %q", m.items[0].status)
	}
	m.applyEvent(buildpipeline.Event{Unit: "units/a.toml", Stage: buildpipeline.StageLower, Status: buildpipeline.StatusDone})
	if m.items[0].status != "codegen" || m.finished() != 0 {
		t.Fatalf("finishing an early stage must not finish the unit")
	}
	m.applyEvent(buildpipeline.Event{Unit: "units/a.toml", Stage: buildpipeline.StageEmit, Status: buildpipeline.StatusDone})
	m.applyEvent(buildpipeline.Event{Unit: "units/b.toml", Stage: buildpipeline.StageCodegen, Status: buildpipeline.StatusError, Err: errors.New("boom")})
	m.applyEvent(buildpipeline.Event{Unit: "units/zzz.toml", Stage: buildpipeline.StageEmit, Status: buildpipeline.StatusDone})

	if m.items[0].status != "done" || m.items[1].status != "error" || m.finished() != 2 {
		t.Fatalf("unexpected items %+v", m.items)
	}
	view := m.View()
	if !strings.Contains(view, "(2/2)") || !strings.Contains(view, "units/b.toml") {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestCachedUnitIsFinished(t *testing.T) {
	m := NewProgressModel("build", []string{"u"}, nil).(*progressModel)
	m.applyEvent(buildpipeline.Event{Unit: "u", Stage: buildpipeline.StageEmit, Status: buildpipeline.StatusCached})
	if m.items[0].status != "cached" || m.finished() != 1 {
		t.Fatalf("unexpected item %+v", m.items[0])
	}
}

func TestTruncateUsesDisplayWidth(t *testing.T) {
	if got := truncate("units/very_long_name.toml", 10); got != "unit..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncate("单元单元单元.toml", 10); got != "单元..." {
		t.Fatalf("wide runes must count twice, got %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("unexpected truncation %q", got)
	}
}
