package session

import (
	"testing"

	"github.com/khaledhikmat/vision-go/model"
)

func result(index int, desc string) model.AnalysisResult {
	return model.AnalysisResult{FrameIndex: index, Description: desc}
}

func TestResultLogKeepsInsertionOrder(t *testing.T) {
	log := NewResultLog(0)
	log.Append(result(0, "a"))
	log.Append(result(30, "b"))
	log.Append(result(60, "c"))

	entries := log.Entries()
	if len(entries) != 3 {
		t.Fatalf("len = %d", len(entries))
	}
	for i, want := range []int{0, 30, 60} {
		if entries[i].FrameIndex != want {
			t.Errorf("entry %d frame = %d, want %d", i, entries[i].FrameIndex, want)
		}
	}

	if got := log.Render("\n"); got != "Frame 0: a\nFrame 30: b\nFrame 60: c" {
		t.Errorf("Render = %q", got)
	}
	if got := log.Render("<br>"); got != "Frame 0: a<br>Frame 30: b<br>Frame 60: c" {
		t.Errorf("Render = %q", got)
	}
}

func TestResultLogEvictsOldest(t *testing.T) {
	log := NewResultLog(2)
	log.Append(result(0, "a"))
	log.Append(result(30, "b"))
	log.Append(result(60, "c"))

	entries := log.Entries()
	if len(entries) != 2 || entries[0].FrameIndex != 30 || entries[1].FrameIndex != 60 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if log.Evicted() != 1 {
		t.Errorf("evicted = %d", log.Evicted())
	}
}

func TestResultLogEntriesIsACopy(t *testing.T) {
	log := NewResultLog(0)
	log.Append(result(0, "a"))

	entries := log.Entries()
	entries[0].Description = "mutated"

	if log.Entries()[0].Description != "a" {
		t.Error("log entries must not be mutable through Entries")
	}
}

func TestResultLogEmptyRender(t *testing.T) {
	if got := NewResultLog(5).Render("\n"); got != "" {
		t.Errorf("Render = %q", got)
	}
}

func TestRenderWithLast(t *testing.T) {
	log := NewResultLog(0)
	if rendered, last := log.RenderWithLast("\n"); rendered != "" || last != -1 {
		t.Errorf("empty log = %q, %d", rendered, last)
	}

	log.Append(model.AnalysisResult{FrameIndex: 0, Description: "a"})
	log.Append(model.AnalysisResult{FrameIndex: 30, Description: "b"})

	rendered, last := log.RenderWithLast("\n")
	if rendered != "Frame 0: a\nFrame 30: b" || last != 30 {
		t.Errorf("RenderWithLast = %q, %d", rendered, last)
	}
}
