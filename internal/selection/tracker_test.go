package selection

import (
	"testing"

	"github.com/muurk/retype/internal/geometry"
	"github.com/muurk/retype/internal/markup"
)

var (
	refA = markup.ElementRef{Gen: 1, Index: 1}
	refB = markup.ElementRef{Gen: 1, Index: 2}
	refC = markup.ElementRef{Gen: 1, Index: 3}
)

func newTracker(t *testing.T) (*Tracker, *Gate, *int) {
	t.Helper()
	gate := &Gate{}
	samples := 0
	tr := New(Config{
		Source: gate,
		Sample: func(ref markup.ElementRef) *geometry.BoundingBox {
			samples++
			return &geometry.BoundingBox{Top: float64(ref.Index), Tag: "p"}
		},
		Within: func(ref markup.ElementRef) bool { return ref != refC },
	})
	tr.Start()
	return tr, gate, &samples
}

func TestStartStop(t *testing.T) {
	tr, gate, _ := newTracker(t)
	if !gate.Attached() || !tr.Attached() {
		t.Fatal("Start() should attach in edit mode")
	}

	tr.Stop()
	if gate.Attached() || tr.Attached() {
		t.Fatal("Stop() should detach")
	}

	gate.Hover(refA)
	if !tr.State().Hover.IsZero() {
		t.Error("events while detached must be dropped")
	}
}

func TestHoverDoesNotTouchLocked(t *testing.T) {
	tr, gate, _ := newTracker(t)

	gate.Hover(refA)
	if tr.State().Hover != refA {
		t.Fatalf("Hover = %v, want A", tr.State().Hover)
	}

	if !gate.Confirm(refB) {
		t.Error("Confirm should prevent the default action")
	}
	gate.Hover(refA)
	gate.Hover(refB)
	if s := tr.State(); s.Hover != refB || s.Locked != refB {
		t.Errorf("state = %+v, want hover=B locked=B", s)
	}

	gate.Leave()
	s := tr.State()
	if !s.Hover.IsZero() {
		t.Error("Leave should clear hover")
	}
	if s.Locked != refB || s.LockedBox == nil {
		t.Error("Leave must not clear locked")
	}
}

func TestOutsideRegionIgnored(t *testing.T) {
	tr, gate, _ := newTracker(t)

	gate.Hover(refA)
	gate.Hover(refC)
	if tr.State().Hover != refA {
		t.Error("hover outside the tracked region should be ignored")
	}
	if gate.Confirm(refC) {
		t.Error("confirm outside the tracked region should not prevent default")
	}
	if !tr.State().Locked.IsZero() {
		t.Error("confirm outside the tracked region should not lock")
	}
	gate.Hover(markup.ElementRef{})
	if tr.State().Hover != refA {
		t.Error("zero ref hover should be ignored")
	}
}

func TestConfirmSameElementResamples(t *testing.T) {
	tr, gate, samples := newTracker(t)

	gate.Confirm(refA)
	gate.Confirm(refA)
	if tr.State().Locked != refA {
		t.Error("confirming the locked element must not toggle it off")
	}
	if *samples != 2 {
		t.Errorf("samples = %d, want 2", *samples)
	}
}

func TestPreviewClearsSelection(t *testing.T) {
	tr, gate, _ := newTracker(t)

	gate.Hover(refA)
	gate.Confirm(refB)
	tr.SetMode(ModePreview)

	s := tr.State()
	if !s.Hover.IsZero() || !s.Locked.IsZero() || s.LockedBox != nil {
		t.Errorf("preview state = %+v, want empty selection", s)
	}
	if gate.Attached() {
		t.Error("preview should detach the listener")
	}

	gate.Hover(refA)
	tr.OnHover(refA)
	if !tr.State().Hover.IsZero() {
		t.Error("hover in preview should be ignored")
	}

	tr.SetMode(ModeEdit)
	s = tr.State()
	if !s.Hover.IsZero() || !s.Locked.IsZero() {
		t.Error("returning to edit should start with an empty selection")
	}
	if !gate.Attached() {
		t.Error("edit mode should re-attach")
	}
}

func TestSetModeIdempotent(t *testing.T) {
	changes := 0
	gate := &Gate{}
	tr := New(Config{Source: gate, OnChange: func(State) { changes++ }})
	tr.Start()

	tr.SetMode(ModeEdit)
	if changes != 0 {
		t.Errorf("SetMode(edit) in edit mode fired %d changes", changes)
	}
	tr.SetMode(ModePreview)
	tr.SetMode(ModePreview)
	if changes != 1 {
		t.Errorf("changes = %d, want 1", changes)
	}
}

func TestModeBeforeStart(t *testing.T) {
	gate := &Gate{}
	tr := New(Config{Source: gate})
	tr.SetMode(ModePreview)
	tr.SetMode(ModeEdit)
	if gate.Attached() {
		t.Error("tracker must not attach before Start")
	}
	tr.Start()
	if !gate.Attached() {
		t.Error("Start should attach")
	}
}

func TestClearLocked(t *testing.T) {
	tr, gate, _ := newTracker(t)
	gate.Hover(refA)
	gate.Confirm(refA)

	tr.ClearLocked()
	s := tr.State()
	if !s.Locked.IsZero() || s.LockedBox != nil {
		t.Error("ClearLocked should drop locked and its box")
	}
	if s.Hover != refA {
		t.Error("ClearLocked should keep hover")
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("preview"); err != nil || m != ModePreview {
		t.Errorf("ParseMode(preview) = %v, %v", m, err)
	}
	if _, err := ParseMode("design"); err == nil {
		t.Error("ParseMode(design) should fail")
	}
}
