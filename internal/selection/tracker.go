package selection

import (
	"github.com/muurk/retype/internal/editerr"
	"github.com/muurk/retype/internal/geometry"
	"github.com/muurk/retype/internal/markup"
)

// Mode is the editor mode. Pointer tracking only runs in edit mode.
type Mode string

const (
	ModeEdit    Mode = "edit"
	ModePreview Mode = "preview"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeEdit, ModePreview:
		return Mode(s), nil
	}
	return "", editerr.Validationf("unknown mode %q", s)
}

// ConfirmEvent is a click on an element. The tracker marks it prevented so
// the host suppresses the element's default activation.
type ConfirmEvent struct {
	Target    markup.ElementRef
	prevented bool
}

// PreventDefault asks the host not to run the element's default action.
func (e *ConfirmEvent) PreventDefault() {
	e.prevented = true
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *ConfirmEvent) DefaultPrevented() bool {
	return e.prevented
}

// Handler receives pointer events from a Source.
type Handler interface {
	OnHover(ref markup.ElementRef)
	OnLeave()
	OnConfirm(ev *ConfirmEvent)
}

// Source delivers pointer events to at most one attached Handler.
type Source interface {
	Attach(h Handler)
	Detach()
}

// State is the tracker's selection. Hover and Locked are independent and
// may name the same element.
type State struct {
	Mode      Mode
	Hover     markup.ElementRef
	Locked    markup.ElementRef
	LockedBox *geometry.BoundingBox
}

// Config wires a Tracker to its collaborators.
type Config struct {
	// Source is attached on Start and detached on Stop.
	Source Source
	// Sample returns the current box of an element, nil when it has none.
	Sample func(markup.ElementRef) *geometry.BoundingBox
	// Within reports whether an element lies inside the tracked region.
	// Nil tracks everything.
	Within func(markup.ElementRef) bool
	// OnChange is called after every state change.
	OnChange func(State)
}

// Tracker holds hover and locked selection.
type Tracker struct {
	cfg       Config
	mode      Mode
	running   bool
	attached  bool
	hover     markup.ElementRef
	locked    markup.ElementRef
	lockedBox *geometry.BoundingBox
}

var _ Handler = (*Tracker)(nil)

// New creates a tracker in edit mode. Call Start to begin receiving events.
func New(cfg Config) *Tracker {
	return &Tracker{cfg: cfg, mode: ModeEdit}
}

// Start attaches to the source when in edit mode.
func (t *Tracker) Start() {
	t.running = true
	t.sync()
}

// Stop detaches from the source. The selection is kept.
func (t *Tracker) Stop() {
	t.running = false
	t.sync()
}

// Attached reports whether the tracker is receiving events.
func (t *Tracker) Attached() bool {
	return t.attached
}

func (t *Tracker) sync() {
	want := t.running && t.mode == ModeEdit
	if want == t.attached || t.cfg.Source == nil {
		t.attached = want
		return
	}
	if want {
		t.cfg.Source.Attach(t)
	} else {
		t.cfg.Source.Detach()
	}
	t.attached = want
}

// SetMode switches mode. Entering preview clears hover and locked and
// detaches the listener; entering edit re-attaches it.
func (t *Tracker) SetMode(m Mode) {
	if m == t.mode {
		return
	}
	t.mode = m
	if m == ModePreview {
		t.hover = markup.ElementRef{}
		t.locked = markup.ElementRef{}
		t.lockedBox = nil
	}
	t.sync()
	t.changed()
}

// Mode returns the current mode.
func (t *Tracker) Mode() Mode {
	return t.mode
}

// OnHover sets the hover target. Ignored outside edit mode and outside the
// tracked region.
func (t *Tracker) OnHover(ref markup.ElementRef) {
	if t.mode != ModeEdit || !t.within(ref) || ref == t.hover {
		return
	}
	t.hover = ref
	t.changed()
}

// OnLeave clears hover. Locked is untouched.
func (t *Tracker) OnLeave() {
	if t.hover.IsZero() {
		return
	}
	t.hover = markup.ElementRef{}
	t.changed()
}

// OnConfirm locks the event target and re-samples its box. Confirming the
// already locked element only re-samples.
func (t *Tracker) OnConfirm(ev *ConfirmEvent) {
	if ev == nil || t.mode != ModeEdit || !t.within(ev.Target) {
		return
	}
	ev.PreventDefault()
	t.locked = ev.Target
	t.lockedBox = t.sample(ev.Target)
	t.changed()
}

// ClearLocked drops the locked selection.
func (t *Tracker) ClearLocked() {
	if t.locked.IsZero() && t.lockedBox == nil {
		return
	}
	t.locked = markup.ElementRef{}
	t.lockedBox = nil
	t.changed()
}

// ClearAll drops hover and locked, e.g. after the document is replaced.
func (t *Tracker) ClearAll() {
	if t.hover.IsZero() && t.locked.IsZero() && t.lockedBox == nil {
		return
	}
	t.hover = markup.ElementRef{}
	t.locked = markup.ElementRef{}
	t.lockedBox = nil
	t.changed()
}

// Resample refreshes the locked box after a resize, scroll or re-render.
func (t *Tracker) Resample() {
	if t.locked.IsZero() {
		return
	}
	t.lockedBox = t.sample(t.locked)
}

// State returns a copy of the current selection.
func (t *Tracker) State() State {
	s := State{Mode: t.mode, Hover: t.hover, Locked: t.locked}
	if t.lockedBox != nil {
		b := *t.lockedBox
		s.LockedBox = &b
	}
	return s
}

func (t *Tracker) within(ref markup.ElementRef) bool {
	if ref.IsZero() {
		return false
	}
	if t.cfg.Within == nil {
		return true
	}
	return t.cfg.Within(ref)
}

func (t *Tracker) sample(ref markup.ElementRef) *geometry.BoundingBox {
	if t.cfg.Sample == nil {
		return nil
	}
	return t.cfg.Sample(ref)
}

func (t *Tracker) changed() {
	if t.cfg.OnChange != nil {
		t.cfg.OnChange(t.State())
	}
}
