package editor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/retype/internal/classify"
	"github.com/muurk/retype/internal/editerr"
	"github.com/muurk/retype/internal/geometry"
	"github.com/muurk/retype/internal/logging"
	"github.com/muurk/retype/internal/markup"
	"github.com/muurk/retype/internal/overlay"
	"github.com/muurk/retype/internal/persist"
	"github.com/muurk/retype/internal/selection"
	"github.com/muurk/retype/internal/typography"
)

// DefaultStoreTimeout bounds each load, save and reset call.
const DefaultStoreTimeout = 15 * time.Second

// Store is the component store as the editor sees it. Save returns the
// code the store kept; Reset returns the original it restored.
type Store interface {
	Load(ctx context.Context, id string) (string, error)
	Save(ctx context.Context, id, code string) (string, error)
	Reset(ctx context.Context, id string) (string, error)
}

// Outcome is the result of a store call, delivered on Pending.
type Outcome struct {
	Request persist.Request
	Code    string
	Err     error
}

// Snapshot is everything presentation needs for one frame. Boxes are
// sampled when the snapshot is taken.
type Snapshot struct {
	ComponentID string
	Mode        selection.Mode
	Hover       markup.ElementRef
	Locked      markup.ElementRef
	HoverBox    *geometry.BoundingBox
	LockedBox   *geometry.BoundingBox
	Role        classify.Role
	Controls    []classify.Control
	Typography  typography.Summary
	Overlay     []overlay.Box
	Save        persist.SaveState
	Busy        bool
	Generation  uint64
}

// Config wires a Session.
type Config struct {
	ComponentID string
	Store       Store
	// Layout answers element geometry. Defaults to an 80 column BlockLayout.
	Layout   geometry.Layout
	Viewport geometry.Viewport
	// Region is a CSS selector for the tracked region. Empty tracks the
	// whole component.
	Region string
	// StoreTimeout bounds each store call. Defaults to DefaultStoreTimeout.
	StoreTimeout time.Duration
	// OnSnapshot is called after every entry point that changed state.
	OnSnapshot func(Snapshot)
}

// Session is one mounted editor. All methods must be called from the
// goroutine that owns the session; store calls run on their own goroutine
// and report back through Pending.
type Session struct {
	cfg     Config
	doc     *markup.Document
	gate    *selection.Gate
	tracker *selection.Tracker
	sampler *geometry.Sampler
	ctrl    *persist.Controller
	pending chan Outcome
	changed bool
}

// New creates a session with an empty document. Call Load to fetch the
// component.
func New(cfg Config) (*Session, error) {
	if cfg.Store == nil {
		return nil, errors.New("editor: store is required")
	}
	if cfg.Layout == nil {
		cfg.Layout = geometry.BlockLayout{Width: 80, Indent: 2}
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}

	doc, err := markup.Parse("")
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:     cfg,
		doc:     doc,
		gate:    &selection.Gate{},
		sampler: geometry.NewSampler(cfg.Layout, cfg.Viewport),
		ctrl:    persist.NewController(cfg.ComponentID),
		pending: make(chan Outcome, 2),
	}
	s.tracker = selection.New(selection.Config{
		Source:   s.gate,
		Sample:   func(ref markup.ElementRef) *geometry.BoundingBox { return s.sampler.Sample(s.doc, ref) },
		Within:   s.within,
		OnChange: func(selection.State) { s.changed = true },
	})
	s.tracker.Start()
	return s, nil
}

// Close detaches pointer tracking. Outcomes still in flight are dropped.
func (s *Session) Close() {
	s.tracker.Stop()
}

// Pending delivers store outcomes. Pass each one to Resolve.
func (s *Session) Pending() <-chan Outcome {
	return s.pending
}

// Document returns the live document. Callers must not keep element views
// across entry point calls.
func (s *Session) Document() *markup.Document {
	return s.doc
}

// Code renders the current markup.
func (s *Session) Code() (string, error) {
	return s.doc.Render()
}

// ComponentID returns the component being edited.
func (s *Session) ComponentID() string {
	return s.ctrl.ComponentID()
}

// Load fetches the component. The document is replaced when the outcome
// is resolved.
func (s *Session) Load() error {
	req, err := s.ctrl.BeginLoad()
	if err != nil {
		return err
	}
	s.dispatch(req)
	s.changed = true
	s.publish()
	return nil
}

// Open switches to another component and loads it. An outcome still in
// flight for the previous component is discarded when it arrives.
func (s *Session) Open(id string) error {
	if id == "" {
		return editerr.Validation("Component ID is required.")
	}
	s.ctrl.SetComponent(id)
	s.cfg.ComponentID = id
	if err := s.doc.Replace(""); err != nil {
		return err
	}
	s.tracker.ClearAll()
	s.changed = true
	return s.Load()
}

// Save sends the current markup to the store.
func (s *Session) Save() error {
	code, err := s.doc.Render()
	if err != nil {
		return err
	}
	req, err := s.ctrl.BeginSave(code)
	if err != nil {
		return err
	}
	s.dispatch(req)
	s.changed = true
	s.publish()
	return nil
}

// Reset restores the component's original baseline.
func (s *Session) Reset() error {
	req, err := s.ctrl.BeginReset()
	if err != nil {
		return err
	}
	s.dispatch(req)
	s.changed = true
	s.publish()
	return nil
}

func (s *Session) dispatch(req persist.Request) {
	store := s.cfg.Store
	timeout := s.cfg.StoreTimeout
	out := s.pending

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var (
			code string
			err  error
		)
		switch req.Op {
		case persist.OpLoad:
			code, err = store.Load(ctx, req.ComponentID)
		case persist.OpSave:
			code, err = store.Save(ctx, req.ComponentID, req.Code)
		case persist.OpReset:
			code, err = store.Reset(ctx, req.ComponentID)
		}
		out <- Outcome{Request: req, Code: code, Err: err}
	}()
}

// Resolve applies a store outcome. It reports false when the outcome was
// late and discarded.
func (s *Session) Resolve(o Outcome) bool {
	req := o.Request
	err := o.Err

	if !s.ctrl.Matches(req) {
		logging.Debug("Discarded late store outcome",
			zap.String("op", req.Op.String()),
			zap.String("component_id", req.ComponentID),
		)
		return false
	}

	// A payload that does not parse lands as an Error state.
	if err == nil && (req.Op == persist.OpLoad || req.Op == persist.OpReset) {
		err = s.doc.Replace(o.Code)
	}
	s.ctrl.Complete(req, err)

	if err == nil && (req.Op == persist.OpLoad || req.Op == persist.OpReset) {
		s.tracker.ClearAll()
	}
	if err != nil {
		logging.Warn("Store call failed",
			zap.String("op", req.Op.String()),
			zap.String("component_id", req.ComponentID),
			zap.Error(err),
		)
	}
	s.changed = true
	s.publish()
	return true
}

// Await blocks until the next outcome arrives and resolves it, returning
// the error it left in the save state. It is meant for command-line use and tests.
func (s *Session) Await(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return editerr.Network("waiting for store", ctx.Err())
		case o := <-s.pending:
			if s.Resolve(o) {
				return s.ctrl.State().Err
			}
		}
	}
}

// SetMode switches between edit and preview.
func (s *Session) SetMode(m selection.Mode) {
	s.tracker.SetMode(m)
	s.publish()
}

// Mode returns the current mode.
func (s *Session) Mode() selection.Mode {
	return s.tracker.Mode()
}

// OnHover reports the pointer over ref.
func (s *Session) OnHover(ref markup.ElementRef) {
	s.gate.Hover(ref)
	s.publish()
}

// OnLeave reports the pointer leaving the tracked region.
func (s *Session) OnLeave() {
	s.gate.Leave()
	s.publish()
}

// OnConfirm reports a click on ref. It returns true when the host must
// suppress the element's default action.
func (s *Session) OnConfirm(ref markup.ElementRef) bool {
	prevented := s.gate.Confirm(ref)
	s.publish()
	return prevented
}

// ClearLocked drops the locked selection.
func (s *Session) ClearLocked() {
	s.tracker.ClearLocked()
	s.publish()
}

// Select returns the refs matching a CSS selector.
func (s *Session) Select(css string) ([]markup.ElementRef, error) {
	return s.doc.Select(css)
}

// Scroll moves the viewport and re-samples the locked box.
func (s *Session) Scroll(x, y float64) {
	s.sampler.Scroll(x, y)
	s.tracker.Resample()
	s.changed = true
	s.publish()
}

// Resize changes the viewport size and re-samples the locked box.
func (s *Session) Resize(w, h float64) {
	s.sampler.Resize(w, h)
	if bl, ok := s.sampler.Layout().(geometry.BlockLayout); ok {
		bl.Width = int(w)
		s.sampler.SetLayout(bl)
	}
	s.tracker.Resample()
	s.changed = true
	s.publish()
}

// SetLayout replaces the geometry source, e.g. when a browser host
// starts reporting element rects.
func (s *Session) SetLayout(l geometry.Layout) {
	s.sampler.SetLayout(l)
	s.tracker.Resample()
	s.changed = true
	s.publish()
}

// Layout returns the current geometry source.
func (s *Session) Layout() geometry.Layout {
	return s.sampler.Layout()
}

// Viewport returns the current viewport.
func (s *Session) Viewport() geometry.Viewport {
	return s.sampler.Viewport()
}

// SetExclusive sets a typography group on the locked element.
func (s *Session) SetExclusive(g typography.Group, token string) error {
	return s.mutate(func(e *markup.Element) (bool, error) {
		return typography.SetExclusive(e, g, token)
	})
}

// ToggleBinary turns a flag on or off on the locked element.
func (s *Session) ToggleBinary(f typography.Flag, on bool) error {
	return s.mutate(func(e *markup.Element) (bool, error) {
		return typography.ToggleBinary(e, f, on)
	})
}

// CycleDecoration picks, toggles off, or clears (empty token) the
// decoration of the locked element.
func (s *Session) CycleDecoration(token string) error {
	return s.mutate(func(e *markup.Element) (bool, error) {
		return typography.CycleDecoration(e, token)
	})
}

// Step moves the locked element along a group's scale.
func (s *Session) Step(g typography.Group, delta int) error {
	return s.mutate(func(e *markup.Element) (bool, error) {
		cur, _ := typography.Current(e, g)
		next, ok := typography.Step(g, cur, delta)
		if !ok {
			return false, editerr.Validationf("unknown property group %q", g)
		}
		return typography.SetExclusive(e, g, next)
	})
}

// Cycle moves the locked element through a group's tokens, wrapping.
func (s *Session) Cycle(g typography.Group, delta int) error {
	return s.mutate(func(e *markup.Element) (bool, error) {
		cur, _ := typography.Current(e, g)
		next, ok := typography.Cycle(g, cur, delta)
		if !ok {
			return false, editerr.Validationf("unknown property group %q", g)
		}
		return typography.SetExclusive(e, g, next)
	})
}

// EditCode replaces the whole source, as a free-form edit.
func (s *Session) EditCode(code string) error {
	if err := s.checkReplacing(); err != nil {
		return err
	}
	if err := s.doc.Replace(code); err != nil {
		return err
	}
	s.tracker.ClearAll()
	s.ctrl.Mutated()
	s.changed = true
	s.publish()
	return nil
}

// replacing reports whether a load or reset will replace the document
// when it resolves.
func replacing(st persist.SaveState) bool {
	return st.Loading || (st.Saving && st.Pending == persist.OpReset)
}

// checkReplacing rejects edits that the in-flight load or reset would
// overwrite.
func (s *Session) checkReplacing() error {
	st := s.ctrl.State()
	if !replacing(st) {
		return nil
	}
	return editerr.Busy(fmt.Sprintf("%s in progress; edits are disabled until it finishes", st.Pending))
}

func (s *Session) mutate(apply func(*markup.Element) (bool, error)) error {
	if err := s.checkReplacing(); err != nil {
		return err
	}
	locked := s.tracker.State().Locked
	if locked.IsZero() {
		return editerr.Validation("no element selected")
	}
	e, ok := s.doc.Resolve(locked)
	if !ok {
		s.tracker.ClearLocked()
		s.publish()
		return editerr.Stale("selected element is no longer part of the component")
	}

	changed, err := apply(e)
	if err != nil {
		return err
	}
	if changed {
		s.ctrl.Mutated()
		s.tracker.Resample()
		s.changed = true
		s.publish()
	}
	return nil
}

func (s *Session) within(ref markup.ElementRef) bool {
	if !s.doc.Valid(ref) {
		return false
	}
	if s.cfg.Region == "" {
		return true
	}
	roots, err := s.doc.Select(s.cfg.Region)
	if err != nil {
		return false
	}
	for _, r := range roots {
		if s.doc.Contains(r, ref) {
			return true
		}
	}
	return false
}

// Snapshot assembles the current frame. Geometry is sampled now.
func (s *Session) Snapshot() Snapshot {
	st := s.tracker.State()
	save := s.ctrl.State()

	snap := Snapshot{
		ComponentID: s.ctrl.ComponentID(),
		Mode:        st.Mode,
		Hover:       st.Hover,
		Locked:      st.Locked,
		Role:        classify.RoleUnknown,
		Save:        save,
		Busy:        replacing(save),
		Generation:  s.doc.Generation(),
	}

	if !st.Hover.IsZero() {
		snap.HoverBox = s.sampler.Sample(s.doc, st.Hover)
	}
	if e, ok := s.doc.Resolve(st.Locked); ok {
		snap.LockedBox = s.sampler.Sample(s.doc, st.Locked)
		snap.Role = classify.Classify(e)
		snap.Typography = typography.Summarize(e)
	}
	if st.Mode == selection.ModeEdit && !snap.Busy {
		snap.Controls = classify.ControlsFor(snap.Role)
	}
	if !snap.Busy {
		snap.Overlay = overlay.Render(snap.HoverBox, snap.LockedBox)
	}
	return snap
}

func (s *Session) publish() {
	if !s.changed {
		return
	}
	s.changed = false
	if s.cfg.OnSnapshot != nil {
		s.cfg.OnSnapshot(s.Snapshot())
	}
}

// String describes the session for logs.
func (s *Session) String() string {
	return fmt.Sprintf("session(%s, %s)", s.ctrl.ComponentID(), s.tracker.Mode())
}
