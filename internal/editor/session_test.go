package editor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/muurk/retype/internal/classify"
	"github.com/muurk/retype/internal/editerr"
	"github.com/muurk/retype/internal/geometry"
	"github.com/muurk/retype/internal/markup"
	"github.com/muurk/retype/internal/persist"
	"github.com/muurk/retype/internal/selection"
	"github.com/muurk/retype/internal/store"
	"github.com/muurk/retype/internal/typography"
)

// gatedStore holds every call until release is signalled, so tests can
// act while a request is in flight.
type gatedStore struct {
	inner   Store
	release chan struct{}
}

func (g *gatedStore) wait(ctx context.Context) error {
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gatedStore) Load(ctx context.Context, id string) (string, error) {
	if err := g.wait(ctx); err != nil {
		return "", err
	}
	return g.inner.Load(ctx, id)
}

func (g *gatedStore) Save(ctx context.Context, id, code string) (string, error) {
	if err := g.wait(ctx); err != nil {
		return "", err
	}
	return g.inner.Save(ctx, id, code)
}

func (g *gatedStore) Reset(ctx context.Context, id string) (string, error) {
	if err := g.wait(ctx); err != nil {
		return "", err
	}
	return g.inner.Reset(ctx, id)
}

type failingStore struct{ Store }

func (failingStore) Save(ctx context.Context, id, code string) (string, error) {
	return "", editerr.HTTP(500, "Failed to update component")
}

func await(t *testing.T, s *Session) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Await(ctx)
}

func seed(t *testing.T, id, original, current string) *store.Memory {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()
	if _, err := m.Create(ctx, id, original); err != nil {
		t.Fatal(err)
	}
	if current != original {
		if _, err := m.Put(ctx, id, current); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func openSession(t *testing.T, st Store, id string) *Session {
	t.Helper()
	s, err := New(Config{ComponentID: id, Store: st})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !s.Snapshot().Busy {
		t.Error("snapshot should be busy while loading")
	}
	if err := await(t, s); err != nil {
		t.Fatalf("load outcome error = %v", err)
	}
	return s
}

func lockFirst(t *testing.T, s *Session, css string) markup.ElementRef {
	t.Helper()
	refs, err := s.Select(css)
	if err != nil || len(refs) == 0 {
		t.Fatalf("Select(%q) = %v, %v", css, refs, err)
	}
	if !s.OnConfirm(refs[0]) {
		t.Fatal("OnConfirm should prevent the default action")
	}
	return refs[0]
}

func TestScenarioSaveRoundTrip(t *testing.T) {
	mem := seed(t, "abc", "<div>Hi</div>", "<div>Hi</div>")
	s := openSession(t, store.NewLocal(mem), "abc")

	if code, _ := s.Code(); code != "<div>Hi</div>" {
		t.Fatalf("loaded code = %q", code)
	}

	lockFirst(t, s, "div")
	if err := s.SetExclusive(typography.FontSize, "text-xl"); err != nil {
		t.Fatalf("SetExclusive() error = %v", err)
	}
	if !s.Snapshot().Save.Dirty {
		t.Fatal("mutation should mark dirty")
	}

	if err := s.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := await(t, s); err != nil {
		t.Fatalf("save outcome error = %v", err)
	}

	save := s.Snapshot().Save
	if save.Dirty || !save.Success {
		t.Errorf("save state = %+v, want {dirty:false success:true}", save)
	}

	rec, _ := mem.Get(context.Background(), "abc")
	if rec.Code != `<div class="text-xl">Hi</div>` {
		t.Errorf("stored code = %q", rec.Code)
	}
}

func TestScenarioReset(t *testing.T) {
	mem := seed(t, "abc", "<div>Hi</div>", `<div class="text-xl">Hi</div>`)
	s := openSession(t, store.NewLocal(mem), "abc")

	lockFirst(t, s, "div")
	if err := s.SetExclusive(typography.FontWeight, "font-bold"); err != nil {
		t.Fatal(err)
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	snap := s.Snapshot()
	if !snap.Busy || len(snap.Overlay) != 0 {
		t.Error("overlay should be hidden while resetting")
	}
	if err := await(t, s); err != nil {
		t.Fatalf("reset outcome error = %v", err)
	}

	code, _ := s.Code()
	if code != "<div>Hi</div>" {
		t.Errorf("code after reset = %q", code)
	}
	snap = s.Snapshot()
	if snap.Save.Dirty {
		t.Error("reset should clear dirty")
	}
	if !snap.Locked.IsZero() || !snap.Hover.IsZero() {
		t.Error("reset should clear the selection")
	}
}

func TestScenarioHoverNeverClearsLocked(t *testing.T) {
	mem := seed(t, "abc", `<section><h1>A</h1><p>B</p></section>`, `<section><h1>A</h1><p>B</p></section>`)
	s := openSession(t, store.NewLocal(mem), "abc")

	els := s.Document().Elements()
	h1, p := els[1].Ref(), els[2].Ref()

	locked := lockFirst(t, s, "section")

	s.OnHover(h1)
	snap := s.Snapshot()
	if snap.Hover != h1 || snap.HoverBox == nil {
		t.Fatalf("hover = %v box = %v, want A with a box", snap.Hover, snap.HoverBox)
	}

	s.OnHover(p)
	snap = s.Snapshot()
	if snap.Hover != p || snap.Locked != locked {
		t.Errorf("after move hover = %v locked = %v", snap.Hover, snap.Locked)
	}

	s.OnLeave()
	snap = s.Snapshot()
	if !snap.Hover.IsZero() || snap.HoverBox != nil {
		t.Error("leave should clear hover")
	}
	if snap.Locked != locked {
		t.Error("leave must never clear locked")
	}
}

func TestMutationDuringSaveStaysDirty(t *testing.T) {
	mem := seed(t, "abc", "<p>x</p>", "<p>x</p>")
	gated := &gatedStore{inner: store.NewLocal(mem), release: make(chan struct{}, 4)}
	gated.release <- struct{}{}
	s := openSession(t, gated, "abc")

	lockFirst(t, s, "p")
	if err := s.SetExclusive(typography.FontSize, "text-lg"); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	if err := s.Save(); !editerr.IsBusy(err) {
		t.Errorf("second Save() error = %v, want busy", err)
	}
	if err := s.Reset(); !editerr.IsBusy(err) {
		t.Errorf("Reset() during save error = %v, want busy", err)
	}

	if err := s.ToggleBinary(typography.Italic, true); err != nil {
		t.Fatal(err)
	}

	gated.release <- struct{}{}
	if err := await(t, s); err != nil {
		t.Fatal(err)
	}
	if !s.Snapshot().Save.Dirty {
		t.Error("mutation made during the save should leave dirty set")
	}

	rec, _ := mem.Get(context.Background(), "abc")
	if rec.Code != `<p class="text-lg">x</p>` {
		t.Errorf("in-flight save should carry only the first mutation, stored %q", rec.Code)
	}
}

func TestSaveFailureKeepsEdits(t *testing.T) {
	mem := seed(t, "abc", "<p>x</p>", "<p>x</p>")
	s := openSession(t, failingStore{store.NewLocal(mem)}, "abc")

	lockFirst(t, s, "p")
	if err := s.CycleDecoration("underline"); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	err := await(t, s)
	if !editerr.IsTransient(err) {
		t.Errorf("save outcome error = %v, want transient", err)
	}

	snap := s.Snapshot()
	if !snap.Save.Dirty || snap.Save.State != persist.StateError || snap.Save.Err == nil {
		t.Errorf("save state = %+v, want dirty error", snap.Save)
	}
	if code, _ := s.Code(); code != `<p class="underline">x</p>` {
		t.Errorf("local code = %q, edits must be kept", code)
	}
}

func TestResetWithoutOriginal(t *testing.T) {
	mem := store.NewMemory()
	if _, err := mem.Put(context.Background(), "loose", "<p>x</p>"); err != nil {
		t.Fatal(err)
	}
	s := openSession(t, store.NewLocal(mem), "loose")

	lockFirst(t, s, "p")
	if err := s.SetExclusive(typography.Align, "text-center"); err != nil {
		t.Fatal(err)
	}
	before, _ := s.Code()

	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	if err := await(t, s); !editerr.IsNotFound(err) {
		t.Fatalf("reset outcome error = %v, want not found", err)
	}

	after, _ := s.Code()
	if after != before {
		t.Errorf("code changed from %q to %q", before, after)
	}
	if st := s.Snapshot().Save.State; st != persist.StateError {
		t.Errorf("state = %v, want error", st)
	}
}

func TestPreviewClearsSelection(t *testing.T) {
	mem := seed(t, "abc", "<p>x</p>", "<p>x</p>")
	s := openSession(t, store.NewLocal(mem), "abc")

	ref := lockFirst(t, s, "p")
	s.OnHover(ref)
	s.SetMode(selection.ModePreview)

	snap := s.Snapshot()
	if !snap.Hover.IsZero() || !snap.Locked.IsZero() || len(snap.Overlay) != 0 {
		t.Errorf("preview snapshot = %+v", snap)
	}
	if len(snap.Controls) != 0 {
		t.Error("no controls in preview")
	}
	if s.OnConfirm(ref) {
		t.Error("clicks in preview must keep their default action")
	}

	s.SetMode(selection.ModeEdit)
	snap = s.Snapshot()
	if !snap.Hover.IsZero() || !snap.Locked.IsZero() {
		t.Error("edit mode should start with nothing selected")
	}
}

func TestRoleAndControls(t *testing.T) {
	mem := seed(t, "abc", `<div><p>x</p><img src="a.png"></div>`, `<div><p>x</p><img src="a.png"></div>`)
	s := openSession(t, store.NewLocal(mem), "abc")

	lockFirst(t, s, "p")
	snap := s.Snapshot()
	if snap.Role != classify.RoleText || len(snap.Controls) == 0 {
		t.Errorf("p: role = %v controls = %v", snap.Role, snap.Controls)
	}
	if snap.LockedBox == nil || snap.LockedBox.Tag != "p" {
		t.Errorf("locked box = %+v", snap.LockedBox)
	}

	lockFirst(t, s, "img")
	snap = s.Snapshot()
	if snap.Role != classify.RoleImage || len(snap.Controls) != 0 {
		t.Errorf("img: role = %v controls = %v", snap.Role, snap.Controls)
	}

	if err := s.SetExclusive(typography.Align, "text-right"); err != nil {
		t.Errorf("engine should accept align on any role, got %v", err)
	}
}

func TestMutationValidation(t *testing.T) {
	mem := seed(t, "abc", "<p>x</p>", "<p>x</p>")
	s := openSession(t, store.NewLocal(mem), "abc")

	if err := s.SetExclusive(typography.FontSize, "text-xl"); !editerr.IsValidation(err) {
		t.Errorf("mutation without lock error = %v, want validation", err)
	}

	lockFirst(t, s, "p")
	before, _ := s.Code()
	if err := s.SetExclusive(typography.FontSize, "text-red-500"); !editerr.IsValidation(err) {
		t.Errorf("invalid token error = %v, want validation", err)
	}
	after, _ := s.Code()
	if before != after || s.Snapshot().Save.Dirty {
		t.Error("invalid token must not change anything")
	}

	if err := s.Save(); !editerr.IsValidation(err) {
		t.Errorf("Save() with nothing changed error = %v, want validation", err)
	}
}

func TestStaleLockedElement(t *testing.T) {
	mem := seed(t, "abc", "<div><p>x</p></div>", "<div><p>x</p></div>")
	s := openSession(t, store.NewLocal(mem), "abc")

	ref := lockFirst(t, s, "p")
	if err := s.Document().Detach(ref); err != nil {
		t.Fatal(err)
	}

	if box := s.Snapshot().LockedBox; box != nil {
		t.Errorf("detached element should have no box, got %+v", box)
	}
	if err := s.SetExclusive(typography.FontSize, "text-sm"); !editerr.IsStale(err) {
		t.Errorf("mutation on detached element error = %v, want stale", err)
	}
	if !s.Snapshot().Locked.IsZero() {
		t.Error("stale lock should be cleared")
	}
}

func TestEditCodeMarksDirty(t *testing.T) {
	mem := seed(t, "abc", "<p>x</p>", "<p>x</p>")
	s := openSession(t, store.NewLocal(mem), "abc")
	ref := lockFirst(t, s, "p")

	if err := s.EditCode("<h2>new</h2>"); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if !snap.Save.Dirty {
		t.Error("EditCode should mark dirty")
	}
	if s.Document().Valid(ref) {
		t.Error("refs from before EditCode should be stale")
	}
}

func TestMutationWhileReplacingIsRejected(t *testing.T) {
	tests := []struct {
		name  string
		start func(*Session) error
	}{
		{"reset", (*Session).Reset},
		{"reload", (*Session).Load},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := seed(t, "abc", "<p>x</p>", `<p class="text-xl">x</p>`)
			gated := &gatedStore{inner: store.NewLocal(mem), release: make(chan struct{}, 4)}
			gated.release <- struct{}{}
			s := openSession(t, gated, "abc")

			lockFirst(t, s, "p")
			if err := tt.start(s); err != nil {
				t.Fatal(err)
			}
			snap := s.Snapshot()
			if !snap.Busy || len(snap.Controls) != 0 {
				t.Errorf("busy = %v controls = %v, want busy with no controls", snap.Busy, snap.Controls)
			}

			if err := s.ToggleBinary(typography.Italic, true); !editerr.IsBusy(err) {
				t.Errorf("ToggleBinary() error = %v, want busy", err)
			}
			if err := s.SetExclusive(typography.Align, "text-center"); !editerr.IsBusy(err) {
				t.Errorf("SetExclusive() error = %v, want busy", err)
			}
			if err := s.EditCode("<h2>new</h2>"); !editerr.IsBusy(err) {
				t.Errorf("EditCode() error = %v, want busy", err)
			}
			if s.Snapshot().Save.Dirty {
				t.Error("rejected edits must not mark dirty")
			}

			gated.release <- struct{}{}
			if err := await(t, s); err != nil {
				t.Fatal(err)
			}
			code, _ := s.Code()
			if tt.name == "reset" && code != "<p>x</p>" {
				t.Errorf("code = %q, want original", code)
			}
			if tt.name == "reload" && code != `<p class="text-xl">x</p>` {
				t.Errorf("code = %q, want stored code", code)
			}
			if s.Snapshot().Save.Dirty {
				t.Error("nothing was accepted, so nothing should be dirty")
			}

			lockFirst(t, s, "p")
			if err := s.ToggleBinary(typography.Italic, true); err != nil {
				t.Fatalf("ToggleBinary() after %s error = %v", tt.name, err)
			}
			if !s.Snapshot().Save.Dirty {
				t.Error("edits after the outcome should mark dirty")
			}
		})
	}
}

func TestSnapshotSamplesLockedBox(t *testing.T) {
	mem := seed(t, "abc", "<p>x</p>", "<p>x</p>")
	s := openSession(t, store.NewLocal(mem), "abc")

	refs, _ := s.Select("p")
	gen := s.Document().Generation()
	reported := &geometry.ReportedLayout{}
	reported.Report(gen, map[markup.ElementRef]geometry.Rect{refs[0]: {X: 1, Y: 2, W: 10, H: 5}})
	s.SetLayout(reported)
	lockFirst(t, s, "p")

	// A new report arrives without any resize or scroll.
	reported.Report(gen, map[markup.ElementRef]geometry.Rect{refs[0]: {X: 3, Y: 4, W: 20, H: 6}})
	box := s.Snapshot().LockedBox
	if box == nil || box.Left != 3 || box.Top != 4 || box.Width != 20 {
		t.Errorf("LockedBox = %+v, want the latest reported rect", box)
	}
}

func TestLateOutcomeAfterOpen(t *testing.T) {
	mem := seed(t, "abc", "<p>abc</p>", "<p>abc</p>")
	if _, err := mem.Create(context.Background(), "def", "<p>def</p>"); err != nil {
		t.Fatal(err)
	}
	gated := &gatedStore{inner: store.NewLocal(mem), release: make(chan struct{}, 4)}
	gated.release <- struct{}{}
	s := openSession(t, gated, "abc")

	lockFirst(t, s, "p")
	if err := s.SetExclusive(typography.FontSize, "text-xs"); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	if err := s.Open("def"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	gated.release <- struct{}{}
	gated.release <- struct{}{}

	if err := await(t, s); err != nil {
		t.Fatal(err)
	}
	if code, _ := s.Code(); code != "<p>def</p>" {
		t.Errorf("code = %q, want the newly opened component", code)
	}
	if s.Snapshot().Save.Success {
		t.Error("late save outcome for the old component must be discarded")
	}
}

func TestScrollResamplesLockedBox(t *testing.T) {
	mem := seed(t, "abc", "<h1>a</h1><p>b</p>", "<h1>a</h1><p>b</p>")
	s := openSession(t, store.NewLocal(mem), "abc")

	lockFirst(t, s, "p")
	top := s.Snapshot().LockedBox.Top

	s.Scroll(0, 1)
	if got := s.Snapshot().LockedBox.Top; got != top-1 {
		t.Errorf("after scroll top = %v, want %v", got, top-1)
	}

	var reported geometry.ReportedLayout
	s.SetLayout(&reported)
	if s.Snapshot().LockedBox != nil {
		t.Error("layout without rects should give no box")
	}
}

func TestRegionRestrictsTracking(t *testing.T) {
	mem := seed(t, "abc", `<nav><a href="/">home</a></nav><main><p>x</p></main>`, `<nav><a href="/">home</a></nav><main><p>x</p></main>`)
	s, err := New(Config{ComponentID: "abc", Store: store.NewLocal(mem), Region: "main"})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	if err := await(t, s); err != nil {
		t.Fatal(err)
	}

	link, _ := s.Select("a")
	if s.OnConfirm(link[0]) {
		t.Error("click outside the tracked region should keep its default action")
	}
	p, _ := s.Select("p")
	if !s.OnConfirm(p[0]) {
		t.Error("click inside the tracked region should be handled")
	}
}

func TestOnSnapshotPublishes(t *testing.T) {
	mem := seed(t, "abc", "<p>x</p>", "<p>x</p>")
	var snaps []Snapshot
	s, err := New(Config{
		ComponentID: "abc",
		Store:       store.NewLocal(mem),
		OnSnapshot:  func(snap Snapshot) { snaps = append(snaps, snap) },
	})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	if err := await(t, s); err != nil {
		t.Fatal(err)
	}
	n := len(snaps)
	if n < 2 {
		t.Fatalf("published %d snapshots, want load start and finish", n)
	}

	s.OnLeave()
	if len(snaps) != n {
		t.Error("a no-op event should not publish")
	}
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(Config{ComponentID: "abc"}); err == nil {
		t.Error("New() without store should fail")
	}
}

func TestLoadMissingComponent(t *testing.T) {
	s, err := New(Config{ComponentID: "nope", Store: store.NewLocal(store.NewMemory())})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	err = await(t, s)
	if !editerr.IsNotFound(err) {
		t.Errorf("load error = %v, want not found", err)
	}
	if !errors.Is(s.Snapshot().Save.Err, err) {
		t.Error("load failure should surface in the save state")
	}
}
