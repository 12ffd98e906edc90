package selection

import "github.com/muurk/retype/internal/markup"

// Gate is a Source fed by a host (terminal input, browser bridge). Events
// arriving while no handler is attached are dropped.
type Gate struct {
	h Handler
}

// Attach implements Source.
func (g *Gate) Attach(h Handler) {
	g.h = h
}

// Detach implements Source.
func (g *Gate) Detach() {
	g.h = nil
}

// Attached reports whether a handler is listening.
func (g *Gate) Attached() bool {
	return g.h != nil
}

// Hover forwards a pointer move.
func (g *Gate) Hover(ref markup.ElementRef) {
	if g.h != nil {
		g.h.OnHover(ref)
	}
}

// Leave forwards the pointer leaving the tracked region.
func (g *Gate) Leave() {
	if g.h != nil {
		g.h.OnLeave()
	}
}

// Confirm forwards a click and reports whether the default action was
// prevented.
func (g *Gate) Confirm(ref markup.ElementRef) bool {
	if g.h == nil {
		return false
	}
	ev := &ConfirmEvent{Target: ref}
	g.h.OnConfirm(ev)
	return ev.DefaultPrevented()
}
