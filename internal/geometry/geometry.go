package geometry

import (
	"github.com/muurk/retype/internal/markup"
)

// Rect is an element's box in page coordinates. Units are whatever the
// layout uses: CSS pixels for a browser, character cells for a terminal.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// BoundingBox is a viewport-relative box with the tag name used as the
// overlay label. It is recomputed on every sample and never cached.
type BoundingBox struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Tag    string  `json:"tag"`
}

// Viewport is the visible window onto the page.
type Viewport struct {
	ScrollX float64 `json:"scrollX"`
	ScrollY float64 `json:"scrollY"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// Layout answers where an element currently sits on the page.
type Layout interface {
	Rect(doc *markup.Document, ref markup.ElementRef) (Rect, bool)
}

// Sampler converts layout rects into viewport-relative bounding boxes.
type Sampler struct {
	layout   Layout
	viewport Viewport
}

// NewSampler creates a sampler over layout.
func NewSampler(layout Layout, vp Viewport) *Sampler {
	return &Sampler{layout: layout, viewport: vp}
}

// Sample returns the current box of ref, or nil when ref is stale or the
// layout has no box for it.
func (s *Sampler) Sample(doc *markup.Document, ref markup.ElementRef) *BoundingBox {
	if s == nil || s.layout == nil || doc == nil {
		return nil
	}
	e, ok := doc.Resolve(ref)
	if !ok {
		return nil
	}
	r, ok := s.layout.Rect(doc, ref)
	if !ok {
		return nil
	}
	return &BoundingBox{
		Top:    r.Y - s.viewport.ScrollY,
		Left:   r.X - s.viewport.ScrollX,
		Width:  r.W,
		Height: r.H,
		Tag:    e.Tag(),
	}
}

// Scroll moves the viewport to the given page offset.
func (s *Sampler) Scroll(x, y float64) {
	s.viewport.ScrollX = x
	s.viewport.ScrollY = y
}

// Resize changes the viewport size.
func (s *Sampler) Resize(w, h float64) {
	s.viewport.Width = w
	s.viewport.Height = h
}

// Viewport returns the current viewport.
func (s *Sampler) Viewport() Viewport {
	return s.viewport
}

// SetLayout swaps the layout, e.g. when a browser host connects.
func (s *Sampler) SetLayout(l Layout) {
	s.layout = l
}

// Layout returns the current layout.
func (s *Sampler) Layout() Layout {
	return s.layout
}

// ReportedLayout holds the element rects a browser host reported with its
// latest frame. Each report replaces the previous one wholesale, and a
// report for an older document generation answers nothing.
type ReportedLayout struct {
	gen   uint64
	rects map[int]Rect
}

// Report replaces the known rects. Keys of refs from another generation
// than gen are dropped.
func (l *ReportedLayout) Report(gen uint64, rects map[markup.ElementRef]Rect) {
	l.gen = gen
	l.rects = make(map[int]Rect, len(rects))
	for ref, r := range rects {
		if ref.Gen == gen {
			l.rects[ref.Index] = r
		}
	}
}

// Rect implements Layout.
func (l *ReportedLayout) Rect(doc *markup.Document, ref markup.ElementRef) (Rect, bool) {
	if doc == nil || doc.Generation() != l.gen || ref.Gen != l.gen {
		return Rect{}, false
	}
	r, ok := l.rects[ref.Index]
	return r, ok
}
