package geometry

import (
	"strings"

	"github.com/muurk/retype/internal/markup"
)

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"details": true, "dd": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figcaption": true, "figure": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "header": true, "hr": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"summary": true, "table": true, "tr": true, "ul": true,
}

// IsBlock reports whether tag starts a new row in a BlockLayout.
func IsBlock(tag string) bool {
	return blockTags[tag]
}

// BlockLayout lays a document out in character cells. Block elements start
// a new row; nested blocks are indented by Indent cells per level. Inline
// elements flow within their block's row and wrap at Width.
type BlockLayout struct {
	Width  int
	Indent int
}

// Rect implements Layout. The frame is recomputed on every call.
func (l BlockLayout) Rect(doc *markup.Document, ref markup.ElementRef) (Rect, bool) {
	return l.Compute(doc).Rect(ref)
}

// Frame is one computed layout: the text rows to draw and every element's
// box.
type Frame struct {
	Lines []string
	boxes map[markup.ElementRef]Rect
	order []markup.ElementRef
}

// Rect returns the box of ref in this frame.
func (f *Frame) Rect(ref markup.ElementRef) (Rect, bool) {
	r, ok := f.boxes[ref]
	return r, ok
}

// Refs returns every laid-out element in document order.
func (f *Frame) Refs() []markup.ElementRef {
	return f.order
}

// HitTest returns the innermost element whose box contains the point.
func (f *Frame) HitTest(x, y float64) (markup.ElementRef, bool) {
	var hit markup.ElementRef
	found := false
	for _, ref := range f.order {
		if f.boxes[ref].Contains(x, y) {
			hit = ref
			found = true
		}
	}
	return hit, found
}

// Compute lays out doc.
func (l BlockLayout) Compute(doc *markup.Document) *Frame {
	f := &Frame{boxes: make(map[markup.ElementRef]Rect)}
	w := &cellWriter{width: l.Width, indent: max(l.Indent, 0), frame: f}
	if w.width <= 0 {
		w.width = 80
	}
	if doc != nil {
		w.flow(doc.Parts(), 0, 0)
	}

	last := w.lastContentRow(0)
	for r := 0; r <= last; r++ {
		f.Lines = append(f.Lines, strings.TrimRight(string(w.lines[r]), " "))
	}
	return f
}

type cell struct{ row, col int }

type cellWriter struct {
	width  int
	indent int
	lines  [][]rune
	words  []cell
	frame  *Frame
}

func (w *cellWriter) row() int { return len(w.lines) - 1 }

func (w *cellWriter) col() int {
	if len(w.lines) == 0 {
		return 0
	}
	return len(w.lines[w.row()])
}

func (w *cellWriter) blank(r int) bool {
	return strings.TrimSpace(string(w.lines[r])) == ""
}

func (w *cellWriter) lastContentRow(from int) int {
	for r := w.row(); r >= from; r-- {
		if !w.blank(r) {
			return r
		}
	}
	return from - 1
}

// openRow starts a row at indent, reusing the current row when it holds
// nothing yet.
func (w *cellWriter) openRow(indent int) {
	if len(w.lines) == 0 || !w.blank(w.row()) {
		w.lines = append(w.lines, nil)
	}
	w.lines[w.row()] = []rune(strings.Repeat(" ", indent))
}

func (w *cellWriter) word(s string, indent int) {
	n := len([]rune(s))
	switch {
	case len(w.lines) == 0 || (w.blank(w.row()) && w.col() != indent):
		w.openRow(indent)
	case w.col() > indent && w.col()+1+n > w.width:
		w.openRow(indent)
	case w.col() > indent:
		w.lines[w.row()] = append(w.lines[w.row()], ' ')
	}
	w.words = append(w.words, cell{row: w.row(), col: w.col()})
	w.lines[w.row()] = append(w.lines[w.row()], []rune(s)...)
}

// flow writes text and inline children at depth and lays out block
// children at childDepth.
func (w *cellWriter) flow(parts []markup.Part, depth, childDepth int) {
	indent := depth * w.indent
	for _, p := range parts {
		switch {
		case p.Child == nil:
			for _, word := range strings.Fields(p.Text) {
				w.word(word, indent)
			}
		case IsBlock(p.Child.Tag()):
			w.block(p.Child, childDepth)
		default:
			w.inline(p.Child, depth, childDepth)
		}
	}
}

func (w *cellWriter) block(e *markup.Element, depth int) {
	indent := depth * w.indent
	w.openRow(indent)
	startRow := w.row()

	w.flow(e.Parts(), depth, depth+1)
	end := w.lastContentRow(startRow)
	if end < startRow {
		w.word(placeholder(e), indent)
		end = startRow
	}

	right := indent + 1
	for r := startRow; r <= end; r++ {
		right = max(right, len(w.lines[r]))
	}
	w.record(e, Rect{
		X: float64(indent),
		Y: float64(startRow),
		W: float64(right - indent),
		H: float64(end - startRow + 1),
	})
	w.lines = append(w.lines, nil)
}

func (w *cellWriter) inline(e *markup.Element, depth, childDepth int) {
	indent := depth * w.indent
	first := len(w.words)

	parts := e.Parts()
	if len(parts) == 0 {
		w.word(placeholder(e), indent)
	} else {
		w.flow(parts, depth, childDepth)
	}
	if len(w.words) == first {
		return
	}

	start := w.words[first]
	end := w.lastContentRow(start.row)
	if end == start.row {
		w.record(e, Rect{
			X: float64(start.col),
			Y: float64(start.row),
			W: float64(max(len(w.lines[end])-start.col, 1)),
			H: 1,
		})
		return
	}
	right := indent + 1
	for r := start.row; r <= end; r++ {
		right = max(right, len(w.lines[r]))
	}
	w.record(e, Rect{
		X: float64(indent),
		Y: float64(start.row),
		W: float64(right - indent),
		H: float64(end - start.row + 1),
	})
}

// record stores the box. Boxes arrive post-order; order is kept sorted by
// arena index, which is document order.
func (w *cellWriter) record(e *markup.Element, r Rect) {
	w.frame.boxes[e.Ref()] = r
	refs := w.frame.order
	i := len(refs)
	for i > 0 && refs[i-1].Index > e.Ref().Index {
		i--
	}
	refs = append(refs, markup.ElementRef{})
	copy(refs[i+1:], refs[i:])
	refs[i] = e.Ref()
	w.frame.order = refs
}

func placeholder(e *markup.Element) string {
	if alt, ok := e.Attr("alt"); ok && alt != "" {
		return "[" + e.Tag() + ": " + alt + "]"
	}
	return "[" + e.Tag() + "]"
}
