package markup

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/muurk/retype/internal/editerr"
)

// RefAttr is the attribute RenderAnnotated stamps on every element so a
// browser host can report pointer events by ref.
const RefAttr = "data-retype-ref"

// ElementRef is a weak handle to an element of a Document. It never keeps
// the element alive: resolving it after the document was re-parsed or the
// element was detached reports stale. The zero value refers to nothing.
type ElementRef struct {
	Gen   uint64 `json:"gen"`
	Index int    `json:"index"`
}

// IsZero reports whether r refers to nothing.
func (r ElementRef) IsZero() bool {
	return r.Index == 0
}

// String formats r as "<gen>.<index>", the form used in RefAttr.
func (r ElementRef) String() string {
	return fmt.Sprintf("%d.%d", r.Gen, r.Index)
}

// ParseRef parses the "<gen>.<index>" form produced by ElementRef.String.
func ParseRef(s string) (ElementRef, error) {
	gen, idx, ok := strings.Cut(s, ".")
	if !ok {
		return ElementRef{}, editerr.Validationf("malformed element ref %q", s)
	}
	g, err := strconv.ParseUint(gen, 10, 64)
	if err != nil {
		return ElementRef{}, editerr.Validationf("malformed element ref %q", s)
	}
	i, err := strconv.Atoi(idx)
	if err != nil || i < 1 {
		return ElementRef{}, editerr.Validationf("malformed element ref %q", s)
	}
	return ElementRef{Gen: g, Index: i}, nil
}

// NodePath is the sequence of element-child positions from the document
// root to an element. [0, 2] means root -> first element -> its third
// element child.
type NodePath []int

// String formats p as "0/2".
func (p NodePath) String() string {
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, "/")
}

// Document is a parsed component. Elements live in an arena indexed in
// document order; the arena is rebuilt on Replace and the generation
// bumped so every ref handed out earlier goes stale.
type Document struct {
	gen   uint64
	root  *html.Node
	nodes []*html.Node // index 0 unused
	index map[*html.Node]int
}

// Parse parses code as a fragment in a <body> context.
func Parse(code string) (*Document, error) {
	d := &Document{}
	if err := d.Replace(code); err != nil {
		return nil, err
	}
	return d, nil
}

// Replace re-parses the document from code. All previous refs go stale.
func (d *Document) Replace(code string) error {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	children, err := html.ParseFragment(strings.NewReader(code), context)
	if err != nil {
		return editerr.Parse("failed to parse markup", err)
	}

	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	for _, c := range children {
		root.AppendChild(c)
	}

	d.gen++
	d.root = root
	d.nodes = []*html.Node{nil}
	d.index = make(map[*html.Node]int)
	walkElements(root, func(n *html.Node) {
		d.index[n] = len(d.nodes)
		d.nodes = append(d.nodes, n)
	})
	return nil
}

// Generation returns the current arena generation.
func (d *Document) Generation() uint64 {
	return d.gen
}

// Len returns the number of arena slots, detached elements included.
func (d *Document) Len() int {
	return len(d.nodes) - 1
}

// Resolve returns the element r refers to, or false if r is zero or stale.
func (d *Document) Resolve(r ElementRef) (*Element, bool) {
	if r.Gen != d.gen || r.Index < 1 || r.Index >= len(d.nodes) {
		return nil, false
	}
	n := d.nodes[r.Index]
	if !d.attached(n) {
		return nil, false
	}
	return &Element{doc: d, node: n, ref: r}, true
}

// Valid reports whether r resolves.
func (d *Document) Valid(r ElementRef) bool {
	_, ok := d.Resolve(r)
	return ok
}

// Elements returns every attached element in document order.
func (d *Document) Elements() []*Element {
	out := make([]*Element, 0, len(d.nodes))
	walkElements(d.root, func(n *html.Node) {
		if e, ok := d.element(n); ok {
			out = append(out, e)
		}
	})
	return out
}

// Roots returns the top-level elements of the fragment.
func (d *Document) Roots() []*Element {
	var out []*Element
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if e, ok := d.element(c); ok {
			out = append(out, e)
		}
	}
	return out
}

// Contains reports whether descendant is ancestor or lies inside it. A
// zero ancestor stands for the whole document.
func (d *Document) Contains(ancestor, descendant ElementRef) bool {
	de, ok := d.Resolve(descendant)
	if !ok {
		return false
	}
	if ancestor.IsZero() {
		return true
	}
	ae, ok := d.Resolve(ancestor)
	if !ok {
		return false
	}
	for n := de.node; n != nil; n = n.Parent {
		if n == ae.node {
			return true
		}
	}
	return false
}

// Path returns the NodePath of r.
func (d *Document) Path(r ElementRef) (NodePath, bool) {
	e, ok := d.Resolve(r)
	if !ok {
		return nil, false
	}
	var path NodePath
	for n := e.node; n != d.root; n = n.Parent {
		pos := 0
		for s := n.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Type == html.ElementNode {
				pos++
			}
		}
		path = append(path, pos)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}

// RefAt returns the ref of the element at path.
func (d *Document) RefAt(path NodePath) (ElementRef, bool) {
	if len(path) == 0 {
		return ElementRef{}, false
	}
	n := d.root
	for _, pos := range path {
		n = nthElementChild(n, pos)
		if n == nil {
			return ElementRef{}, false
		}
	}
	e, ok := d.element(n)
	if !ok {
		return ElementRef{}, false
	}
	return e.ref, true
}

// Select returns the refs of elements matching the CSS selector, in
// document order.
func (d *Document) Select(css string) ([]ElementRef, error) {
	sel, err := cascadia.Compile(css)
	if err != nil {
		return nil, editerr.Validationf("invalid selector %q: %v", css, err)
	}
	var out []ElementRef
	for _, n := range sel.MatchAll(d.root) {
		if e, ok := d.element(n); ok {
			out = append(out, e.ref)
		}
	}
	return out, nil
}

// Detach removes the element from the tree. Its ref, and the refs of its
// descendants, go stale.
func (d *Document) Detach(r ElementRef) error {
	e, ok := d.Resolve(r)
	if !ok {
		return editerr.Stale("element is not part of the document")
	}
	e.node.Parent.RemoveChild(e.node)
	return nil
}

// Render serializes the document back to markup.
func (d *Document) Render() (string, error) {
	return renderChildren(d.root)
}

// RenderAnnotated serializes the document with RefAttr on every element.
// The document itself is not modified.
func (d *Document) RenderAnnotated() (string, error) {
	clone := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		clone.AppendChild(d.cloneAnnotated(c))
	}
	return renderChildren(clone)
}

func (d *Document) cloneAnnotated(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	if e, ok := d.element(n); ok {
		c.Attr = append(c.Attr, html.Attribute{Key: RefAttr, Val: e.ref.String()})
	}
	for k := n.FirstChild; k != nil; k = k.NextSibling {
		c.AppendChild(d.cloneAnnotated(k))
	}
	return c
}

func (d *Document) element(n *html.Node) (*Element, bool) {
	if n == nil || n.Type != html.ElementNode {
		return nil, false
	}
	i, ok := d.index[n]
	if !ok {
		return nil, false
	}
	return &Element{doc: d, node: n, ref: ElementRef{Gen: d.gen, Index: i}}, true
}

func (d *Document) attached(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

func walkElements(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			fn(c)
		}
		walkElements(c, fn)
	}
}

func nthElementChild(n *html.Node, pos int) *html.Node {
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if i == pos {
			return c
		}
		i++
	}
	return nil
}

func renderChildren(root *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("render markup: %w", err)
		}
	}
	return buf.String(), nil
}
