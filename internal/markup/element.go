package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// Element is a view onto one arena slot. It is only valid until the next
// Replace or Detach of the owning Document.
type Element struct {
	doc  *Document
	node *html.Node
	ref  ElementRef
}

// Ref returns the element's weak handle.
func (e *Element) Ref() ElementRef {
	return e.ref
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string {
	return e.node.Data
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// Attrs returns a copy of all attributes as key/value pairs in source order.
func (e *Element) Attrs() []html.Attribute {
	return append([]html.Attribute(nil), e.node.Attr...)
}

// Classes returns the class tokens in source order. Tokens are split on
// ASCII whitespace only, so other spaces stay inside a token.
func (e *Element) Classes() []string {
	v, _ := e.Attr("class")
	return strings.FieldsFunc(v, isASCIISpace)
}

func isASCIISpace(r rune) bool {
	return strings.ContainsRune(" \t\n\f\r", r)
}

// HasClass reports whether token is one of the element's classes.
func (e *Element) HasClass(token string) bool {
	for _, c := range e.Classes() {
		if c == token {
			return true
		}
	}
	return false
}

// SetClasses replaces the class attribute in one write. An empty list
// removes the attribute.
func (e *Element) SetClasses(classes []string) {
	val := strings.Join(classes, " ")
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == "class" {
			if val == "" {
				e.node.Attr = append(e.node.Attr[:i], e.node.Attr[i+1:]...)
			} else {
				e.node.Attr[i].Val = val
			}
			return
		}
	}
	if val != "" {
		e.node.Attr = append(e.node.Attr, html.Attribute{Key: "class", Val: val})
	}
}

// Text returns the element's descendant text with whitespace collapsed.
func (e *Element) Text() string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				b.WriteString(c.Data)
				b.WriteByte(' ')
			case html.ElementNode:
				walk(c)
			}
		}
	}
	walk(e.node)
	return strings.Join(strings.Fields(b.String()), " ")
}

// OwnText returns only the text nodes directly under the element.
func (e *Element) OwnText() string {
	var parts []string
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			parts = append(parts, strings.Fields(c.Data)...)
		}
	}
	return strings.Join(parts, " ")
}

// Parent returns the enclosing element, or false at the top level.
func (e *Element) Parent() (*Element, bool) {
	return e.doc.element(e.node.Parent)
}

// Children returns the element children in order.
func (e *Element) Children() []*Element {
	var out []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if child, ok := e.doc.element(c); ok {
			out = append(out, child)
		}
	}
	return out
}

// Depth is 0 for top-level elements.
func (e *Element) Depth() int {
	depth := 0
	for n := e.node.Parent; n != nil && n != e.doc.root; n = n.Parent {
		depth++
	}
	return depth
}

// Part is one piece of an element's content: either a run of text or a
// child element.
type Part struct {
	Text  string
	Child *Element
}

// Parts returns the element's content in order. Comments are skipped.
func (e *Element) Parts() []Part {
	return e.doc.parts(e.node)
}

// Parts returns the top-level content of the fragment.
func (d *Document) Parts() []Part {
	return d.parts(d.root)
}

func (d *Document) parts(n *html.Node) []Part {
	var out []Part
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			out = append(out, Part{Text: c.Data})
		case html.ElementNode:
			if child, ok := d.element(c); ok {
				out = append(out, Part{Child: child})
			}
		}
	}
	return out
}
