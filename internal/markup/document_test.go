package markup

import (
	"reflect"
	"strings"
	"testing"

	"github.com/muurk/retype/internal/editerr"
)

const sample = `<section class="p-4"><h1 class="text-xl font-bold">Title</h1><p>Hello <a href="/x">link</a></p></section><img src="a.png">`

func mustParse(t *testing.T, code string) *Document {
	t.Helper()
	d, err := Parse(code)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return d
}

func TestParseArenaOrder(t *testing.T) {
	d := mustParse(t, sample)

	var tags []string
	for _, e := range d.Elements() {
		tags = append(tags, e.Tag())
	}
	want := []string{"section", "h1", "p", "a", "img"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("Elements() tags = %v, want %v", tags, want)
	}

	if len(d.Roots()) != 2 {
		t.Errorf("Roots() len = %d, want 2", len(d.Roots()))
	}
}

func TestRoundTrip(t *testing.T) {
	code := `<div class="a b">Hi</div>`
	d := mustParse(t, code)
	got, err := d.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got != code {
		t.Errorf("Render() = %q, want %q", got, code)
	}
}

func TestZeroRefNeverResolves(t *testing.T) {
	d := mustParse(t, sample)
	if _, ok := d.Resolve(ElementRef{}); ok {
		t.Error("zero ref should not resolve")
	}
}

func TestReplaceMakesRefsStale(t *testing.T) {
	d := mustParse(t, sample)
	first := d.Elements()[0].Ref()

	if err := d.Replace(sample); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if d.Valid(first) {
		t.Error("ref from previous generation should be stale")
	}
	if !d.Valid(d.Elements()[0].Ref()) {
		t.Error("fresh ref should resolve")
	}
}

func TestDetach(t *testing.T) {
	d := mustParse(t, sample)
	p := d.Elements()[2]
	link := d.Elements()[3]

	if err := d.Detach(p.Ref()); err != nil {
		t.Fatalf("Detach() error = %v", err)
	}
	if d.Valid(p.Ref()) {
		t.Error("detached element should be stale")
	}
	if d.Valid(link.Ref()) {
		t.Error("descendant of detached element should be stale")
	}
	if len(d.Elements()) != 3 {
		t.Errorf("Elements() len = %d, want 3", len(d.Elements()))
	}

	err := d.Detach(p.Ref())
	if !editerr.IsStale(err) {
		t.Errorf("second Detach() error = %v, want stale", err)
	}
}

func TestContains(t *testing.T) {
	d := mustParse(t, sample)
	els := d.Elements()
	section, h1, img := els[0].Ref(), els[1].Ref(), els[4].Ref()

	tests := []struct {
		name     string
		ancestor ElementRef
		target   ElementRef
		want     bool
	}{
		{"self", section, section, true},
		{"child", section, h1, true},
		{"sibling root", section, img, false},
		{"whole document", ElementRef{}, img, true},
		{"zero target", section, ElementRef{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Contains(tt.ancestor, tt.target); got != tt.want {
				t.Errorf("Contains() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPathAndRefAt(t *testing.T) {
	d := mustParse(t, sample)
	link := d.Elements()[3]

	path, ok := d.Path(link.Ref())
	if !ok {
		t.Fatal("Path() failed")
	}
	if path.String() != "0/1/0" {
		t.Errorf("Path() = %s, want 0/1/0", path)
	}

	ref, ok := d.RefAt(path)
	if !ok || ref != link.Ref() {
		t.Errorf("RefAt(%s) = %v, want %v", path, ref, link.Ref())
	}

	if _, ok := d.RefAt(NodePath{5}); ok {
		t.Error("RefAt out of range should fail")
	}
}

func TestSelect(t *testing.T) {
	d := mustParse(t, sample)

	refs, err := d.Select("h1.text-xl")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("Select() len = %d, want 1", len(refs))
	}
	e, _ := d.Resolve(refs[0])
	if e.Tag() != "h1" {
		t.Errorf("Select() tag = %s, want h1", e.Tag())
	}

	if _, err := d.Select("h1[["); !editerr.IsValidation(err) {
		t.Errorf("Select(bad) error = %v, want validation", err)
	}
}

func TestRenderAnnotated(t *testing.T) {
	d := mustParse(t, `<div><span>x</span></div>`)
	got, err := d.RenderAnnotated()
	if err != nil {
		t.Fatalf("RenderAnnotated() error = %v", err)
	}
	want := `<div data-retype-ref="1.1"><span data-retype-ref="1.2">x</span></div>`
	if got != want {
		t.Errorf("RenderAnnotated() = %q, want %q", got, want)
	}

	plain, _ := d.Render()
	if strings.Contains(plain, RefAttr) {
		t.Error("RenderAnnotated should not modify the document")
	}
}

func TestParseRef(t *testing.T) {
	r := ElementRef{Gen: 3, Index: 7}
	got, err := ParseRef(r.String())
	if err != nil || got != r {
		t.Errorf("ParseRef(%q) = %v, %v", r.String(), got, err)
	}

	for _, bad := range []string{"", "3", "a.1", "1.0", "1.x"} {
		if _, err := ParseRef(bad); !editerr.IsValidation(err) {
			t.Errorf("ParseRef(%q) error = %v, want validation", bad, err)
		}
	}
}

func TestElementAccessors(t *testing.T) {
	d := mustParse(t, sample)
	els := d.Elements()
	h1, p, link := els[1], els[2], els[3]

	if !reflect.DeepEqual(h1.Classes(), []string{"text-xl", "font-bold"}) {
		t.Errorf("Classes() = %v", h1.Classes())
	}
	if !h1.HasClass("font-bold") || h1.HasClass("italic") {
		t.Error("HasClass() mismatch")
	}
	if got := p.Text(); got != "Hello link" {
		t.Errorf("Text() = %q, want %q", got, "Hello link")
	}
	if got := p.OwnText(); got != "Hello" {
		t.Errorf("OwnText() = %q, want %q", got, "Hello")
	}
	if href, ok := link.Attr("href"); !ok || href != "/x" {
		t.Errorf("Attr(href) = %q, %v", href, ok)
	}
	if link.Depth() != 2 {
		t.Errorf("Depth() = %d, want 2", link.Depth())
	}
	parent, ok := link.Parent()
	if !ok || parent.Ref() != p.Ref() {
		t.Error("Parent() should be the paragraph")
	}
	if _, ok := els[0].Parent(); ok {
		t.Error("top-level element should have no parent")
	}
	if len(els[0].Children()) != 2 {
		t.Errorf("Children() len = %d, want 2", len(els[0].Children()))
	}
}

func TestSetClasses(t *testing.T) {
	d := mustParse(t, `<p id="x" class="a b">t</p>`)
	p := d.Elements()[0]

	p.SetClasses([]string{"b", "c"})
	got, _ := d.Render()
	if got != `<p id="x" class="b c">t</p>` {
		t.Errorf("after SetClasses = %q", got)
	}

	p.SetClasses(nil)
	got, _ = d.Render()
	if got != `<p id="x">t</p>` {
		t.Errorf("after clearing = %q", got)
	}

	p.SetClasses([]string{"z"})
	got, _ = d.Render()
	if got != `<p id="x" class="z">t</p>` {
		t.Errorf("after re-adding = %q", got)
	}
}

func TestClassesSplitOnASCIIWhitespace(t *testing.T) {
	d := mustParse(t, "<p class=\"a\u00a0b\tc\nd  e\">t</p>")
	got := d.Elements()[0].Classes()
	want := []string{"a\u00a0b", "c", "d", "e"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Classes() = %q, want %q", got, want)
	}
}
