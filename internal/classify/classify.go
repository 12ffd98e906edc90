// Package classify maps document elements onto the closed set of editing
// roles. Classification reads only the tag name and the ARIA role
// attribute, so it is deterministic and safe to recompute on every
// selection change.
package classify

import "strings"

// Role is the editability class of an element.
type Role string

const (
	RoleText      Role = "text"
	RoleImage     Role = "image"
	RoleMedia     Role = "media"
	RoleControl   Role = "control"
	RoleContainer Role = "container"
	RoleUnknown   Role = "unknown"
)

// Element is what the classifier needs to see.
type Element interface {
	Tag() string
	Attr(name string) (string, bool)
}

var tagRoles = map[string]Role{}

func init() {
	register(RoleText,
		"p", "h1", "h2", "h3", "h4", "h5", "h6", "span", "a", "strong", "em",
		"b", "i", "u", "s", "small", "mark", "blockquote", "q", "cite", "code",
		"pre", "label", "li", "dt", "dd", "figcaption", "caption", "td", "th",
		"abbr", "sub", "sup", "time", "legend", "summary", "del", "ins", "kbd",
	)
	register(RoleImage, "img", "svg", "picture", "canvas")
	register(RoleMedia, "video", "audio", "iframe", "embed", "object")
	register(RoleControl, "button", "input", "select", "textarea", "option", "progress", "meter")
	register(RoleContainer,
		"div", "section", "article", "aside", "header", "footer", "main", "nav",
		"ul", "ol", "dl", "figure", "form", "fieldset", "table", "thead",
		"tbody", "tfoot", "tr", "details", "address",
	)
}

func register(r Role, tags ...string) {
	for _, t := range tags {
		tagRoles[t] = r
	}
}

var ariaRoles = map[string]Role{
	"heading":    RoleText,
	"paragraph":  RoleText,
	"link":       RoleText,
	"img":        RoleImage,
	"image":      RoleImage,
	"button":     RoleControl,
	"checkbox":   RoleControl,
	"radio":      RoleControl,
	"switch":     RoleControl,
	"slider":     RoleControl,
	"textbox":    RoleControl,
	"combobox":   RoleControl,
	"tab":        RoleControl,
	"menuitem":   RoleControl,
	"group":      RoleContainer,
	"region":     RoleContainer,
	"list":       RoleContainer,
	"navigation": RoleContainer,
	"banner":     RoleContainer,
	"main":       RoleContainer,
}

// Classify returns the role of e. An explicit ARIA role wins over the
// tag; anything unrecognized is RoleUnknown.
func Classify(e Element) Role {
	if e == nil {
		return RoleUnknown
	}
	if v, ok := e.Attr("role"); ok {
		for _, tok := range strings.Fields(strings.ToLower(v)) {
			if r, ok := ariaRoles[tok]; ok {
				return r
			}
		}
	}
	if r, ok := tagRoles[strings.ToLower(e.Tag())]; ok {
		return r
	}
	return RoleUnknown
}

// Control names a presentation control group.
type Control string

const (
	ControlFontSize   Control = "fontSize"
	ControlFontWeight Control = "fontWeight"
	ControlAlign      Control = "align"
	ControlDecoration Control = "decoration"
	ControlItalic     Control = "italic"
	ControlColor      Control = "color"
)

// ControlsFor lists the controls shown for role. Typography and alignment
// are offered for text only.
func ControlsFor(r Role) []Control {
	if r != RoleText {
		return nil
	}
	return []Control{
		ControlFontSize, ControlFontWeight, ControlAlign,
		ControlDecoration, ControlItalic, ControlColor,
	}
}
