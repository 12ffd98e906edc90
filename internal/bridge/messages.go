package bridge

import (
	"time"

	"github.com/muurk/retype/internal/classify"
	"github.com/muurk/retype/internal/editerr"
	"github.com/muurk/retype/internal/editor"
	"github.com/muurk/retype/internal/geometry"
	"github.com/muurk/retype/internal/markup"
	"github.com/muurk/retype/internal/overlay"
)

// Message types sent by the browser.
const (
	TypeHover      = "hover"
	TypeLeave      = "leave"
	TypeConfirm    = "confirm"
	TypeClear      = "clear"
	TypeMode       = "mode"
	TypeViewport   = "viewport"
	TypeSet        = "set"
	TypeToggle     = "toggle"
	TypeDecoration = "decoration"
	TypeEdit       = "edit"
	TypeSave       = "save"
	TypeReset      = "reset"
)

// Message types sent by the server.
const (
	TypeSnapshot = "snapshot"
	TypeMarkup   = "markup"
	TypeError    = "error"
)

// Inbound is a browser message. Only the fields of its type are set.
type Inbound struct {
	Type string `json:"type"`

	// Ref is an element ref as rendered into data-retype-ref.
	Ref string `json:"ref,omitempty"`

	Mode  string `json:"mode,omitempty"`
	Group string `json:"group,omitempty"`
	Token string `json:"token,omitempty"`
	Flag  string `json:"flag,omitempty"`
	On    bool   `json:"on,omitempty"`
	Code  string `json:"code,omitempty"`

	Viewport *ViewportReport `json:"viewport,omitempty"`
}

// ViewportReport is what the browser measured after its latest render.
// Rects are page coordinates keyed by element ref.
type ViewportReport struct {
	Generation uint64                   `json:"generation"`
	ScrollX    float64                  `json:"scrollX"`
	ScrollY    float64                  `json:"scrollY"`
	Width      float64                  `json:"width"`
	Height     float64                  `json:"height"`
	Rects      map[string]geometry.Rect `json:"rects"`
}

// refs converts the reported keys, skipping malformed ones.
func (v *ViewportReport) refs() map[markup.ElementRef]geometry.Rect {
	out := make(map[markup.ElementRef]geometry.Rect, len(v.Rects))
	for key, r := range v.Rects {
		ref, err := markup.ParseRef(key)
		if err != nil {
			continue
		}
		out[ref] = r
	}
	return out
}

// Outbound is a server message.
type Outbound struct {
	Type       string        `json:"type"`
	Snapshot   *SnapshotView `json:"snapshot,omitempty"`
	Markup     string        `json:"markup,omitempty"`
	Generation uint64        `json:"generation,omitempty"`
	Error      *ErrorView    `json:"error,omitempty"`
}

// ErrorView is an error as shown to the operator.
type ErrorView struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func newErrorView(err error) *ErrorView {
	if err == nil {
		return nil
	}
	return &ErrorView{Kind: editerr.KindOf(err).String(), Message: editerr.ShortMessage(err)}
}

// SaveView is the save affordance state.
type SaveView struct {
	State   string     `json:"state"`
	Dirty   bool       `json:"dirty"`
	Saving  bool       `json:"saving"`
	Success bool       `json:"success"`
	Loading bool       `json:"loading"`
	Error   *ErrorView `json:"error,omitempty"`
	SavedAt *time.Time `json:"savedAt,omitempty"`
}

// SnapshotView is editor.Snapshot in wire form.
type SnapshotView struct {
	ComponentID string                `json:"componentId"`
	Mode        string                `json:"mode"`
	Hover       string                `json:"hover,omitempty"`
	Locked      string                `json:"locked,omitempty"`
	HoverBox    *geometry.BoundingBox `json:"hoverBox,omitempty"`
	LockedBox   *geometry.BoundingBox `json:"lockedBox,omitempty"`
	Role        classify.Role         `json:"role"`
	Controls    []classify.Control    `json:"controls"`
	Typography  map[string]string     `json:"typography"`
	Italic      bool                  `json:"italic"`
	Overlay     []overlay.Box         `json:"overlay"`
	Save        SaveView              `json:"save"`
	Busy        bool                  `json:"busy"`
	Generation  uint64                `json:"generation"`
}

// NewSnapshotView converts a session snapshot.
func NewSnapshotView(s editor.Snapshot) *SnapshotView {
	v := &SnapshotView{
		ComponentID: s.ComponentID,
		Mode:        string(s.Mode),
		HoverBox:    s.HoverBox,
		LockedBox:   s.LockedBox,
		Role:        s.Role,
		Controls:    s.Controls,
		Typography:  make(map[string]string, len(s.Typography.Tokens)),
		Italic:      s.Typography.Italic,
		Overlay:     s.Overlay,
		Busy:        s.Busy,
		Generation:  s.Generation,
		Save: SaveView{
			State:   s.Save.State.String(),
			Dirty:   s.Save.Dirty,
			Saving:  s.Save.Saving,
			Success: s.Save.Success,
			Loading: s.Save.Loading,
			Error:   newErrorView(s.Save.Err),
		},
	}
	if v.Controls == nil {
		v.Controls = []classify.Control{}
	}
	if v.Overlay == nil {
		v.Overlay = []overlay.Box{}
	}
	if !s.Hover.IsZero() {
		v.Hover = s.Hover.String()
	}
	if !s.Locked.IsZero() {
		v.Locked = s.Locked.String()
	}
	for g, tok := range s.Typography.Tokens {
		v.Typography[string(g)] = tok
	}
	if !s.Save.SavedAt.IsZero() {
		t := s.Save.SavedAt
		v.Save.SavedAt = &t
	}
	return v
}

func parseRef(s string) (markup.ElementRef, error) {
	if s == "" {
		return markup.ElementRef{}, editerr.Validation("ref is required")
	}
	return markup.ParseRef(s)
}
