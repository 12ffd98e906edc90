package bridge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/retype/internal/classify"
	"github.com/muurk/retype/internal/editerr"
	"github.com/muurk/retype/internal/editor"
	"github.com/muurk/retype/internal/geometry"
	"github.com/muurk/retype/internal/markup"
	"github.com/muurk/retype/internal/persist"
	"github.com/muurk/retype/internal/selection"
	"github.com/muurk/retype/internal/store"
)

func startBridge(t *testing.T, cfg Config) (*Handler, *httptest.Server) {
	t.Helper()
	h := NewHandler(cfg)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r, strings.TrimPrefix(r.URL.Path, "/ws/edit/"))
	}))
	t.Cleanup(server.Close)
	return h, server
}

func dial(t *testing.T, server *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/edit/" + id
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readUntil(t *testing.T, ws *websocket.Conn, typ string, match func(Outbound) bool) Outbound {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		_ = ws.SetReadDeadline(deadline)
		var out Outbound
		if err := ws.ReadJSON(&out); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if out.Type == typ && (match == nil || match(out)) {
			return out
		}
	}
}

func sendMsg(t *testing.T, ws *websocket.Conn, msg Inbound) {
	t.Helper()
	if err := ws.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
}

var pRef = regexp.MustCompile(`<p ` + markup.RefAttr + `="([^"]+)"`)

func seedMemory(t *testing.T, id, code string) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	if _, err := m.Create(context.Background(), id, code); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestEditOverBridge(t *testing.T) {
	mem := seedMemory(t, "abc", "<div><p>Hello</p></div>")
	_, server := startBridge(t, Config{Store: store.NewLocal(mem)})
	ws := dial(t, server, "abc")

	loaded := readUntil(t, ws, TypeMarkup, nil)
	m := pRef.FindStringSubmatch(loaded.Markup)
	if m == nil {
		t.Fatalf("markup %q has no annotated p", loaded.Markup)
	}
	ref := m[1]

	sendMsg(t, ws, Inbound{Type: TypeConfirm, Ref: ref})
	snap := readUntil(t, ws, TypeSnapshot, func(o Outbound) bool { return o.Snapshot.Locked == ref }).Snapshot
	if snap.Role != classify.RoleText || len(snap.Controls) != 6 {
		t.Errorf("role = %v controls = %v", snap.Role, snap.Controls)
	}

	sendMsg(t, ws, Inbound{Type: TypeViewport, Viewport: &ViewportReport{
		ScrollY: 40,
		Width:   1024,
		Height:  768,
		Rects:   map[string]geometry.Rect{ref: {X: 10, Y: 100, W: 50, H: 20}, "bogus": {}},
	}})
	snap = readUntil(t, ws, TypeSnapshot, func(o Outbound) bool { return o.Snapshot.LockedBox != nil }).Snapshot
	if snap.LockedBox.Top != 60 || snap.LockedBox.Left != 10 || snap.LockedBox.Tag != "p" {
		t.Errorf("locked box = %+v", snap.LockedBox)
	}
	if len(snap.Overlay) != 1 || snap.Overlay[0].Border != "solid" {
		t.Errorf("overlay = %+v", snap.Overlay)
	}

	sendMsg(t, ws, Inbound{Type: TypeSet, Group: "fontSize", Token: "text-xl"})
	readUntil(t, ws, TypeMarkup, func(o Outbound) bool { return strings.Contains(o.Markup, `class="text-xl"`) })

	sendMsg(t, ws, Inbound{Type: TypeSave})
	readUntil(t, ws, TypeSnapshot, func(o Outbound) bool { return o.Snapshot.Save.Success })

	rec, err := mem.Get(context.Background(), "abc")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Code != `<div><p class="text-xl">Hello</p></div>` {
		t.Errorf("stored code = %q", rec.Code)
	}

	sendMsg(t, ws, Inbound{Type: TypeReset})
	readUntil(t, ws, TypeMarkup, func(o Outbound) bool { return !strings.Contains(o.Markup, "text-xl") })
}

func TestRejectedMessages(t *testing.T) {
	mem := seedMemory(t, "abc", "<p>x</p>")
	_, server := startBridge(t, Config{Store: store.NewLocal(mem)})
	ws := dial(t, server, "abc")
	readUntil(t, ws, TypeMarkup, nil)

	tests := []struct {
		name string
		send func()
	}{
		{"unknown type", func() { sendMsg(t, ws, Inbound{Type: "bogus"}) }},
		{"missing ref", func() { sendMsg(t, ws, Inbound{Type: TypeHover}) }},
		{"bad mode", func() { sendMsg(t, ws, Inbound{Type: TypeMode, Mode: "draw"}) }},
		{"nothing locked", func() { sendMsg(t, ws, Inbound{Type: TypeSet, Group: "fontSize", Token: "text-xl"}) }},
		{"nothing to save", func() { sendMsg(t, ws, Inbound{Type: TypeSave}) }},
		{"missing viewport", func() { sendMsg(t, ws, Inbound{Type: TypeViewport}) }},
		{"malformed json", func() {
			if err := ws.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
				t.Fatal(err)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.send()
			out := readUntil(t, ws, TypeError, nil)
			if out.Error == nil || out.Error.Kind != editerr.KindValidation.String() {
				t.Errorf("error = %+v, want validation", out.Error)
			}
		})
	}
}

func TestMissingComponent(t *testing.T) {
	_, server := startBridge(t, Config{Store: store.NewLocal(store.NewMemory())})
	ws := dial(t, server, "nope")

	out := readUntil(t, ws, TypeSnapshot, func(o Outbound) bool { return o.Snapshot.Save.Error != nil })
	if out.Snapshot.Save.Error.Kind != editerr.KindNotFound.String() {
		t.Errorf("error = %+v, want not found", out.Snapshot.Save.Error)
	}
	if out.Snapshot.Save.State != persist.StateError.String() {
		t.Errorf("state = %s", out.Snapshot.Save.State)
	}
}

func TestSanitizeAppliesToMarkup(t *testing.T) {
	mem := seedMemory(t, "abc", "<p>x</p>")
	_, server := startBridge(t, Config{
		Store:    store.NewLocal(mem),
		Sanitize: func(s string) string { return "<!--clean-->" + s },
	})
	ws := dial(t, server, "abc")

	out := readUntil(t, ws, TypeMarkup, nil)
	if !strings.HasPrefix(out.Markup, "<!--clean-->") {
		t.Errorf("markup = %q, want sanitized", out.Markup)
	}
}

func TestCloseEndsConnections(t *testing.T) {
	mem := seedMemory(t, "abc", "<p>x</p>")
	h, server := startBridge(t, Config{Store: store.NewLocal(mem)})
	ws := dial(t, server, "abc")
	readUntil(t, ws, TypeMarkup, nil)

	if h.Active() != 1 {
		t.Fatalf("Active() = %d, want 1", h.Active())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if h.Active() != 0 {
		t.Errorf("Active() = %d after Close", h.Active())
	}

	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}

func TestNewSnapshotView(t *testing.T) {
	v := NewSnapshotView(editor.Snapshot{
		ComponentID: "abc",
		Mode:        selection.ModePreview,
		Role:        classify.RoleUnknown,
		Save:        persist.SaveState{State: persist.StateDirty, Dirty: true},
	})

	if v.Hover != "" || v.Locked != "" {
		t.Errorf("zero refs should be omitted, got %q %q", v.Hover, v.Locked)
	}
	if v.Controls == nil || v.Overlay == nil {
		t.Error("controls and overlay should encode as empty arrays")
	}
	if v.Save.State != "dirty" || v.Save.SavedAt != nil || v.Save.Error != nil {
		t.Errorf("save = %+v", v.Save)
	}
	if v.Mode != "preview" {
		t.Errorf("mode = %s", v.Mode)
	}
}

func TestClientScriptEmbedded(t *testing.T) {
	if !strings.Contains(ClientScript, markup.RefAttr) {
		t.Error("client script should address elements by the ref attribute")
	}
}
