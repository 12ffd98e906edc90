package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/retype/internal/editerr"
	"github.com/muurk/retype/internal/editor"
	"github.com/muurk/retype/internal/geometry"
	"github.com/muurk/retype/internal/logging"
	"github.com/muurk/retype/internal/selection"
	"github.com/muurk/retype/internal/typography"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Edit messages carry a
	// whole component.
	maxMessageSize = 1 << 20
)

// Config wires a Handler.
type Config struct {
	// Store serves load, save and reset for every connection.
	Store editor.Store
	// Region limits tracking to elements under this CSS selector.
	Region string
	// Sanitize is applied to every markup message. Nil sends markup as is.
	Sanitize func(string) string
	// StoreTimeout bounds each store call.
	StoreTimeout time.Duration
	// CheckOrigin overrides the upgrader's same-origin check.
	CheckOrigin func(r *http.Request) bool
}

// Handler upgrades editing browsers to websocket connections, one
// editor session per connection.
type Handler struct {
	cfg      Config
	upgrader websocket.Upgrader
	wg       sync.WaitGroup
	mu       sync.Mutex
	conns    map[*websocket.Conn]string
}

// NewHandler creates a bridge handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     cfg.CheckOrigin,
		},
		conns: make(map[*websocket.Conn]string),
	}
}

// Serve upgrades the request and edits component id until the browser
// disconnects.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		http.Error(w, "Component ID is required.", http.StatusBadRequest)
		return
	}
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already answered with an HTTP error.
		logging.Warn("Websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	remote := r.RemoteAddr
	h.mu.Lock()
	h.conns[ws] = remote
	h.mu.Unlock()
	h.wg.Add(1)

	defer func() {
		_ = ws.Close()
		h.mu.Lock()
		delete(h.conns, ws)
		h.mu.Unlock()
		h.wg.Done()
		logging.LogConnection(remote, "bridge_closed")
	}()

	logging.LogConnection(remote, "bridge_opened")

	c, err := newConn(ws, remote, id, h.cfg)
	if err != nil {
		logging.Error("Failed to start editor session", zap.String("component_id", id), zap.Error(err))
		return
	}
	if err := c.run(r.Context()); err != nil && !isClosed(err) {
		logging.Info("Bridge connection ended",
			zap.String("remote_addr", remote),
			zap.String("component_id", id),
			zap.Error(err),
		)
	}
}

// Active returns the number of open connections.
func (h *Handler) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close closes every open connection and waits for their loops to finish
// or ctx to expire.
func (h *Handler) Close(ctx context.Context) error {
	h.mu.Lock()
	for ws, addr := range h.conns {
		logging.Info("Closing bridge connection", zap.String("remote_addr", addr))
		_ = ws.Close()
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isClosed(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		errors.Is(err, context.Canceled)
}

// received is one read. A decode failure keeps the connection open; a
// read failure ends it.
type received struct {
	msg       Inbound
	decodeErr error
	readErr   error
}

// conn owns one session. Only run's goroutine touches the session and
// writes to the socket.
type conn struct {
	ws       *websocket.Conn
	remote   string
	session  *editor.Session
	layout   *geometry.ReportedLayout
	sanitize func(string) string

	snap        *editor.Snapshot
	markupDirty bool
	lastMarkup  string
}

func newConn(ws *websocket.Conn, remote, id string, cfg Config) (*conn, error) {
	c := &conn{
		ws:       ws,
		remote:   remote,
		layout:   &geometry.ReportedLayout{},
		sanitize: cfg.Sanitize,
	}
	s, err := editor.New(editor.Config{
		ComponentID:  id,
		Store:        cfg.Store,
		Layout:       c.layout,
		Region:       cfg.Region,
		StoreTimeout: cfg.StoreTimeout,
		OnSnapshot: func(snap editor.Snapshot) {
			c.snap = &snap
		},
	})
	if err != nil {
		return nil, err
	}
	c.session = s
	return c, nil
}

func (c *conn) run(ctx context.Context) error {
	defer c.session.Close()

	inbound := make(chan received)
	done := make(chan struct{})
	defer close(done)
	go c.readLoop(inbound, done)

	if err := c.session.Load(); err != nil {
		c.snap = nil
		if werr := c.sendError(err); werr != nil {
			return werr
		}
	}
	if err := c.flush(); err != nil {
		return err
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case r := <-inbound:
			if r.readErr != nil {
				return r.readErr
			}
			if r.decodeErr != nil {
				if err := c.sendError(editerr.Validationf("malformed message: %v", r.decodeErr)); err != nil {
					return err
				}
				continue
			}
			if err := c.handle(r.msg); err != nil {
				logging.Debug("Bridge message rejected",
					zap.String("remote_addr", c.remote),
					zap.String("type", r.msg.Type),
					zap.Error(err),
				)
				if werr := c.sendError(err); werr != nil {
					return werr
				}
			}

		case o := <-c.session.Pending():
			if c.session.Resolve(o) {
				c.markupDirty = true
			}

		case <-ping.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
			continue
		}

		if err := c.flush(); err != nil {
			return err
		}
	}
}

func (c *conn) readLoop(out chan<- received, done <-chan struct{}) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		var r received
		if err != nil {
			r.readErr = err
		} else if err := json.Unmarshal(data, &r.msg); err != nil {
			r.decodeErr = err
		} else {
			logging.LogBridgeMessage(c.remote, "in", r.msg.Type, len(data))
		}

		select {
		case out <- r:
		case <-done:
			return
		}
		if r.readErr != nil {
			return
		}
	}
}

// handle applies one browser message to the session.
func (c *conn) handle(msg Inbound) error {
	s := c.session
	switch msg.Type {
	case TypeHover:
		ref, err := parseRef(msg.Ref)
		if err != nil {
			return err
		}
		s.OnHover(ref)
	case TypeLeave:
		s.OnLeave()
	case TypeConfirm:
		ref, err := parseRef(msg.Ref)
		if err != nil {
			return err
		}
		s.OnConfirm(ref)
	case TypeClear:
		s.ClearLocked()
	case TypeMode:
		m, err := selection.ParseMode(msg.Mode)
		if err != nil {
			return err
		}
		s.SetMode(m)
	case TypeViewport:
		v := msg.Viewport
		if v == nil {
			return editerr.Validation("viewport report is required")
		}
		c.layout.Report(s.Document().Generation(), v.refs())
		s.Resize(v.Width, v.Height)
		s.Scroll(v.ScrollX, v.ScrollY)
	case TypeSet:
		return c.mutated(s.SetExclusive(typography.Group(msg.Group), msg.Token))
	case TypeToggle:
		return c.mutated(s.ToggleBinary(typography.Flag(msg.Flag), msg.On))
	case TypeDecoration:
		return c.mutated(s.CycleDecoration(msg.Token))
	case TypeEdit:
		return c.mutated(s.EditCode(msg.Code))
	case TypeSave:
		return s.Save()
	case TypeReset:
		return s.Reset()
	default:
		return editerr.Validationf("unknown message type %q", msg.Type)
	}
	return nil
}

func (c *conn) mutated(err error) error {
	if err == nil {
		c.markupDirty = true
	}
	return err
}

// flush sends fresh markup, then the latest snapshot.
func (c *conn) flush() error {
	if c.markupDirty {
		c.markupDirty = false
		code, err := c.session.Document().RenderAnnotated()
		if err != nil {
			return c.sendError(err)
		}
		if c.sanitize != nil {
			code = c.sanitize(code)
		}
		if code != c.lastMarkup {
			c.lastMarkup = code
			if err := c.send(Outbound{
				Type:       TypeMarkup,
				Markup:     code,
				Generation: c.session.Document().Generation(),
			}); err != nil {
				return err
			}
		}
	}

	if c.snap == nil {
		return nil
	}
	snap := *c.snap
	c.snap = nil
	return c.send(Outbound{Type: TypeSnapshot, Snapshot: NewSnapshotView(snap)})
}

func (c *conn) sendError(err error) error {
	return c.send(Outbound{Type: TypeError, Error: newErrorView(err)})
}

func (c *conn) send(out Outbound) error {
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	logging.LogBridgeMessage(c.remote, "out", out.Type, len(data))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}
