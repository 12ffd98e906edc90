package persist

import (
	"fmt"
	"time"

	"github.com/muurk/retype/internal/editerr"
)

// State is the persistence state shown by the save affordance.
type State int

const (
	StateIdle State = iota
	StateDirty
	StateSaving
	StateSuccess
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDirty:
		return "dirty"
	case StateSaving:
		return "saving"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Op is the kind of store request.
type Op int

const (
	OpLoad Op = iota
	OpSave
	OpReset
)

// String returns the op name.
func (o Op) String() string {
	switch o {
	case OpLoad:
		return "load"
	case OpSave:
		return "save"
	case OpReset:
		return "reset"
	default:
		return fmt.Sprintf("Op(%d)", o)
	}
}

// Request is one store call issued by the controller. Code is the payload
// of a save; Revision is the edit revision the payload reflects.
type Request struct {
	Op          Op
	ComponentID string
	Code        string
	Revision    uint64
	seq         uint64
}

// Seq returns the request sequence number.
func (r Request) Seq() uint64 {
	return r.seq
}

// SaveState is the snapshot of the controller published to presentation.
type SaveState struct {
	State   State
	Dirty   bool
	Saving  bool
	Success bool
	Loading bool
	Pending Op
	Err     error
	SavedAt time.Time
}

// Controller is the save/dirty/reset state machine for one component. At
// most one request is in flight; outcomes that do not match the in-flight
// request are discarded.
type Controller struct {
	componentID string
	state       State
	dirty       bool
	revision    uint64
	seq         uint64
	inflight    *Request
	err         error
	savedAt     time.Time
	now         func() time.Time
}

// NewController creates an idle controller for componentID.
func NewController(componentID string) *Controller {
	return &Controller{componentID: componentID, now: time.Now}
}

// ComponentID returns the component the controller tracks.
func (c *Controller) ComponentID() string {
	return c.componentID
}

// SetComponent switches to another component. Any in-flight request is
// orphaned and its outcome will be discarded.
func (c *Controller) SetComponent(id string) {
	c.componentID = id
	c.inflight = nil
	c.state = StateIdle
	c.dirty = false
	c.err = nil
	c.savedAt = time.Time{}
}

// Revision returns the edit revision, bumped by every accepted mutation.
func (c *Controller) Revision() uint64 {
	return c.revision
}

// InFlight returns the pending request, if any.
func (c *Controller) InFlight() (Request, bool) {
	if c.inflight == nil {
		return Request{}, false
	}
	return *c.inflight, true
}

// Mutated records an accepted local edit. During a save the state stays
// Saving; the edit is picked up by the next save.
func (c *Controller) Mutated() {
	c.revision++
	c.dirty = true
	if c.inflight != nil {
		return
	}
	c.state = StateDirty
	c.err = nil
}

// BeginSave starts a save of code. It fails with Busy while another
// request is in flight and with a validation error when nothing changed.
func (c *Controller) BeginSave(code string) (Request, error) {
	if err := c.checkIdle(); err != nil {
		return Request{}, err
	}
	if c.componentID == "" {
		return Request{}, editerr.Validation("component id is required")
	}
	if !c.dirty {
		return Request{}, editerr.Validation("nothing to save")
	}
	return c.begin(Request{Op: OpSave, ComponentID: c.componentID, Code: code, Revision: c.revision}), nil
}

// BeginReset starts a reset to the original baseline.
func (c *Controller) BeginReset() (Request, error) {
	if err := c.checkIdle(); err != nil {
		return Request{}, err
	}
	if c.componentID == "" {
		return Request{}, editerr.Validation("component id is required")
	}
	return c.begin(Request{Op: OpReset, ComponentID: c.componentID, Revision: c.revision}), nil
}

// BeginLoad starts the initial load.
func (c *Controller) BeginLoad() (Request, error) {
	if err := c.checkIdle(); err != nil {
		return Request{}, err
	}
	if c.componentID == "" {
		return Request{}, editerr.Validation("component id is required")
	}
	return c.begin(Request{Op: OpLoad, ComponentID: c.componentID, Revision: c.revision}), nil
}

func (c *Controller) checkIdle() error {
	if c.inflight != nil {
		return editerr.Busy(fmt.Sprintf("%s already in progress", c.inflight.Op))
	}
	return nil
}

func (c *Controller) begin(req Request) Request {
	c.seq++
	req.seq = c.seq
	c.inflight = &req
	c.err = nil
	if req.Op != OpLoad {
		c.state = StateSaving
	}
	return req
}

// Matches reports whether req is the in-flight request for the current
// component.
func (c *Controller) Matches(req Request) bool {
	return c.inflight != nil && req.seq == c.inflight.seq && req.ComponentID == c.componentID
}

// Complete applies the outcome of req. It reports false, changing
// nothing, when req is not the in-flight request for the current
// component.
func (c *Controller) Complete(req Request, err error) bool {
	if !c.Matches(req) {
		return false
	}
	c.inflight = nil

	if err != nil {
		c.state = StateError
		c.err = err
		return true
	}

	switch req.Op {
	case OpSave:
		c.dirty = c.revision != req.Revision
		c.savedAt = c.now()
		if c.dirty {
			c.state = StateDirty
		} else {
			c.state = StateSuccess
		}
	case OpReset:
		c.dirty = false
		c.savedAt = c.now()
		c.state = StateSuccess
	case OpLoad:
		c.dirty = false
		c.state = StateIdle
	}
	return true
}

// State returns the published save state.
func (c *Controller) State() SaveState {
	s := SaveState{
		State:   c.state,
		Dirty:   c.dirty,
		Saving:  c.inflight != nil && c.inflight.Op != OpLoad,
		Success: c.state == StateSuccess,
		Loading: c.inflight != nil && c.inflight.Op == OpLoad,
		Err:     c.err,
		SavedAt: c.savedAt,
	}
	if c.inflight != nil {
		s.Pending = c.inflight.Op
	}
	return s
}
