package database

import "sync/atomic"

// State is a Handle's lifecycle position.
type State int32

const (
	StateUnopened State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unopened"
	}
}

// Handle owns one live client connection. It is created Open by
// Gateway.Connect and moves to Closed on Gateway.Close; nothing leaves Closed.
// A Handle belongs to a single caller and is not meant for concurrent use.
type Handle struct {
	raw    RawConn
	driver Driver
	state  atomic.Int32
}

func newHandle(raw RawConn, driver Driver) *Handle {
	h := &Handle{raw: raw, driver: driver}
	h.state.Store(int32(StateOpen))
	return h
}

// State reports the handle's current lifecycle state. The zero Handle is Unopened.
func (h *Handle) State() State {
	return State(h.state.Load())
}

// Driver names the client that produced the connection, if known.
func (h *Handle) Driver() Driver {
	return h.driver
}

// Raw returns the client's connection object for collaborators that run
// queries on it. Calling Raw on a handle that is not Open is a programming
// error and panics.
func (h *Handle) Raw() RawConn {
	if s := h.State(); s != StateOpen {
		panic("database: Raw called on " + s.String() + " handle")
	}
	return h.raw
}

// markClosed moves Open to Closed and reports whether this call did it.
func (h *Handle) markClosed() bool {
	return h.state.CompareAndSwap(int32(StateOpen), int32(StateClosed))
}
