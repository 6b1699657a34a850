// Package input is a raw-mode stdin reader implementing a tmux-style
// CTRL_B prefix state machine, modal dispatch, and pass-through to the
// active session's PTY.
package input

import (
	"time"

	"hydra/internal/store"
)

// CtrlB is the prefix byte (0x02).
const CtrlB = 0x02

// PrefixTimeoutMs is the default prefix-armed timeout in milliseconds:
// if no command byte follows a lone CTRL_B within this window, the literal
// CTRL_B byte is written through to the active PTY.
var PrefixTimeoutMs = 500

// ScrollStep is how many lines Up/Down-arrow prefix commands scroll.
const ScrollStep = 5

// Callbacks wires the router to the rest of the app without importing
// sessionmgr/compositor directly (keeps internal/input a leaf package,
// matching the subsystem boundaries).
type Callbacks struct {
	// Dispatch sends an action to the state store.
	Dispatch func(store.Action)
	// WriteActive writes a chunk to the active session's PTY. It returns
	// false if there is no active session or the session has exited.
	WriteActive func([]byte) bool
	// OnModalCreatingSession handles a chunk while mode == CreatingSession.
	OnModalCreatingSession func([]byte)
	// OnModalConfirmingClose handles a chunk while mode == ConfirmingClose.
	OnModalConfirmingClose func([]byte)
	// OnQuit is invoked on the prefix 'q'/'Q' command.
	OnQuit func()
	// OnSubmit is invoked whenever a lone carriage return is passed
	// through to the active PTY.
	OnSubmit func()
}

// Router owns the prefix state machine. Not safe for concurrent use from
// multiple goroutines; callers must drive it from the single event-loop
// goroutine.
type Router struct {
	cb          Callbacks
	store       *store.Store
	prefixArmed bool
	prefixTimer *time.Timer
	timeoutMs   int
}

// New creates a Router bound to st for reading current mode/active
// session, dispatching through cb.
func New(st *store.Store, cb Callbacks) *Router {
	return &Router{
		cb:        cb,
		store:     st,
		timeoutMs: PrefixTimeoutMs,
	}
}

// HandleChunk processes one chunk of bytes read from stdin, in
// modal-dispatch-then-prefix-then-passthrough priority order.
func (r *Router) HandleChunk(chunk []byte) {
	if len(chunk) == 0 {
		return
	}

	mode := r.store.State().Mode
	switch mode {
	case store.ModeCreatingSession:
		if r.cb.OnModalCreatingSession != nil {
			r.cb.OnModalCreatingSession(chunk)
		}
		return
	case store.ModeConfirmingClose:
		if r.cb.OnModalConfirmingClose != nil {
			r.cb.OnModalConfirmingClose(chunk)
		}
		return
	}

	if r.prefixArmed {
		r.cancelPrefixTimer()
		r.prefixArmed = false
		r.dispatchPrefixCommand(chunk)
		return
	}

	if chunk[0] == CtrlB {
		r.armPrefix()
		// Any bytes after the CTRL_B in the same chunk are the command.
		if len(chunk) > 1 {
			r.cancelPrefixTimer()
			r.prefixArmed = false
			r.dispatchPrefixCommand(chunk[1:])
		}
		return
	}

	r.passThrough(chunk)
}

func (r *Router) armPrefix() {
	r.prefixArmed = true
	r.prefixTimer = time.AfterFunc(time.Duration(r.timeoutMs)*time.Millisecond, func() {
		r.prefixArmed = false
		r.cb.WriteActive([]byte{CtrlB})
	})
}

func (r *Router) cancelPrefixTimer() {
	if r.prefixTimer != nil {
		r.prefixTimer.Stop()
		r.prefixTimer = nil
	}
}

// dispatchPrefixCommand maps one prefixed command byte to a store action:
// q/Q quit, n/N new session, w/W close active, ]/[ next/prev tab, A/B or
// arrow keys scroll, digits jump to a tab by index.
func (r *Router) dispatchPrefixCommand(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	b := chunk[0]

	switch b {
	case 'q', 'Q':
		if r.cb.OnQuit != nil {
			r.cb.OnQuit()
		}
	case 'n', 'N':
		r.cb.Dispatch(store.SetMode{Mode: store.ModeCreatingSession})
	case 'w', 'W':
		if _, ok := r.store.State().Active(); ok {
			r.cb.Dispatch(store.SetMode{Mode: store.ModeConfirmingClose})
		}
	case ']':
		r.cb.Dispatch(store.NextTab{})
	case '[':
		r.cb.Dispatch(store.PrevTab{})
	case 'A':
		r.cb.Dispatch(store.ScrollUp{N: ScrollStep})
	case 'B':
		r.cb.Dispatch(store.ScrollDown{N: ScrollStep})
	case 0x1B:
		// ESC [ A / ESC [ B (arrow keys).
		if len(chunk) >= 3 && chunk[1] == '[' {
			switch chunk[2] {
			case 'A':
				r.cb.Dispatch(store.ScrollUp{N: ScrollStep})
			case 'B':
				r.cb.Dispatch(store.ScrollDown{N: ScrollStep})
			}
		}
	default:
		if b >= '1' && b <= '9' {
			r.cb.Dispatch(store.JumpToTab{Index: int(b - '1')})
		}
		// anything else: drop.
	}
}

// passThrough forwards chunk to the active session's PTY when one exists
// and has not exited. A lone carriage return is additionally reported as a
// submit event for the status tracker.
func (r *Router) passThrough(chunk []byte) {
	if r.cb.WriteActive == nil {
		return
	}
	if !r.cb.WriteActive(chunk) {
		return
	}
	if len(chunk) == 1 && (chunk[0] == '\r' || chunk[0] == '\n') && r.cb.OnSubmit != nil {
		r.cb.OnSubmit()
	}
}

// Stop clears any pending prefix timer.
func (r *Router) Stop() {
	r.cancelPrefixTimer()
	r.prefixArmed = false
}
