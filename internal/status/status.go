// Package status is a per-session Idle/Working/Waiting activity tracker,
// derived from submit events and PTY silence timers, that feeds chrome
// coloring.
package status

import (
	"sync"
	"time"
)

// Status is a session's derived activity state.
type Status int

const (
	Idle Status = iota
	Working
	Waiting
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Working:
		return "working"
	case Waiting:
		return "waiting"
	default:
		return "unknown"
	}
}

// SilenceMs is the default silence threshold before Working becomes
// Waiting.
var SilenceMs = 3000

// Tracker owns one status entry per session id.
type Tracker struct {
	mu        sync.Mutex
	statuses  map[string]Status
	timers    map[string]*time.Timer
	silenceMs int
	onChange  func(sessionID string, s Status)
}

// New creates a Tracker. onChange is invoked whenever a session's status
// changes; for the timer-fired case this happens off the timer's own
// goroutine, so callers must marshal back onto their own single event-loop
// goroutine (e.g. via a channel send).
func New(onChange func(sessionID string, s Status)) *Tracker {
	return &Tracker{
		statuses:  make(map[string]Status),
		timers:    make(map[string]*time.Timer),
		silenceMs: SilenceMs,
		onChange:  onChange,
	}
}

// Sync creates missing entries as Idle and drops entries for sessions no
// longer present.
func (t *Tracker) Sync(sessionIDs []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	present := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		present[id] = true
		if _, ok := t.statuses[id]; !ok {
			t.statuses[id] = Idle
		}
	}
	for id := range t.statuses {
		if !present[id] {
			t.stopTimerLocked(id)
			delete(t.statuses, id)
		}
	}
}

// Get returns a session's current status (Idle if unknown).
func (t *Tracker) Get(sessionID string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statuses[sessionID]
}

// OnSubmit records a submit event (a lone carriage return pass-through
// from the input router): status becomes Working and the silence timer
// resets.
func (t *Tracker) OnSubmit(sessionID string) {
	t.mu.Lock()
	t.statuses[sessionID] = Working
	t.mu.Unlock()
	t.resetTimer(sessionID)
	t.notify(sessionID, Working)
}

// OnPTYData resets the silence timer on every PTY data chunk, without
// otherwise changing status.
func (t *Tracker) OnPTYData(sessionID string) {
	t.resetTimer(sessionID)
}

// Remove drops a session's entry entirely (on session close).
func (t *Tracker) Remove(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTimerLocked(sessionID)
	delete(t.statuses, sessionID)
}

func (t *Tracker) resetTimer(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.statuses[sessionID]; !ok {
		return
	}
	t.stopTimerLocked(sessionID)
	t.timers[sessionID] = time.AfterFunc(time.Duration(t.silenceMs)*time.Millisecond, func() {
		t.fireSilence(sessionID)
	})
}

func (t *Tracker) stopTimerLocked(sessionID string) {
	if timer, ok := t.timers[sessionID]; ok {
		timer.Stop()
		delete(t.timers, sessionID)
	}
}

// fireSilence implements the Working->Waiting transition; it is a no-op if
// the session's status is not currently Working (e.g. already Waiting, or
// already removed).
func (t *Tracker) fireSilence(sessionID string) {
	t.mu.Lock()
	current, ok := t.statuses[sessionID]
	if !ok || current != Working {
		t.mu.Unlock()
		return
	}
	t.statuses[sessionID] = Waiting
	t.mu.Unlock()
	t.notify(sessionID, Waiting)
}

func (t *Tracker) notify(sessionID string, s Status) {
	if t.onChange != nil {
		t.onChange(sessionID, s)
	}
}
