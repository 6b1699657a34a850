package store

import "sync"

// Store holds a single AppState, replacing it atomically on every Dispatch
// and notifying subscribers iff the reducer actually produced a distinct
// value.
//
// Dispatch is meant to be called from a single event-loop goroutine; the
// mutex below guards Subscribe/State against being read from a second
// goroutine (e.g. a test) without requiring every caller to prove it is the
// loop goroutine.
type Store struct {
	mu        sync.Mutex
	state     AppState
	listeners []func(AppState)
}

// New creates a Store with the given initial state.
func New(initial AppState) *Store {
	return &Store{state: initial}
}

// State returns the current state.
func (s *Store) State() AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a callback invoked after every state-changing
// dispatch. It returns an unsubscribe function.
func (s *Store) Subscribe(fn func(AppState)) (unsubscribe func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners[idx] = nil
	}
}

// Dispatch applies an action via reduce and, if the resulting state differs
// from the current one, replaces it and notifies subscribers.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	next := reduce(s.state, a)
	changed := !statesEqual(s.state, next)
	if changed {
		s.state = next
	}
	listeners := append([]func(AppState){}, s.listeners...)
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		if fn != nil {
			fn(next)
		}
	}
}

// reduce is the pure reducer driving every state transition. It never
// mutates its input and always returns a fresh AppState when anything
// changes, so statesEqual can compare old and new without aliasing bugs.
func reduce(s AppState, a Action) AppState {
	switch act := a.(type) {
	case AddSession:
		next := s
		next.Sessions = append(cloneSessions(s.Sessions), act.Session)
		next.ActiveSessionID = act.Session.ID
		next.Mode = ModeNormal
		next.ScrollOffset = 0
		return next

	case RemoveSession:
		idx := s.IndexOf(act.ID)
		if idx < 0 {
			return s
		}
		remaining := make([]Session, 0, len(s.Sessions)-1)
		remaining = append(remaining, s.Sessions[:idx]...)
		remaining = append(remaining, s.Sessions[idx+1:]...)

		next := s
		next.Sessions = remaining
		next.Mode = ModeNormal
		next.ScrollOffset = 0
		if s.ActiveSessionID == act.ID {
			if len(remaining) == 0 {
				next.ActiveSessionID = ""
			} else {
				newIdx := idx
				if newIdx > len(remaining)-1 {
					newIdx = len(remaining) - 1
				}
				next.ActiveSessionID = remaining[newIdx].ID
			}
		}
		return next

	case SetActive:
		if s.IndexOf(act.ID) < 0 {
			return s
		}
		next := s
		next.ActiveSessionID = act.ID
		next.ScrollOffset = 0
		return next

	case NextTab:
		if len(s.Sessions) == 0 {
			return s
		}
		idx := s.IndexOf(s.ActiveSessionID)
		next := s
		next.ActiveSessionID = s.Sessions[(idx+1)%len(s.Sessions)].ID
		next.ScrollOffset = 0
		return next

	case PrevTab:
		if len(s.Sessions) == 0 {
			return s
		}
		idx := s.IndexOf(s.ActiveSessionID)
		n := len(s.Sessions)
		next := s
		next.ActiveSessionID = s.Sessions[(idx-1+n)%n].ID
		next.ScrollOffset = 0
		return next

	case JumpToTab:
		if act.Index < 0 || act.Index >= len(s.Sessions) {
			return s
		}
		next := s
		next.ActiveSessionID = s.Sessions[act.Index].ID
		next.ScrollOffset = 0
		return next

	case SetMode:
		if s.Mode == act.Mode {
			return s
		}
		next := s
		next.Mode = act.Mode
		return next

	case SessionExited:
		idx := s.IndexOf(act.ID)
		if idx < 0 {
			return s
		}
		code := act.Code
		next := s
		next.Sessions = cloneSessions(s.Sessions)
		next.Sessions[idx].ExitCode = &code
		return next

	case ScrollUp:
		next := s
		next.ScrollOffset = s.ScrollOffset + act.N
		return next

	case ScrollDown:
		offset := s.ScrollOffset - act.N
		if offset < 0 {
			offset = 0
		}
		if offset == s.ScrollOffset {
			return s
		}
		next := s
		next.ScrollOffset = offset
		return next

	default:
		return s
	}
}

func statesEqual(a, b AppState) bool {
	if a.ActiveSessionID != b.ActiveSessionID || a.Mode != b.Mode || a.ScrollOffset != b.ScrollOffset {
		return false
	}
	if len(a.Sessions) != len(b.Sessions) {
		return false
	}
	for i := range a.Sessions {
		sa, sb := a.Sessions[i], b.Sessions[i]
		if sa.ID != sb.ID || sa.Branch != sb.Branch || sa.CheckoutPath != sb.CheckoutPath {
			return false
		}
		switch {
		case sa.ExitCode == nil && sb.ExitCode == nil:
		case sa.ExitCode != nil && sb.ExitCode != nil && *sa.ExitCode == *sb.ExitCode:
		default:
			return false
		}
	}
	return true
}
