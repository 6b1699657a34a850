// Package sessionmgr owns the per-session (Emulator, PTY, checkout)
// triple, wires PTY data into the emulator with a debounced batch, and
// surfaces both raw bytes (hot path, for compositor pass-through) and
// settled data events (for chrome/status) to its owner.
package sessionmgr

import (
	"fmt"
	"sync"
	"time"

	"hydra/internal/apperrors"
	"hydra/internal/checkout"
	"hydra/internal/config"
	"hydra/internal/emulator"
	"hydra/internal/hydralog"
	"hydra/internal/ptyio"
	"hydra/internal/status"
	"hydra/internal/store"
)

// MaxScrollback is the default emulator scrollback depth, used when
// config.Scrollback is unset.
const MaxScrollback = 5000

// BatchMs is the default PTY-to-emulator coalescing window in milliseconds.
const BatchMs = 8

// Callbacks wires the manager to the compositor/status-tracker/store
// without importing them directly.
type Callbacks struct {
	// OnRawPTYData is invoked unconditionally, before the batch timer,
	// with every chunk read from a session's PTY — the hot path to
	// compositor pass-through.
	OnRawPTYData func(sessionID string, chunk []byte)
	// OnPTYData is invoked once the batch timer fires (chrome/status
	// update trigger), and once more on exit so chrome updates.
	OnPTYData func(sessionID string)
}

// entry is one live session's non-store-owned resources.
type entry struct {
	id        string
	emulator  *emulator.Emulator
	pty       *ptyio.PTY
	checkout  *checkout.Checkout
	mu        sync.Mutex
	pending   []byte
	batchTimer *time.Timer
}

// Manager owns the live resources backing every session in the store;
// the store itself only ever sees session metadata.
type Manager struct {
	st        *store.Store
	checkouts *checkout.Manager
	status    *status.Tracker
	cfg       *config.Config
	log       *hydralog.Logger
	cb        Callbacks

	mu      sync.Mutex
	entries map[string]*entry
	counter int
}

// New creates a Manager. log may be hydralog.Disabled() for a no-op logger.
func New(st *store.Store, checkouts *checkout.Manager, statusTracker *status.Tracker, cfg *config.Config, log *hydralog.Logger, cb Callbacks) *Manager {
	return &Manager{
		st:        st,
		checkouts: checkouts,
		status:    statusTracker,
		cfg:       cfg,
		log:       log,
		cb:        cb,
		entries:   make(map[string]*entry),
	}
}

// nextID generates "session-<counter>-<ms-epoch>".
func (m *Manager) nextID() string {
	m.counter++
	return fmt.Sprintf("session-%d-%d", m.counter, time.Now().UnixMilli())
}

// CreateSession creates (or attaches to, when existing is non-nil) a
// checkout, spawns a PTY into it, and registers the session in the
// store. existing is non-nil when called from RestoreExistingSessions,
// skipping checkout creation for an already-existing worktree.
func (m *Manager) CreateSession(branch string, cols, rows int, existing *checkout.Checkout) (string, error) {
	co := existing
	if co == nil {
		created, err := m.checkouts.Add(branch, m.cfg.BranchFrom)
		if err != nil {
			return "", &apperrors.SessionCreateError{Branch: branch, Cause: err}
		}
		co = created
	}

	scrollback := m.cfg.Scrollback
	if scrollback <= 0 {
		scrollback = MaxScrollback
	}
	e := emulator.New(cols, rows, scrollback)

	env := map[string]string{
		"TERM":      "xterm-256color",
		"COLORTERM": "truecolor",
	}
	p, err := ptyio.Start(m.cfg.Command, m.cfg.Args, cols, rows, co.Path, env)
	if err != nil {
		return "", &apperrors.SessionCreateError{Branch: branch, Cause: err}
	}

	id := m.nextID()
	ent := &entry{id: id, emulator: e, pty: p, checkout: co}

	batchMs := m.cfg.BatchMs
	if batchMs <= 0 {
		batchMs = BatchMs
	}

	p.OnData(func(chunk []byte) {
		if m.cb.OnRawPTYData != nil {
			m.cb.OnRawPTYData(id, chunk)
		}
		if m.status != nil {
			m.status.OnPTYData(id)
		}
		m.armBatch(ent, chunk, batchMs)
	})
	p.OnExit(func(err error) {
		code := ptyio.ExitCode(err)
		m.st.Dispatch(store.SessionExited{ID: id, Code: code})
		m.log.SessionExited(id, code)
		if m.cb.OnPTYData != nil {
			m.cb.OnPTYData(id)
		}
	})

	m.mu.Lock()
	m.entries[id] = ent
	m.mu.Unlock()

	go p.Pump()

	m.st.Dispatch(store.AddSession{Session: store.Session{
		ID:           id,
		Branch:       branch,
		CheckoutPath: co.Path,
	}})
	m.log.SessionCreated(id, branch)

	return id, nil
}

// armBatch coalesces PTY chunks, flushing them into the emulator only
// after batchMs of quiet on a deadline timer rather than a fixed-rate
// tick, so a burst of output settles before the emulator (and any
// chrome/status redraw it triggers) sees it.
func (m *Manager) armBatch(ent *entry, chunk []byte, batchMs int) {
	ent.mu.Lock()
	ent.pending = append(ent.pending, chunk...)
	if ent.batchTimer != nil {
		ent.batchTimer.Stop()
	}
	ent.batchTimer = time.AfterFunc(time.Duration(batchMs)*time.Millisecond, func() {
		ent.mu.Lock()
		batch := ent.pending
		ent.pending = nil
		ent.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		ent.emulator.Write(batch, func() {
			if m.cb.OnPTYData != nil {
				m.cb.OnPTYData(ent.id)
			}
		})
	})
	ent.mu.Unlock()
}

// CloseSession kills the session's PTY (best-effort), disposes its
// emulator, asks the checkout manager to remove the checkout
// (best-effort), and removes the session from the store.
func (m *Manager) CloseSession(sessionID string) error {
	m.mu.Lock()
	ent, ok := m.entries[sessionID]
	if ok {
		delete(m.entries, sessionID)
	}
	m.mu.Unlock()
	if !ok {
		return nil
	}

	ent.pty.Kill()
	ent.emulator.Dispose()
	if m.status != nil {
		m.status.Remove(sessionID)
	}

	var removeErr error
	if ent.checkout != nil {
		if err := m.checkouts.Remove(ent.checkout.Path); err != nil {
			removeErr = &apperrors.CleanupError{Path: ent.checkout.Path, Cause: err}
		}
	}

	m.st.Dispatch(store.RemoveSession{ID: sessionID})
	m.log.SessionClosed(sessionID)
	return removeErr
}

// ShutdownAll kills every session's PTY and disposes its emulator
// without touching the store or removing checkouts: checkouts are
// preserved across a process shutdown, and only an explicit close (or
// CleanupOrphans on the next startup) removes one.
func (m *Manager) ShutdownAll() {
	m.mu.Lock()
	entries := make([]*entry, 0, len(m.entries))
	for _, ent := range m.entries {
		entries = append(entries, ent)
	}
	m.entries = make(map[string]*entry)
	m.mu.Unlock()

	for _, ent := range entries {
		ent.pty.Kill()
		ent.emulator.Dispose()
	}
}

// ResizeAll resizes every non-exited session's emulator and then its
// PTY, in that order, to avoid a race where the child writes for a
// larger grid than the emulator has.
func (m *Manager) ResizeAll(cols, rows int) {
	st := m.st.State()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sess := range st.Sessions {
		if sess.Exited() {
			continue
		}
		ent, ok := m.entries[sess.ID]
		if !ok {
			continue
		}
		ent.emulator.Resize(cols, rows)
		if err := ent.pty.Resize(cols, rows); err != nil {
			m.log.Error(sess.ID, &apperrors.SessionRuntimeError{SessionID: sess.ID, Cause: err})
		}
	}
}

// RestoreExistingSessions lists existing checkouts and calls
// CreateSession against each with its existing path, recreating a
// session for every checkout left over from a prior run.
func (m *Manager) RestoreExistingSessions(cols, rows int) error {
	checkouts, err := m.checkouts.List()
	if err != nil {
		return fmt.Errorf("list existing checkouts: %w", err)
	}
	for _, co := range checkouts {
		if _, err := m.CreateSession(co.Branch, cols, rows, co); err != nil {
			return fmt.Errorf("restore session for branch %q: %w", co.Branch, err)
		}
	}
	return nil
}

// CleanupOrphans delegates to the checkout manager to prune worktree
// directories git no longer recognizes.
func (m *Manager) CleanupOrphans() error {
	return m.checkouts.PruneOrphans()
}

// Emulator returns the live emulator for a session, or nil if unknown.
func (m *Manager) Emulator(sessionID string) *emulator.Emulator {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ent, ok := m.entries[sessionID]; ok {
		return ent.emulator
	}
	return nil
}

// Write sends bytes to a session's PTY stdin. Returns false if the
// session is unknown or the write failed.
func (m *Manager) Write(sessionID string, b []byte) bool {
	m.mu.Lock()
	ent, ok := m.entries[sessionID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	_, err := ent.pty.Write(b)
	return err == nil
}
