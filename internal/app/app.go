// Package app is the top-level controller: it subscribes to the store
// and drives the render policy (enter/exit modal, session switch,
// chrome-only redraw), owns resize and signal handling, and is the
// single caller of the compositor/input-router/session-manager surface
// so their state reads like it is owned by one logical thread, even
// though PTY and timer callbacks arrive on their own goroutines — a
// mutex around the controller's own render-policy bookkeeping stands in
// for a single-threaded event loop's implicit serialization.
package app

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"unicode/utf8"

	"hydra/internal/apperrors"
	"hydra/internal/checkout"
	"hydra/internal/compositor"
	"hydra/internal/config"
	"hydra/internal/emulator"
	"hydra/internal/hydralog"
	"hydra/internal/input"
	"hydra/internal/sessionmgr"
	"hydra/internal/status"
	"hydra/internal/store"
)

// App wires together the store, session manager, compositor, status
// tracker, and input router into one running process.
type App struct {
	cfg    *config.Config
	log    *hydralog.Logger
	store  *store.Store
	status *status.Tracker
	sess   *sessionmgr.Manager
	comp   *compositor.Compositor
	router *input.Router

	stdin *os.File

	mu               sync.Mutex
	cols, rows       int
	lastRenderedID   string
	lastMode         store.Mode
	creatingInput    []byte
	rawMode          *input.RawMode
	shutdownOnce     sync.Once
	signalCh         chan os.Signal
}

// New builds an App rooted at repoRoot, writing host output to out and
// reading raw stdin from in. cols/rows are the initial host terminal
// dimensions.
func New(cfg *config.Config, log *hydralog.Logger, repoRoot string, homeDir string, in *os.File, out io.Writer, cols, rows int) (*App, error) {
	st := store.New(store.AppState{})
	coMgr, err := checkout.NewManager(repoRoot, homeDir)
	if err != nil {
		return nil, fmt.Errorf("create checkout manager: %w", err)
	}

	a := &App{
		cfg:      cfg,
		log:      log,
		store:    st,
		stdin:    in,
		cols:     cols,
		rows:     rows,
		lastMode: store.ModeNormal,
	}

	a.comp = compositor.New(out, cols, rows)
	a.comp.SetErrorSink(func(err error) {
		a.log.Error("", &apperrors.HostWriteError{Cause: err})
	})

	if cfg.SilenceMs > 0 {
		status.SilenceMs = cfg.SilenceMs
	}
	if cfg.PrefixTimeoutMs > 0 {
		input.PrefixTimeoutMs = cfg.PrefixTimeoutMs
	}

	a.status = status.New(func(sessionID string, s status.Status) {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.comp.MarkChromeDirty()
		a.renderLocked()
	})

	a.sess = sessionmgr.New(st, coMgr, a.status, cfg, log, sessionmgr.Callbacks{
		OnRawPTYData: a.handleRawPTYData,
		OnPTYData:    a.handlePTYData,
	})

	a.router = input.New(st, input.Callbacks{
		Dispatch:                st.Dispatch,
		WriteActive:              a.writeActive,
		OnModalCreatingSession:   a.handleCreatingSessionInput,
		OnModalConfirmingClose:   a.handleConfirmingCloseInput,
		OnQuit:                   a.Shutdown,
		OnSubmit:                 a.handleSubmit,
	})

	st.Subscribe(func(s store.AppState) {
		a.status.Sync(sessionIDs(s.Sessions))
		a.mu.Lock()
		defer a.mu.Unlock()
		a.renderLocked()
	})

	return a, nil
}

func sessionIDs(sessions []store.Session) []string {
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return ids
}

// Run starts the app: raw mode, compositor init, session restore, signal
// handling, and the blocking stdin read loop. It returns when the app
// has shut down.
func (a *App) Run() error {
	raw, err := input.EnableRawMode(a.stdin)
	if err != nil {
		return fmt.Errorf("enable raw mode: %w", err)
	}
	a.rawMode = raw

	a.comp.Initialize()

	if err := a.sess.CleanupOrphans(); err != nil {
		a.log.Error("", err)
	}
	if err := a.sess.RestoreExistingSessions(a.cols, a.comp.InnerRows()); err != nil {
		a.log.Error("", err)
	}

	a.signalCh = make(chan os.Signal, 1)
	signal.Notify(a.signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		<-a.signalCh
		a.Shutdown()
	}()

	buf := make([]byte, 4096)
	for {
		n, err := a.stdin.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			a.router.HandleChunk(chunk)
		}
		if err != nil {
			break
		}
	}
	return nil
}

// Resize recomputes geometry, resizes all sessions, and re-renders.
func (a *App) Resize(cols, rows int) {
	a.mu.Lock()
	a.cols = cols
	a.rows = rows
	a.comp.Resize(cols, rows)
	innerRows := a.comp.InnerRows()
	a.mu.Unlock()

	a.sess.ResizeAll(cols, innerRows)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.renderLocked()
}

// Shutdown is idempotent: kill PTYs, dispose emulators, restore the
// terminal, exit. Checkouts are intentionally left on disk.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		a.sess.ShutdownAll()
		a.router.Stop()
		a.comp.Cleanup()
		if a.rawMode != nil {
			a.rawMode.Restore()
		}
		a.log.Close()
		os.Exit(0)
	})
}

// writeActive writes b to the active session's PTY, returning false if
// there is no active session or it has exited.
func (a *App) writeActive(b []byte) bool {
	sess, ok := a.store.State().Active()
	if !ok || sess.Exited() {
		return false
	}
	return a.sess.Write(sess.ID, b)
}

func (a *App) handleSubmit() {
	sess, ok := a.store.State().Active()
	if !ok {
		return
	}
	a.status.OnSubmit(sess.ID)
}

// handleRawPTYData is sessionmgr's hot-path callback: only the active
// session's bytes reach the host terminal live; backgrounded sessions
// accumulate in their own emulator until switched to.
func (a *App) handleRawPTYData(sessionID string, chunk []byte) {
	st := a.store.State()
	if st.ActiveSessionID != sessionID {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.comp.WritePassthrough(chunk, a.tabsLocked(st), a.statusSnapshot())
}

// handlePTYData is sessionmgr's settled-batch / exit callback; it marks
// chrome dirty so exit/status changes are reflected promptly.
func (a *App) handlePTYData(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.comp.MarkChromeDirty()
	a.renderLocked()
}

func (a *App) statusSnapshot() map[string]status.Status {
	st := a.store.State()
	snap := make(map[string]status.Status, len(st.Sessions))
	for _, s := range st.Sessions {
		snap[s.ID] = a.status.Get(s.ID)
	}
	return snap
}

func (a *App) tabsLocked(st store.AppState) []compositor.TabInfo {
	tabs := make([]compositor.TabInfo, len(st.Sessions))
	for i, s := range st.Sessions {
		code := 0
		if s.ExitCode != nil {
			code = *s.ExitCode
		}
		tabs[i] = compositor.TabInfo{
			SessionID: s.ID,
			Branch:    s.Branch,
			Active:    s.ID == st.ActiveSessionID,
			Exited:    s.Exited(),
			ExitCode:  code,
		}
	}
	return tabs
}

// renderLocked implements 5-step render policy. Callers must
// hold a.mu.
func (a *App) renderLocked() {
	st := a.store.State()
	tabs := a.tabsLocked(st)
	statuses := a.statusSnapshot()
	a.comp.SetChromeState(compositor.ModeTag(st.Mode.String()), st.ScrollOffset)

	switch {
	case st.Mode == store.ModeCreatingSession:
		a.comp.EnterModal([]string{"New session — enter branch name:", "> " + string(a.creatingInput)})
	case st.Mode == store.ModeConfirmingClose:
		a.comp.EnterModal([]string{"Close this session? [y/N]"})
	case a.lastMode != store.ModeNormal && st.Mode == store.ModeNormal:
		a.comp.ExitModal(a.activeEmulator(st), st.ScrollOffset)
		a.comp.WritePassthrough(nil, tabs, statuses)
	case st.ActiveSessionID != a.lastRenderedID:
		a.comp.SwitchSession(a.activeEmulator(st), st.ScrollOffset, tabs, statuses)
	default:
		a.comp.WritePassthrough(nil, tabs, statuses)
	}

	a.lastMode = st.Mode
	a.lastRenderedID = st.ActiveSessionID
}

func (a *App) activeEmulator(st store.AppState) *emulator.Emulator {
	sess, ok := st.Active()
	if !ok {
		return nil
	}
	return a.sess.Emulator(sess.ID)
}

// handleCreatingSessionInput implements the CreatingSession modal: ESC
// (any chunk starting with 0x1B)
// cancels; Enter submits the accumulated branch name; Backspace edits;
// printable bytes accumulate.
func (a *App) handleCreatingSessionInput(chunk []byte) {
	if len(chunk) > 0 && chunk[0] == 0x1B {
		a.creatingInput = nil
		a.store.Dispatch(store.SetMode{Mode: store.ModeNormal})
		return
	}
	for _, b := range chunk {
		switch b {
		case '\r', '\n':
			branch := string(a.creatingInput)
			a.creatingInput = nil
			if branch == "" {
				a.store.Dispatch(store.SetMode{Mode: store.ModeNormal})
				return
			}
			a.mu.Lock()
			cols, rows := a.cols, a.comp.InnerRows()
			a.mu.Unlock()
			if _, err := a.sess.CreateSession(branch, cols, rows, nil); err != nil {
				a.log.Error("", err)
				a.store.Dispatch(store.SetMode{Mode: store.ModeNormal})
			}
			return
		case 0x7F, 0x08:
			if len(a.creatingInput) > 0 {
				_, size := utf8.DecodeLastRune(a.creatingInput)
				a.creatingInput = a.creatingInput[:len(a.creatingInput)-size]
			}
		default:
			if b >= 0x20 {
				a.creatingInput = append(a.creatingInput, b)
			}
		}
	}
	a.mu.Lock()
	a.comp.MarkChromeDirty()
	a.renderLocked()
	a.mu.Unlock()
}

// handleConfirmingCloseInput implements the ConfirmingClose modal: 'y'/'Y'
// closes the active session; anything else (including ESC, per the
// bundled-ESC caveat) cancels back to Normal.
func (a *App) handleConfirmingCloseInput(chunk []byte) {
	defer a.store.Dispatch(store.SetMode{Mode: store.ModeNormal})

	if len(chunk) == 0 || chunk[0] == 0x1B {
		return
	}
	if chunk[0] != 'y' && chunk[0] != 'Y' {
		return
	}
	sess, ok := a.store.State().Active()
	if !ok {
		return
	}
	if err := a.sess.CloseSession(sess.ID); err != nil {
		a.log.Error(sess.ID, err)
	}
}
