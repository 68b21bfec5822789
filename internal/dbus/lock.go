package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/notchd/internal/model"
)

const (
	login1Dest       = "org.freedesktop.login1"
	login1Path       = "/org/freedesktop/login1"
	login1Manager    = "org.freedesktop.login1.Manager"
	login1Session    = "org.freedesktop.login1.Session"
	screenSaverIface = "org.freedesktop.ScreenSaver"
)

// Lock sources reported in model.LockEvent.Source.
const (
	LockSourceLogind      = "logind"
	LockSourceScreenSaver = "screensaver"
)

// LockWatcher reports session lock changes from logind (system bus) and the
// screensaver ActiveChanged signal (session bus). Either source may be
// missing; the watcher runs as long as one of them is available. Consecutive
// duplicate states are dropped.
type LockWatcher struct {
	logger *slog.Logger

	mu   sync.Mutex
	last model.LockState
	seen bool
}

// NewLockWatcher creates a watcher.
func NewLockWatcher(logger *slog.Logger) *LockWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LockWatcher{logger: logger}
}

// Watch subscribes to both sources and returns a channel of lock events. The
// channel is closed when ctx is done.
func (w *LockWatcher) Watch(ctx context.Context) (<-chan model.LockEvent, error) {
	signals := make(chan *dbus.Signal, 16)
	var conns []*dbus.Conn

	if conn, err := w.subscribeLogind(); err != nil {
		w.logger.Warn("logind lock signals unavailable", "error", err)
	} else {
		conn.Signal(signals)
		conns = append(conns, conn)
	}
	if conn, err := w.subscribeScreenSaver(); err != nil {
		w.logger.Warn("screensaver lock signals unavailable", "error", err)
	} else {
		conn.Signal(signals)
		conns = append(conns, conn)
	}
	if len(conns) == 0 {
		return nil, fmt.Errorf("no lock state source available")
	}

	out := make(chan model.LockEvent, 4)
	go func() {
		defer close(out)
		defer func() {
			for _, c := range conns {
				c.RemoveSignal(signals)
				_ = c.Close()
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				ev, ok := lockEventFromSignal(sig)
				if !ok || !w.accept(ev.State) {
					continue
				}
				w.logger.Debug("lock state changed", "state", ev.State, "source", ev.Source)
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// accept records state and reports whether it differs from the previous one.
func (w *LockWatcher) accept(state model.LockState) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen && w.last == state {
		return false
	}
	w.seen = true
	w.last = state
	return true
}

func (w *LockWatcher) subscribeLogind() (*dbus.Conn, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	path, err := sessionPath(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchInterface(login1Session),
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to add logind match: %w", err)
	}
	w.logger.Debug("watching logind session", "path", path)
	return conn, nil
}

// sessionPath resolves the logind session object for this process.
func sessionPath(conn *dbus.Conn) (dbus.ObjectPath, error) {
	mgr := conn.Object(login1Dest, login1Path)

	var path dbus.ObjectPath
	if id := os.Getenv("XDG_SESSION_ID"); id != "" {
		if err := mgr.Call(login1Manager+".GetSession", 0, id).Store(&path); err == nil {
			return path, nil
		}
	}
	if err := mgr.Call(login1Manager+".GetSessionByPID", 0, uint32(os.Getpid())).Store(&path); err != nil {
		return "", fmt.Errorf("failed to resolve logind session: %w", err)
	}
	return path, nil
}

func (w *LockWatcher) subscribeScreenSaver() (*dbus.Conn, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(screenSaverIface),
		dbus.WithMatchMember("ActiveChanged"),
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to add screensaver match: %w", err)
	}
	return conn, nil
}

// lockEventFromSignal maps a bus signal to a lock event.
func lockEventFromSignal(sig *dbus.Signal) (model.LockEvent, bool) {
	if sig == nil {
		return model.LockEvent{}, false
	}
	switch sig.Name {
	case login1Session + ".Lock":
		return model.LockEvent{State: model.Locked, Source: LockSourceLogind}, true
	case login1Session + ".Unlock":
		return model.LockEvent{State: model.Unlocked, Source: LockSourceLogind}, true
	case screenSaverIface + ".ActiveChanged":
		if len(sig.Body) < 1 {
			return model.LockEvent{}, false
		}
		active, ok := sig.Body[0].(bool)
		if !ok {
			return model.LockEvent{}, false
		}
		state := model.Unlocked
		if active {
			state = model.Locked
		}
		return model.LockEvent{State: state, Source: LockSourceScreenSaver}, true
	}
	return model.LockEvent{}, false
}
