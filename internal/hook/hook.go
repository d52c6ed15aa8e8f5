// Package hook implements the hook runner (spec §4.6 "Hooks (C7)",
// §6 "Hook invocation argv"): external executables spawned with an
// event-derived argv, fired after rule filtering under the
// pseudo-plugin-id "" (empty). Adapted from the teacher's external
// task invocation in bot/runtasks.go's callTask (exec.Cmd,
// stdout/stderr pipes, exit-status logging never failing the
// pipeline), generalized to irccd's IRC event set and a configurable
// SIGTERM->SIGKILL deadline (spec §5 "Cancellation and timeouts").
package hook

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"regexp"
	"sync"
	"syscall"
	"time"

	"github.com/nullbyte-dev/irccd/internal/errcat"
	"github.com/nullbyte-dev/irccd/internal/ircnet"
	"go.uber.org/zap"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,16}$`)

// DefaultDeadline is the hook child-process kill deadline (spec §5:
// "killed after a configurable deadline (default 30 s) with SIGTERM
// then SIGKILL after 5 s").
const (
	DefaultDeadline = 30 * time.Second
	killGrace       = 5 * time.Second
)

// Hook is one registered external command. TimeoutMs overrides the
// Manager's DefaultDeadline for this hook alone (spec §4 "the [hook]
// table gets an optional timeout_ms, default from spec §5 (30s)");
// zero means "use the Manager default".
type Hook struct {
	ID        string
	Path      string
	TimeoutMs int64
}

func (h Hook) deadline(fallback time.Duration) time.Duration {
	if h.TimeoutMs <= 0 {
		return fallback
	}
	return time.Duration(h.TimeoutMs) * time.Millisecond
}

// Manager owns the ordered hook registry and fires hooks concurrently
// with plugin dispatch (spec §4.6 "Fired in parallel with plugin
// dispatch").
type Manager struct {
	mu       sync.RWMutex
	order    []string
	byID     map[string]Hook
	log      *zap.Logger
	deadline time.Duration
	history  *History
}

// NewManager builds an empty Manager.
func NewManager(log *zap.Logger) *Manager {
	return &Manager{byID: make(map[string]Hook), log: log, deadline: DefaultDeadline, history: NewHistory()}
}

// History returns the run-history store so control commands can
// surface recent hook invocations.
func (m *Manager) History() *History { return m.history }

func errInvalidID(id string) error {
	return errcat.New(errcat.Hook, errcat.HookInvalidIdentifier, "invalid hook identifier %q", id)
}

// Add registers id -> path (spec §6 "hook-add"), with an optional
// per-hook kill deadline in milliseconds; timeoutMs <= 0 means "use
// the manager-wide default".
func (m *Manager) Add(id, path string, timeoutMs int64) error {
	if !identifierRe.MatchString(id) {
		return errInvalidID(id)
	}
	if path == "" {
		return errcat.New(errcat.Hook, errcat.HookInvalidPath, "empty hook path for %q", id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[id]; exists {
		return errcat.New(errcat.Hook, errcat.HookAlreadyExists, "hook %q already exists", id)
	}
	m.byID[id] = Hook{ID: id, Path: path, TimeoutMs: timeoutMs}
	m.order = append(m.order, id)
	return nil
}

// Remove deregisters id (spec §6 "hook-remove").
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return errcat.New(errcat.Hook, errcat.HookNotFound, "hook %q not found", id)
	}
	delete(m.byID, id)
	for i, hid := range m.order {
		if hid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns registered hook ids in registration order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Argv derives the hook's argv for ev per the table in spec §6.
func Argv(ev ircnet.Event) (name string, args []string) {
	switch ev.Kind {
	case ircnet.KindConnect:
		return "onConnect", []string{ev.Server}
	case ircnet.KindDisconnect:
		return "onDisconnect", []string{ev.Server}
	case ircnet.KindInvite:
		return "onInvite", []string{ev.Server, ev.Origin, ev.Channel, ev.Target}
	case ircnet.KindJoin:
		return "onJoin", []string{ev.Server, ev.Origin, ev.Channel}
	case ircnet.KindKick:
		return "onKick", []string{ev.Server, ev.Origin, ev.Channel, ev.Target, ev.Reason}
	case ircnet.KindMessage:
		return "onMessage", []string{ev.Server, ev.Origin, ev.Channel, ev.Message}
	case ircnet.KindMe:
		return "onMe", []string{ev.Server, ev.Origin, ev.Channel, ev.Message}
	case ircnet.KindMode:
		modeArg := string(ev.Mode)
		if ev.ModeAdd {
			modeArg = "+" + modeArg
		} else {
			modeArg = "-" + modeArg
		}
		return "onMode", []string{ev.Server, ev.Origin, ev.Channel, modeArg, "", ev.ModeArg, ""}
	case ircnet.KindNick:
		return "onNick", []string{ev.Server, ev.Origin, ev.NewNick}
	case ircnet.KindNotice:
		return "onNotice", []string{ev.Server, ev.Origin, ev.Channel, ev.Message}
	case ircnet.KindPart:
		return "onPart", []string{ev.Server, ev.Origin, ev.Channel, ev.Reason}
	case ircnet.KindTopic:
		return "onTopic", []string{ev.Server, ev.Origin, ev.Channel, ev.Topic}
	default:
		return "", nil
	}
}

// FireAll spawns every registered hook for ev, each on its own
// goroutine, none of which can fail the pipeline (spec §4.6: "exit
// status is logged but never fails the pipeline").
func (m *Manager) FireAll(ev ircnet.Event) {
	name, args := Argv(ev)
	if name == "" {
		return
	}
	for _, h := range m.snapshot() {
		go m.fire(h, name, args)
	}
}

func (m *Manager) snapshot() []Hook {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Hook, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.byID[id])
	}
	return out
}

func (m *Manager) fire(h Hook, eventName string, args []string) {
	started := time.Now()
	deadline := h.deadline(m.deadline)
	ctx, cancel := context.WithTimeout(context.Background(), deadline+killGrace)
	defer cancel()

	cmd := exec.CommandContext(ctx, h.Path, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		m.logf("hook %s: stdout pipe: %v", h.ID, err)
		m.history.Record(h.ID, Run{StartedAt: started, Event: eventName, Args: args, ExitErr: err.Error()})
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		m.logf("hook %s: stderr pipe: %v", h.ID, err)
		m.history.Record(h.ID, Run{StartedAt: started, Event: eventName, Args: args, ExitErr: err.Error()})
		return
	}
	if err := cmd.Start(); err != nil {
		m.logf("hook %s: start: %v", h.ID, err)
		m.history.Record(h.ID, Run{StartedAt: started, Event: eventName, Args: args, ExitErr: err.Error()})
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go m.drain(h.ID, "out", stdout, &wg)
	go m.drain(h.ID, "err", stderr, &wg)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.AfterFunc(deadline, func() {
		if cmd.Process != nil {
			cmd.Process.Signal(syscall.SIGTERM)
		}
	})
	defer timer.Stop()

	err = <-done
	wg.Wait()
	exitErr := ""
	if err != nil {
		m.logf("hook %s exited with error: %v", h.ID, err)
		exitErr = err.Error()
	}
	m.history.Record(h.ID, Run{StartedAt: started, Duration: time.Since(started), Event: eventName, Args: args, ExitErr: exitErr})
}

func (m *Manager) drain(id, stream string, pipe io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	sc := bufio.NewScanner(pipe)
	for sc.Scan() {
		if m.log != nil {
			m.log.Debug("hook output", zap.String("hook", id), zap.String("stream", stream), zap.String("line", sc.Text()))
		}
	}
}

func (m *Manager) logf(format string, args ...interface{}) {
	if m.log != nil {
		m.log.Sugar().Warnf(format, args...)
	}
}
