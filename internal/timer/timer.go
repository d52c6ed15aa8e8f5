// Package timer implements the timer service (spec §4.7, C8):
// create(type, delay_ms, callback) -> handle, with start/stop/restart
// idempotent and timers bound to their owning plugin for cleanup on
// unload. Repeating timers are scheduled with robfig/cron/v3 exactly
// as the teacher's scheduled_tasks.go drives robfig/cron (v1 there,
// v3 here); one-shot timers use stdlib time.AfterFunc since cron has
// no native "run once" primitive and a bespoke one-shot scheduler
// would just reinvent time.AfterFunc (see SPEC_FULL §3).
package timer

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
)

// Kind distinguishes a repeating (cron-scheduled) timer from a
// single-shot one.
type Kind int

const (
	Repeating Kind = iota
	OneShot
)

// Handle is the opaque identity a caller uses to start/stop/restart a
// timer (spec §4.7 "create(...) -> handle").
type Handle struct {
	id int
}

type entry struct {
	kind     Kind
	owner    string // plugin id
	callback func()
	spec     string // cron spec, derived from delayMs for Repeating
	delayMs  int64  // repeat/delay interval in milliseconds, both kinds

	running bool
	cronID  cron.EntryID
	oneShot *oneShotTimer
}

// Service owns every timer across all plugins, running repeating
// timers on a shared cron scheduler and one-shot timers on individual
// time.AfterFunc timers. Callbacks run on the event loop thread (spec
// §4.7 "Callback runs on the event loop thread") via the Dispatch
// channel rather than directly from cron's own goroutine, matching
// spec §5's single-threaded-mutation discipline.
type Service struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries map[int]*entry
	nextID  int

	// Dispatch receives a zero-arg thunk for every fired timer; the
	// event loop must drain this channel and invoke the thunk inline.
	Dispatch chan func()
}

// NewService builds the service without starting the underlying cron
// scheduler (repeating timers only fire once Start is called).
func NewService() *Service {
	return &Service{
		cron:     cron.New(),
		entries:  make(map[int]*entry),
		Dispatch: make(chan func(), 256),
	}
}

// Start begins running scheduled repeating timers.
func (s *Service) Start() { s.cron.Start() }

// Stop halts the cron scheduler and every one-shot timer.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.oneShot != nil {
			e.oneShot.stop()
		}
	}
}

// CreateRepeating registers a timer owned by owner that fires every
// delayMs milliseconds once started, initially stopped (spec §4.7
// "start/stop/restart are idempotent" implies create doesn't itself
// start the timer). Unlike CreateOneShot this is driven by the shared
// robfig/cron scheduler rather than a standalone timer, so delayMs is
// translated once, at creation time, into cron's "@every <dur>"
// schedule syntax (robfig/cron/v3 accepts a Go duration string there,
// same as the teacher's scheduled_tasks.go feeds it a duration-based
// spec) — this keeps the single create(type, delay_ms, callback)
// surface spec §4.7 requires instead of exposing cron syntax to
// callers.
func (s *Service) CreateRepeating(owner string, delayMs int64, callback func()) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	spec := fmt.Sprintf("@every %dms", delayMs)
	s.entries[id] = &entry{kind: Repeating, owner: owner, callback: callback, spec: spec, delayMs: delayMs}
	return Handle{id: id}, nil
}

// CreateOneShot registers a single-shot timer owned by owner, firing
// delayMs milliseconds after StartTimer is called for it.
func (s *Service) CreateOneShot(owner string, delayMs int64, callback func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.entries[id] = &entry{kind: OneShot, owner: owner, callback: callback, delayMs: delayMs}
	return Handle{id: id}
}

func (s *Service) post(callback func()) {
	s.Dispatch <- callback
}

// StartTimer begins (or idempotently no-ops for) the timer identified by h.
func (s *Service) StartTimer(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[h.id]
	if !ok || e.running {
		return
	}
	e.running = true
	switch e.kind {
	case Repeating:
		id, err := s.cron.AddFunc(e.spec, func() { s.post(e.callback) })
		if err == nil {
			e.cronID = id
		}
	case OneShot:
		e.oneShot = newOneShotTimer(e.delayMs, func() { s.post(e.callback) })
	}
}

// StopTimer halts the timer identified by h; idempotent if already stopped.
func (s *Service) StopTimer(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[h.id]
	if !ok || !e.running {
		return
	}
	e.running = false
	switch e.kind {
	case Repeating:
		s.cron.Remove(e.cronID)
	case OneShot:
		if e.oneShot != nil {
			e.oneShot.stop()
			e.oneShot = nil
		}
	}
}

// Restart stops then starts the timer identified by h.
func (s *Service) Restart(h Handle) {
	s.StopTimer(h)
	s.StartTimer(h)
}

// Destroy stops and removes the timer identified by h entirely.
func (s *Service) Destroy(h Handle) {
	s.StopTimer(h)
	s.mu.Lock()
	delete(s.entries, h.id)
	s.mu.Unlock()
}

// DestroyOwned stops and removes every timer owned by owner, called
// when a plugin unloads (spec §4.7 "on plugin unload every owned
// timer is stopped and destroyed").
func (s *Service) DestroyOwned(owner string) {
	s.mu.Lock()
	var ids []int
	for id, e := range s.entries {
		if e.owner == owner {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.Destroy(Handle{id: id})
	}
}
