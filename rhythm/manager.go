package rhythm

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/robmorgan/timeline/logger"
)

// ChangeFunc is called with the newly published map after every commit or publish.
type ChangeFunc func(*TempoMap)

type subscription struct {
	id int
	fn ChangeFunc
}

// Manager holds the session's current tempo map. Readers load it with a
// single atomic operation and never block; editors take a WorkingCopy and
// commit it, which swaps the pointer. A reader that already holds a map
// keeps using it until it calls Current again.
//
// Edits assume a single writer. A commit from a copy taken before another
// commit is rejected rather than merged.
type Manager struct {
	current atomic.Pointer[TempoMap]
	log     *logrus.Logger

	lock        sync.Mutex
	subscribers []subscription
	nextID      int
}

// NewManager starts a session with initial as the published map.
func NewManager(initial *TempoMap, log *logrus.Logger) *Manager {
	if log == nil {
		log = logger.GetProjectLogger()
	}
	m := &Manager{log: log}
	m.current.Store(initial)
	return m
}

// Current returns the published map.
func (m *Manager) Current() *TempoMap {
	return m.current.Load()
}

// Publish replaces the current map outright, as when a session is loaded.
func (m *Manager) Publish(tm *TempoMap) *TempoMap {
	next := tm.withGeneration(m.Current().generation + 1)
	m.current.Store(next)

	m.log.WithFields(logrus.Fields{
		"generation": next.generation,
		"tempos":     len(next.tempos),
		"meters":     len(next.meters),
	}).Info("Tempo map published")

	m.notify(next)
	return next
}

// WriteCopy starts an edit against the current map.
func (m *Manager) WriteCopy() *WorkingCopy {
	base := m.Current()
	return &WorkingCopy{
		manager: m,
		base:    base,
		tm:      base,
		state:   stateWritable,
		log:     m.log,
	}
}

// Commit makes the working copy the current map.
func (m *Manager) Commit(wc *WorkingCopy) error {
	if wc.state != stateWritable {
		return ErrNotWritable
	}

	next := wc.tm.withGeneration(wc.base.generation + 1)
	if !m.current.CompareAndSwap(wc.base, next) {
		m.log.WithFields(logrus.Fields{
			"base_generation":    wc.base.generation,
			"current_generation": m.Current().generation,
		}).Warn("Rejected commit of a stale tempo map working copy")
		return ErrStaleWorkingCopy
	}

	wc.tm = next
	wc.state = stateCommitted

	m.log.WithFields(logrus.Fields{
		"generation": next.generation,
		"tempos":     len(next.tempos),
		"meters":     len(next.meters),
	}).Info("Tempo map committed")

	m.notify(next)
	return nil
}

// Abort discards the working copy. Readers are unaffected.
func (m *Manager) Abort(wc *WorkingCopy) {
	if wc.state != stateWritable {
		return
	}
	wc.state = stateAborted
	m.log.WithField("base_generation", wc.base.generation).Debug("Tempo map edit aborted")
}

// Subscribe registers fn for change notifications and returns a function that cancels it.
func (m *Manager) Subscribe(fn ChangeFunc) func() {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.nextID++
	id := m.nextID
	m.subscribers = append(m.subscribers, subscription{id: id, fn: fn})

	return func() {
		m.lock.Lock()
		defer m.lock.Unlock()
		for i, s := range m.subscribers {
			if s.id == id {
				m.subscribers = append(m.subscribers[:i:i], m.subscribers[i+1:]...)
				return
			}
		}
	}
}

// notify calls subscribers in registration order, outside the lock so a
// callback may itself subscribe or start an edit.
func (m *Manager) notify(tm *TempoMap) {
	m.lock.Lock()
	subs := append([]subscription(nil), m.subscribers...)
	m.lock.Unlock()

	for _, s := range subs {
		s.fn(tm)
	}
}
