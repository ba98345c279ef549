// Package session owns the in-memory application state. All mutations go
// through a Store, which serialises them and notifies observers afterwards.
package session

import (
	"errors"
	"sync"
	"time"

	"auratrade/internal/domain"

	"github.com/google/uuid"
)

var ErrNotAuthenticated = errors.New("session not authenticated")

type EventKind string

const (
	EventStateChanged EventKind = "state_changed"
	EventNotification EventKind = "notification"
	EventAudit        EventKind = "audit"
)

type Event struct {
	Kind         EventKind
	Generation   uint64
	Notification *domain.Notification
	Audit        *domain.AuditEntry
}

// Observer receives events after a mutation has been committed. It is
// called synchronously and must not block or call back into Update.
type Observer interface {
	OnEvent(ev Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(ev Event) { f(ev) }

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDs(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

type Store struct {
	mu    sync.Mutex
	state State
	gen   uint64
	now   func() time.Time
	newID func() string

	obsMu     sync.RWMutex
	observers map[int]Observer
	nextObs   int
}

func NewStore(seed domain.Seed, opts ...Option) *Store {
	s := &Store{
		state:     newState(seed),
		gen:       1,
		now:       time.Now,
		newID:     uuid.NewString,
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers o and returns a function that removes it.
func (s *Store) Subscribe(o Observer) func() {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = o
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			delete(s.observers, id)
			s.obsMu.Unlock()
		})
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Generation identifies the current authenticated run. It changes on every
// logout, which invalidates continuations scheduled before it.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Live reports whether gen is still the current authenticated run.
func (s *Store) Live(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Authenticated && s.gen == gen
}

// SetAuthenticated flips the login gate and returns the generation the
// session now runs under. Logging out starts a new generation.
func (s *Store) SetAuthenticated(v bool) uint64 {
	var gen uint64
	s.Update(func(tx *Tx) {
		if tx.State.Authenticated && !v {
			tx.store.gen++
		}
		tx.State.Authenticated = v
		if !v {
			tx.State.Confirmation = nil
			tx.State.Syncing = false
		}
		gen = tx.store.gen
	})
	return gen
}

// Update applies fn unconditionally.
func (s *Store) Update(fn func(tx *Tx)) {
	s.commit(func(*Store) bool { return true }, fn)
}

// Mutate applies fn if the session is authenticated and returns the
// generation it ran under.
func (s *Store) Mutate(fn func(tx *Tx)) (uint64, error) {
	var gen uint64
	ok := s.commit(func(st *Store) bool {
		gen = st.gen
		return st.state.Authenticated
	}, fn)
	if !ok {
		return 0, ErrNotAuthenticated
	}
	return gen, nil
}

// MutateIf applies fn only while gen is still live.
func (s *Store) MutateIf(gen uint64, fn func(tx *Tx)) bool {
	return s.commit(func(st *Store) bool {
		return st.state.Authenticated && st.gen == gen
	}, fn)
}

func (s *Store) commit(guard func(*Store) bool, fn func(tx *Tx)) bool {
	s.mu.Lock()
	if !guard(s) {
		s.mu.Unlock()
		return false
	}
	tx := &Tx{State: &s.state, store: s}
	fn(tx)
	gen := s.gen
	events := tx.events
	s.mu.Unlock()

	s.publish(Event{Kind: EventStateChanged, Generation: gen})
	for _, ev := range events {
		ev.Generation = gen
		s.publish(ev)
	}
	return true
}

func (s *Store) publish(ev Event) {
	s.obsMu.RLock()
	obs := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		obs = append(obs, o)
	}
	s.obsMu.RUnlock()

	for _, o := range obs {
		o.OnEvent(ev)
	}
}
