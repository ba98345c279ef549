package service

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"auratrade/internal/domain"
	"auratrade/internal/session"

	"go.opentelemetry.io/otel/trace"
)

type manualTask struct {
	at        time.Duration
	seq       int
	fn        func()
	cancelled bool
}

// manualScheduler fires callbacks only when the test advances its clock.
type manualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*manualTask
}

func (m *manualScheduler) After(d time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	task := &manualTask{at: m.now + d, seq: m.seq, fn: fn}
	m.seq++
	m.tasks = append(m.tasks, task)
	return func() {
		m.mu.Lock()
		task.cancelled = true
		m.mu.Unlock()
	}
}

func (m *manualScheduler) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, task := range m.tasks {
		task.cancelled = true
	}
	m.tasks = nil
}

// Advance moves the clock forward by d, running due callbacks in order.
// Callbacks scheduled while advancing run too if they fall due.
func (m *manualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		sort.SliceStable(m.tasks, func(i, j int) bool {
			if m.tasks[i].at != m.tasks[j].at {
				return m.tasks[i].at < m.tasks[j].at
			}
			return m.tasks[i].seq < m.tasks[j].seq
		})
		if len(m.tasks) == 0 || m.tasks[0].at > target {
			m.now = target
			m.mu.Unlock()
			return
		}
		task := m.tasks[0]
		m.tasks = m.tasks[1:]
		m.now = task.at
		cancelled := task.cancelled
		m.mu.Unlock()

		if !cancelled {
			task.fn()
		}
	}
}

func (m *manualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, task := range m.tasks {
		if !task.cancelled {
			n++
		}
	}
	return n
}

type fixture struct {
	store  *session.Store
	sched  *manualScheduler
	gate   *ConfirmationGate
	ledger *LedgerService
	clock  *time.Time
}

var testEpoch = time.Unix(1700000000, 0)

func newFixture(t *testing.T, mutate func(*domain.Seed)) *fixture {
	t.Helper()
	seed := domain.DefaultSeed(testEpoch)
	if mutate != nil {
		mutate(&seed)
	}

	clock := testEpoch
	var mu sync.Mutex
	n := 0
	store := session.NewStore(seed,
		session.WithClock(func() time.Time { return clock }),
		session.WithIDs(func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	store.SetAuthenticated(true)

	sched := &manualScheduler{}
	gate := NewConfirmationGate(store)
	ledger := NewLedgerService(trace.NewNoopTracerProvider().Tracer("test"), store, sched, gate, DefaultLedgerConfig())
	hashes := 0
	ledger.newHash = func() string {
		hashes++
		return fmt.Sprintf("0xhash%04d", hashes)
	}
	return &fixture{store: store, sched: sched, gate: gate, ledger: ledger, clock: &clock}
}

func (f *fixture) state() session.State { return f.store.Snapshot() }
