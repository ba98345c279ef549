package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"auratrade/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	n := 0
	var mu sync.Mutex
	return NewStore(domain.DefaultSeed(time.Unix(1700000000, 0)),
		WithClock(func() time.Time { return time.Unix(1700000000, 0) }),
		WithIDs(func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}

func TestNewStoreComputesPortfolio(t *testing.T) {
	s := newTestStore(t)
	st := s.Snapshot()
	assert.False(t, st.Authenticated)
	assert.Equal(t, 1, st.Portfolio.ActiveBots)
	assert.InDelta(t, 74.2, st.Portfolio.AvgWinRate, 1e-9)
}

func TestMutateRequiresAuthentication(t *testing.T) {
	s := newTestStore(t)
	called := false
	_, err := s.Mutate(func(tx *Tx) { called = true })
	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.False(t, called)

	gen := s.SetAuthenticated(true)
	got, err := s.Mutate(func(tx *Tx) { called = true })
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, gen, got)
}

func TestLogoutInvalidatesGeneration(t *testing.T) {
	s := newTestStore(t)
	gen := s.SetAuthenticated(true)
	require.True(t, s.Live(gen))

	s.SetAuthenticated(false)
	assert.False(t, s.Live(gen))
	assert.False(t, s.MutateIf(gen, func(tx *Tx) { t.Fatal("must not run after logout") }))

	next := s.SetAuthenticated(true)
	assert.NotEqual(t, gen, next)
	assert.False(t, s.MutateIf(gen, func(tx *Tx) { t.Fatal("stale generation must not run") }))
	assert.True(t, s.MutateIf(next, func(tx *Tx) {}))
}

func TestNotificationsBounded(t *testing.T) {
	s := newTestStore(t)
	s.Update(func(tx *Tx) {
		for i := 0; i < 12; i++ {
			tx.Notify(fmt.Sprintf("n%d", i), "msg", domain.NotifyInfo)
		}
	})
	st := s.Snapshot()
	require.Len(t, st.Notifications, MaxNotifications)
	assert.Equal(t, "n11", st.Notifications[0].Title, "newest first")
}

func TestAuditBounded(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 50; i++ {
		s.Update(func(tx *Tx) { tx.Audit("event", domain.SeverityLow) })
		require.LessOrEqual(t, len(s.Snapshot().Audit), MaxAuditEntries)
	}
	assert.Len(t, s.Snapshot().Audit, MaxAuditEntries)
}

func TestDismissNotification(t *testing.T) {
	s := newTestStore(t)
	var id string
	s.Update(func(tx *Tx) { id = tx.Notify("a", "b", domain.NotifySuccess).ID })
	var removed bool
	s.Update(func(tx *Tx) { removed = tx.Dismiss(id) })
	assert.True(t, removed)
	assert.Empty(t, s.Snapshot().Notifications)
}

func TestAdvanceTransactionForwardOnly(t *testing.T) {
	s := newTestStore(t)
	var row domain.Transaction
	s.Update(func(tx *Tx) { row = tx.AppendTransaction(domain.TxWithdraw, 10, domain.TxPending) })

	var ok bool
	s.Update(func(tx *Tx) { ok = tx.AdvanceTransaction(row.ID, domain.TxProcessing, "ignored") })
	require.True(t, ok)
	s.Update(func(tx *Tx) { ok = tx.AdvanceTransaction(row.ID, domain.TxPending, "") })
	assert.False(t, ok)
	s.Update(func(tx *Tx) { ok = tx.AdvanceTransaction(row.ID, domain.TxCompleted, "0xabc") })
	require.True(t, ok)
	s.Update(func(tx *Tx) { ok = tx.AdvanceTransaction("missing", domain.TxCompleted, "") })
	assert.False(t, ok)

	got, i := s.Snapshot().FindTransaction(row.ID)
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, domain.TxCompleted, got.Status)
	assert.Equal(t, "0xabc", got.TxHash)
}

func TestSnapshotIsIsolated(t *testing.T) {
	s := newTestStore(t)
	snap := s.Snapshot()
	snap.Bots[0].PNL = -1
	snap.Transactions = append(snap.Transactions, domain.Transaction{ID: "x"})

	fresh := s.Snapshot()
	assert.NotEqual(t, -1.0, fresh.Bots[0].PNL)
	assert.Len(t, fresh.Transactions, 2)
}

func TestObserversReceiveEvents(t *testing.T) {
	s := newTestStore(t)
	var mu sync.Mutex
	var kinds []EventKind
	unsubscribe := s.Subscribe(ObserverFunc(func(ev Event) {
		mu.Lock()
		kinds = append(kinds, ev.Kind)
		mu.Unlock()
	}))

	s.Update(func(tx *Tx) {
		tx.Notify("t", "m", domain.NotifyInfo)
		tx.Audit("a", domain.SeverityHigh)
	})
	unsubscribe()
	unsubscribe()
	s.Update(func(tx *Tx) {})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []EventKind{EventStateChanged, EventNotification, EventAudit}, kinds)
}

func TestPushBoundedDoesNotAlias(t *testing.T) {
	base := []int{1, 2, 3}
	out := PushBounded(base, 0, 3)
	assert.Equal(t, []int{0, 1, 2}, out)
	assert.Equal(t, []int{1, 2, 3}, base)
	assert.Equal(t, []int{9, 1, 2, 3}, Prepend(base, 9))
}
