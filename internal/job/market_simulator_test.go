package job

import (
	"context"
	"sync"
	"testing"
	"time"

	"auratrade/internal/domain"
	"auratrade/internal/session"

	"go.opentelemetry.io/otel/trace"
)

// fixedRand always returns the same draw.
type fixedRand float64

func (r fixedRand) Float64() float64 { return float64(r) }

func newTestSimulator(t *testing.T, intervals SimulatorIntervals, rng fixedRand) (*MarketSimulator, *session.Store) {
	t.Helper()
	store := session.NewStore(domain.DefaultSeed(time.Unix(1700000000, 0)))
	store.SetAuthenticated(true)
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	return NewMarketSimulator(tracer, store, intervals, rng), store
}

func TestNewMarketSimulatorDefaults(t *testing.T) {
	m, _ := newTestSimulator(t, SimulatorIntervals{}, 0.5)
	if m.intervals != DefaultSimulatorIntervals() {
		t.Fatalf("expected default intervals, got %+v", m.intervals)
	}
}

func TestTickBotsBooksFees(t *testing.T) {
	m, store := newTestSimulator(t, SimulatorIntervals{}, 1.0)
	before := store.Snapshot()

	if !m.TickBots(context.Background(), store.Generation()) {
		t.Fatal("expected tick to commit")
	}

	after := store.Snapshot()
	if len(after.Transactions) != len(before.Transactions)+1 {
		t.Fatalf("expected one fee row, got %d rows", len(after.Transactions))
	}
	fee := after.Transactions[0]
	if fee.Type != domain.TxFeeDeduction || fee.Status != domain.TxCompleted {
		t.Fatalf("unexpected fee row: %+v", fee)
	}
	// delta = (1-0.48)*1.5 = 0.78, fee = 0.039
	if diff := fee.Amount - 0.039; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected fee 0.039, got %v", fee.Amount)
	}
	if after.Bots[0].PNL <= before.Bots[0].PNL {
		t.Fatalf("expected pnl to grow, got %v -> %v", before.Bots[0].PNL, after.Bots[0].PNL)
	}
	if after.Bots[0].TotalTrades != before.Bots[0].TotalTrades+1 {
		t.Fatalf("expected a trade to be recorded")
	}
}

func TestTicksSkipStaleGeneration(t *testing.T) {
	m, store := newTestSimulator(t, SimulatorIntervals{}, 1.0)
	gen := store.Generation()
	store.SetAuthenticated(false)
	store.SetAuthenticated(true)
	before := store.Snapshot()

	ctx := context.Background()
	if m.TickBots(ctx, gen) || m.TickRadar(ctx, gen) || m.TickSignals(ctx, gen) {
		t.Fatal("stale ticks must not commit")
	}

	after := store.Snapshot()
	if len(after.Transactions) != len(before.Transactions) || after.Bots[0].PNL != before.Bots[0].PNL {
		t.Fatal("state changed by stale tick")
	}
}

func TestTickSignalsClosesFirstOpen(t *testing.T) {
	m, store := newTestSimulator(t, SimulatorIntervals{}, 0.9)
	before := store.Snapshot()

	m.TickSignals(context.Background(), store.Generation())

	after := store.Snapshot()
	closed := 0
	for i := range after.Daily {
		if before.Daily[i].Status == domain.SignalOpen && after.Daily[i].Status == domain.SignalClosed {
			closed++
			if after.Daily[i].PNL == nil {
				t.Fatal("closed signal must carry pnl")
			}
		}
	}
	if closed != 1 {
		t.Fatalf("expected exactly one signal to close, got %d", closed)
	}
}

func TestStartStopIsIdempotent(t *testing.T) {
	intervals := SimulatorIntervals{Bots: 2 * time.Millisecond, Radar: 2 * time.Millisecond, Signals: 2 * time.Millisecond}
	m, store := newTestSimulator(t, intervals, 0.9)

	m.Start()
	m.Start()
	if !m.Running() {
		t.Fatal("expected simulator to run")
	}
	waitFor(t, func() bool {
		return len(store.Snapshot().Transactions) > 2
	})

	m.Stop()
	m.Stop()
	if m.Running() {
		t.Fatal("expected simulator to stop")
	}

	frozen := store.Snapshot()
	time.Sleep(20 * time.Millisecond)
	if len(store.Snapshot().Transactions) != len(frozen.Transactions) {
		t.Fatal("state mutated after Stop returned")
	}
}

func TestSetAuthenticatedConcurrent(t *testing.T) {
	intervals := SimulatorIntervals{Bots: time.Millisecond, Radar: time.Millisecond, Signals: time.Millisecond}
	m, _ := newTestSimulator(t, intervals, 0.5)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.SetAuthenticated(i%2 == 0)
		}(i)
	}
	wg.Wait()

	m.Stop()
	if m.Running() {
		t.Fatal("expected simulator to stop")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}
