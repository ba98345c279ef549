package job

import (
	"context"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"auratrade/internal/domain"
	"auratrade/internal/session"
	"auratrade/internal/sim"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type SimulatorIntervals struct {
	Bots    time.Duration
	Radar   time.Duration
	Signals time.Duration
}

func DefaultSimulatorIntervals() SimulatorIntervals {
	return SimulatorIntervals{
		Bots:    2 * time.Second,
		Radar:   3 * time.Second,
		Signals: 5 * time.Second,
	}
}

// MarketSimulator runs the bot, radar and daily-signal loops while the
// session is authenticated. Each tick commits only if the session it was
// started under is still live.
type MarketSimulator struct {
	tracer    trace.Tracer
	store     *session.Store
	intervals SimulatorIntervals

	// only used inside store transitions, which serialise access
	rng sim.Rand

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMarketSimulator(tracer trace.Tracer, store *session.Store, intervals SimulatorIntervals, rng sim.Rand) *MarketSimulator {
	def := DefaultSimulatorIntervals()
	if intervals.Bots <= 0 {
		intervals.Bots = def.Bots
	}
	if intervals.Radar <= 0 {
		intervals.Radar = def.Radar
	}
	if intervals.Signals <= 0 {
		intervals.Signals = def.Signals
	}
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>1))
	}
	return &MarketSimulator{
		tracer:    tracer,
		store:     store,
		intervals: intervals,
		rng:       rng,
	}
}

func (m *MarketSimulator) SetAuthenticated(authenticated bool) {
	if authenticated {
		m.Start()
		return
	}
	m.Stop()
}

// Start launches the three loops. Calling it while running is a no-op.
func (m *MarketSimulator) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	gen := m.store.Generation()
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	log.Println("Market simulator starting...")
	m.wg.Add(3)
	go m.pollLoop(ctx, "bots", m.intervals.Bots, func(ctx context.Context) bool {
		return m.TickBots(ctx, gen)
	})
	go m.pollLoop(ctx, "radar", m.intervals.Radar, func(ctx context.Context) bool {
		return m.TickRadar(ctx, gen)
	})
	go m.pollLoop(ctx, "signals", m.intervals.Signals, func(ctx context.Context) bool {
		return m.TickSignals(ctx, gen)
	})
}

// Stop cancels the loops and waits for them to exit. No tick commits after
// Stop returns.
func (m *MarketSimulator) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	m.cancel = nil
	log.Println("Market simulator stopped")
}

func (m *MarketSimulator) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

func (m *MarketSimulator) pollLoop(ctx context.Context, name string, interval time.Duration, tick func(context.Context) bool) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			if !tick(ctx) {
				log.Printf("simulator %s: session ended, loop exiting", name)
				return
			}
		}
	}
}

// TickBots advances running bots one step and books their performance fees.
// It reports false once gen is no longer the live session.
func (m *MarketSimulator) TickBots(ctx context.Context, gen uint64) bool {
	_, span := m.tracer.Start(ctx, "market-simulator.tick-bots")
	defer span.End()

	var fees int
	ok := m.store.MutateIf(gen, func(tx *session.Tx) {
		bots, charges := sim.TickBots(tx.State.Bots, m.rng)
		tx.SetBots(bots)
		for _, c := range charges {
			tx.AppendTransaction(domain.TxFeeDeduction, c.Amount, domain.TxCompleted)
		}
		fees = len(charges)
	})
	span.SetAttributes(attribute.Int("fees", fees))
	return ok
}

func (m *MarketSimulator) TickRadar(ctx context.Context, gen uint64) bool {
	_, span := m.tracer.Start(ctx, "market-simulator.tick-radar")
	defer span.End()

	return m.store.MutateIf(gen, func(tx *session.Tx) {
		tx.State.Radar = sim.TickRadar(tx.State.Radar, m.rng)
	})
}

func (m *MarketSimulator) TickSignals(ctx context.Context, gen uint64) bool {
	_, span := m.tracer.Start(ctx, "market-simulator.tick-signals")
	defer span.End()

	return m.store.MutateIf(gen, func(tx *session.Tx) {
		tx.State.Daily = sim.TickDailySignals(tx.State.Daily, m.rng)
	})
}
