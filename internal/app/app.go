// Package app assembles the session core shared by every entry point.
package app

import (
	"context"
	"log"
	"time"

	"auratrade/internal/advisor"
	"auratrade/internal/config"
	"auratrade/internal/domain"
	"auratrade/internal/job"
	"auratrade/internal/panel"
	"auratrade/internal/repository"
	"auratrade/internal/service"
	"auratrade/internal/session"
	"auratrade/internal/stream"
	"auratrade/internal/wallet"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

type App struct {
	Store     *session.Store
	Scheduler *service.TimerScheduler
	Toasts    *service.TimerScheduler
	Gate      *service.ConfirmationGate
	Ledger    *service.LedgerService
	Settings  *service.SettingsService
	Sessions  *service.SessionService
	Simulator *job.MarketSimulator
	Rollup    *job.RollupJob
	Panels    *panel.Orchestrator
	Provider  *wallet.SimulatedProvider
	Connector *wallet.Connector
	Stream    *stream.Hub

	unsubscribe []func()
}

// New wires the core. rdb and llm may be nil: without Redis the session is
// never remembered and AI replies are not cached, without llm every panel
// serves its fallback text.
func New(cfg *config.Config, tracer trace.Tracer, rdb *redis.Client, llm advisor.LLMClient) (*App, error) {
	store := session.NewStore(domain.DefaultSeed(time.Now()))
	sched := service.NewTimerScheduler()
	gate := service.NewConfirmationGate(store)

	ledger := service.NewLedgerService(tracer, store, sched, gate, service.LedgerConfig{
		DepositDelay:           cfg.DepositDelay,
		WithdrawInclusionDelay: cfg.WithdrawInclusionDelay,
		WithdrawFinalityDelay:  cfg.WithdrawFinalityDelay,
		SignatureDelay:         cfg.SignatureDelay,
		SyncDelay:              cfg.SyncDelay,
		FaucetReward:           cfg.FaucetReward,
	})

	simulator := job.NewMarketSimulator(tracer, store, job.SimulatorIntervals{
		Bots:    cfg.BotTick,
		Radar:   cfg.RadarTick,
		Signals: cfg.SignalTick,
	}, nil)

	var flags service.SessionFlagStore
	var cache advisor.ResponseCache
	if rdb != nil {
		flags = repository.NewSessionFlagRepository(rdb, tracer)
		cache = rdb
	}

	rollup, err := job.NewRollupJob(tracer, ledger, cfg.RollupSchedule)
	if err != nil {
		return nil, err
	}

	gen := advisor.NewService(tracer, llm, cache, cfg.OpenAIModel, cfg.AICacheTTL)
	gen.LimitCalls(cfg.AICallsPerMinute, time.Minute)
	provider := wallet.NewSimulatedProvider(cfg.WalletProvider, cfg.WalletAccounts)

	a := &App{
		Store:     store,
		Scheduler: sched,
		Toasts:    service.NewTimerScheduler(),
		Gate:      gate,
		Ledger:    ledger,
		Settings:  service.NewSettingsService(tracer, store),
		Sessions:  service.NewSessionService(tracer, store, sched, gate, ledger, simulator, flags),
		Simulator: simulator,
		Rollup:    rollup,
		Panels:    panel.NewOrchestrator(tracer, store, gen, ledger),
		Provider:  provider,
		Connector: wallet.NewConnector(tracer, provider),
		Stream:    stream.NewHub(store),
	}

	// Toast timers outlive logout, which only cancels session stages.
	service.NewNotificationExpiry(store, a.Toasts, cfg.NotificationTTL)
	a.Observe(a.Stream)

	// The master wallet tracks the connected account and is cleared with it.
	a.Connector.OnChange(func(st wallet.State) {
		a.Ledger.SetMasterWallet(st.Account)
	})
	return a, nil
}

// Observe subscribes o to the store for the lifetime of the app.
func (a *App) Observe(o session.Observer) {
	a.unsubscribe = append(a.unsubscribe, a.Store.Subscribe(o))
}

// Start resolves the wallet provider, restores a remembered session and
// runs the rollup schedule until ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	a.Connector.Init(ctx)

	restored, err := a.Sessions.Restore(ctx)
	if err != nil {
		log.Printf("Warning: failed to restore session: %v", err)
	} else if restored {
		log.Println("Remembered session restored")
	}

	go a.Rollup.Start(ctx)
}

// Close stops background work. Pending stages are dropped.
func (a *App) Close() {
	a.Simulator.Stop()
	a.Scheduler.CancelAll()
	a.Toasts.CancelAll()
	a.Connector.Close()
	for _, unsub := range a.unsubscribe {
		unsub()
	}
}
