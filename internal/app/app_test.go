package app

import (
	"context"
	"testing"
	"time"

	"auratrade/internal/config"
	"auratrade/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func testConfig() *config.Config {
	return &config.Config{
		OpenAIModel:            "gpt-4o-mini",
		AICacheTTL:             time.Minute,
		BotTick:                time.Hour,
		RadarTick:              time.Hour,
		SignalTick:             time.Hour,
		DepositDelay:           time.Hour,
		WithdrawInclusionDelay: time.Hour,
		WithdrawFinalityDelay:  time.Hour,
		SyncDelay:              time.Hour,
		NotificationTTL:        time.Hour,
		FaucetReward:           100,
		RollupSchedule:         "@every 1h",
		WalletProvider:         true,
		WalletAccounts:         []string{"0xabc0000000000000000000000000000000000001"},
	}
}

func TestNewWiresCore(t *testing.T) {
	a, err := New(testConfig(), trace.NewNoopTracerProvider().Tracer("test"), nil, nil)
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Start(ctx)

	assert.False(t, a.Store.Snapshot().Authenticated, "no redis means nothing to restore")

	_, err = a.Sessions.Login(ctx, false)
	require.NoError(t, err)
	assert.True(t, a.Simulator.Running())

	require.NoError(t, a.Sessions.Logout(ctx))
	assert.False(t, a.Simulator.Running())
}

func TestConnectedAccountBecomesMasterWallet(t *testing.T) {
	a, err := New(testConfig(), trace.NewNoopTracerProvider().Tracer("test"), nil, nil)
	require.NoError(t, err)
	defer a.Close()

	a.Connector.Init(context.Background())
	a.Connector.Connect(context.Background())
	assert.Equal(t, "0xabc0000000000000000000000000000000000001", a.Store.Snapshot().MasterWallet)

	a.Provider.SwitchAccounts([]string{"0xabc0000000000000000000000000000000000002"})
	assert.Equal(t, "0xabc0000000000000000000000000000000000002", a.Store.Snapshot().MasterWallet)
}

func TestDisconnectClearsMasterWallet(t *testing.T) {
	a, err := New(testConfig(), trace.NewNoopTracerProvider().Tracer("test"), nil, nil)
	require.NoError(t, err)
	defer a.Close()
	ctx := context.Background()

	a.Connector.Init(ctx)
	a.Connector.Connect(ctx)
	require.NotEmpty(t, a.Store.Snapshot().MasterWallet)

	a.Connector.Disconnect()
	assert.Empty(t, a.Store.Snapshot().MasterWallet)

	_, err = a.Sessions.Login(ctx, false)
	require.NoError(t, err)
	bot, created, err := a.Ledger.CreateBot(ctx, domain.BotData{Name: "Grid", Pair: "SOL/USDT", Strategy: domain.StrategyGrid})
	require.NoError(t, err)
	require.True(t, created)
	assert.NotEqual(t, "0xabc0000000000000000000000000000000000001", bot.WalletAddress)

	a.Connector.Connect(ctx)
	require.NotEmpty(t, a.Store.Snapshot().MasterWallet)
	a.Provider.SwitchAccounts(nil)
	assert.Empty(t, a.Store.Snapshot().MasterWallet)
}

func TestToastTimersSurviveLogout(t *testing.T) {
	a, err := New(testConfig(), trace.NewNoopTracerProvider().Tracer("test"), nil, nil)
	require.NoError(t, err)
	defer a.Close()
	ctx := context.Background()

	_, err = a.Sessions.Login(ctx, false)
	require.NoError(t, err)
	require.NoError(t, a.Ledger.Deposit(ctx, 100))
	require.Len(t, a.Store.Snapshot().Notifications, 1)

	require.NoError(t, a.Sessions.Logout(ctx))
	assert.Zero(t, a.Scheduler.Pending())
	assert.Equal(t, 1, a.Toasts.Pending(), "auto-dismiss still armed after logout")
}

func TestInvalidRollupSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.RollupSchedule = "not a schedule"
	_, err := New(cfg, trace.NewNoopTracerProvider().Tracer("test"), nil, nil)
	assert.Error(t, err)
}
