package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auratrade/internal/advisor"
	"auratrade/internal/domain"
	"auratrade/internal/panel"
	"auratrade/internal/service"
	"auratrade/internal/session"
	"auratrade/internal/stream"
	"auratrade/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

type testEnv struct {
	router   *gin.Engine
	store    *session.Store
	sched    *service.TimerScheduler
	provider *wallet.SimulatedProvider
}

func newTestEnv(t *testing.T, apiKey string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tracer := trace.NewNoopTracerProvider().Tracer("handler-test")

	store := session.NewStore(domain.DefaultSeed(time.Now()))
	sched := service.NewTimerScheduler()
	gate := service.NewConfirmationGate(store)
	cfg := service.DefaultLedgerConfig()
	cfg.DepositDelay = time.Hour
	cfg.WithdrawInclusionDelay = time.Hour
	cfg.WithdrawFinalityDelay = time.Hour
	cfg.SyncDelay = time.Hour
	ledger := service.NewLedgerService(tracer, store, sched, gate, cfg)
	sessions := service.NewSessionService(tracer, store, sched, gate, ledger, nil, nil)
	provider := wallet.NewSimulatedProvider(true, []string{"0x1111111111111111111111111111111111111111"})
	connector := wallet.NewConnector(tracer, provider)
	connector.Init(context.Background())
	t.Cleanup(func() {
		sched.CancelAll()
		connector.Close()
	})

	h := New(tracer, Deps{
		Store:     store,
		Sessions:  sessions,
		Ledger:    ledger,
		Settings:  service.NewSettingsService(tracer, store),
		Gate:      gate,
		Panels:    panel.NewOrchestrator(tracer, store, advisor.NewService(tracer, nil, nil, "", 0), ledger),
		Connector: connector,
		Provider:  provider,
		Stream:    stream.NewHub(store),
	})
	r := gin.New()
	h.RegisterRoutes(r, apiKey)
	return &testEnv{router: r, store: store, sched: sched, provider: provider}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/session/login", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestLoginLogout(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPost, "/api/session/login", map[string]bool{"remember_device": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[session.State](t, w).Authenticated)

	w = env.do(t, http.MethodPost, "/api/session/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[session.State](t, w).Authenticated)
}

func TestMutationsRequireLogin(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPost, "/api/wallet/deposit", map[string]float64{"amount": 10})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDepositAccepted(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	w := env.do(t, http.MethodPost, "/api/wallet/deposit", map[string]float64{"amount": 250})
	require.Equal(t, http.StatusAccepted, w.Code)

	st := decode[session.State](t, w)
	require.NotEmpty(t, st.Transactions)
	assert.Equal(t, domain.TxDeposit, st.Transactions[0].Type)
	assert.Equal(t, domain.TxProcessing, st.Transactions[0].Status)
	assert.Equal(t, 1, env.sched.Pending())
}

func TestDepositMalformedBody(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	req := httptest.NewRequest(http.MethodPost, "/api/wallet/deposit", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWithdrawOverBalanceIsNoop(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)
	before := env.store.Snapshot().Wallet

	w := env.do(t, http.MethodPost, "/api/wallet/withdraw", map[string]any{"amount": before.Available + 1, "address": "0xabc"})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, before, decode[session.State](t, w).Wallet)
}

func TestToggleBotConfirmFlow(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	w := env.do(t, http.MethodPost, "/api/bots/b-001/toggle", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	conf := decode[session.Confirmation](t, w)
	assert.Equal(t, "Confirm Deactivation", conf.Title)

	w = env.do(t, http.MethodPost, "/api/confirmation/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[session.State](t, w)
	assert.Nil(t, st.Confirmation)
	assert.Equal(t, domain.BotStopped, st.Bots[0].Status)

	w = env.do(t, http.MethodPost, "/api/confirmation/confirm", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestToggleUnknownBot(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	w := env.do(t, http.MethodPost, "/api/bots/nope/toggle", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateBotInsufficientCapital(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)
	env.store.Update(func(tx *session.Tx) { tx.State.Wallet.Available = 1000 })

	w := env.do(t, http.MethodPost, "/api/bots", domain.BotData{Name: "Big", Pair: "BTC/USDT", Strategy: domain.StrategyGrid, Investment: "1500"})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[struct {
		Created bool          `json:"created"`
		State   session.State `json:"state"`
	}](t, w)
	assert.False(t, body.Created)
	assert.Equal(t, 1000.0, body.State.Wallet.Available)
	require.NotEmpty(t, body.State.Notifications)
	assert.Equal(t, "Insufficient Capital", body.State.Notifications[0].Title)
}

func TestWhitelistAndAlerts(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	w := env.do(t, http.MethodPost, "/api/whitelist", map[string]string{"pair": "pepe/usdt"})
	require.Equal(t, http.StatusOK, w.Code)
	added := decode[struct {
		Added bool                 `json:"added"`
		Pair  domain.WhitelistPair `json:"pair"`
	}](t, w)
	require.True(t, added.Added)
	assert.Equal(t, "PEPE/USDT", added.Pair.Pair)

	w = env.do(t, http.MethodDelete, "/api/whitelist/"+added.Pair.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodDelete, "/api/whitelist/"+added.Pair.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/alerts", map[string]any{"pair": "BTC/USDT", "target_price": 70000, "condition": "sideways"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[struct {
		Added bool `json:"added"`
	}](t, w).Added)
}

func TestConnectorRoutes(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPost, "/api/connector/connect", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[connectorResponse](t, w)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", resp.State.Account)

	w = env.do(t, http.MethodPost, "/api/connector/accounts", map[string][]string{"accounts": {}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[connectorResponse](t, w).State.Account)
}

func TestAIPanelsUseFallbacks(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	w := env.do(t, http.MethodPost, "/api/ai/analysis/b-001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, advisor.AnalysisFallback, decode[map[string]string](t, w)["analysis"])

	w = env.do(t, http.MethodPost, "/api/ai/mission", nil)
	require.Equal(t, http.StatusOK, w.Code)
	mission := decode[domain.EarnMission](t, w)

	aura := env.store.Snapshot().Wallet.AuraBalance
	w = env.do(t, http.MethodPost, "/api/ai/mission/answer", map[string]int{"answer": mission.CorrectAnswer})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, aura+mission.Reward, env.store.Snapshot().Wallet.AuraBalance)

	w = env.do(t, http.MethodPost, "/api/ai/backtest", map[string]any{"pair": "BTC/USDT", "timeframe": "1Y", "components": []string{"ma"}})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAPIKeyGuardsAPI(t *testing.T) {
	env := newTestEnv(t, "secret")

	w := env.do(t, http.MethodGet, "/api/session/state", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
