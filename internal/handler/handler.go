package handler

import (
	"errors"
	"net/http"

	"auratrade/internal/panel"
	"auratrade/internal/service"
	"auratrade/internal/session"
	"auratrade/internal/stream"
	"auratrade/internal/wallet"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// Deps groups everything the HTTP surface drives.
type Deps struct {
	Store     *session.Store
	Sessions  *service.SessionService
	Ledger    *service.LedgerService
	Settings  *service.SettingsService
	Gate      *service.ConfirmationGate
	Panels    *panel.Orchestrator
	Connector *wallet.Connector
	Provider  *wallet.SimulatedProvider
	Stream    *stream.Hub
	// Redis is optional. Leave it nil when Redis is not configured.
	Redis Pinger
}

type Handler struct {
	tracer    trace.Tracer
	store     *session.Store
	sessions  *service.SessionService
	ledger    *service.LedgerService
	settings  *service.SettingsService
	gate      *service.ConfirmationGate
	panels    *panel.Orchestrator
	connector *wallet.Connector
	provider  *wallet.SimulatedProvider
	stream    *stream.Hub
	redis     Pinger
}

func New(tracer trace.Tracer, deps Deps) *Handler {
	return &Handler{
		tracer:    tracer,
		store:     deps.Store,
		sessions:  deps.Sessions,
		ledger:    deps.Ledger,
		settings:  deps.Settings,
		gate:      deps.Gate,
		panels:    deps.Panels,
		connector: deps.Connector,
		provider:  deps.Provider,
		stream:    deps.Stream,
		redis:     deps.Redis,
	}
}

// RegisterRoutes mounts the API. apiKey guards /api when non-empty.
func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(apiKey))

	api.POST("/session/login", h.Login)
	api.POST("/session/logout", h.Logout)
	api.GET("/session/state", h.GetState)
	api.GET("/session/ws", h.StreamState)

	api.GET("/wallet", h.GetWallet)
	api.POST("/wallet/deposit", h.Deposit)
	api.POST("/wallet/withdraw", h.Withdraw)
	api.POST("/wallet/faucet", h.ClaimFaucet)
	api.GET("/transactions", h.ListTransactions)
	api.GET("/audit", h.ListAudit)
	api.GET("/notifications", h.ListNotifications)
	api.DELETE("/notifications/:id", h.DismissNotification)

	api.GET("/bots", h.ListBots)
	api.POST("/bots", h.CreateBot)
	api.POST("/bots/:id/toggle", h.ToggleBot)
	api.POST("/system/reset", h.ResetSystem)
	api.GET("/confirmation", h.GetConfirmation)
	api.POST("/confirmation/confirm", h.Confirm)
	api.POST("/confirmation/cancel", h.CancelConfirmation)
	api.POST("/chain/sync", h.SyncChain)
	api.GET("/signals/radar", h.ListRadar)
	api.GET("/signals/daily", h.ListDaily)

	api.GET("/whitelist", h.ListWhitelist)
	api.POST("/whitelist", h.AddWhitelistPair)
	api.POST("/whitelist/:id/toggle", h.ToggleWhitelistPair)
	api.DELETE("/whitelist/:id", h.DeleteWhitelistPair)
	api.GET("/alerts", h.ListAlerts)
	api.POST("/alerts", h.AddAlert)
	api.POST("/alerts/:id/toggle", h.ToggleAlert)
	api.DELETE("/alerts/:id", h.DeleteAlert)

	api.GET("/connector", h.GetConnector)
	api.POST("/connector/connect", h.ConnectWallet)
	api.POST("/connector/disconnect", h.DisconnectWallet)
	api.POST("/connector/accounts", h.SwitchAccounts)

	api.POST("/ai/analysis/:botId", h.AnalyzeBot)
	api.POST("/ai/agent/:botId", h.AskAgent)
	api.POST("/ai/patterns", h.ScanPatterns)
	api.POST("/ai/backtest", h.RunBacktest)
	api.POST("/ai/mission", h.LoadMission)
	api.POST("/ai/mission/answer", h.AnswerMission)
	api.GET("/ai/insights", h.Insights)
}

// writeError maps service errors onto status codes.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, panel.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) writeState(c *gin.Context, status int) {
	c.JSON(status, h.store.Snapshot())
}
