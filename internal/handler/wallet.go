package handler

import (
	"net/http"

	"auratrade/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type amountRequest struct {
	Amount float64 `json:"amount"`
}

type withdrawRequest struct {
	Amount  float64 `json:"amount"`
	Address string  `json:"address"`
}

type walletResponse struct {
	Wallet       domain.WalletState      `json:"wallet"`
	Portfolio    domain.PortfolioMetrics `json:"portfolio"`
	MasterWallet string                  `json:"master_wallet,omitempty"`
	Total        float64                 `json:"total"`
}

// GetWallet godoc
// @Summary      Wallet balances
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  walletResponse
// @Router       /api/wallet [get]
func (h *Handler) GetWallet(c *gin.Context) {
	st := h.store.Snapshot()
	c.JSON(http.StatusOK, walletResponse{
		Wallet:       st.Wallet,
		Portfolio:    st.Portfolio,
		MasterWallet: st.MasterWallet,
		Total:        st.Wallet.Total(),
	})
}

// Deposit godoc
// @Summary      Simulate an incoming deposit
// @Description  Records a processing deposit that settles after the configured delay. Non-positive amounts are ignored.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        body  body  amountRequest  true  "Deposit amount"
// @Success      202  {object}  session.State
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/wallet/deposit [post]
func (h *Handler) Deposit(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.deposit")
	defer span.End()

	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	span.SetAttributes(attribute.Float64("amount", req.Amount))

	if err := h.ledger.Deposit(ctx, req.Amount); err != nil {
		writeError(c, err)
		return
	}
	h.writeState(c, http.StatusAccepted)
}

// Withdraw godoc
// @Summary      Simulate a withdrawal
// @Description  Moves funds to pending and walks them through inclusion and finality. Amounts above the available balance are ignored.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        body  body  withdrawRequest  true  "Withdrawal"
// @Success      202  {object}  session.State
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/wallet/withdraw [post]
func (h *Handler) Withdraw(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.withdraw")
	defer span.End()

	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	span.SetAttributes(attribute.Float64("amount", req.Amount))

	if err := h.ledger.Withdraw(ctx, req.Amount, req.Address); err != nil {
		writeError(c, err)
		return
	}
	h.writeState(c, http.StatusAccepted)
}

// ClaimFaucet godoc
// @Summary      Claim the daily AURA faucet
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/wallet/faucet [post]
func (h *Handler) ClaimFaucet(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.claim-faucet")
	defer span.End()

	claimed, err := h.ledger.ClaimFaucet(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	st := h.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{"claimed": claimed, "wallet": st.Wallet})
}

// ListTransactions godoc
// @Summary      Transaction ledger
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"transactions": h.store.Snapshot().Transactions})
}

// ListAudit godoc
// @Summary      Audit log, newest first
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/audit [get]
func (h *Handler) ListAudit(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"audit": h.store.Snapshot().Audit})
}

// ListNotifications godoc
// @Summary      Visible notifications
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": h.store.Snapshot().Notifications})
}

// DismissNotification godoc
// @Summary      Dismiss a notification
// @Tags         wallet
// @Param        id  path  string  true  "Notification id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /api/notifications/{id} [delete]
func (h *Handler) DismissNotification(c *gin.Context) {
	if !h.ledger.DismissNotification(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// SyncChain godoc
// @Summary      Re-index market data
// @Description  Starts the simulated chain sync; calls during a running sync are ignored
// @Tags         wallet
// @Produce      json
// @Success      202  {object}  session.State
// @Failure      401  {object}  map[string]string
// @Router       /api/chain/sync [post]
func (h *Handler) SyncChain(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.sync-chain")
	defer span.End()

	if err := h.ledger.SyncChain(ctx); err != nil {
		writeError(c, err)
		return
	}
	h.writeState(c, http.StatusAccepted)
}
