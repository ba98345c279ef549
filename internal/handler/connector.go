package handler

import (
	"net/http"

	"auratrade/internal/wallet"

	"github.com/gin-gonic/gin"
)

type accountsRequest struct {
	Accounts []string `json:"accounts"`
}

type connectorResponse struct {
	Phase string       `json:"phase"`
	State wallet.State `json:"state"`
}

func (h *Handler) writeConnector(c *gin.Context) {
	st := h.connector.State()
	c.JSON(http.StatusOK, connectorResponse{Phase: string(st.Phase()), State: st})
}

// GetConnector godoc
// @Summary      Wallet connector state
// @Tags         connector
// @Produce      json
// @Success      200  {object}  connectorResponse
// @Router       /api/connector [get]
func (h *Handler) GetConnector(c *gin.Context) {
	h.writeConnector(c)
}

// ConnectWallet godoc
// @Summary      Request wallet access
// @Description  No-op while connected or while a request is in flight; failures land in the state's error field
// @Tags         connector
// @Produce      json
// @Success      200  {object}  connectorResponse
// @Router       /api/connector/connect [post]
func (h *Handler) ConnectWallet(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.connect-wallet")
	defer span.End()

	h.connector.Connect(ctx)
	h.writeConnector(c)
}

// DisconnectWallet godoc
// @Summary      Forget the connected account
// @Tags         connector
// @Produce      json
// @Success      200  {object}  connectorResponse
// @Router       /api/connector/disconnect [post]
func (h *Handler) DisconnectWallet(c *gin.Context) {
	h.connector.Disconnect()
	h.writeConnector(c)
}

// SwitchAccounts godoc
// @Summary      Switch accounts in the simulated provider
// @Description  An empty list revokes access, as a wallet extension would
// @Tags         connector
// @Accept       json
// @Produce      json
// @Param        body  body  accountsRequest  true  "Accounts"
// @Success      200  {object}  connectorResponse
// @Failure      400  {object}  map[string]string
// @Router       /api/connector/accounts [post]
func (h *Handler) SwitchAccounts(c *gin.Context) {
	var req accountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.provider.SwitchAccounts(req.Accounts)
	h.writeConnector(c)
}
