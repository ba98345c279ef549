package handler

import (
	"net/http"

	"auratrade/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// ListBots godoc
// @Summary      Trading bots
// @Tags         bots
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/bots [get]
func (h *Handler) ListBots(c *gin.Context) {
	st := h.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{"bots": st.Bots, "portfolio": st.Portfolio})
}

// CreateBot godoc
// @Summary      Deploy a new bot
// @Description  Allocates the investment (default 1000) from the available balance. Incomplete forms are ignored; insufficient capital raises a warning notification.
// @Tags         bots
// @Accept       json
// @Produce      json
// @Param        body  body  domain.BotData  true  "Bot form"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/bots [post]
func (h *Handler) CreateBot(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.create-bot")
	defer span.End()

	var req domain.BotData
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bot, created, err := h.ledger.CreateBot(ctx, req)
	if err != nil {
		writeError(c, err)
		return
	}
	if !created {
		c.JSON(http.StatusOK, gin.H{"created": false, "state": h.store.Snapshot()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": true, "bot": bot})
}

// ToggleBot godoc
// @Summary      Request a bot start/stop
// @Description  Opens a confirmation; the bot flips only once it is confirmed
// @Tags         bots
// @Produce      json
// @Param        id  path  string  true  "Bot id"
// @Success      202  {object}  session.Confirmation
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/bots/{id}/toggle [post]
func (h *Handler) ToggleBot(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.toggle-bot")
	defer span.End()
	span.SetAttributes(attribute.String("bot_id", c.Param("id")))

	if err := h.ledger.RequestBotToggle(ctx, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, h.gate.Pending())
}

// ResetSystem godoc
// @Summary      Request a system halt
// @Description  Opens a danger confirmation that purges every bot once confirmed
// @Tags         bots
// @Produce      json
// @Success      202  {object}  session.Confirmation
// @Failure      401  {object}  map[string]string
// @Router       /api/system/reset [post]
func (h *Handler) ResetSystem(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.reset-system")
	defer span.End()

	if err := h.ledger.RequestSystemReset(ctx); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, h.gate.Pending())
}

// GetConfirmation godoc
// @Summary      Open confirmation, if any
// @Tags         bots
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/confirmation [get]
func (h *Handler) GetConfirmation(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"confirmation": h.gate.Pending()})
}

// Confirm godoc
// @Summary      Confirm the open request
// @Tags         bots
// @Produce      json
// @Success      200  {object}  session.State
// @Failure      409  {object}  map[string]string
// @Router       /api/confirmation/confirm [post]
func (h *Handler) Confirm(c *gin.Context) {
	if !h.gate.Confirm() {
		c.JSON(http.StatusConflict, gin.H{"error": "no pending confirmation"})
		return
	}
	h.writeState(c, http.StatusOK)
}

// CancelConfirmation godoc
// @Summary      Cancel the open request
// @Tags         bots
// @Produce      json
// @Success      200  {object}  session.State
// @Failure      409  {object}  map[string]string
// @Router       /api/confirmation/cancel [post]
func (h *Handler) CancelConfirmation(c *gin.Context) {
	if !h.gate.Cancel() {
		c.JSON(http.StatusConflict, gin.H{"error": "no pending confirmation"})
		return
	}
	h.writeState(c, http.StatusOK)
}

// ListRadar godoc
// @Summary      Radar signals
// @Tags         signals
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/signals/radar [get]
func (h *Handler) ListRadar(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"signals": h.store.Snapshot().Radar})
}

// ListDaily godoc
// @Summary      Daily signals
// @Tags         signals
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/signals/daily [get]
func (h *Handler) ListDaily(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"signals": h.store.Snapshot().Daily})
}
