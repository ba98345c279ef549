package handler

import (
	"net/http"

	"auratrade/internal/domain"

	"github.com/gin-gonic/gin"
)

type whitelistRequest struct {
	Pair string `json:"pair"`
}

type alertRequest struct {
	Pair        string                `json:"pair"`
	TargetPrice float64               `json:"target_price"`
	Condition   domain.AlertCondition `json:"condition"`
}

// ListWhitelist godoc
// @Summary      Whitelisted pairs
// @Tags         settings
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/whitelist [get]
func (h *Handler) ListWhitelist(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"whitelist": h.store.Snapshot().Whitelist})
}

// AddWhitelistPair godoc
// @Summary      Whitelist a pair
// @Description  Blank and duplicate pairs are ignored
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body  whitelistRequest  true  "Pair"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/whitelist [post]
func (h *Handler) AddWhitelistPair(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.add-whitelist-pair")
	defer span.End()

	var req whitelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pair, added, err := h.settings.AddWhitelistPair(ctx, req.Pair)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added, "pair": pair})
}

// ToggleWhitelistPair godoc
// @Summary      Enable or disable a whitelisted pair
// @Tags         settings
// @Param        id  path  string  true  "Whitelist id"
// @Success      200  {object}  domain.WhitelistPair
// @Failure      404  {object}  map[string]string
// @Router       /api/whitelist/{id}/toggle [post]
func (h *Handler) ToggleWhitelistPair(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.toggle-whitelist-pair")
	defer span.End()

	pair, err := h.settings.ToggleWhitelistPair(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// DeleteWhitelistPair godoc
// @Summary      Remove a whitelisted pair
// @Tags         settings
// @Param        id  path  string  true  "Whitelist id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /api/whitelist/{id} [delete]
func (h *Handler) DeleteWhitelistPair(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.delete-whitelist-pair")
	defer span.End()

	if err := h.settings.DeleteWhitelistPair(ctx, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListAlerts godoc
// @Summary      Price alerts
// @Tags         settings
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/alerts [get]
func (h *Handler) ListAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alerts": h.store.Snapshot().Alerts})
}

// AddAlert godoc
// @Summary      Arm a price alert
// @Description  Requires a pair, a positive target and a condition of above or below; anything else is ignored
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body  alertRequest  true  "Alert"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/alerts [post]
func (h *Handler) AddAlert(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.add-alert")
	defer span.End()

	var req alertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	alert, added, err := h.settings.AddAlert(ctx, req.Pair, req.TargetPrice, req.Condition)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added, "alert": alert})
}

// ToggleAlert godoc
// @Summary      Arm or disarm an alert
// @Tags         settings
// @Param        id  path  string  true  "Alert id"
// @Success      200  {object}  domain.PriceAlert
// @Failure      404  {object}  map[string]string
// @Router       /api/alerts/{id}/toggle [post]
func (h *Handler) ToggleAlert(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.toggle-alert")
	defer span.End()

	alert, err := h.settings.ToggleAlert(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// DeleteAlert godoc
// @Summary      Remove an alert
// @Tags         settings
// @Param        id  path  string  true  "Alert id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /api/alerts/{id} [delete]
func (h *Handler) DeleteAlert(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.delete-alert")
	defer span.End()

	if err := h.settings.DeleteAlert(ctx, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
