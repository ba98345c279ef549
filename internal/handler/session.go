package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	RememberDevice bool `json:"remember_device"`
}

// Login godoc
// @Summary      Open the session
// @Description  Authenticates the dashboard, starts the market simulation and optionally remembers the device
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body  loginRequest  false  "Login options"
// @Success      200  {object}  session.State
// @Failure      400  {object}  map[string]string
// @Router       /api/session/login [post]
func (h *Handler) Login(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.login")
	defer span.End()

	var req loginRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	st, err := h.sessions.Login(ctx, req.RememberDevice)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Logout godoc
// @Summary      Close the session
// @Description  Stops the simulation, drops every scheduled stage and forgets the session marker
// @Tags         session
// @Produce      json
// @Success      200  {object}  session.State
// @Router       /api/session/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.logout")
	defer span.End()

	if err := h.sessions.Logout(ctx); err != nil {
		writeError(c, err)
		return
	}
	h.writeState(c, http.StatusOK)
}

// GetState godoc
// @Summary      Full session snapshot
// @Tags         session
// @Produce      json
// @Success      200  {object}  session.State
// @Router       /api/session/state [get]
func (h *Handler) GetState(c *gin.Context) {
	h.writeState(c, http.StatusOK)
}

// StreamState godoc
// @Summary      Live snapshot stream
// @Description  Upgrades to a WebSocket that pushes a snapshot after every state change and each new notification
// @Tags         session
// @Router       /api/session/ws [get]
func (h *Handler) StreamState(c *gin.Context) {
	if h.stream == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stream unavailable"})
		return
	}
	h.stream.ServeHTTP(c.Writer, c.Request)
}
