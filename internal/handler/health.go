package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Pinger is the part of the Redis client the health check needs.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

const healthPingTimeout = time.Second

type healthResponse struct {
	Status        string `json:"status"`
	Session       string `json:"session"`
	Redis         string `json:"redis"`
	StreamClients int    `json:"stream_clients"`
}

// Health godoc
// @Summary      Health check
// @Description  Reports session lock state, Redis reachability and live stream clients. Redis being down only degrades the service.
// @Tags         health
// @Produce      json
// @Success      200  {object}  healthResponse
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	resp := healthResponse{Status: "healthy", Session: "locked", Redis: "disabled"}

	if h.store != nil && h.store.Snapshot().Authenticated {
		resp.Session = "authenticated"
	}
	if h.stream != nil {
		resp.StreamClients = h.stream.Clients()
	}
	if h.redis != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
		defer cancel()
		if err := h.redis.Ping(ctx).Err(); err != nil {
			resp.Redis = "down"
			resp.Status = "degraded"
		} else {
			resp.Redis = "up"
		}
	}
	c.JSON(http.StatusOK, resp)
}
