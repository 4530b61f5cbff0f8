package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Root handles the GET / service banner.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "online", "service": "PetPulse Backend"})
}

// Health handles the GET /health liveness check.
func (h *Handler) Health(c *gin.Context) {
	connected := h.conn != nil && h.conn.IsConnected()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "mqtt_connected": connected})
}
