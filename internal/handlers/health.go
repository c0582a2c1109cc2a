// internal/handlers/health.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	startedAt time.Time
	now       func() time.Time
}

func NewHealthHandler() *HealthHandler {
	now := func() time.Time { return time.Now().UTC() }
	return &HealthHandler{startedAt: now(), now: now}
}

// GET /api/health
func (h *HealthHandler) Health(c *gin.Context) {
	now := h.now()
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Loan Manager API is running",
		"timestamp": now.Format(time.RFC3339),
		"uptime":    now.Sub(h.startedAt).Seconds(),
	})
}

// GET /
func (h *HealthHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Loan Manager API",
		"version": "1.0.0",
		"endpoints": gin.H{
			"health":       "/api/health",
			"applications": "/api/applications",
			"dashboard":    "/api/dashboard",
			"metrics":      "/metrics",
		},
	})
}
