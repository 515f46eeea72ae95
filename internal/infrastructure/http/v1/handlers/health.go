package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"aurum/internal/infrastructure/storage/postgres"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	pool      *postgres.Pool
	startedAt time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(pool *postgres.Pool) *HealthHandler {
	return &HealthHandler{
		pool:      pool,
		startedAt: time.Now(),
	}
}

// Live handles GET /health/live
// Returns 200 as long as the process is up.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /health/ready
// Returns 200 only when the database is reachable.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.pool.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Info handles GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	stat := h.pool.Stat()

	c.JSON(http.StatusOK, gin.H{
		"app":     "aurum",
		"version": "0.1.0",
		"uptime":  time.Since(h.startedAt).String(),
		"database": gin.H{
			"totalConns":    stat.TotalConns(),
			"idleConns":     stat.IdleConns(),
			"acquiredConns": stat.AcquiredConns(),
			"maxConns":      stat.MaxConns(),
		},
	})
}

// RegisterRoutes registers health routes.
func (h *HealthHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/live", h.Live)
	group.GET("/ready", h.Ready)
	group.GET("/info", h.Info)
}
