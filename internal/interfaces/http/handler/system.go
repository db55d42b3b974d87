package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tradecore/backoffice/internal/infrastructure/persistence"
)

// SystemHandler handles health and runtime status endpoints
type SystemHandler struct {
	BaseHandler
	db        *persistence.Database
	startTime time.Time
	version   string
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db *persistence.Database, version string) *SystemHandler {
	return &SystemHandler{
		db:        db,
		startTime: time.Now(),
		version:   version,
	}
}

// Health reports liveness
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, gin.H{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.startTime).String(),
	})
}

// Ready reports readiness, including database connectivity
func (h *SystemHandler) Ready(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "database unreachable",
		})
		return
	}

	h.Success(c, gin.H{"status": "ready"})
}

// DBStats reports database connection pool statistics
func (h *SystemHandler) DBStats(c *gin.Context) {
	stats, err := h.db.Stats()
	if err != nil {
		h.InternalError(c, "failed to read database stats")
		return
	}

	h.Success(c, stats)
}
