package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/application/services"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/performance"
	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by the database handle.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SystemHandlers serves the unauthenticated health and catalog endpoints
type SystemHandlers struct {
	progressionService *services.ProgressionService
	db                 Pinger
	logger             *logging.ChanneledLogger
	perfTracker        *performance.Tracker
}

// NewSystemHandlers creates system handlers with injected dependencies
func NewSystemHandlers(progressionService *services.ProgressionService, db Pinger, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SystemHandlers {
	return &SystemHandlers{
		progressionService: progressionService,
		db:                 db,
		logger:             logger,
		perfTracker:        perfTracker,
	}
}

// GetHealth reports liveness, database reachability and operation statistics
func (h *SystemHandlers) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{
		"status":      "ok",
		"time":        time.Now().UTC().Format(time.RFC3339),
		"database":    "ok",
		"performance": h.perfTracker.Summary(),
	}
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.System().Error("Health check database ping failed", "error", err.Error())
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = "unreachable"
	}

	c.JSON(status, body)
}

// GetCards lists the catalog with rarity and unlock cost
func (h *SystemHandlers) GetCards(c *gin.Context) {
	entries := h.progressionService.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"cards": entries,
		"count": len(entries),
	})
}
