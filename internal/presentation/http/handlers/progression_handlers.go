package handlers

import (
	"net/http"
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/application/services"
	"github.com/AtRiskMedia/skycards-go/internal/domain/progression"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/skycards-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// LitRequest is the body of a lit submission. The ai_* fields carry the
// classification attributes recorded on the ledger entry.
type LitRequest struct {
	CardID      string `json:"card_id" binding:"required"`
	AIFamily    string `json:"ai_family"`
	AIGenus     string `json:"ai_genus"`
	AISpecies   string `json:"ai_species"`
	AIFeatures  string `json:"ai_features"`
	AIWeather   string `json:"ai_weather"`
	AIKnowledge string `json:"ai_knowledge"`
}

func (r LitRequest) analysis() progression.Analysis {
	return progression.Analysis{
		Family:    r.AIFamily,
		Genus:     r.AIGenus,
		Species:   r.AISpecies,
		Features:  r.AIFeatures,
		Weather:   r.AIWeather,
		Knowledge: r.AIKnowledge,
	}
}

// UnlockRequest is the body of an unlock request.
type UnlockRequest struct {
	CardID string `json:"card_id" binding:"required"`
}

// ProgressionHandlers contains the per-user progression endpoints
type ProgressionHandlers struct {
	progressionService *services.ProgressionService
	migrationService   *services.MigrationService
	logger             *logging.ChanneledLogger
	perfTracker        *performance.Tracker
}

// NewProgressionHandlers creates progression handlers with injected dependencies
func NewProgressionHandlers(progressionService *services.ProgressionService, migrationService *services.MigrationService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ProgressionHandlers {
	return &ProgressionHandlers{
		progressionService: progressionService,
		migrationService:   migrationService,
		logger:             logger,
		perfTracker:        perfTracker,
	}
}

// GetState returns the caller's full progression snapshot
func (h *ProgressionHandlers) GetState(c *gin.Context) {
	start := time.Now()
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, progression.ErrUnauthorized)
		return
	}
	h.logger.Progression().Debug("Received get state request", "userId", userID)

	marker := h.perfTracker.StartOperation("get_state_request", userID)
	defer marker.Complete()

	snapshot, err := h.progressionService.Snapshot(c.Request.Context(), userID)
	if err != nil {
		marker.SetError(err)
		respondError(c, err)
		return
	}

	h.logger.Progression().Info("Get state request completed", "userId", userID, "cards", len(snapshot.Cards), "duration", time.Since(start))
	c.JSON(http.StatusOK, snapshot)
}

// PostLit records a lit submission and returns its score
func (h *ProgressionHandlers) PostLit(c *gin.Context) {
	start := time.Now()
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, progression.ErrUnauthorized)
		return
	}

	var req LitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.logger.Progression().Debug("Received lit request", "userId", userID, "cardId", req.CardID)

	marker := h.perfTracker.StartOperation("lit_request", userID)
	defer marker.Complete()

	result, err := h.progressionService.Lit(c.Request.Context(), userID, req.CardID, req.analysis())
	if err != nil {
		marker.SetError(err)
		respondError(c, err)
		return
	}

	marker.AddMetadata("inCooldown", result.InCooldown)
	h.logger.Perf().Info("Performance for PostLit request", "duration", time.Since(start), "userId", userID, "success", true)
	c.JSON(http.StatusOK, result)
}

// PostUnlock spends points to unlock a card
func (h *ProgressionHandlers) PostUnlock(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, progression.ErrUnauthorized)
		return
	}

	var req UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.logger.Progression().Debug("Received unlock request", "userId", userID, "cardId", req.CardID)

	marker := h.perfTracker.StartOperation("unlock_request", userID)
	defer marker.Complete()

	result, err := h.progressionService.Unlock(c.Request.Context(), userID, req.CardID)
	if err != nil {
		marker.SetError(err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PostMigrate imports a client-held snapshot for a user with no activity
func (h *ProgressionHandlers) PostMigrate(c *gin.Context) {
	start := time.Now()
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, progression.ErrUnauthorized)
		return
	}

	var snapshot services.MigrationSnapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		badRequest(c, err)
		return
	}
	h.logger.Progression().Debug("Received migrate request", "userId", userID, "cards", len(snapshot.Cards))

	marker := h.perfTracker.StartOperation("migrate_request", userID)
	defer marker.Complete()

	result, err := h.migrationService.Migrate(c.Request.Context(), userID, snapshot)
	if err != nil {
		marker.SetError(err)
		respondError(c, err)
		return
	}

	h.logger.Progression().Info("Migrate request completed", "userId", userID, "migrated", result.Migrated, "duration", time.Since(start))
	c.JSON(http.StatusOK, result)
}
