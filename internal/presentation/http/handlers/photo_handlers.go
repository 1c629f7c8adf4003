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

// PhotoRequest carries a photo as a base64 data URI.
type PhotoRequest struct {
	ImageBase64 string `json:"image_base64" binding:"required"`
}

// PhotoHandlers contains the duplicate-check and recognition endpoints
type PhotoHandlers struct {
	photoService *services.PhotoService
	logger       *logging.ChanneledLogger
	perfTracker  *performance.Tracker
}

// NewPhotoHandlers creates photo handlers with injected dependencies
func NewPhotoHandlers(photoService *services.PhotoService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *PhotoHandlers {
	return &PhotoHandlers{
		photoService: photoService,
		logger:       logger,
		perfTracker:  perfTracker,
	}
}

// PostCheck reports whether a photo duplicates one the caller already submitted
func (h *PhotoHandlers) PostCheck(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, progression.ErrUnauthorized)
		return
	}

	var req PhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.logger.Photo().Debug("Received duplicate check request", "userId", userID, "size", len(req.ImageBase64))

	marker := h.perfTracker.StartOperation("photo_check_request", userID)
	defer marker.Complete()

	result, err := h.photoService.CheckDuplicate(c.Request.Context(), userID, req.ImageBase64)
	if err != nil {
		marker.SetError(err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PostRecognize classifies a new photo, rejecting repeats before the
// classifier is called
func (h *PhotoHandlers) PostRecognize(c *gin.Context) {
	start := time.Now()
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, progression.ErrUnauthorized)
		return
	}

	var req PhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.logger.Photo().Debug("Received recognize request", "userId", userID, "size", len(req.ImageBase64))

	marker := h.perfTracker.StartOperation("recognize_request", userID)
	defer marker.Complete()

	result, err := h.photoService.Recognize(c.Request.Context(), userID, req.ImageBase64)
	if err != nil {
		marker.SetError(err)
		respondError(c, err)
		return
	}

	h.logger.Perf().Info("Performance for PostRecognize request", "duration", time.Since(start), "userId", userID, "success", true)
	c.JSON(http.StatusOK, result)
}
