// Package handlers provides HTTP handlers for the card progression API
package handlers

import (
	"errors"
	"net/http"

	"github.com/AtRiskMedia/skycards-go/internal/domain/progression"
	"github.com/gin-gonic/gin"
)

var statusByCode = map[string]int{
	progression.ErrInvalidCard.Code:               http.StatusBadRequest,
	progression.ErrInsufficientPoints.Code:        http.StatusBadRequest,
	progression.ErrInvalidRequest.Code:            http.StatusBadRequest,
	progression.ErrUnauthorized.Code:              http.StatusUnauthorized,
	progression.ErrDuplicatePhoto.Code:            http.StatusConflict,
	progression.ErrNoSubjectDetected.Code:         http.StatusUnprocessableEntity,
	progression.ErrClassificationUnavailable.Code: http.StatusBadGateway,
	progression.ErrClassificationTimeout.Code:     http.StatusGatewayTimeout,
}

// respondError writes the stable reason code for err. Anything that is not a
// domain error is reported as INTERNAL without leaking its text.
func respondError(c *gin.Context, err error) {
	code := progression.ReasonCode(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := "internal server error"
	var de *progression.Error
	if errors.As(err, &de) {
		message = de.Message
	}

	c.JSON(status, gin.H{
		"error":     code,
		"message":   message,
		"retryable": progression.IsRetryable(err),
	})
}

// badRequest reports a malformed request body.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":     progression.ErrInvalidRequest.Code,
		"message":   err.Error(),
		"retryable": false,
	})
}
