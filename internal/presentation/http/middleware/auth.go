package middleware

import (
	"net/http"
	"strings"

	"github.com/AtRiskMedia/skycards-go/internal/domain/progression"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/security"
	"github.com/gin-gonic/gin"
)

const userIDKey = "userId"

// AuthMiddleware validates the bearer token and stores the caller's user id
// in the gin context. With no secret configured every request is rejected.
func AuthMiddleware(jwtSecret string, logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSecret == "" {
			logger.Auth().Error("JWT secret not configured, rejecting request", "path", c.Request.URL.Path)
			abortUnauthorized(c, "authentication is not configured")
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			logger.Auth().Debug("Missing bearer token", "path", c.Request.URL.Path)
			abortUnauthorized(c, "missing bearer token")
			return
		}

		claims, err := security.ValidateJWT(strings.TrimSpace(token), jwtSecret)
		if err != nil {
			logger.Auth().Warn("Rejected invalid token", "path", c.Request.URL.Path, "error", err.Error())
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		userID, err := security.UserIDFromClaims(claims)
		if err != nil {
			logger.Auth().Warn("Token carries no usable user id", "path", c.Request.URL.Path, "error", err.Error())
			abortUnauthorized(c, "token has no user id")
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// GetUserID returns the authenticated user id set by AuthMiddleware
func GetUserID(c *gin.Context) (string, bool) {
	value, exists := c.Get(userIDKey)
	if !exists {
		return "", false
	}
	userID, ok := value.(string)
	return userID, ok && userID != ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":     progression.ErrUnauthorized.Code,
		"message":   message,
		"retryable": false,
	})
}
