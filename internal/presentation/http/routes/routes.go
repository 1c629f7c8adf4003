// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/AtRiskMedia/skycards-go/internal/application/container"
	"github.com/AtRiskMedia/skycards-go/internal/presentation/http/handlers"
	"github.com/AtRiskMedia/skycards-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware(container.CORSOrigins))

	// Initialize handlers
	systemHandlers := handlers.NewSystemHandlers(container.ProgressionService, container.DB, container.Logger, container.PerfTracker)
	progressionHandlers := handlers.NewProgressionHandlers(container.ProgressionService, container.MigrationService, container.Logger, container.PerfTracker)
	photoHandlers := handlers.NewPhotoHandlers(container.PhotoService, container.Logger, container.PerfTracker)

	r.GET("/api/health", systemHandlers.GetHealth)

	api := r.Group("/api/v1")
	{
		api.GET("/cards", systemHandlers.GetCards)

		authenticated := api.Group("")
		authenticated.Use(middleware.AuthMiddleware(container.JWTSecret, container.Logger))
		{
			authenticated.POST("/recognize", photoHandlers.PostRecognize)

			user := authenticated.Group("/user")
			{
				user.GET("/state", progressionHandlers.GetState)
				user.POST("/lit", progressionHandlers.PostLit)
				user.POST("/unlock", progressionHandlers.PostUnlock)
				user.POST("/migrate", progressionHandlers.PostMigrate)
				user.POST("/photos/check", photoHandlers.PostCheck)
			}
		}
	}

	return r
}
