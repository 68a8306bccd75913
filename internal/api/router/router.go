package router

import (
	"net/http"

	"github.com/cuongbtq/failure-notifier/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	serviceName := deps.ServiceName
	if serviceName == "" {
		serviceName = "failure-api-service"
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": serviceName,
		})
	})

	notificationHandler := handler.NewNotificationHandler(deps)
	failureHandler := handler.NewFailureHandler(deps)

	v1 := r.Group("/api/v1")
	{
		notifications := v1.Group("/notifications")
		{
			// POST /api/v1/notifications/preview - Render the blocks for a failure record
			notifications.POST("/preview", notificationHandler.Preview)

			// GET /api/v1/notifications/levels - List verbosity levels
			notifications.GET("/levels", notificationHandler.Levels)
		}

		// POST /api/v1/failures - Queue a failure for notification
		v1.POST("/failures", failureHandler.ReportFailure)
	}

	return r
}
