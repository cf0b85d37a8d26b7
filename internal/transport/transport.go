package transport

import (
	"net/http"
	"time"

	"github.com/ds124wfegd/eshikshan/internal/entity"
	"github.com/ds124wfegd/eshikshan/internal/transport/middleware"

	"github.com/gin-gonic/gin"
)

func InitRoutes(
	applicationHandler *ApplicationHandler,
	registrationHandler *RegistrationHandler,
	notificationHandler *NotificationHandler,
	verifier middleware.TokenVerifier,
	requestTimeout time.Duration,
) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
		})
	})

	api := router.Group("/api/v1")
	api.Use(middleware.Authenticate(verifier))

	// The stream is long-lived and stays outside the request timeout.
	api.GET("/notifications/stream", notificationHandler.Stream)

	api.Use(middleware.Timeout(requestTimeout))

	student := middleware.RequireRole(entity.RoleStudent)
	staff := middleware.RequireRole(entity.RoleInstructor, entity.RoleAdmin)

	{
		// Application routes
		api.POST("/jobs/:id/applications", student, applicationHandler.Apply)

		applications := api.Group("/applications")
		{
			applications.GET("/mine", student, applicationHandler.ListMine)
			applications.GET("/owned", staff, applicationHandler.ListOwned)
			applications.PATCH("/:id/status", staff, applicationHandler.UpdateStatus)
			applications.DELETE("/:id", staff, applicationHandler.Delete)
		}

		// Registration routes
		hackathons := api.Group("/hackathons/:id")
		{
			hackathons.POST("/registrations", student, registrationHandler.Register)
			hackathons.GET("/registration", student, registrationHandler.Check)
			hackathons.DELETE("/registration", student, registrationHandler.Cancel)
		}

		registrations := api.Group("/registrations")
		{
			registrations.GET("/mine", student, registrationHandler.ListMine)
			registrations.GET("/owned", staff, registrationHandler.ListOwned)
			registrations.PATCH("/:id/status", staff, registrationHandler.UpdateStatus)
			registrations.DELETE("/:id", staff, registrationHandler.Delete)
		}

		// Notification routes
		notifications := api.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.PATCH("/read-all", notificationHandler.MarkAllRead)
			notifications.PATCH("/:id/read", notificationHandler.MarkRead)
			notifications.DELETE("/:id", notificationHandler.Delete)
		}
	}

	return router
}
