package api

import (
	"github.com/gin-gonic/gin"

	"github.com/clivefinesse/jobtracker/internal/handlers"
)

func registerUserRoutes(api *gin.RouterGroup, handler *handlers.AccountHandler, requireAuth gin.HandlerFunc) {
	users := api.Group("/users")
	{
		users.POST("/register", handler.Register)
		users.POST("/token", handler.Token)
		users.GET("/verify-email", handler.VerifyEmail)
		users.POST("/password-reset", handler.PasswordReset)
		users.POST("/password-reset-confirm", handler.PasswordResetConfirm)

		users.GET("/profile", requireAuth, handler.GetProfile)
		users.PUT("/profile", requireAuth, handler.UpdateProfile)
	}
}
