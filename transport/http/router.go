package http

import (
	"github.com/gin-gonic/gin"

	"github.com/proofoftom/walletgate/service"
)

// SetupRouter sets up the Gin router.
func SetupRouter(authService *service.AuthService) *gin.Engine {
	router := gin.Default()

	handlers := NewAuthHandlers(authService)

	auth := router.Group("/auth")
	{
		auth.GET("/challenge", handlers.Challenge)
		auth.POST("/login", handlers.Login)
	}

	router.GET("/livez", handlers.Livez)

	return router
}
