package route

import (
	"github.com/gin-gonic/gin"

	"github.com/drivehub/car-rental-backend/internal/user/http/handler"
)

// RegisterPublic mounts the unauthenticated auth endpoints.
func RegisterPublic(rg *gin.RouterGroup, h *handler.UserHandler) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
}

// RegisterProtected mounts endpoints that require authentication.
func RegisterProtected(rg *gin.RouterGroup, h *handler.UserHandler) {
	users := rg.Group("/users")
	{
		users.GET("/me", h.Me)
	}
}

// RegisterAdmin mounts admin-only user management endpoints.
func RegisterAdmin(rg *gin.RouterGroup, h *handler.UserHandler) {
	users := rg.Group("/users")
	{
		users.GET("", h.List)
		users.PATCH("/:id", h.Update)
	}
}
