package route

import (
	"github.com/gin-gonic/gin"

	"github.com/drivehub/car-rental-backend/internal/booking/http/handler"
)

// RegisterPublic mounts the unauthenticated availability endpoint.
func RegisterPublic(rg *gin.RouterGroup, h *handler.BookingHandler) {
	rg.GET("/cars/:id/availability", h.CheckAvailability)
}

// RegisterProtected mounts booking endpoints for authenticated users.
func RegisterProtected(rg *gin.RouterGroup, h *handler.BookingHandler) {
	bookings := rg.Group("/bookings")
	{
		bookings.POST("", h.Create)
		bookings.GET("", h.List)
		bookings.GET("/:id", h.Get)
		bookings.POST("/:id/cancel", h.Cancel)
	}
}

// RegisterStaff mounts booking endpoints for support agents and admins.
func RegisterStaff(rg *gin.RouterGroup, h *handler.BookingHandler) {
	bookings := rg.Group("/bookings")
	{
		bookings.PATCH("/:id/status", h.UpdateStatus)
		bookings.POST("/:id/complete", h.Complete)
	}
	rg.GET("/users/:id/bookings", h.ListForUser)
}
