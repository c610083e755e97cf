package route

import (
	"github.com/gin-gonic/gin"

	"github.com/drivehub/car-rental-backend/internal/feedback/http/handler"
)

// RegisterPublic mounts the car feedback listing.
func RegisterPublic(rg *gin.RouterGroup, h *handler.FeedbackHandler) {
	rg.GET("/cars/:id/feedbacks", h.ListForCar)
}

// RegisterProtected mounts the feedback submission endpoint.
func RegisterProtected(rg *gin.RouterGroup, h *handler.FeedbackHandler) {
	rg.POST("/bookings/:id/feedback", h.Submit)
}
