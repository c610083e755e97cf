package route

import (
	"github.com/gin-gonic/gin"

	"github.com/drivehub/car-rental-backend/internal/car/http/handler"
)

// RegisterPublic mounts the read-only fleet endpoints.
func RegisterPublic(rg *gin.RouterGroup, h *handler.CarHandler) {
	cars := rg.Group("/cars")
	{
		cars.GET("", h.List)
		cars.GET("/:id", h.Get)
	}
}

// RegisterStaff mounts endpoints for support agents and admins.
func RegisterStaff(rg *gin.RouterGroup, h *handler.CarHandler) {
	cars := rg.Group("/cars")
	{
		cars.PATCH("/:id/status", h.SetStatus)
		cars.PATCH("/:id/mileage", h.UpdateMileage)
	}
}

// RegisterAdmin mounts admin-only fleet management endpoints.
func RegisterAdmin(rg *gin.RouterGroup, h *handler.CarHandler) {
	cars := rg.Group("/cars")
	{
		cars.POST("", h.Create)
		cars.PUT("/:id", h.Update)
		cars.DELETE("/:id", h.Delete)
		cars.POST("/:id/images", h.UploadImage)
		cars.DELETE("/images/:id", h.DeleteImage)
	}
}
