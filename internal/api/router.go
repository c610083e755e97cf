package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/drivehub/car-rental-backend/internal/app"
	"github.com/drivehub/car-rental-backend/internal/auth"
	bookingroute "github.com/drivehub/car-rental-backend/internal/booking/http/route"
	carroute "github.com/drivehub/car-rental-backend/internal/car/http/route"
	feedbackroute "github.com/drivehub/car-rental-backend/internal/feedback/http/route"
	"github.com/drivehub/car-rental-backend/internal/user"
	userroute "github.com/drivehub/car-rental-backend/internal/user/http/route"
)

// NewRouter builds the gin engine with all routes mounted.
func NewRouter(c *app.Container) *gin.Engine {
	if c.Config.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if c.Config.IsProduction {
		corsConfig.AllowOrigins = []string{c.Config.ProdOrigins}
	} else {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")

	// Public routes
	userroute.RegisterPublic(v1, c.UserHandler)
	carroute.RegisterPublic(v1, c.CarHandler)
	bookingroute.RegisterPublic(v1, c.BookingHandler)
	feedbackroute.RegisterPublic(v1, c.FeedbackHandler)

	// Authenticated routes
	authed := v1.Group("")
	authed.Use(auth.AuthRequired(c.JWT))
	userroute.RegisterProtected(authed, c.UserHandler)
	bookingroute.RegisterProtected(authed, c.BookingHandler)
	feedbackroute.RegisterProtected(authed, c.FeedbackHandler)

	// Staff routes (support agents and admins)
	staff := v1.Group("")
	staff.Use(auth.AuthRequired(c.JWT), RequireRole(user.RoleSupportAgent, user.RoleAdmin))
	carroute.RegisterStaff(staff, c.CarHandler)
	bookingroute.RegisterStaff(staff, c.BookingHandler)

	// Admin routes
	admin := v1.Group("")
	admin.Use(auth.AuthRequired(c.JWT), RequireRole(user.RoleAdmin))
	userroute.RegisterAdmin(admin, c.UserHandler)
	carroute.RegisterAdmin(admin, c.CarHandler)

	return r
}
