package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drivehub/car-rental-backend/internal/auth"
	"github.com/drivehub/car-rental-backend/internal/user"
)

// RequireRole aborts the request unless the authenticated user's role is
// one of the allowed roles. Must run after auth.AuthRequired.
func RequireRole(roles ...user.Role) gin.HandlerFunc {
	allowed := make(map[user.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role := user.Role(auth.GetUserRole(c))
		if _, ok := allowed[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "insufficient permissions",
			})
			return
		}
		c.Next()
	}
}
