package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/openverse/campus-api/internal/models"
	appErrors "github.com/openverse/campus-api/pkg/errors"
	"github.com/openverse/campus-api/pkg/response"
)

// RequirePrivileged restricts a route to privileged roles.
func RequirePrivileged() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !claims.Privileged() {
			response.Error(c, appErrors.Clone(appErrors.ErrPermissionDenied, "admin role required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSelfOrPrivileged allows the route when the :enrollmentId path
// parameter matches the caller, or the caller is privileged.
func RequireSelfOrPrivileged(param string) gin.HandlerFunc {
	if param == "" {
		param = "enrollmentId"
	}
	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if claims.Privileged() || c.Param(param) == claims.EnrollmentID {
			c.Next()
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrPermissionDenied, "not allowed to act on another user"))
		c.Abort()
	}
}

// CurrentUser extracts validated claims from the request context.
func CurrentUser(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
