package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/openverse/campus-api/internal/middleware"
	"github.com/openverse/campus-api/internal/models"
)

// claimsFromContext returns the validated claims set by the JWT
// middleware, or nil on anonymous requests.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
