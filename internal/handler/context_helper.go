package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stars-api/internal/middleware"
	"github.com/noah-isme/stars-api/internal/models"
)

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

// targetMatric resolves the matric number a request acts on: admins may name
// any student through the route parameter, students always act on themselves.
func targetMatric(c *gin.Context, claims *models.JWTClaims) string {
	param := c.Param("matricNo")
	if claims == nil {
		return param
	}
	if claims.Role == models.RoleAdmin && param != "" {
		return param
	}
	return claims.MatricNo
}
