package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vendora_back_end/internal/models"
)

// RequireAdmin vérifie que l'utilisateur a le rôle "admin"
func RequireAdmin(c *gin.Context) {
	if c.GetString("role") != models.RoleAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Not authorized as an admin"})
		return
	}
	c.Next()
}
