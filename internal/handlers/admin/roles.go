package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

// UpdateUserRole change le rôle d'un utilisateur (PUT /api/auth/users/:userId/role).
func UpdateUserRole(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.AbortValidation(c, err)
		return
	}
	if !models.IsValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid role"})
		return
	}

	userID, ok := utils.ParseObjectID(c.Param("userId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := store.Users.FindByID(ctx, userID)
	if err != nil {
		notFoundOr500(c, err, "User not found")
		return
	}

	oldRole := user.Role
	user.Role = req.Role
	if err := store.Users.Save(ctx, user); err != nil {
		serverError(c, "Error updating role", err)
		return
	}

	utils.LogAction(c, utils.ACTION_ROLE_ASSIGN, utils.RESOURCE_USER, user.ID.Hex(),
		gin.H{"role": oldRole}, gin.H{"role": user.Role})
	zap.S().Infof("🛡️ Rôle de %s: %s → %s", user.Email, oldRole, user.Role)

	c.JSON(http.StatusOK, gin.H{
		"message": "User role updated successfully",
		"user":    user,
	})
}
