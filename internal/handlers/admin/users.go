package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

func serverError(c *gin.Context, message string, err error) {
	zap.S().Errorw("❌ "+message, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": message})
}

func notFoundOr500(c *gin.Context, err error, notFoundMessage string) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": notFoundMessage})
		return
	}
	serverError(c, "Server error", err)
}

// 🟢 GET /api/auth/users
func GetAllUsers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users, err := store.Users.List(ctx)
	if err != nil {
		serverError(c, "Error fetching users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// 🟢 DELETE /api/auth/users/:id
func DeleteUser(c *gin.Context) {
	if c.Param("id") == c.GetString("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"message": "You cannot delete your own account while logged in."})
		return
	}

	userID, ok := utils.ParseObjectID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.Users.Delete(ctx, userID); err != nil {
		notFoundOr500(c, err, "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// 🟢 DELETE /api/auth/users
func DeleteAllUsers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := store.Users.DeleteAll(ctx)
	if err != nil {
		serverError(c, "Error deleting users", err)
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "No users to delete"})
		return
	}

	zap.S().Warnf("🗑️ %d utilisateurs supprimés par %s", deleted, c.GetString("email"))
	c.JSON(http.StatusOK, gin.H{"message": "User deleted", "deletedCount": deleted})
}
