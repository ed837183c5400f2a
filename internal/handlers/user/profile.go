package user

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vendora_back_end/internal/middleware"
	"vendora_back_end/internal/models"
	"vendora_back_end/internal/services"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

func profileView(u *models.User) gin.H {
	return gin.H{
		"_id":       u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"role":      u.Role,
		"avatar":    u.Avatar,
		"addresses": u.Addresses,
		"phone":     u.Phone,
		"createdAt": u.CreatedAt,
		"lastLogin": u.LastLogin,
	}
}

// 🟢 GET /api/auth/profile
func GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": profileView(middleware.CurrentUser(c))})
}

// 🟢 PUT /api/auth/profile
func UpdateProfile(c *gin.Context) {
	var input struct {
		Name  string `json:"name" binding:"omitempty,min=2,max=50"`
		Email string `json:"email" binding:"omitempty,email"`
		Phone string `json:"phone" binding:"omitempty,max=30"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user := middleware.CurrentUser(c)

	if email := strings.ToLower(strings.TrimSpace(input.Email)); email != "" && email != user.Email {
		if _, err := store.Users.FindByEmail(ctx, email); err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Email already in use"})
			return
		} else if !errors.Is(err, store.ErrNotFound) {
			serverError(c, "Server error", err)
			return
		}
		user.Email = email
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		user.Name = name
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		user.Phone = phone
	}

	if err := store.Users.Save(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Email already in use"})
			return
		}
		serverError(c, "Error updating profile", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    profileView(user),
	})
}

// 🟢 POST /api/auth/avatar
func UploadAvatar(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No file uploaded"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user := middleware.CurrentUser(c)
	url, err := services.UploadFile(ctx, "avatars", file)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidImage):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Only image files are allowed"})
		case errors.Is(err, services.ErrStorageUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "File storage is not available"})
		default:
			serverError(c, "Error uploading avatar", err)
		}
		return
	}

	user.Avatar = models.Avatar{URL: url}
	if err := store.Users.Save(ctx, user); err != nil {
		serverError(c, "Error saving avatar", err)
		return
	}

	zap.S().Infof("🖼️ Avatar mis à jour pour %s", user.Email)
	c.JSON(http.StatusOK, gin.H{
		"message": "Avatar updated successfully",
		"avatar":  user.Avatar,
	})
}
