package user

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vendora_back_end/internal/config"
	"vendora_back_end/internal/middleware"
	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

const forgotPasswordMessage = "If an account with that email exists, we have sent a password reset link."

// ================== CHANGE PASSWORD (avec ancien mot de passe) ==================

// 🟢 PUT /api/auth/change-password
func ChangePassword(c *gin.Context) {
	var input struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	user := middleware.CurrentUser(c)
	if !utils.CheckPassword(input.CurrentPassword, user.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Current password is incorrect"})
		return
	}

	hashed, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		serverError(c, "Error hashing password", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user.Password = hashed
	if err := store.Users.Save(ctx, user); err != nil {
		serverError(c, "Error saving password", err)
		return
	}

	zap.S().Infof("🔑 Mot de passe modifié pour %s", user.Email)
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// ================== FORGOT / RESET PASSWORD ==================

// 🟢 POST /api/auth/forgot-password
func ForgotPassword(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := store.Users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Ne pas révéler si l'email existe
			c.JSON(http.StatusOK, gin.H{"message": forgotPasswordMessage})
			return
		}
		serverError(c, "Server error", err)
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Account is deactivated"})
		return
	}

	resetToken, err := user.GeneratePasswordResetToken()
	if err != nil {
		serverError(c, "Error generating reset token", err)
		return
	}
	if err := store.Users.Save(ctx, user); err != nil {
		serverError(c, "Error saving reset token", err)
		return
	}

	resetURL := config.App.FrontendURL + "/reset-password/" + resetToken
	if err := utils.SendPasswordResetEmail(user.Email, user.Name, resetURL); err != nil {
		zap.S().Errorw("❌ Envoi email de reset impossible", "email", user.Email, "error", err)

		user.ClearPasswordReset()
		if err := store.Users.Save(ctx, user); err != nil {
			zap.S().Warnf("⚠️ Nettoyage du token de reset impossible: %v", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send password reset email. Please try again."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": forgotPasswordMessage})
}

// 🟢 POST /api/auth/reset-password
func ResetPassword(c *gin.Context) {
	var input struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := store.Users.FindByResetToken(ctx, models.HashToken(input.Token), time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Password reset token is invalid or has expired"})
			return
		}
		serverError(c, "Server error", err)
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Account is deactivated"})
		return
	}

	hashed, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		serverError(c, "Error hashing password", err)
		return
	}

	user.Password = hashed
	user.ClearPasswordReset()
	user.ResetLoginAttempts()
	if err := store.Users.Save(ctx, user); err != nil {
		serverError(c, "Error saving password", err)
		return
	}

	zap.S().Infof("🔑 Mot de passe réinitialisé pour %s", user.Email)
	c.JSON(http.StatusOK, gin.H{
		"message": "Password has been reset successfully. You can now log in with your new password.",
	})
}
