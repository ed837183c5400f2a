package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vendora_back_end/internal/auth"
	"vendora_back_end/internal/middleware"
	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

type googleTokenInput struct {
	Token string `json:"token"`
}

// randomPasswordHash donne un mot de passe inutilisable aux comptes créés via un provider social.
func randomPasswordHash() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return utils.HashPassword(hex.EncodeToString(buf))
}

func verifyGoogleToken(c *gin.Context, ctx context.Context) (*auth.GoogleProfile, bool) {
	var input googleTokenInput
	if err := c.ShouldBindJSON(&input); err != nil || input.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Google token is required"})
		return nil, false
	}

	profile, err := auth.Google.Verify(ctx, input.Token)
	if err != nil {
		zap.S().Warnf("⚠️ Token Google refusé: %v", err)
		if errors.Is(err, auth.ErrInvalidGoogleToken) || errors.Is(err, auth.ErrAudienceMismatch) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid Google token"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error during Google authentication"})
		return nil, false
	}
	return profile, true
}

// 🟢 POST /api/auth/google
func GoogleLogin(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	profile, ok := verifyGoogleToken(c, ctx)
	if !ok {
		return
	}
	if profile.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Email not provided by Google"})
		return
	}

	user, err := store.Users.FindByEmail(ctx, profile.Email)
	isNew := false
	switch {
	case err == nil:
		if user.SocialLogins.Google.ID == "" {
			user.SocialLogins.Google = models.SocialAccount{ID: profile.Subject, Email: profile.Email}
			if user.Avatar.URL == "" && profile.Picture != "" {
				user.Avatar.URL = profile.Picture
			}
		}
	case errors.Is(err, store.ErrNotFound):
		user = models.NewUser(profile.Name, profile.Email, models.RoleUser)
		user.IsEmailVerified = true
		user.IsOTPVerified = true
		user.SocialLogins.Google = models.SocialAccount{ID: profile.Subject, Email: profile.Email}
		user.Avatar.URL = profile.Picture
		if user.Password, err = randomPasswordHash(); err != nil {
			serverError(c, "Internal server error during Google authentication", err)
			return
		}
		isNew = true
	default:
		serverError(c, "Internal server error during Google authentication", err)
		return
	}

	now := time.Now()
	user.LastLogin = &now
	if isNew {
		err = store.Users.Create(ctx, user)
	} else {
		err = store.Users.Save(ctx, user)
	}
	if err != nil {
		serverError(c, "Internal server error during Google authentication", err)
		return
	}

	token, err := utils.GenerateJWT(user, utils.TokenTTL)
	if err != nil {
		serverError(c, "Internal server error during Google authentication", err)
		return
	}

	zap.S().Infof("✅ Connexion Google: %s (nouveau=%v)", user.Email, isNew)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Google login successful",
		"token":   token,
		"user": gin.H{
			"_id":             user.ID,
			"name":            user.Name,
			"email":           user.Email,
			"role":            user.Role,
			"avatar":          user.Avatar,
			"isEmailVerified": user.IsEmailVerified,
			"socialLogins":    user.SocialLogins,
		},
	})
}

// 🟢 POST /api/auth/google/link
func LinkGoogle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	profile, ok := verifyGoogleToken(c, ctx)
	if !ok {
		return
	}

	user := middleware.CurrentUser(c)
	existing, err := store.Users.FindBySocialID(ctx, "google", profile.Subject)
	if err == nil && existing.ID != user.ID {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "This Google account is already linked to another user"})
		return
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		serverError(c, "Internal server error while linking Google account", err)
		return
	}

	user.SocialLogins.Google = models.SocialAccount{ID: profile.Subject, Email: profile.Email}
	if err := store.Users.Save(ctx, user); err != nil {
		serverError(c, "Internal server error while linking Google account", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Google account linked successfully",
		"user": gin.H{
			"_id":          user.ID,
			"name":         user.Name,
			"email":        user.Email,
			"socialLogins": user.SocialLogins,
		},
	})
}

// 🟢 POST /api/auth/google/unlink
func UnlinkGoogle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user := middleware.CurrentUser(c)
	if user.SocialLogins.Google.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No Google account linked to this user"})
		return
	}

	user.SocialLogins.Google = models.SocialAccount{}
	if err := store.Users.Save(ctx, user); err != nil {
		serverError(c, "Internal server error while unlinking Google account", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Google account unlinked successfully"})
}
