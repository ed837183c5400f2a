package user

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vendora_back_end/internal/cache"
	"vendora_back_end/internal/config"
	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

// ================== AUTH SOCIALE (WEB) ==================

const oauthRedirectTTL = 10 * time.Minute

func generateRandomState() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

// withProvider recopie le paramètre de route dans la query lue par gothic.GetProviderName.
func withProvider(c *gin.Context, provider string, extra url.Values) {
	q := c.Request.URL.Query()
	q.Set("provider", provider)
	for k, v := range extra {
		q[k] = v
	}
	c.Request.URL.RawQuery = q.Encode()
}

// 🟢 GET /api/auth/oauth/:provider
func BeginAuth(c *gin.Context) {
	provider := c.Param("provider")
	if _, err := goth.GetProvider(provider); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unsupported OAuth provider"})
		return
	}

	state := generateRandomState()
	if redirectURL := c.Query("redirect_url"); redirectURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.SetJSON(ctx, "oauth_redirect:"+state, redirectURL, oauthRedirectTTL); err != nil {
			zap.S().Warnf("⚠️ Redirection OAuth non mémorisée: %v", err)
		}
	}

	withProvider(c, provider, url.Values{"state": {state}})
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// 🟢 GET /api/auth/oauth/:provider/callback
func CallbackAuth(c *gin.Context) {
	provider := c.Param("provider")
	withProvider(c, provider, nil)

	gUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		zap.S().Warnf("⚠️ Callback OAuth %s: %v", provider, err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "OAuth authentication failed"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := findOrCreateSocialUser(ctx, gUser)
	if err != nil {
		serverError(c, "OAuth authentication failed", err)
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Account is deactivated"})
		return
	}

	token, err := utils.GenerateJWT(user, utils.TokenTTL)
	if err != nil {
		serverError(c, "Error generating token", err)
		return
	}

	redirectBase := config.App.FrontendURL + "/oauth/callback"
	var stored string
	if cache.GetJSON(ctx, "oauth_redirect:"+c.Query("state"), &stored) && strings.HasPrefix(stored, config.App.FrontendURL) {
		redirectBase = stored
		_ = cache.Delete(ctx, "oauth_redirect:"+c.Query("state"))
	}

	zap.S().Infof("✅ Connexion %s: %s", provider, user.Email)
	c.Redirect(http.StatusTemporaryRedirect, redirectBase+"?token="+url.QueryEscape(token))
}

// findOrCreateSocialUser cherche par identifiant social, puis par email, sinon crée le compte.
func findOrCreateSocialUser(ctx context.Context, gUser goth.User) (*models.User, error) {
	user, err := store.Users.FindBySocialID(ctx, gUser.Provider, gUser.UserID)
	if err == nil {
		now := time.Now()
		user.LastLogin = &now
		return user, store.Users.Save(ctx, user)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if gUser.Email == "" {
		return nil, errors.Errorf("le provider %s n'a pas fourni d'email", gUser.Provider)
	}

	now := time.Now()
	user, err = store.Users.FindByEmail(ctx, gUser.Email)
	switch {
	case err == nil:
		if account := user.SocialLogins.Account(gUser.Provider); account != nil {
			*account = models.SocialAccount{ID: gUser.UserID, Email: gUser.Email}
		}
		if user.Avatar.URL == "" {
			user.Avatar.URL = gUser.AvatarURL
		}
		user.LastLogin = &now
		return user, store.Users.Save(ctx, user)
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	name := gUser.Name
	if name == "" {
		name = strings.TrimSpace(gUser.FirstName + " " + gUser.LastName)
	}
	user = models.NewUser(name, gUser.Email, models.RoleUser)
	user.IsEmailVerified = true
	user.IsOTPVerified = true
	user.Avatar.URL = gUser.AvatarURL
	user.LastLogin = &now
	if account := user.SocialLogins.Account(gUser.Provider); account != nil {
		*account = models.SocialAccount{ID: gUser.UserID, Email: gUser.Email}
	}
	if user.Password, err = randomPasswordHash(); err != nil {
		return nil, err
	}
	return user, store.Users.Create(ctx, user)
}
