package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vendora_back_end/internal/cache"
	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

// Clés posées dans le contexte gin
const (
	CtxUser     = "user"
	CtxTokenID  = "token_id"
	CtxTokenExp = "token_exp"
)

// bearerToken extrait le token du header "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// authenticate valide le token puis charge l'utilisateur actif correspondant.
func authenticate(tokenString string) (*models.User, *utils.TokenClaims, string) {
	claims, err := utils.ParseJWT(tokenString)
	if err != nil {
		return nil, nil, "Not authorized, token failed"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if cache.IsTokenBlacklisted(ctx, claims.JTI) {
		return nil, nil, "Token has been revoked"
	}

	id, ok := utils.ParseObjectID(claims.UserID)
	if !ok {
		return nil, nil, "Not authorized, token failed"
	}
	user, err := store.Users.FindByID(ctx, id)
	if err != nil {
		return nil, nil, "Not authorized, user not found"
	}
	if !user.IsActive {
		return nil, nil, "Account is deactivated"
	}
	return user, claims, ""
}

func setUser(c *gin.Context, user *models.User, claims *utils.TokenClaims) {
	c.Set(CtxUser, user)
	c.Set("user_id", user.ID.Hex())
	c.Set("email", user.Email)
	c.Set("role", user.Role)
	c.Set("name", user.Name)
	c.Set(CtxTokenID, claims.JTI)
	c.Set(CtxTokenExp, claims.ExpiresAt)
}

// AuthRequired exige un JWT valide, non révoqué, appartenant à un compte actif.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, no token"})
			return
		}

		user, claims, reason := authenticate(tokenString)
		if user == nil {
			zap.S().Debugf("🔐 Accès refusé sur %s: %s", c.FullPath(), reason)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": reason})
			return
		}

		setUser(c, user, claims)
		c.Next()
	}
}

// OptionalAuth attache l'utilisateur si un token valide est présent, sans jamais bloquer.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := bearerToken(c); tokenString != "" {
			if user, claims, _ := authenticate(tokenString); user != nil {
				setUser(c, user, claims)
			}
		}
		c.Next()
	}
}

// CurrentUser retourne l'utilisateur authentifié, nil s'il n'y en a pas.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CtxUser); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}
