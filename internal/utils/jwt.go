package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"vendora_back_end/internal/config"
	"vendora_back_end/internal/models"
)

const (
	TokenTTL         = 24 * time.Hour
	RememberTokenTTL = 30 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("token invalide")

// TokenClaims est la vue typée des claims d'un JWT d'accès.
type TokenClaims struct {
	UserID    string
	Email     string
	Role      string
	Name      string
	JTI       string
	ExpiresAt time.Time
}

func jwtSecret() []byte {
	secret := config.App.JWTSecret
	if secret == "" {
		secret = "super_secret"
	}
	return []byte(secret)
}

// GenerateJWT signe un token HS256 valable ttl.
func GenerateJWT(user *models.User, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = TokenTTL
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID.Hex(),
		"email":   user.Email,
		"role":    user.Role,
		"name":    user.Name,
		"jti":     uuid.NewString(),
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}

// ParseJWT vérifie la signature et l'expiration.
func ParseJWT(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	out := &TokenClaims{}
	out.UserID, _ = claims["user_id"].(string)
	out.Email, _ = claims["email"].(string)
	out.Role, _ = claims["role"].(string)
	out.Name, _ = claims["name"].(string)
	out.JTI, _ = claims["jti"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if out.UserID == "" {
		return nil, ErrInvalidToken
	}
	return out, nil
}
