package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vendora_back_end/internal/cache"
)

const (
	// Limites par endpoint
	LoginMaxAttempts          = 5
	RegisterMaxAttempts       = 3
	ForgotPasswordMaxAttempts = 3
	APIMaxRequests            = 100 // Par minute pour les endpoints généraux
	CartMaxRequests           = 20
	SearchMaxRequests         = 30

	// Durées de cooldown
	LoginCooldown          = 15 * time.Minute
	RegisterCooldown       = 30 * time.Minute
	ForgotPasswordCooldown = 10 * time.Minute
	APICooldown            = 1 * time.Minute
)

// peekEmail lit l'email du body JSON sans le consommer.
func peekEmail(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	bodyBytes, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	// Remettre le body pour les handlers suivants
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	var input struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(bodyBytes, &input); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(input.Email))
}

func tooManyRequests(c *gin.Context, message string, retryAfter time.Duration) {
	c.Header("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"message":     message,
		"retry_after": int(retryAfter.Seconds()),
	})
}

// cooldownGuard bloque la requête si la clé de cooldown est posée.
func cooldownGuard(c *gin.Context, ctx context.Context, cooldownKey, message string) bool {
	if !cache.Exists(ctx, cooldownKey) {
		return false
	}
	ttl := cache.TTL(ctx, cooldownKey)
	tooManyRequests(c, fmt.Sprintf("%s. Try again in %d minutes", message, int(ttl.Minutes())+1), ttl)
	return true
}

// attemptsGuard passe en cooldown quand le compteur atteint limit.
func attemptsGuard(c *gin.Context, ctx context.Context, key, cooldownKey string, limit int64, cooldown time.Duration, message string) (int64, bool) {
	attempts, err := cache.GetCount(ctx, key)
	if err != nil {
		zap.L().Warn("⚠️ Lecture compteur rate limit", zap.String("key", key), zap.Error(err))
		return 0, false
	}
	if attempts < limit {
		return attempts, false
	}
	_ = cache.SetWithTTL(ctx, cooldownKey, "1", cooldown)
	_ = cache.Delete(ctx, key)
	tooManyRequests(c, fmt.Sprintf("%s. Try again in %d minutes", message, int(cooldown.Minutes())), cooldown)
	return attempts, true
}

// LoginRateLimit limite les tentatives de connexion échouées par email
func LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := peekEmail(c)
		if email == "" || !cache.Enabled() {
			c.Next()
			return
		}

		ctx := context.Background()
		key := "login_attempts:" + email
		cooldownKey := "login_cooldown:" + email

		if cooldownGuard(c, ctx, cooldownKey, "Too many failed login attempts") {
			return
		}
		if _, blocked := attemptsGuard(c, ctx, key, cooldownKey, LoginMaxAttempts, LoginCooldown, "Too many failed login attempts"); blocked {
			return
		}

		c.Next()

		switch c.Writer.Status() {
		case http.StatusUnauthorized:
			if _, err := cache.IncrementRateLimit(ctx, key, LoginCooldown); err != nil {
				zap.L().Warn("⚠️ Incrément tentatives login", zap.Error(err))
			}
		case http.StatusOK:
			_ = cache.Delete(ctx, key, cooldownKey)
		}
	}
}

// RegisterRateLimit limite les inscriptions par IP
func RegisterRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cache.Enabled() {
			c.Next()
			return
		}

		ctx := context.Background()
		ip := c.ClientIP()
		key := "register_attempts:" + ip
		cooldownKey := "register_cooldown:" + ip

		if cooldownGuard(c, ctx, cooldownKey, "Too many registrations") {
			return
		}
		if _, blocked := attemptsGuard(c, ctx, key, cooldownKey, RegisterMaxAttempts, RegisterCooldown, "Too many registrations"); blocked {
			return
		}

		c.Next()

		if status := c.Writer.Status(); status == http.StatusCreated || status == http.StatusOK {
			_, _ = cache.IncrementRateLimit(ctx, key, RegisterCooldown)
		}
	}
}

// ForgotPasswordRateLimit limite les demandes de reset de mot de passe
func ForgotPasswordRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := peekEmail(c)
		if email == "" || !cache.Enabled() {
			c.Next()
			return
		}

		ctx := context.Background()
		key := "forgot_password_attempts:" + email
		cooldownKey := "forgot_password_cooldown:" + email

		if cooldownGuard(c, ctx, cooldownKey, "Too many password reset requests") {
			return
		}
		if _, blocked := attemptsGuard(c, ctx, key, cooldownKey, ForgotPasswordMaxAttempts, ForgotPasswordCooldown, "Too many password reset requests"); blocked {
			return
		}

		c.Next()

		if c.Writer.Status() == http.StatusOK {
			_, _ = cache.IncrementRateLimit(ctx, key, ForgotPasswordCooldown)
		}
	}
}

// windowLimit compte les requêtes d'une clé sur une fenêtre d'une minute.
func windowLimit(prefix string, limit int64, message string, identify func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := identify(c)
		if id == "" || !cache.Enabled() {
			c.Next()
			return
		}

		ctx := context.Background()
		count, err := cache.IncrementRateLimit(ctx, prefix+id, APICooldown)
		if err != nil {
			zap.L().Warn("⚠️ Rate limit indisponible", zap.String("prefix", prefix), zap.Error(err))
			c.Next()
			return
		}
		if count > limit {
			tooManyRequests(c, message, APICooldown)
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", limit-count))
		c.Next()
	}
}

func clientIP(c *gin.Context) string { return c.ClientIP() }

func userID(c *gin.Context) string { return c.GetString("user_id") }

// APIRateLimit limite le nombre de requêtes par IP (général)
func APIRateLimit() gin.HandlerFunc {
	return windowLimit("api_requests:", APIMaxRequests, "Too many requests. Try again in 1 minute", clientIP)
}

// CartRateLimit limite les ajouts au panier (anti-spam)
func CartRateLimit() gin.HandlerFunc {
	return windowLimit("cart_add:", CartMaxRequests, "Too many cart updates. Slow down a little", userID)
}

// SearchRateLimit limite les recherches (anti-spam)
func SearchRateLimit() gin.HandlerFunc {
	return windowLimit("search_requests:", SearchMaxRequests, "Too many searches. Try again in 1 minute", clientIP)
}
