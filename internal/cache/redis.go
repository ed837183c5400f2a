// Package cache regroupe les accès Redis. Toutes les fonctions tolèrent
// l'absence de Redis (database.Redis == nil) et se comportent alors comme
// un cache vide.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"vendora_back_end/internal/database"
)

// Enabled indique si Redis est branché.
func Enabled() bool {
	return database.Redis != nil
}

// --- Blacklist JWT (révocation avant expiration) ---

// BlacklistToken ajoute un token JWT à la blacklist
func BlacklistToken(ctx context.Context, tokenID string, duration time.Duration) error {
	if !Enabled() || tokenID == "" || duration <= 0 {
		return nil
	}
	key := fmt.Sprintf("blacklist:%s", tokenID)
	return database.Redis.Set(ctx, key, "revoked", duration).Err()
}

// IsTokenBlacklisted vérifie si un token est blacklisté
func IsTokenBlacklisted(ctx context.Context, tokenID string) bool {
	if !Enabled() || tokenID == "" {
		return false
	}
	key := fmt.Sprintf("blacklist:%s", tokenID)
	exists, err := database.Redis.Exists(ctx, key).Result()
	if err != nil {
		zap.L().Warn("⚠️ Erreur vérification blacklist", zap.Error(err))
		return false
	}
	return exists > 0
}

// --- Cache générique ---

// SetJSON sérialise value et la stocke pour duration.
func SetJSON(ctx context.Context, key string, value interface{}, duration time.Duration) error {
	if !Enabled() {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "sérialisation cache")
	}
	return database.Redis.Set(ctx, key, raw, duration).Err()
}

// GetJSON remplit dest et retourne true en cas de hit.
func GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if !Enabled() {
		return false
	}
	raw, err := database.Redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Warn("⚠️ Lecture cache", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// Delete supprime des clés du cache
func Delete(ctx context.Context, keys ...string) error {
	if !Enabled() || len(keys) == 0 {
		return nil
	}
	return database.Redis.Del(ctx, keys...).Err()
}

// DeletePattern supprime toutes les clés correspondant au motif (SCAN).
func DeletePattern(ctx context.Context, pattern string) error {
	if !Enabled() {
		return nil
	}
	iter := database.Redis.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := database.Redis.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// SetOnce pose un marqueur s'il n'existe pas encore; false si déjà posé.
// Sans Redis le marqueur est toujours considéré comme nouveau.
func SetOnce(ctx context.Context, key string, duration time.Duration) (bool, error) {
	if !Enabled() {
		return true, nil
	}
	return database.Redis.SetNX(ctx, key, "1", duration).Result()
}

// --- Rate Limiting ---

// IncrementRateLimit incrémente le compteur de la fenêtre
func IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error) {
	if !Enabled() {
		return 0, nil
	}
	pipe := database.Redis.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// GetCount lit un compteur (0 si absent).
func GetCount(ctx context.Context, key string) (int64, error) {
	if !Enabled() {
		return 0, nil
	}
	val, err := database.Redis.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}

// TTL retourne la durée de vie restante d'une clé.
func TTL(ctx context.Context, key string) time.Duration {
	if !Enabled() {
		return 0
	}
	ttl, err := database.Redis.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		return 0
	}
	return ttl
}

// Exists indique si la clé existe.
func Exists(ctx context.Context, key string) bool {
	if !Enabled() {
		return false
	}
	n, err := database.Redis.Exists(ctx, key).Result()
	return err == nil && n > 0
}

// SetWithTTL pose une valeur simple.
func SetWithTTL(ctx context.Context, key, value string, duration time.Duration) error {
	if !Enabled() {
		return nil
	}
	return database.Redis.Set(ctx, key, value, duration).Err()
}
