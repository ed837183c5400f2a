package database

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Noms des collections
const (
	CollUsers         = "users"
	CollProducts      = "products"
	CollCarts         = "carts"
	CollOrders        = "orders"
	CollWishlists     = "wishlists"
	CollNotifications = "notifications"
	CollAuditLogs     = "audit_logs"
)

var indexesOnce sync.Once

// collectionIndexes liste les index créés au démarrage.
func collectionIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		CollUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "isActive", Value: 1}}},
			{Keys: bson.D{{Key: "socialLogins.google.id", Value: 1}}, Options: options.Index().SetSparse(true)},
			{Keys: bson.D{{Key: "passwordResetToken", Value: 1}}, Options: options.Index().SetSparse(true)},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		CollProducts: {
			{Keys: bson.D{
				{Key: "name", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "shortDescription", Value: "text"},
				{Key: "category", Value: "text"},
				{Key: "subcategory", Value: "text"},
				{Key: "brand", Value: "text"},
				{Key: "tags", Value: "text"},
			}},
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "price", Value: 1}}},
			{Keys: bson.D{{Key: "brand", Value: 1}, {Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "rating", Value: -1}, {Key: "numReviews", Value: -1}}},
			{Keys: bson.D{{Key: "isFeatured", Value: 1}, {Key: "isActive", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		CollCarts: {
			{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollOrders: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "stripePaymentIntentId", Value: 1}}, Options: options.Index().SetSparse(true)},
			{Keys: bson.D{{Key: "orderNumber", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		CollWishlists: {
			{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "shareToken", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		},
		CollNotifications: {
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "isRead", Value: 1}}},
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
		CollAuditLogs: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "resource", Value: 1}, {Key: "resourceId", Value: 1}}},
		},
	}
}

// EnsureIndexes crée les index MongoDB une seule fois par processus.
func EnsureIndexes(ctx context.Context) error {
	if Mongo == nil {
		return errors.New("MongoDB non initialisé")
	}

	var firstErr error
	indexesOnce.Do(func() {
		for coll, models := range collectionIndexes() {
			names, err := Mongo.Collection(coll).Indexes().CreateMany(ctx, models)
			if err != nil {
				zap.L().Error("❌ Création des index", zap.String("collection", coll), zap.Error(err))
				if firstErr == nil {
					firstErr = errors.Wrapf(err, "index %s", coll)
				}
				continue
			}
			zap.S().Debugf("📇 %d index prêts sur %s", len(names), coll)
		}
		if firstErr == nil {
			zap.S().Info("✅ Index MongoDB initialisés")
		}
	})
	return firstErr
}
