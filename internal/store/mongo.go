package store

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
)

// UseMongo branche les implémentations MongoDB sur les instances globales.
func UseMongo(db *mongo.Database) {
	Users = &mongoUsers{coll: db.Collection("users")}
	Products = &mongoProducts{coll: db.Collection("products")}
	Carts = &mongoCarts{coll: db.Collection("carts")}
	Orders = &mongoOrders{coll: db.Collection("orders")}
	Wishlists = &mongoWishlists{coll: db.Collection("wishlists")}
	Notifications = &mongoNotifications{coll: db.Collection("notifications")}
	Audit = &mongoAudit{coll: db.Collection("audit_logs")}
}

// wrap traduit les erreurs du driver en erreurs du paquet.
func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return errors.Wrap(err, msg)
}
