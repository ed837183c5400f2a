package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vendora_back_end/internal/models"
)

type mongoWishlists struct {
	coll *mongo.Collection
}

func (s *mongoWishlists) FindByUser(ctx context.Context, user primitive.ObjectID) (*models.Wishlist, error) {
	var w models.Wishlist
	if err := s.coll.FindOne(ctx, bson.M{"user": user}).Decode(&w); err != nil {
		return nil, wrap(err, "lecture wishlist")
	}
	return &w, nil
}

func (s *mongoWishlists) FindByShareToken(ctx context.Context, token string) (*models.Wishlist, error) {
	var w models.Wishlist
	if err := s.coll.FindOne(ctx, bson.M{"shareToken": token, "isPublic": true}).Decode(&w); err != nil {
		return nil, wrap(err, "lecture wishlist partagée")
	}
	return &w, nil
}

func (s *mongoWishlists) Save(ctx context.Context, w *models.Wishlist) error {
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	w.UpdatedAt = time.Now()
	_, err := s.coll.ReplaceOne(ctx, bson.M{"user": w.User}, w, options.Replace().SetUpsert(true))
	return wrap(err, "sauvegarde wishlist")
}

func (s *mongoWishlists) UsersWithProduct(ctx context.Context, product primitive.ObjectID) ([]primitive.ObjectID, error) {
	values, err := s.coll.Distinct(ctx, "user", bson.M{"products.product": product})
	if err != nil {
		return nil, wrap(err, "wishlists du produit")
	}
	users := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		if id, ok := v.(primitive.ObjectID); ok {
			users = append(users, id)
		}
	}
	return users, nil
}

func (s *mongoWishlists) DeleteByUser(ctx context.Context, user primitive.ObjectID) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"user": user})
	return wrap(err, "suppression wishlist")
}
