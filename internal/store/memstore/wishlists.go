package memstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
)

type Wishlists struct {
	base
	data map[string]*models.Wishlist
}

func (s *Wishlists) FindByUser(_ context.Context, user primitive.ObjectID) (*models.Wishlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.data[user.Hex()]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(w), nil
}

func (s *Wishlists) FindByShareToken(_ context.Context, token string) (*models.Wishlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.data {
		if w.ShareToken == token && w.IsPublic {
			return clone(w), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Wishlists) Save(_ context.Context, w *models.Wishlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	w.UpdatedAt = time.Now()
	s.data[w.User.Hex()] = clone(w)
	return nil
}

func (s *Wishlists) UsersWithProduct(_ context.Context, product primitive.ObjectID) ([]primitive.ObjectID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var users []primitive.ObjectID
	for _, w := range s.data {
		if w.HasProduct(product) {
			users = append(users, w.User)
		}
	}
	return users, nil
}

func (s *Wishlists) DeleteByUser(_ context.Context, user primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, user.Hex())
	return nil
}
