package memstore

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
)

type Users struct {
	base
	data map[string]*models.User
}

func (s *Users) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	for _, existing := range s.data {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	s.data[u.ID.Hex()] = clone(u)
	return nil
}

func (s *Users) Save(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[u.ID.Hex()]; !ok {
		return store.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	s.data[u.ID.Hex()] = clone(u)
	return nil
}

func (s *Users) find(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.data {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.ID == id })
}

func (s *Users) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[primitive.ObjectID]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := s.data[id.Hex()]; ok {
			out[id] = clone(u)
		}
	}
	return out, nil
}

func (s *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.find(func(u *models.User) bool { return u.Email == email })
}

func (s *Users) FindByResetToken(_ context.Context, hashedToken string, now time.Time) (*models.User, error) {
	return s.find(func(u *models.User) bool {
		return u.PasswordResetToken == hashedToken &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now)
	})
}

func (s *Users) FindBySocialID(_ context.Context, provider, socialID string) (*models.User, error) {
	return s.find(func(u *models.User) bool {
		acc := u.SocialLogins.Account(provider)
		return acc != nil && acc.ID == socialID
	})
}

func (s *Users) List(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.data))
	for _, u := range s.data {
		out = append(out, *clone(u))
	}
	sortDesc(out, func(u models.User) int64 { return u.CreatedAt.UnixNano() })
	return out, nil
}

func (s *Users) ListIDs(_ context.Context, filter store.UserFilter) ([]primitive.ObjectID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []primitive.ObjectID
	for _, u := range s.data {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.ActiveOnly && !u.IsActive {
			continue
		}
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (s *Users) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id.Hex()]; !ok {
		return store.ErrNotFound
	}
	delete(s.data, id.Hex())
	return nil
}

func (s *Users) DeleteAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.data))
	s.data = map[string]*models.User{}
	return n, nil
}
