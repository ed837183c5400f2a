package memstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
)

type Carts struct {
	base
	data map[string]*models.Cart
}

func (s *Carts) FindByUser(_ context.Context, user primitive.ObjectID) (*models.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.data[user.Hex()]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(c), nil
}

func (s *Carts) Save(_ context.Context, c *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.UpdatedAt = time.Now()
	s.data[c.User.Hex()] = clone(c)
	return nil
}

func (s *Carts) DeleteByUser(_ context.Context, user primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, user.Hex())
	return nil
}

type Orders struct {
	base
	data map[string]*models.Order
}

func (s *Orders) Create(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	o.EnsureOrderNumber()
	s.data[o.ID.Hex()] = clone(o)
	return nil
}

func (s *Orders) Save(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[o.ID.Hex()]; !ok {
		return store.ErrNotFound
	}
	o.UpdatedAt = time.Now()
	s.data[o.ID.Hex()] = clone(o)
	return nil
}

func (s *Orders) MarkPaid(_ context.Context, o *models.Order) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.data[o.ID.Hex()]
	if !ok || cur.IsPaid {
		return false, nil
	}
	cur.IsPaid = true
	cur.PaidAt = o.PaidAt
	cur.PaymentResult = clone(o.PaymentResult)
	cur.Status = o.Status
	cur.UpdatedAt = o.UpdatedAt
	return true, nil
}

func (s *Orders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.data[id.Hex()]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(o), nil
}

func (s *Orders) FindByPaymentIntent(_ context.Context, intentID string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.data {
		if o.StripePaymentIntentID == intentID {
			return clone(o), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Orders) List(_ context.Context, q store.OrderQuery) ([]models.Order, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []models.Order
	for _, o := range s.data {
		if q.User != nil && o.User != *q.User {
			continue
		}
		if q.Status != "" && o.Status != q.Status {
			continue
		}
		if q.PaymentMethod != "" && o.PaymentMethod != q.PaymentMethod {
			continue
		}
		all = append(all, *clone(o))
	}
	sortDesc(all, func(o models.Order) int64 { return o.CreatedAt.UnixNano() })
	out := append([]models.Order{}, page(all, q.Page, q.Limit)...)
	return out, int64(len(all)), nil
}

func (s *Orders) Stats(_ context.Context) (store.OrderStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats store.OrderStats
	for _, o := range s.data {
		stats.TotalOrders++
		stats.TotalRevenue += o.TotalPrice
	}
	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = stats.TotalRevenue / float64(stats.TotalOrders)
	}
	return stats, nil
}

func (s *Orders) PaidByUser(_ context.Context, user primitive.ObjectID, limit int) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Order{}
	for _, o := range s.data {
		if o.User == user && o.IsPaid {
			out = append(out, *clone(o))
		}
	}
	sortDesc(out, func(o models.Order) int64 {
		if o.PaidAt == nil {
			return 0
		}
		return o.PaidAt.UnixNano()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Orders) HasPurchased(_ context.Context, user, product primitive.ObjectID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.data {
		if o.User == user && o.IsPaid && o.ContainsProduct(product) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Orders) DeleteAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.data))
	s.data = map[string]*models.Order{}
	return n, nil
}
