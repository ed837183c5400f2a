package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
)

type Products struct {
	base
	data map[string]*models.Product
}

func (s *Products) Create(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.Prepare()
	s.data[p.ID.Hex()] = clone(p)
	return nil
}

// Update recopie sur le document stocké les seuls champs nommés, en passant par
// l'encodage bson comme le ferait un $set.
func (s *Products) Update(_ context.Context, p *models.Product, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.data[p.ID.Hex()]
	if !ok {
		return store.ErrNotFound
	}
	set, unset, err := store.ProductFields(p, fields...)
	if err != nil {
		return err
	}

	raw, err := bson.Marshal(cur)
	if err != nil {
		return err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return err
	}
	for k, v := range set {
		doc[k] = v
	}
	for _, k := range unset {
		delete(doc, k)
	}
	if raw, err = bson.Marshal(doc); err != nil {
		return err
	}
	var next models.Product
	if err := bson.Unmarshal(raw, &next); err != nil {
		return err
	}
	next.UpdatedAt = time.Now()
	p.UpdatedAt = next.UpdatedAt
	s.data[p.ID.Hex()] = &next
	return nil
}

func (s *Products) AddReview(_ context.Context, id primitive.ObjectID, r models.Review) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data[id.Hex()]
	if !ok {
		return nil, store.ErrNotFound
	}
	if p.HasReviewFrom(r.User) {
		return nil, store.ErrDuplicate
	}
	p.Reviews = append(p.Reviews, r)
	p.CalculateAverageRating()
	p.UpdatedAt = time.Now()
	return clone(p), nil
}

func (s *Products) AddImage(_ context.Context, id primitive.ObjectID, img models.ProductImage) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data[id.Hex()]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.AddImage(img)
	p.UpdatedAt = time.Now()
	return clone(p), nil
}

func (s *Products) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.data[id.Hex()]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(p), nil
}

// withoutReviews reproduit la projection {reviews: 0}.
func withoutReviews(p *models.Product) models.Product {
	c := clone(p)
	c.Reviews = nil
	return *c
}

func (s *Products) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[primitive.ObjectID]*models.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.data[id.Hex()]; ok {
			c := withoutReviews(p)
			out[id] = &c
		}
	}
	return out, nil
}

func matches(p *models.Product, q store.ProductQuery) bool {
	if !p.IsActive {
		return false
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if q.MinPrice != nil && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.Price > *q.MaxPrice {
		return false
	}
	if q.Brand != "" && !containsFold(p.Brand, q.Brand) {
		return false
	}
	if q.MinRating != nil && p.Rating < *q.MinRating {
		return false
	}
	if q.Featured && !p.IsFeatured {
		return false
	}
	if q.Search != "" {
		found := false
		for _, term := range strings.Fields(q.Search) {
			if containsFold(p.Name, term) || containsFold(p.Description, term) || containsFold(strings.Join(p.Tags, " "), term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sortProducts(items []models.Product, sortBy string) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch sortBy {
		case store.SortPriceAsc:
			return a.Price < b.Price
		case store.SortPriceDesc:
			return a.Price > b.Price
		case store.SortRating:
			return a.Rating > b.Rating
		case store.SortName:
			return a.Name < b.Name
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
}

func (s *Products) List(_ context.Context, q store.ProductQuery) ([]models.Product, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []models.Product
	for _, p := range s.data {
		if matches(p, q) {
			all = append(all, withoutReviews(p))
		}
	}
	sortProducts(all, q.SortBy)
	out := append([]models.Product{}, page(all, q.Page, q.Limit)...)
	return out, int64(len(all)), nil
}

func (s *Products) Distinct(_ context.Context, field string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]bool{}
	out := []string{}
	for _, p := range s.data {
		if !p.IsActive {
			continue
		}
		var v string
		switch field {
		case "category":
			v = p.Category
		case "brand":
			v = p.Brand
		}
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Products) Featured(_ context.Context, limit int) ([]models.Product, error) {
	out, _, err := s.List(context.Background(), store.ProductQuery{Featured: true, Page: 1, Limit: limit})
	return out, err
}

func (s *Products) LowStock(_ context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Product{}
	for _, p := range s.data {
		if p.IsActive && p.Stock-p.ReservedStock <= p.LowStockThreshold {
			out = append(out, withoutReviews(p))
		}
	}
	return out, nil
}

func (s *Products) DecrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data[id.Hex()]
	if !ok || p.Stock < qty {
		return store.ErrInsufficientStock
	}
	p.Stock -= qty
	p.Purchases++
	p.UpdatedAt = time.Now()
	return nil
}

func (s *Products) IncrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.data[id.Hex()]; ok {
		p.Stock += qty
		p.UpdatedAt = time.Now()
	}
	return nil
}

func (s *Products) IncrementViews(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.data[id.Hex()]; ok {
		p.Views++
	}
	return nil
}

func (s *Products) AdjustWishlistCount(_ context.Context, ids []primitive.ObjectID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		p, ok := s.data[id.Hex()]
		if !ok || p.WishlistCount+delta < 0 {
			continue
		}
		p.WishlistCount += delta
	}
	return nil
}

func (s *Products) DeleteAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.data))
	s.data = map[string]*models.Product{}
	return n, nil
}
