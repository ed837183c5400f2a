// Package memstore fournit des implémentations en mémoire des interfaces de
// store, utilisées par les tests des handlers et des jobs.
package memstore

import (
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
)

// Store regroupe toutes les collections en mémoire.
type Store struct {
	Users         *Users
	Products      *Products
	Carts         *Carts
	Orders        *Orders
	Wishlists     *Wishlists
	Notifications *Notifications
	Audit         *Audit
}

func New() *Store {
	return &Store{
		Users:         &Users{data: map[string]*models.User{}},
		Products:      &Products{data: map[string]*models.Product{}},
		Carts:         &Carts{data: map[string]*models.Cart{}},
		Orders:        &Orders{data: map[string]*models.Order{}},
		Wishlists:     &Wishlists{data: map[string]*models.Wishlist{}},
		Notifications: &Notifications{data: map[string]*models.Notification{}},
		Audit:         &Audit{},
	}
}

// Install crée un store vide et le branche sur les instances globales.
func Install() *Store {
	s := New()
	store.Users = s.Users
	store.Products = s.Products
	store.Carts = s.Carts
	store.Orders = s.Orders
	store.Wishlists = s.Wishlists
	store.Notifications = s.Notifications
	store.Audit = s.Audit
	return s
}

// clone copie un document via BSON, comme un aller-retour en base.
func clone[T any](v *T) *T {
	raw, err := bson.Marshal(v)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err := bson.Unmarshal(raw, out); err != nil {
		panic(err)
	}
	return out
}

func page[T any](items []T, pg, limit int) []T {
	if limit <= 0 {
		return items
	}
	start := int(store.Skip(pg, limit))
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func sortDesc[T any](items []T, key func(T) int64) {
	sort.SliceStable(items, func(i, j int) bool { return key(items[i]) > key(items[j]) })
}

type base struct {
	mu sync.RWMutex
}
