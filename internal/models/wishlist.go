package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultWishlistName = "My Wishlist"

type WishlistItem struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Product primitive.ObjectID `json:"-" bson:"product"`
	AddedAt time.Time          `json:"addedAt" bson:"addedAt"`
	Notes   string             `json:"notes,omitempty" bson:"notes,omitempty"`

	ProductRef *Product `json:"product" bson:"-"`
}

type Wishlist struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	User       primitive.ObjectID `json:"user" bson:"user"`
	Products   []WishlistItem     `json:"products" bson:"products"`
	Name       string             `json:"name" bson:"name"`
	IsPublic   bool               `json:"isPublic" bson:"isPublic"`
	ShareToken string             `json:"shareToken,omitempty" bson:"shareToken,omitempty"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`

	OwnerName string `json:"ownerName,omitempty" bson:"-"`
}

func NewWishlist(user primitive.ObjectID) *Wishlist {
	now := time.Now()
	return &Wishlist{
		ID:        primitive.NewObjectID(),
		User:      user,
		Products:  []WishlistItem{},
		Name:      DefaultWishlistName,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (w *Wishlist) HasProduct(productID primitive.ObjectID) bool {
	for _, item := range w.Products {
		if item.Product == productID {
			return true
		}
	}
	return false
}

// AddProduct ajoute le produit s'il n'y est pas déjà. false en cas de doublon.
func (w *Wishlist) AddProduct(productID primitive.ObjectID, notes string) bool {
	if w.HasProduct(productID) {
		return false
	}
	w.Products = append(w.Products, WishlistItem{
		ID:      primitive.NewObjectID(),
		Product: productID,
		AddedAt: time.Now(),
		Notes:   notes,
	})
	w.UpdatedAt = time.Now()
	return true
}

// RemoveProduct retire le produit. false s'il n'y était pas.
func (w *Wishlist) RemoveProduct(productID primitive.ObjectID) bool {
	for i, item := range w.Products {
		if item.Product == productID {
			w.Products = append(w.Products[:i], w.Products[i+1:]...)
			w.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// ProductIDs retourne les identifiants des produits de la liste.
func (w *Wishlist) ProductIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(w.Products))
	for _, item := range w.Products {
		ids = append(ids, item.Product)
	}
	return ids
}

// GenerateShareToken crée un jeton de partage (16 octets hex) et le retourne.
func (w *Wishlist) GenerateShareToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	w.ShareToken = hex.EncodeToString(buf)
	w.UpdatedAt = time.Now()
	return w.ShareToken, nil
}
