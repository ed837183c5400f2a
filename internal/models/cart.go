package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartItem struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Product  primitive.ObjectID `json:"-" bson:"product"`
	Quantity int                `json:"quantity" bson:"quantity"`
	Price    float64            `json:"price" bson:"price"`

	// Produit "peuplé" pour les réponses, jamais persisté
	ProductRef *CartProduct `json:"product" bson:"-"`
}

// CartProduct est la projection produit renvoyée avec le panier.
type CartProduct struct {
	ID       primitive.ObjectID `json:"_id"`
	Name     string             `json:"name"`
	Price    float64            `json:"price"`
	Images   []ProductImage     `json:"images"`
	Stock    int                `json:"stock"`
	IsActive bool               `json:"isActive"`
}

func NewCartProduct(p *Product) *CartProduct {
	return &CartProduct{ID: p.ID, Name: p.Name, Price: p.Price, Images: p.Images, Stock: p.Stock, IsActive: p.IsActive}
}

type Cart struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	User       primitive.ObjectID `json:"user" bson:"user"`
	Items      []CartItem         `json:"items" bson:"items"`
	TotalItems int                `json:"totalItems" bson:"totalItems"`
	TotalPrice float64            `json:"totalPrice" bson:"totalPrice"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func NewCart(user primitive.ObjectID) *Cart {
	now := time.Now()
	return &Cart{
		ID:        primitive.NewObjectID(),
		User:      user,
		Items:     []CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Recalculate met à jour totalItems et totalPrice.
func (c *Cart) Recalculate() {
	c.TotalItems = 0
	c.TotalPrice = 0
	for _, item := range c.Items {
		c.TotalItems += item.Quantity
		c.TotalPrice += item.Price * float64(item.Quantity)
	}
	c.UpdatedAt = time.Now()
}

// Find retourne l'index de la ligne du produit, -1 sinon.
func (c *Cart) Find(productID primitive.ObjectID) int {
	for i := range c.Items {
		if c.Items[i].Product == productID {
			return i
		}
	}
	return -1
}

// AddItem ajoute une ligne ou cumule la quantité, en rafraîchissant le prix.
func (c *Cart) AddItem(productID primitive.ObjectID, quantity int, price float64) {
	if idx := c.Find(productID); idx >= 0 {
		c.Items[idx].Quantity += quantity
		c.Items[idx].Price = price
	} else {
		c.Items = append(c.Items, CartItem{
			ID:       primitive.NewObjectID(),
			Product:  productID,
			Quantity: quantity,
			Price:    price,
		})
	}
	c.Recalculate()
}

// RemoveItem retire la ligne du produit.
func (c *Cart) RemoveItem(productID primitive.ObjectID) bool {
	idx := c.Find(productID)
	if idx < 0 {
		return false
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	c.Recalculate()
	return true
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.Recalculate()
}
