package models

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Statuts de commande
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
	OrderRefunded   = "refunded"
)

// Moyens de paiement
const (
	PaymentStripe         = "stripe"
	PaymentPaypal         = "paypal"
	PaymentCashOnDelivery = "cash_on_delivery"
)

var OrderStatuses = []string{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled, OrderRefunded}

func IsValidOrderStatus(status string) bool {
	for _, s := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type OrderItem struct {
	Product  primitive.ObjectID `json:"product" bson:"product"`
	Name     string             `json:"name" bson:"name"`
	Image    string             `json:"image" bson:"image"`
	Price    float64            `json:"price" bson:"price"`
	Quantity int                `json:"quantity" bson:"quantity"`
}

type ShippingAddress struct {
	FullName string `json:"fullName" bson:"fullName" binding:"required"`
	Address  string `json:"address" bson:"address" binding:"required"`
	City     string `json:"city" bson:"city" binding:"required"`
	State    string `json:"state" bson:"state" binding:"required"`
	Country  string `json:"country" bson:"country" binding:"required"`
	Phone    string `json:"phone,omitempty" bson:"phone,omitempty"`
}

type PaymentResult struct {
	ID           string `json:"id" bson:"id"`
	Status       string `json:"status" bson:"status"`
	UpdateTime   string `json:"update_time" bson:"update_time"`
	EmailAddress string `json:"email_address" bson:"email_address"`
}

// UserRef est l'utilisateur "peuplé" d'une commande.
type UserRef struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

type Order struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	OrderNumber string             `json:"orderNumber" bson:"orderNumber"`
	User        primitive.ObjectID `json:"user" bson:"user"`
	UserRef     *UserRef           `json:"userInfo,omitempty" bson:"-"`

	OrderItems      []OrderItem     `json:"orderItems" bson:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress" bson:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod" bson:"paymentMethod"`
	PaymentResult   *PaymentResult  `json:"paymentResult,omitempty" bson:"paymentResult,omitempty"`

	ItemsPrice float64 `json:"itemsPrice" bson:"itemsPrice"`
	TotalPrice float64 `json:"totalPrice" bson:"totalPrice"`

	IsPaid      bool       `json:"isPaid" bson:"isPaid"`
	PaidAt      *time.Time `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	IsDelivered bool       `json:"isDelivered" bson:"isDelivered"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`

	Status         string `json:"status" bson:"status"`
	TrackingNumber string `json:"trackingNumber,omitempty" bson:"trackingNumber,omitempty"`
	Notes          string `json:"notes,omitempty" bson:"notes,omitempty"`

	StripePaymentIntentID string  `json:"stripePaymentIntentId,omitempty" bson:"stripePaymentIntentId,omitempty"`
	RefundID              string  `json:"refundId,omitempty" bson:"refundId,omitempty"`
	RefundAmount          float64 `json:"refundAmount" bson:"refundAmount"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func NewOrder(user primitive.ObjectID, items []OrderItem, addr ShippingAddress, method string) *Order {
	if method == "" {
		method = PaymentStripe
	}
	now := time.Now()
	o := &Order{
		ID:              primitive.NewObjectID(),
		User:            user,
		OrderItems:      items,
		ShippingAddress: addr,
		PaymentMethod:   method,
		Status:          OrderPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	o.EnsureOrderNumber()
	o.CalculateTotals()
	return o
}

// CalculateTotals: itemsPrice = totalPrice = somme prix * quantité.
func (o *Order) CalculateTotals() {
	o.ItemsPrice = 0
	for _, item := range o.OrderItems {
		o.ItemsPrice += item.Price * float64(item.Quantity)
	}
	o.TotalPrice = o.ItemsPrice
}

// EnsureOrderNumber génère "ORD-<ms>-<3 chiffres>" si absent.
func (o *Order) EnsureOrderNumber() {
	if o.OrderNumber != "" {
		return
	}
	suffix := 0
	if n, err := rand.Int(rand.Reader, big.NewInt(1000)); err == nil {
		suffix = int(n.Int64())
	}
	o.OrderNumber = fmt.Sprintf("ORD-%d-%03d", time.Now().UnixMilli(), suffix)
}

// UpdateStatus change le statut; "delivered" marque aussi la livraison.
func (o *Order) UpdateStatus(status string) {
	o.Status = status
	if status == OrderDelivered {
		now := time.Now()
		o.IsDelivered = true
		o.DeliveredAt = &now
	}
	o.UpdatedAt = time.Now()
}

// MarkAsPaid enregistre le paiement et passe la commande en traitement.
func (o *Order) MarkAsPaid(result PaymentResult) {
	now := time.Now()
	o.IsPaid = true
	o.PaidAt = &now
	o.PaymentResult = &result
	o.Status = OrderProcessing
	o.UpdatedAt = now
}

// CanBeCancelled: ni livrée ni déjà annulée.
func (o *Order) CanBeCancelled() bool {
	return o.Status != OrderDelivered && o.Status != OrderCancelled
}

// AmountInCents arrondit le total en centimes pour le prestataire de paiement.
func (o *Order) AmountInCents() int64 {
	return int64(math.Round(o.TotalPrice * 100))
}

// ContainsProduct indique si la commande contient le produit.
func (o *Order) ContainsProduct(productID primitive.ObjectID) bool {
	for _, item := range o.OrderItems {
		if item.Product == productID {
			return true
		}
	}
	return false
}
