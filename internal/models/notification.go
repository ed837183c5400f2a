package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Types de notification
const (
	NotifOrderPlaced     = "order_placed"
	NotifOrderConfirmed  = "order_confirmed"
	NotifOrderShipped    = "order_shipped"
	NotifOrderDelivered  = "order_delivered"
	NotifOrderCancelled  = "order_cancelled"
	NotifPaymentReceived = "payment_received"
	NotifPaymentFailed   = "payment_failed"
	NotifProductReview   = "product_review"
	NotifLowStock        = "low_stock"
	NotifNewProduct      = "new_product"
	NotifPriceDrop       = "price_drop"
	NotifPromotion       = "promotion"
	NotifAccountUpdate   = "account_update"
	NotifWelcome         = "welcome"
	NotifSystem          = "system"
)

// Priorités
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Canaux
const (
	ChannelInApp = "in_app"
	ChannelEmail = "email"
	ChannelPush  = "push"
	ChannelSMS   = "sms"
)

var NotificationTypes = []string{
	NotifOrderPlaced, NotifOrderConfirmed, NotifOrderShipped, NotifOrderDelivered, NotifOrderCancelled,
	NotifPaymentReceived, NotifPaymentFailed, NotifProductReview, NotifLowStock, NotifNewProduct,
	NotifPriceDrop, NotifPromotion, NotifAccountUpdate, NotifWelcome, NotifSystem,
}

var NotificationPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

var NotificationChannels = []string{ChannelInApp, ChannelEmail, ChannelPush, ChannelSMS}

type Notification struct {
	ID        primitive.ObjectID     `json:"_id" bson:"_id,omitempty"`
	Recipient primitive.ObjectID     `json:"recipient" bson:"recipient"`
	Sender    *primitive.ObjectID    `json:"sender,omitempty" bson:"sender,omitempty"`
	Type      string                 `json:"type" bson:"type"`
	Title     string                 `json:"title" bson:"title"`
	Message   string                 `json:"message" bson:"message"`
	Data      map[string]interface{} `json:"data,omitempty" bson:"data,omitempty"`
	IsRead    bool                   `json:"isRead" bson:"isRead"`
	ReadAt    *time.Time             `json:"readAt,omitempty" bson:"readAt,omitempty"`
	Priority  string                 `json:"priority" bson:"priority"`
	Channel   []string               `json:"channel" bson:"channel"`
	EmailSent bool                   `json:"emailSent" bson:"emailSent"`
	PushSent  bool                   `json:"pushSent" bson:"pushSent"`
	SMSSent   bool                   `json:"smsSent" bson:"smsSent"`
	ActionURL string                 `json:"actionUrl,omitempty" bson:"actionUrl,omitempty"`
	ExpiresAt *time.Time             `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	CreatedAt time.Time              `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt" bson:"updatedAt"`
}

// ApplyDefaults complète une nouvelle notification: id, priorité, canal, expiration.
// Promotions expirent après 7 jours, notifications système après 30.
func (n *Notification) ApplyDefaults(now time.Time) {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	if len(n.Channel) == 0 {
		n.Channel = []string{ChannelInApp}
	}
	if n.ExpiresAt == nil {
		switch n.Type {
		case NotifPromotion:
			exp := now.AddDate(0, 0, 7)
			n.ExpiresAt = &exp
		case NotifSystem:
			exp := now.AddDate(0, 0, 30)
			n.ExpiresAt = &exp
		}
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
}

// MarkAsRead est idempotent: readAt n'est posé qu'à la première lecture.
func (n *Notification) MarkAsRead(now time.Time) {
	if n.IsRead {
		return
	}
	n.IsRead = true
	n.ReadAt = &now
	n.UpdatedAt = now
}

// IsExpired indique si la notification a dépassé sa date d'expiration.
func (n *Notification) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && n.ExpiresAt.Before(now)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func IsValidNotificationType(t string) bool { return contains(NotificationTypes, t) }

func IsValidPriority(p string) bool { return contains(NotificationPriorities, p) }

func IsValidChannel(c string) bool { return contains(NotificationChannels, c) }
