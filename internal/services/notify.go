package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
)

// priorityFor retourne la priorité d'un type; vide laisse ApplyDefaults choisir.
func priorityFor(notifType string) string {
	switch notifType {
	case models.NotifPaymentFailed, models.NotifLowStock:
		return models.PriorityHigh
	}
	return ""
}

// Notify crée une notification in-app. Les erreurs sont journalisées, jamais remontées.
func Notify(ctx context.Context, recipient primitive.ObjectID, notifType, title, message string, data map[string]interface{}) {
	n := &models.Notification{
		Recipient: recipient,
		Type:      notifType,
		Title:     title,
		Message:   message,
		Data:      data,
		Priority:  priorityFor(notifType),
	}
	if err := store.Notifications.Create(ctx, n); err != nil {
		zap.L().Error("❌ Création notification", zap.String("type", notifType), zap.Error(err))
	}
}

// NotifyMany envoie la même notification à plusieurs destinataires.
func NotifyMany(ctx context.Context, recipients []primitive.ObjectID, notifType, title, message string, data map[string]interface{}) {
	if len(recipients) == 0 {
		return
	}
	batch := make([]*models.Notification, 0, len(recipients))
	for _, r := range recipients {
		batch = append(batch, &models.Notification{
			Recipient: r,
			Type:      notifType,
			Title:     title,
			Message:   message,
			Data:      data,
			Priority:  priorityFor(notifType),
		})
	}
	if err := store.Notifications.CreateMany(ctx, batch); err != nil {
		zap.L().Error("❌ Création notifications", zap.String("type", notifType), zap.Int("count", len(batch)), zap.Error(err))
	}
}

// OrderStatusNotification associe un statut de commande à un type de notification.
func OrderStatusNotification(status string) (string, bool) {
	switch status {
	case models.OrderProcessing:
		return models.NotifOrderConfirmed, true
	case models.OrderShipped:
		return models.NotifOrderShipped, true
	case models.OrderDelivered:
		return models.NotifOrderDelivered, true
	case models.OrderCancelled:
		return models.NotifOrderCancelled, true
	}
	return "", false
}
