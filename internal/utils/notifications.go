package utils

import (
	"fmt"

	"go.uber.org/zap"

	"vendora_back_end/internal/models"
)

// SendOrderStatusEmail envoie un email de notification de changement de statut
func SendOrderStatusEmail(order *models.Order, userEmail string, newStatus string) error {
	subject := statusEmailSubject(newStatus)
	body := statusEmailHTML(order, newStatus)

	if err := SendEmail(userEmail, subject, body); err != nil {
		zap.L().Error("❌ Erreur envoi email statut", zap.String("order", order.OrderNumber), zap.Error(err))
		return err
	}

	zap.S().Infof("📧 Email de statut envoyé: %s → %s", newStatus, userEmail)
	return nil
}

func statusEmailSubject(status string) string {
	switch status {
	case models.OrderProcessing:
		return "✅ Payment confirmed - Vendora"
	case models.OrderShipped:
		return "📦 Your order has shipped - Vendora"
	case models.OrderDelivered:
		return "🎉 Your order was delivered - Vendora"
	case models.OrderCancelled:
		return "❌ Order cancelled - Vendora"
	case models.OrderRefunded:
		return "💰 Refund processed - Vendora"
	default:
		return "📋 Order update - Vendora"
	}
}

func statusMessage(status string) string {
	switch status {
	case models.OrderProcessing:
		return "Your payment was confirmed. We are preparing your order."
	case models.OrderShipped:
		return "Good news! Your order has shipped and is on its way."
	case models.OrderDelivered:
		return "Your order was delivered. We hope you enjoy it!"
	case models.OrderCancelled:
		return "Your order was cancelled. Contact us if you have any question."
	case models.OrderRefunded:
		return "Your refund was processed. Funds should arrive within 5-10 business days."
	default:
		return "The status of your order was updated."
	}
}

func statusIcon(status string) string {
	switch status {
	case models.OrderProcessing:
		return "✅"
	case models.OrderShipped:
		return "📦"
	case models.OrderDelivered:
		return "🎉"
	case models.OrderCancelled:
		return "❌"
	case models.OrderRefunded:
		return "💰"
	default:
		return "📋"
	}
}

func statusColor(status string) string {
	switch status {
	case models.OrderProcessing, models.OrderDelivered:
		return "#10b981"
	case models.OrderShipped:
		return "#3b82f6"
	case models.OrderCancelled:
		return "#ef4444"
	case models.OrderRefunded:
		return "#f59e0b"
	default:
		return "#6b7280"
	}
}

func statusEmailHTML(order *models.Order, status string) string {
	tracking := ""
	if order.TrackingNumber != "" {
		tracking = fmt.Sprintf(`
                            <p style="margin: 20px 0 0 0; color: #333333; font-size: 14px;">Tracking number: <strong>%s</strong></p>`, order.TrackingNumber)
	}

	body := fmt.Sprintf(`
                            <div style="text-align: center; margin-bottom: 30px;">
                                <span style="display: inline-block; padding: 12px 24px; background-color: %s; color: #ffffff; border-radius: 25px; font-weight: 600; font-size: 14px; text-transform: uppercase;">%s %s</span>
                            </div>
                            <p style="margin: 0 0 20px 0; color: #333333; font-size: 16px;">%s</p>
                            <p style="margin: 0; color: #555555; font-size: 14px;">Order <strong>%s</strong></p>%s%s`,
		statusColor(status), statusIcon(status), status,
		statusMessage(status), order.OrderNumber, tracking, orderItemsTable(order))

	return layout("Order update", statusIcon(status)+" Vendora", body)
}
