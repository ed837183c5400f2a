package payement

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vendora_back_end/internal/config"
	"vendora_back_end/internal/models"
	"vendora_back_end/internal/services"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

// MaxWebhookBody borne le corps accepté sur le webhook Stripe.
const MaxWebhookBody = 64 << 10

// markOrderPaid enregistre le paiement, met à jour les statistiques client et notifie.
// Seul le premier appel pour une commande compte: un webhook rejoué ou un confirm
// concurrent ne touche plus aux statistiques.
func markOrderPaid(ctx context.Context, order *models.Order, intent *services.PaymentIntent, email string) error {
	order.MarkAsPaid(models.PaymentResult{
		ID:           intent.ID,
		Status:       intent.Status,
		UpdateTime:   time.Now().UTC().Format(time.RFC3339),
		EmailAddress: email,
	})
	first, err := store.Orders.MarkPaid(ctx, order)
	if err != nil {
		return err
	}
	if !first {
		zap.S().Infof("ℹ️ Commande %s déjà payée, paiement %s ignoré", order.OrderNumber, intent.ID)
		return nil
	}

	if user, err := store.Users.FindByID(ctx, order.User); err == nil {
		user.UpdateOrderStats(order.TotalPrice)
		if err := store.Users.Save(ctx, user); err != nil {
			zap.S().Warnf("⚠️ Statistiques client non mises à jour: %v", err)
		}
	}

	services.Notify(ctx, order.User, models.NotifPaymentReceived, "Payment received",
		fmt.Sprintf("Payment of $%.2f received for order %s", order.TotalPrice, order.OrderNumber),
		map[string]interface{}{"orderId": order.ID.Hex(), "amount": order.TotalPrice})

	zap.S().Infof("💰 Commande %s payée (%s)", order.OrderNumber, intent.ID)
	return nil
}

// 🟢 POST /api/payment/create-intent
func CreatePaymentIntent(c *gin.Context) {
	var input struct {
		OrderID string `json:"orderId" binding:"required,len=24"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	order := loadOrder(c, ctx, input.OrderID, "Server error creating payment intent")
	if order == nil {
		return
	}
	if !isOwner(c, order) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Not authorized for this order"})
		return
	}
	if order.IsPaid {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Order is already paid"})
		return
	}

	intent, err := services.Payments.CreateIntent(ctx, order.AmountInCents(), "usd", map[string]string{
		"orderId": order.ID.Hex(),
		"userId":  c.GetString("user_id"),
	})
	if err != nil {
		serverError(c, "Server error creating payment intent", err)
		return
	}

	order.StripePaymentIntentID = intent.ID
	if err := store.Orders.Save(ctx, order); err != nil {
		serverError(c, "Server error creating payment intent", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clientSecret":    intent.ClientSecret,
		"paymentIntentId": intent.ID,
	})
}

// 🟢 POST /api/payment/confirm
func ConfirmPayment(c *gin.Context) {
	var input struct {
		PaymentIntentID string `json:"paymentIntentId" binding:"required"`
		OrderID         string `json:"orderId" binding:"required,len=24"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	order := loadOrder(c, ctx, input.OrderID, "Server error confirming payment")
	if order == nil {
		return
	}
	if !isOwner(c, order) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Not authorized for this order"})
		return
	}

	intent, err := services.Payments.GetIntent(ctx, input.PaymentIntentID)
	if err != nil {
		serverError(c, "Server error confirming payment", err)
		return
	}
	if !intentMatchesOrder(intent, order) {
		zap.S().Warnf("⚠️ PaymentIntent %s présenté pour la commande %s", intent.ID, order.OrderNumber)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Payment does not match this order"})
		return
	}
	if intent.Status != services.IntentSucceeded {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Payment not completed", "status": intent.Status})
		return
	}

	if !order.IsPaid {
		if err := markOrderPaid(ctx, order, intent, c.GetString("email")); err != nil {
			serverError(c, "Server error confirming payment", err)
			return
		}
		if fresh, err := store.Orders.FindByID(ctx, order.ID); err == nil {
			order = fresh
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment confirmed successfully", "order": order})
}

// intentMatchesOrder vérifie que l'intent a été créé pour cette commande.
func intentMatchesOrder(intent *services.PaymentIntent, order *models.Order) bool {
	if order.StripePaymentIntentID != "" && intent.ID == order.StripePaymentIntentID {
		return true
	}
	return intent.Metadata["orderId"] == order.ID.Hex()
}

// 🟢 GET /api/payment/config
func GetPaymentConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"publishableKey": config.App.StripePublishableKey})
}

// 🟢 POST /api/payment/webhook
func StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxWebhookBody+1))
	if err != nil {
		c.String(http.StatusBadRequest, "Webhook Error: %v", err)
		return
	}
	if len(payload) > MaxWebhookBody {
		c.String(http.StatusRequestEntityTooLarge, "Webhook Error: payload too large")
		return
	}

	event, err := services.Payments.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		zap.S().Warnf("⚠️ Webhook Stripe rejeté: %v", err)
		c.String(http.StatusBadRequest, "Webhook Error: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch event.Type {
	case services.EventPaymentSucceeded:
		handleIntentSucceeded(ctx, event.Intent)
	case services.EventPaymentFailed:
		handleIntentFailed(ctx, event.Intent)
	default:
		zap.S().Debugf("Webhook Stripe ignoré: %s", event.Type)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func handleIntentSucceeded(ctx context.Context, intent *services.PaymentIntent) {
	if intent == nil {
		return
	}
	order, err := store.Orders.FindByPaymentIntent(ctx, intent.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			zap.S().Errorf("❌ Webhook: recherche commande %s: %v", intent.ID, err)
		}
		return
	}
	if order.IsPaid {
		return
	}

	var email string
	if user, err := store.Users.FindByID(ctx, order.User); err == nil {
		email = user.Email
	}
	if err := markOrderPaid(ctx, order, intent, email); err != nil {
		zap.S().Errorf("❌ Webhook: commande %s non marquée payée: %v", order.OrderNumber, err)
	}
}

func handleIntentFailed(ctx context.Context, intent *services.PaymentIntent) {
	if intent == nil {
		return
	}
	order, err := store.Orders.FindByPaymentIntent(ctx, intent.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			zap.S().Errorf("❌ Webhook: recherche commande %s: %v", intent.ID, err)
		}
		return
	}

	message := fmt.Sprintf("Payment for order %s failed", order.OrderNumber)
	if intent.LastError != "" {
		message += ": " + intent.LastError
	}
	services.Notify(ctx, order.User, models.NotifPaymentFailed, "Payment failed", message,
		map[string]interface{}{"orderId": order.ID.Hex(), "paymentIntentId": intent.ID})
	zap.S().Warnf("⚠️ Paiement échoué pour %s", order.OrderNumber)
}
