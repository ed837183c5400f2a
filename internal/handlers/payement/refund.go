package payement

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/services"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

const defaultRefundReason = "requested_by_customer"

// 🟢 POST /api/payment/refund
func CreateRefund(c *gin.Context) {
	var input struct {
		OrderID string   `json:"orderId" binding:"required,len=24"`
		Amount  *float64 `json:"amount" binding:"omitempty,gte=0"`
		Reason  string   `json:"reason" binding:"omitempty,oneof=duplicate fraudulent requested_by_customer"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	order := loadOrder(c, ctx, input.OrderID, "Server error processing refund")
	if order == nil {
		return
	}
	if !isAdmin(c) && !isOwner(c, order) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Not authorized for this order"})
		return
	}
	if !order.IsPaid || order.StripePaymentIntentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Order is not paid or payment intent not found"})
		return
	}

	amountCents := order.AmountInCents()
	if input.Amount != nil && *input.Amount > 0 {
		amountCents = int64(math.Round(*input.Amount * 100))
	}
	reason := input.Reason
	if reason == "" {
		reason = defaultRefundReason
	}

	refund, err := services.Payments.Refund(ctx, order.StripePaymentIntentID, amountCents, reason)
	if err != nil {
		utils.LogFailedAction(c, utils.ACTION_ORDER_REFUND, utils.RESOURCE_ORDER, order.ID.Hex(), err.Error())
		serverError(c, "Server error processing refund", err)
		return
	}

	order.Status = models.OrderRefunded
	order.RefundID = refund.ID
	order.RefundAmount = float64(amountCents) / 100
	order.UpdatedAt = time.Now()
	if err := store.Orders.Save(ctx, order); err != nil {
		serverError(c, "Server error processing refund", err)
		return
	}

	utils.LogAction(c, utils.ACTION_ORDER_REFUND, utils.RESOURCE_ORDER, order.ID.Hex(),
		nil, gin.H{"refundId": refund.ID, "amount": order.RefundAmount})
	zap.S().Infof("↩️ Remboursement %s: %.2f sur %s", refund.ID, order.RefundAmount, order.OrderNumber)

	c.JSON(http.StatusOK, gin.H{
		"message": "Refund processed successfully",
		"refund":  refund,
		"order":   order,
	})
}

// paymentHistoryEntry est la projection renvoyée par l'historique.
type paymentHistoryEntry struct {
	ID            string     `json:"_id"`
	TotalPrice    float64    `json:"totalPrice"`
	PaidAt        *time.Time `json:"paidAt"`
	PaymentMethod string     `json:"paymentMethod"`
	Status        string     `json:"status"`
}

// 🟢 GET /api/payment/history
func GetPaymentHistory(c *gin.Context) {
	userID, _ := utils.ParseObjectID(c.GetString("user_id"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	orders, err := store.Orders.PaidByUser(ctx, userID, 20)
	if err != nil {
		serverError(c, "Server error fetching payment history", err)
		return
	}

	history := make([]paymentHistoryEntry, 0, len(orders))
	for _, o := range orders {
		history = append(history, paymentHistoryEntry{
			ID:            o.ID.Hex(),
			TotalPrice:    o.TotalPrice,
			PaidAt:        o.PaidAt,
			PaymentMethod: o.PaymentMethod,
			Status:        o.Status,
		})
	}
	c.JSON(http.StatusOK, history)
}
