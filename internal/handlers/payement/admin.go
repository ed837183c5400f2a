package payement

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/services"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

// ================== ADMIN: COMMANDES ==================

var statusTitles = map[string]string{
	models.OrderProcessing: "Order confirmed",
	models.OrderShipped:    "Order shipped",
	models.OrderDelivered:  "Order delivered",
	models.OrderCancelled:  "Order cancelled",
}

// 🟢 PUT /api/orders/:id/status
func UpdateOrderStatus(c *gin.Context) {
	var input struct {
		Status         string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled refunded"`
		TrackingNumber string `json:"trackingNumber"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order := loadOrder(c, ctx, c.Param("id"), "Server error updating order status")
	if order == nil {
		return
	}

	prevStatus := order.Status
	order.UpdateStatus(input.Status)
	if input.TrackingNumber != "" {
		order.TrackingNumber = input.TrackingNumber
	}
	if err := store.Orders.Save(ctx, order); err != nil {
		serverError(c, "Server error updating order status", err)
		return
	}

	if owner, err := store.Users.FindByID(ctx, order.User); err == nil {
		order.UserRef = &models.UserRef{ID: owner.ID, Name: owner.Name, Email: owner.Email}
		if prevStatus != input.Status || input.Status == models.OrderDelivered {
			go func(o models.Order, email, status string) {
				if err := utils.SendOrderStatusEmail(&o, email, status); err != nil {
					zap.S().Warnf("⚠️ Email de statut %s non envoyé: %v", o.OrderNumber, err)
				}
			}(*order, owner.Email, input.Status)
		}
	}

	if notifType, ok := services.OrderStatusNotification(input.Status); ok {
		services.Notify(ctx, order.User, notifType, statusTitles[input.Status],
			fmt.Sprintf("Your order %s is now %s", order.OrderNumber, input.Status),
			map[string]interface{}{"orderId": order.ID.Hex(), "status": input.Status, "trackingNumber": order.TrackingNumber})
	}

	utils.LogAction(c, utils.ACTION_ORDER_UPDATE, utils.RESOURCE_ORDER, order.ID.Hex(),
		gin.H{"status": prevStatus}, gin.H{"status": order.Status})

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Order status updated to %q successfully", input.Status),
		"order":   order,
	})
}

// 🟢 GET /api/orders
func GetAllOrders(c *gin.Context) {
	page, limit := utils.Pagination(c, 20, 100)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	orders, total, err := store.Orders.List(ctx, store.OrderQuery{
		Status:        c.Query("status"),
		PaymentMethod: c.Query("paymentMethod"),
		Page:          page,
		Limit:         limit,
	})
	if err != nil {
		serverError(c, "Server error fetching orders", err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.User)
	}
	if users, err := store.Users.FindByIDs(ctx, ids); err == nil {
		for i := range orders {
			if u, ok := users[orders[i].User]; ok {
				orders[i].UserRef = &models.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
			}
		}
	}

	stats, err := store.Orders.Stats(ctx)
	if err != nil {
		serverError(c, "Server error fetching orders", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders":     orders,
		"pagination": utils.PaginationMeta(page, limit, total, "totalOrders"),
		"stats":      stats,
	})
}

// 🟢 DELETE /api/orders
func DeleteAllOrders(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := store.Orders.DeleteAll(ctx)
	if err != nil {
		serverError(c, "Server error deleting orders", err)
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "No orders to delete"})
		return
	}

	utils.LogAction(c, utils.ACTION_ORDER_DELETE_ALL, utils.RESOURCE_ORDER, "", nil, gin.H{"deletedCount": deleted})
	zap.S().Warnf("🗑️ %d commandes supprimées par %s", deleted, c.GetString("email"))
	c.JSON(http.StatusOK, gin.H{"message": "All orders deleted!"})
}
