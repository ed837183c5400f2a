package user

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/services"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

// ✅ Récupère les commandes de l'utilisateur connecté, les plus récentes d'abord
func GetMyOrders(c *gin.Context) {
	page, limit := utils.Pagination(c, 10, 100)
	userID := currentUserID(c)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	orders, total, err := store.Orders.List(ctx, store.OrderQuery{User: &userID, Page: page, Limit: limit})
	if err != nil {
		serverError(c, "Server error fetching orders", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders":     orders,
		"pagination": utils.PaginationMeta(page, limit, total, "totalOrders"),
	})
}

// findOrder charge la commande du paramètre :id; répond 404 si absente.
func findOrder(c *gin.Context, ctx context.Context, failMessage string) *models.Order {
	orderID, ok := utils.ParseObjectID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
		return nil
	}
	order, err := store.Orders.FindByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
		return nil
	}
	if err != nil {
		serverError(c, failMessage, err)
		return nil
	}
	return order
}

// ✅ Récupère une commande (propriétaire ou admin)
func GetOrderByID(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	order := findOrder(c, ctx, "Server error fetching order")
	if order == nil {
		return
	}
	if order.User != currentUserID(c) && c.GetString("role") != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"message": "Not authorized to view this order"})
		return
	}

	if owner, err := store.Users.FindByID(ctx, order.User); err == nil {
		order.UserRef = &models.UserRef{ID: owner.ID, Name: owner.Name, Email: owner.Email}
	}
	c.JSON(http.StatusOK, order)
}

// ✅ Annule une commande et remet les articles en stock
func CancelOrder(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order := findOrder(c, ctx, "Server error cancelling order")
	if order == nil {
		return
	}
	if order.User != currentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Not authorized to cancel this order"})
		return
	}
	if !order.CanBeCancelled() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Order cannot be cancelled"})
		return
	}

	for _, item := range order.OrderItems {
		if err := store.Products.IncrementStock(ctx, item.Product, item.Quantity); err != nil {
			zap.S().Errorf("❌ Restauration stock %s (+%d): %v", item.Product.Hex(), item.Quantity, err)
		}
	}

	order.UpdateStatus(models.OrderCancelled)
	if err := store.Orders.Save(ctx, order); err != nil {
		serverError(c, "Server error cancelling order", err)
		return
	}

	services.Notify(ctx, order.User, models.NotifOrderCancelled, "Order cancelled",
		fmt.Sprintf("Your order %s has been cancelled", order.OrderNumber),
		map[string]interface{}{"orderId": order.ID.Hex()})

	zap.S().Infof("🚫 Commande %s annulée", order.OrderNumber)
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled successfully", "order": order})
}
