package payement

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

func serverError(c *gin.Context, message string, err error) {
	zap.S().Errorw("❌ "+message, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": message})
}

// loadOrder charge une commande; répond 404 (ou 500) et renvoie nil en cas d'échec.
func loadOrder(c *gin.Context, ctx context.Context, rawID, failMessage string) *models.Order {
	orderID, ok := utils.ParseObjectID(rawID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
		return nil
	}
	order, err := store.Orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
			return nil
		}
		serverError(c, failMessage, err)
		return nil
	}
	return order
}

// isOwner compare le propriétaire de la commande à l'utilisateur connecté.
func isOwner(c *gin.Context, order *models.Order) bool {
	return order.User.Hex() == c.GetString("user_id")
}

func isAdmin(c *gin.Context) bool {
	return c.GetString("role") == models.RoleAdmin
}
