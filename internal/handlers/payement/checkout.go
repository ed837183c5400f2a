package payement

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/services"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

type createOrderInput struct {
	ShippingAddress models.ShippingAddress `json:"shippingAddress" binding:"required"`
	PaymentMethod   string                 `json:"paymentMethod" binding:"omitempty,oneof=stripe paypal cash_on_delivery"`
}

// buildOrderItems fige nom, image, prix et quantité de chaque ligne du panier.
// Renvoie un message client non vide si une ligne n'est plus commandable.
func buildOrderItems(ctx context.Context, cart *models.Cart) ([]models.OrderItem, string, error) {
	ids := make([]primitive.ObjectID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.Product)
	}
	products, err := store.Products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, "", err
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		p, ok := products[line.Product]
		if !ok || !p.IsActive {
			name := line.Product.Hex()
			if ok {
				name = p.Name
			}
			return nil, fmt.Sprintf("Product %s is no longer available", name), nil
		}
		if p.Stock < line.Quantity {
			return nil, fmt.Sprintf("Insufficient stock for %s. Available: %d", p.Name, p.Stock), nil
		}
		items = append(items, models.OrderItem{
			Product:  p.ID,
			Name:     p.Name,
			Image:    firstImage(p),
			Price:    p.Price,
			Quantity: line.Quantity,
		})
	}
	return items, "", nil
}

func firstImage(p *models.Product) string {
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

// reserveStock décrémente le stock ligne par ligne. Si une ligne échoue,
// les décréments déjà faits sont annulés.
func reserveStock(ctx context.Context, items []models.OrderItem) (string, error) {
	for i, item := range items {
		err := store.Products.DecrementStock(ctx, item.Product, item.Quantity)
		if err == nil {
			continue
		}
		releaseStock(ctx, items[:i])
		if errors.Is(err, store.ErrInsufficientStock) || errors.Is(err, store.ErrNotFound) {
			return item.Name, nil
		}
		return "", err
	}
	return "", nil
}

func releaseStock(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		if err := store.Products.IncrementStock(ctx, item.Product, item.Quantity); err != nil {
			zap.S().Errorf("❌ Restauration stock %s (+%d): %v", item.Product.Hex(), item.Quantity, err)
		}
	}
}

// 🟢 POST /api/orders
func CreateOrder(c *gin.Context) {
	var input createOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	userID, _ := utils.ParseObjectID(c.GetString("user_id"))
	cart, err := store.Carts.FindByUser(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		serverError(c, "Server error creating order", err)
		return
	}
	if cart == nil || len(cart.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cart is empty"})
		return
	}

	items, reason, err := buildOrderItems(ctx, cart)
	if err != nil {
		serverError(c, "Server error creating order", err)
		return
	}
	if reason != "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": reason})
		return
	}

	short, err := reserveStock(ctx, items)
	if err != nil {
		serverError(c, "Server error creating order", err)
		return
	}
	if short != "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Insufficient stock for %s", short)})
		return
	}

	order := models.NewOrder(userID, items, input.ShippingAddress, input.PaymentMethod)
	if err := store.Orders.Create(ctx, order); err != nil {
		releaseStock(ctx, items)
		serverError(c, "Server error creating order", err)
		return
	}

	cart.Clear()
	if err := store.Carts.Save(ctx, cart); err != nil {
		zap.S().Warnf("⚠️ Panier non vidé après commande %s: %v", order.OrderNumber, err)
	}

	email := c.GetString("email")
	go func(o models.Order) {
		if err := utils.SendOrderConfirmationEmail(&o, email); err != nil {
			zap.S().Warnf("⚠️ Email de confirmation %s non envoyé: %v", o.OrderNumber, err)
		}
	}(*order)

	services.Notify(ctx, userID, models.NotifOrderPlaced, "Order placed",
		fmt.Sprintf("Your order %s has been placed successfully", order.OrderNumber),
		map[string]interface{}{"orderId": order.ID.Hex(), "orderNumber": order.OrderNumber})

	zap.S().Infof("🛒 Commande %s créée (%.2f) pour %s", order.OrderNumber, order.TotalPrice, email)
	c.JSON(http.StatusCreated, gin.H{"message": "Order created successfully", "order": order})
}
