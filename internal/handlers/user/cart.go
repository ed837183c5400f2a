package user

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

// currentUserID lit l'identifiant posé par AuthRequired.
func currentUserID(c *gin.Context) primitive.ObjectID {
	id, _ := utils.ParseObjectID(c.GetString("user_id"))
	return id
}

// loadOrCreateCart retourne le panier de l'utilisateur, vide s'il n'existe pas encore.
func loadOrCreateCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := store.Carts.FindByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.NewCart(userID), nil
	}
	return cart, err
}

// populateCart attache les produits et retire les lignes dont le produit a disparu ou est inactif.
// Retourne true si des lignes ont été retirées.
func populateCart(ctx context.Context, cart *models.Cart) (bool, error) {
	ids := make([]primitive.ObjectID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.Product)
	}
	products, err := store.Products.FindByIDs(ctx, ids)
	if err != nil {
		return false, err
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		p, ok := products[item.Product]
		if !ok || !p.IsActive {
			continue
		}
		item.ProductRef = models.NewCartProduct(p)
		kept = append(kept, item)
	}
	dropped := len(kept) != len(cart.Items)
	cart.Items = kept
	cart.Recalculate()
	return dropped, nil
}

// activeProduct charge un produit actif; nil si absent, inactif ou identifiant invalide.
func activeProduct(ctx context.Context, rawID string) (*models.Product, error) {
	id, ok := utils.ParseObjectID(rawID)
	if !ok {
		return nil, nil
	}
	products, err := store.Products.FindByIDs(ctx, []primitive.ObjectID{id})
	if err != nil {
		return nil, err
	}
	p, found := products[id]
	if !found || !p.IsActive {
		return nil, nil
	}
	return p, nil
}

// respondCart peuple puis renvoie le panier avec un message.
func respondCart(c *gin.Context, ctx context.Context, cart *models.Cart, message string) {
	if _, err := populateCart(ctx, cart); err != nil {
		serverError(c, "Server error fetching cart", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "cart": cart})
}

// 🟢 GET /api/cart
func GetCart(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cart, err := loadOrCreateCart(ctx, currentUserID(c))
	if err != nil {
		serverError(c, "Server error fetching cart", err)
		return
	}
	if _, err := populateCart(ctx, cart); err != nil {
		serverError(c, "Server error fetching cart", err)
		return
	}
	if err := store.Carts.Save(ctx, cart); err != nil {
		serverError(c, "Server error fetching cart", err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

type cartItemInput struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// 🟢 POST /api/cart/add
func AddToCart(c *gin.Context) {
	var input cartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	product, err := activeProduct(ctx, input.ProductID)
	if err != nil {
		serverError(c, "Server error adding item to cart", err)
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found or unavailable"})
		return
	}
	if product.Stock < input.Quantity {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Insufficient stock", "availableStock": product.Stock})
		return
	}

	cart, err := loadOrCreateCart(ctx, currentUserID(c))
	if err != nil {
		serverError(c, "Server error adding item to cart", err)
		return
	}

	if idx := cart.Find(product.ID); idx >= 0 {
		inCart := cart.Items[idx].Quantity
		if product.Stock < inCart+input.Quantity {
			c.JSON(http.StatusBadRequest, gin.H{
				"message":        "Insufficient stock for total quantity",
				"availableStock": product.Stock,
				"currentInCart":  inCart,
			})
			return
		}
	}

	cart.AddItem(product.ID, input.Quantity, product.Price)
	if err := store.Carts.Save(ctx, cart); err != nil {
		serverError(c, "Server error adding item to cart", err)
		return
	}

	respondCart(c, ctx, cart, "Item added to cart successfully")
}

// 🟢 PUT /api/cart/update
func UpdateCartItem(c *gin.Context) {
	var input struct {
		ProductID string `json:"productId" binding:"required"`
		Quantity  *int   `json:"quantity" binding:"required,min=0"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cart, err := store.Carts.FindByUser(ctx, currentUserID(c))
	if err != nil {
		notFoundOr500(c, err, "Cart not found")
		return
	}

	productID, _ := utils.ParseObjectID(input.ProductID)
	if *input.Quantity == 0 {
		cart.RemoveItem(productID)
	} else {
		product, err := activeProduct(ctx, input.ProductID)
		if err != nil {
			serverError(c, "Server error updating cart", err)
			return
		}
		if product == nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Product not found or unavailable"})
			return
		}
		if product.Stock < *input.Quantity {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Insufficient stock", "availableStock": product.Stock})
			return
		}

		idx := cart.Find(product.ID)
		if idx < 0 {
			c.JSON(http.StatusNotFound, gin.H{"message": "Item not found in cart"})
			return
		}
		cart.Items[idx].Quantity = *input.Quantity
		cart.Items[idx].Price = product.Price
		cart.Recalculate()
	}

	if err := store.Carts.Save(ctx, cart); err != nil {
		serverError(c, "Server error updating cart", err)
		return
	}
	respondCart(c, ctx, cart, "Cart updated successfully")
}

// 🟢 DELETE /api/cart/remove/:productId
func RemoveFromCart(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cart, err := store.Carts.FindByUser(ctx, currentUserID(c))
	if err != nil {
		notFoundOr500(c, err, "Cart not found")
		return
	}

	productID, ok := utils.ParseObjectID(c.Param("productId"))
	if !ok || !cart.RemoveItem(productID) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Item not found in cart"})
		return
	}

	if err := store.Carts.Save(ctx, cart); err != nil {
		serverError(c, "Server error removing item from cart", err)
		return
	}
	respondCart(c, ctx, cart, "Item removed from cart successfully")
}

// 🟢 DELETE /api/cart/clear
func ClearCart(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cart, err := store.Carts.FindByUser(ctx, currentUserID(c))
	if err != nil {
		notFoundOr500(c, err, "Cart not found")
		return
	}

	cart.Clear()
	if err := store.Carts.Save(ctx, cart); err != nil {
		serverError(c, "Server error clearing cart", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared successfully", "cart": cart})
}

// 🟢 GET /api/cart/count
func GetCartCount(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cart, err := store.Carts.FindByUser(ctx, currentUserID(c))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"count": 0})
			return
		}
		serverError(c, "Server error fetching cart count", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": cart.TotalItems})
}
