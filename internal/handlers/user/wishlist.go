package user

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
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

func wishlistError(c *gin.Context, message string, err error) {
	zap.S().Errorw("❌ "+message, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": message})
}

func wishlistNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Wishlist not found"})
}

// populateWishlist attache les produits actifs et masque les autres.
func populateWishlist(ctx context.Context, w *models.Wishlist) error {
	products, err := store.Products.FindByIDs(ctx, w.ProductIDs())
	if err != nil {
		return err
	}
	visible := make([]models.WishlistItem, 0, len(w.Products))
	for _, item := range w.Products {
		p, ok := products[item.Product]
		if !ok || !p.IsActive {
			continue
		}
		item.ProductRef = p
		visible = append(visible, item)
	}
	w.Products = visible
	return nil
}

// findWishlist charge la liste de l'utilisateur; nil sans erreur si elle n'existe pas.
func findWishlist(ctx context.Context, userID primitive.ObjectID) (*models.Wishlist, error) {
	w, err := store.Wishlists.FindByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return w, err
}

// 🟢 GET /api/wishlist
func GetWishlist(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	userID := currentUserID(c)
	w, err := findWishlist(ctx, userID)
	if err != nil {
		wishlistError(c, "Server error fetching wishlist", err)
		return
	}
	if w == nil {
		w = models.NewWishlist(userID)
		if err := store.Wishlists.Save(ctx, w); err != nil {
			wishlistError(c, "Server error fetching wishlist", err)
			return
		}
	}
	if err := populateWishlist(ctx, w); err != nil {
		wishlistError(c, "Server error fetching wishlist", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "wishlist": w})
}

// 🟢 POST /api/wishlist/:productId
func AddToWishlist(c *gin.Context) {
	var input struct {
		Notes string `json:"notes" binding:"max=200"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.AbortValidation(c, err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	product, err := activeProduct(ctx, c.Param("productId"))
	if err != nil {
		wishlistError(c, "Server error adding to wishlist", err)
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Product not found"})
		return
	}

	userID := currentUserID(c)
	w, err := findWishlist(ctx, userID)
	if err != nil {
		wishlistError(c, "Server error adding to wishlist", err)
		return
	}
	if w == nil {
		w = models.NewWishlist(userID)
	}

	if !w.AddProduct(product.ID, input.Notes) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Product already in wishlist"})
		return
	}
	if err := store.Wishlists.Save(ctx, w); err != nil {
		wishlistError(c, "Server error adding to wishlist", err)
		return
	}
	if err := store.Products.AdjustWishlistCount(ctx, []primitive.ObjectID{product.ID}, 1); err != nil {
		zap.S().Warnf("⚠️ wishlistCount non incrémenté pour %s: %v", product.ID.Hex(), err)
	}

	if err := populateWishlist(ctx, w); err != nil {
		wishlistError(c, "Server error adding to wishlist", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Product added to wishlist", "wishlist": w})
}

// 🟢 DELETE /api/wishlist/:productId
func RemoveFromWishlist(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w, err := findWishlist(ctx, currentUserID(c))
	if err != nil {
		wishlistError(c, "Server error removing from wishlist", err)
		return
	}
	if w == nil {
		wishlistNotFound(c)
		return
	}

	productID, ok := utils.ParseObjectID(c.Param("productId"))
	if !ok || !w.RemoveProduct(productID) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Product not found in wishlist"})
		return
	}
	if err := store.Wishlists.Save(ctx, w); err != nil {
		wishlistError(c, "Server error removing from wishlist", err)
		return
	}
	if err := store.Products.AdjustWishlistCount(ctx, []primitive.ObjectID{productID}, -1); err != nil {
		zap.S().Warnf("⚠️ wishlistCount non décrémenté pour %s: %v", productID.Hex(), err)
	}

	if err := populateWishlist(ctx, w); err != nil {
		wishlistError(c, "Server error removing from wishlist", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product removed from wishlist", "wishlist": w})
}

// 🟢 PUT /api/wishlist
func UpdateWishlist(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"omitempty,min=1,max=50"`
		IsPublic *bool  `json:"isPublic"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w, err := findWishlist(ctx, currentUserID(c))
	if err != nil {
		wishlistError(c, "Server error updating wishlist", err)
		return
	}
	if w == nil {
		wishlistNotFound(c)
		return
	}

	if input.Name != "" {
		w.Name = input.Name
	}
	if input.IsPublic != nil {
		w.IsPublic = *input.IsPublic
		if w.IsPublic && w.ShareToken == "" {
			if _, err := w.GenerateShareToken(); err != nil {
				wishlistError(c, "Server error updating wishlist", err)
				return
			}
		}
	}
	w.UpdatedAt = time.Now()

	if err := store.Wishlists.Save(ctx, w); err != nil {
		wishlistError(c, "Server error updating wishlist", err)
		return
	}
	if err := populateWishlist(ctx, w); err != nil {
		wishlistError(c, "Server error updating wishlist", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Wishlist updated successfully", "wishlist": w})
}

func requestScheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}

// 🟢 POST /api/wishlist/share
func ShareWishlist(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w, err := findWishlist(ctx, currentUserID(c))
	if err != nil {
		wishlistError(c, "Server error generating share token", err)
		return
	}
	if w == nil {
		wishlistNotFound(c)
		return
	}

	token, err := w.GenerateShareToken()
	if err != nil {
		wishlistError(c, "Server error generating share token", err)
		return
	}
	w.IsPublic = true
	if err := store.Wishlists.Save(ctx, w); err != nil {
		wishlistError(c, "Server error generating share token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Share token generated successfully",
		"shareToken": token,
		"shareUrl":   fmt.Sprintf("%s://%s/wishlist/shared/%s", requestScheme(c), c.Request.Host, token),
	})
}

// 🟢 GET /api/wishlist/shared/:shareToken
func GetSharedWishlist(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w, err := store.Wishlists.FindByShareToken(ctx, c.Param("shareToken"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Shared wishlist not found"})
			return
		}
		wishlistError(c, "Server error fetching shared wishlist", err)
		return
	}

	if owner, err := store.Users.FindByID(ctx, w.User); err == nil {
		w.OwnerName = owner.Name
	}
	if err := populateWishlist(ctx, w); err != nil {
		wishlistError(c, "Server error fetching shared wishlist", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "wishlist": w})
}

// 🟢 GET /api/wishlist/check/:productId (optionalAuth)
func CheckWishlist(c *gin.Context) {
	if c.GetString("user_id") == "" {
		c.JSON(http.StatusOK, gin.H{"success": true, "inWishlist": false})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w, err := findWishlist(ctx, currentUserID(c))
	if err != nil {
		wishlistError(c, "Server error checking wishlist status", err)
		return
	}
	productID, ok := utils.ParseObjectID(c.Param("productId"))
	inWishlist := ok && w != nil && w.HasProduct(productID)
	c.JSON(http.StatusOK, gin.H{"success": true, "inWishlist": inWishlist})
}

// 🟢 DELETE /api/wishlist
func ClearWishlist(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w, err := findWishlist(ctx, currentUserID(c))
	if err != nil {
		wishlistError(c, "Server error clearing wishlist", err)
		return
	}
	if w == nil {
		wishlistNotFound(c)
		return
	}

	if ids := w.ProductIDs(); len(ids) > 0 {
		if err := store.Products.AdjustWishlistCount(ctx, ids, -1); err != nil {
			zap.S().Warnf("⚠️ wishlistCount non décrémenté: %v", err)
		}
	}
	w.Products = []models.WishlistItem{}
	w.UpdatedAt = time.Now()
	if err := store.Wishlists.Save(ctx, w); err != nil {
		wishlistError(c, "Server error clearing wishlist", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Wishlist cleared successfully", "wishlist": w})
}

// 🟢 POST /api/wishlist/:productId/move-to-cart
func MoveToCart(c *gin.Context) {
	productID, ok := utils.ParseObjectID(c.Param("productId"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid product ID"})
		return
	}

	var input struct {
		Quantity int `json:"quantity"`
	}
	if c.Request.ContentLength > 0 {
		_ = c.ShouldBindJSON(&input)
	}
	if input.Quantity < 1 {
		input.Quantity = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	product, err := activeProduct(ctx, productID.Hex())
	if err != nil {
		wishlistError(c, "Server error moving product to cart", err)
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Product not found or inactive"})
		return
	}
	if product.Stock < input.Quantity {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Insufficient stock"})
		return
	}

	userID := currentUserID(c)
	w, err := findWishlist(ctx, userID)
	if err != nil {
		wishlistError(c, "Server error moving product to cart", err)
		return
	}
	if w != nil && w.RemoveProduct(productID) {
		if err := store.Wishlists.Save(ctx, w); err != nil {
			wishlistError(c, "Server error moving product to cart", err)
			return
		}
		if err := store.Products.AdjustWishlistCount(ctx, []primitive.ObjectID{productID}, -1); err != nil {
			zap.S().Warnf("⚠️ wishlistCount non décrémenté pour %s: %v", productID.Hex(), err)
		}
	}

	cart, err := loadOrCreateCart(ctx, userID)
	if err != nil {
		wishlistError(c, "Server error moving product to cart", err)
		return
	}
	cart.AddItem(productID, input.Quantity, product.Price)
	if err := store.Carts.Save(ctx, cart); err != nil {
		wishlistError(c, "Server error moving product to cart", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product moved to cart successfully", "cart": cart})
}
