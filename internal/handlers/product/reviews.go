package product

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

// 🟢 POST /api/products/:id/reviews
func AddReview(c *gin.Context) {
	var in struct {
		Rating  int    `json:"rating" binding:"required,min=1,max=5"`
		Comment string `json:"comment" binding:"required,min=5,max=500"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p := loadProduct(c, ctx, "Server error adding review")
	if p == nil {
		return
	}

	userID, _ := utils.ParseObjectID(c.GetString("user_id"))
	if p.HasReviewFrom(userID) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Product already reviewed"})
		return
	}

	verified, err := store.Orders.HasPurchased(ctx, userID, p.ID)
	if err != nil {
		zap.S().Warnf("⚠️ Vérification d'achat impossible: %v", err)
	}

	now := time.Now()
	review := models.Review{
		ID:        primitive.NewObjectID(),
		User:      userID,
		Name:      c.GetString("name"),
		Rating:    in.Rating,
		Comment:   in.Comment,
		Verified:  verified,
		CreatedAt: now,
		UpdatedAt: now,
	}
	updated, err := store.Products.AddReview(ctx, p.ID, review)
	if errors.Is(err, store.ErrDuplicate) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Product already reviewed"})
		return
	}
	if err != nil {
		serverError(c, "Server error adding review", err)
		return
	}

	if p.Seller != userID {
		services.Notify(ctx, p.Seller, models.NotifProductReview, "New review",
			fmt.Sprintf("%s rated %s %d/5", review.Name, p.Name, review.Rating),
			map[string]interface{}{"productId": p.ID.Hex(), "rating": review.Rating})
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Review added successfully",
		"review":     review,
		"rating":     updated.Rating,
		"numReviews": updated.NumReviews,
	})
}
