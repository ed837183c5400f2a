package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

func succeeded(c *gin.Context) bool {
	return c.Writer.Status() >= 200 && c.Writer.Status() < 300
}

// AuditPriceChanges audite les changements de prix d'un produit (PUT /:id).
func AuditPriceChanges() gin.HandlerFunc {
	return func(c *gin.Context) {
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Next()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var requestData struct {
			Price *float64 `json:"price"`
		}
		if err := json.Unmarshal(bodyBytes, &requestData); err != nil || requestData.Price == nil {
			c.Next()
			return
		}

		productID := c.Param("id")
		oldPrice, ok := currentPrice(productID)

		c.Next()

		if !ok || !succeeded(c) || oldPrice == *requestData.Price {
			return
		}
		utils.LogAction(c, utils.ACTION_PRODUCT_PRICE_CHANGE, utils.RESOURCE_PRODUCT, productID,
			gin.H{"price": oldPrice}, gin.H{"price": *requestData.Price})
		zap.S().Infof("💰 Changement de prix audité: produit %s (%.2f → %.2f)", productID, oldPrice, *requestData.Price)
	}
}

// currentPrice lit le prix avant modification.
func currentPrice(productID string) (float64, bool) {
	id, ok := utils.ParseObjectID(productID)
	if !ok {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	products, err := store.Products.FindByIDs(ctx, []primitive.ObjectID{id})
	if err != nil {
		zap.S().Warnf("⚠️ Erreur récupération ancien prix: %v", err)
		return 0, false
	}
	p, found := products[id]
	if !found {
		return 0, false
	}
	return p.Price, true
}

// AuditCriticalActions audite une action d'administration une fois la requête traitée.
func AuditCriticalActions(action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		resourceID := c.Param("id")
		if resourceID == "" {
			resourceID = c.Param("userId")
		}

		c.Next()

		if succeeded(c) {
			utils.LogAction(c, action, resource, resourceID, nil, nil)
		} else {
			utils.LogFailedAction(c, action, resource, resourceID, "request failed")
		}
	}
}
