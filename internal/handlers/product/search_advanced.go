package product

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/services"
	"vendora_back_end/internal/store"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 50
)

// SearchProducts interroge Elasticsearch puis recharge les produits depuis Mongo,
// dans l'ordre de pertinence. Sans Elasticsearch, la recherche texte Mongo prend le relais.
func SearchProducts(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Search query is required"})
		return
	}
	limit := cast.ToInt(c.Query("limit"))
	if limit < 1 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	products, source, err := searchProducts(ctx, query, limit)
	if err != nil {
		serverError(c, "Server error searching products", err)
		return
	}
	populateSellers(ctx, products, false)

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    len(products),
		"query":    query,
		"source":   source,
	})
}

func searchProducts(ctx context.Context, query string, limit int) ([]models.Product, string, error) {
	ids, err := services.Search.Search(ctx, query, limit)
	if err == nil {
		products, err := orderedActiveProducts(ctx, ids)
		return products, "elasticsearch", err
	}
	if !errors.Is(err, services.ErrSearchUnavailable) {
		zap.S().Warnf("⚠️ Recherche Elastic en échec, repli sur Mongo: %v", err)
	}

	products, _, err := store.Products.List(ctx, store.ProductQuery{Search: query, Page: 1, Limit: limit})
	return products, "database", err
}

// orderedActiveProducts recharge les produits en conservant l'ordre des identifiants.
func orderedActiveProducts(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	found, err := store.Products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := found[id]; ok && p.IsActive {
			p.Reviews = nil
			out = append(out, *p)
		}
	}
	return out, nil
}
