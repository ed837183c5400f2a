package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	ProductCacheTTL = 5 * time.Minute
	LowStockMarker  = 24 * time.Hour
)

// Clés du catalogue
const (
	KeyProductFilters  = "products:filters"
	KeyFeaturedProduct = "products:featured"
)

// ProductFilters est la liste des catégories et marques des produits actifs.
type ProductFilters struct {
	Categories []string `json:"categories"`
	Brands     []string `json:"brands"`
}

// InvalidateProducts vide le cache du catalogue après une écriture admin.
func InvalidateProducts(ctx context.Context) {
	if err := Delete(ctx, KeyProductFilters, KeyFeaturedProduct); err != nil {
		zap.L().Warn("⚠️ Invalidation cache produits", zap.Error(err))
	}
}

// LowStockKey identifie l'alerte du jour pour un produit.
func LowStockKey(productID string, day time.Time) string {
	return "lowstock:" + productID + ":" + day.Format("2006-01-02")
}
