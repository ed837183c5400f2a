package product

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"vendora_back_end/internal/cache"
	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

const featuredLimit = 8

func serverError(c *gin.Context, message string, err error) {
	zap.S().Errorw("❌ "+message, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": message})
}

// loadProduct lit le produit du paramètre :id; répond 404 et renvoie nil s'il n'existe pas.
func loadProduct(c *gin.Context, ctx context.Context, failMessage string) *models.Product {
	id, ok := utils.ParseObjectID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return nil
	}
	p, err := store.Products.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return nil
	}
	if err != nil {
		serverError(c, failMessage, err)
		return nil
	}
	return p
}

// populateSellers attache nom (et email si withEmail) du vendeur à chaque produit.
func populateSellers(ctx context.Context, products []models.Product, withEmail bool) {
	ids := make([]primitive.ObjectID, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.Seller)
	}
	sellers, err := store.Users.FindByIDs(ctx, ids)
	if err != nil {
		zap.S().Warnf("⚠️ Vendeurs non chargés: %v", err)
		return
	}
	for i := range products {
		if u, ok := sellers[products[i].Seller]; ok {
			ref := &models.SellerRef{ID: u.ID, Name: u.Name}
			if withEmail {
				ref.Email = u.Email
			}
			products[i].SellerRef = ref
		}
	}
}

type listQuery struct {
	Page      int      `form:"page" binding:"omitempty,min=1"`
	Limit     int      `form:"limit" binding:"omitempty,min=1,max=50"`
	Category  string   `form:"category"`
	MinPrice  *float64 `form:"minPrice" binding:"omitempty,gte=0"`
	MaxPrice  *float64 `form:"maxPrice" binding:"omitempty,gte=0"`
	Brand     string   `form:"brand"`
	Search    string   `form:"search"`
	MinRating *float64 `form:"minRating" binding:"omitempty,gte=0,lte=5"`
	Featured  string   `form:"featured"`
	SortBy    string   `form:"sortBy" binding:"omitempty,oneof=price_asc price_desc rating newest name"`
}

// productFilters renvoie catégories et marques des produits actifs, depuis Redis si possible.
func productFilters(ctx context.Context) (cache.ProductFilters, error) {
	var filters cache.ProductFilters
	if cache.GetJSON(ctx, cache.KeyProductFilters, &filters) {
		return filters, nil
	}

	categories, err := store.Products.Distinct(ctx, "category")
	if err != nil {
		return filters, err
	}
	brands, err := store.Products.Distinct(ctx, "brand")
	if err != nil {
		return filters, err
	}
	filters = cache.ProductFilters{Categories: categories, Brands: brands}

	if err := cache.SetJSON(ctx, cache.KeyProductFilters, filters, cache.ProductCacheTTL); err != nil {
		zap.S().Warnf("⚠️ Filtres produits non mis en cache: %v", err)
	}
	return filters, nil
}

// 🟢 GET /api/products
func GetProducts(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.AbortValidation(c, err)
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = 12
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	products, total, err := store.Products.List(ctx, store.ProductQuery{
		Category:  q.Category,
		MinPrice:  q.MinPrice,
		MaxPrice:  q.MaxPrice,
		Brand:     q.Brand,
		Search:    q.Search,
		MinRating: q.MinRating,
		Featured:  q.Featured == "true",
		SortBy:    q.SortBy,
		Page:      q.Page,
		Limit:     q.Limit,
	})
	if err != nil {
		serverError(c, "Server error fetching products", err)
		return
	}
	populateSellers(ctx, products, false)

	filters, err := productFilters(ctx)
	if err != nil {
		serverError(c, "Server error fetching products", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products":   products,
		"pagination": utils.PaginationMeta(q.Page, q.Limit, total, "totalProducts"),
		"filters":    filters,
	})
}

// 🟢 GET /api/products/featured/list
func GetFeaturedProducts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var products []models.Product
	if cache.GetJSON(ctx, cache.KeyFeaturedProduct, &products) {
		c.JSON(http.StatusOK, products)
		return
	}

	products, err := store.Products.Featured(ctx, featuredLimit)
	if err != nil {
		serverError(c, "Server error fetching featured products", err)
		return
	}
	populateSellers(ctx, products, false)

	if err := cache.SetJSON(ctx, cache.KeyFeaturedProduct, products, cache.ProductCacheTTL); err != nil {
		zap.S().Warnf("⚠️ Produits vedettes non mis en cache: %v", err)
	}
	c.JSON(http.StatusOK, products)
}

// 🟢 GET /api/products/:id
func GetProduct(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p := loadProduct(c, ctx, "Server error fetching product")
	if p == nil {
		return
	}
	if !p.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not available"})
		return
	}

	if err := store.Products.IncrementViews(ctx, p.ID); err != nil {
		zap.S().Warnf("⚠️ Vue non comptée pour %s: %v", p.ID.Hex(), err)
	} else {
		p.Views++
	}

	one := []models.Product{*p}
	populateSellers(ctx, one, true)
	c.JSON(http.StatusOK, one[0])
}
