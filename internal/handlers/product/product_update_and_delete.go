package product

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vendora_back_end/internal/cache"
	"vendora_back_end/internal/models"
	"vendora_back_end/internal/services"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

type createInput struct {
	Name              string                `json:"name" binding:"required,min=2,max=100"`
	Description       string                `json:"description" binding:"required,min=10,max=2000"`
	ShortDescription  string                `json:"shortDescription" binding:"omitempty,max=200"`
	Price             *float64              `json:"price" binding:"required,gte=0"`
	OriginalPrice     float64               `json:"originalPrice" binding:"omitempty,gte=0"`
	Category          string                `json:"category" binding:"required,oneof=Electronics Books Sports Toys"`
	Subcategory       string                `json:"subcategory"`
	Brand             string                `json:"brand"`
	Images            []models.ProductImage `json:"images" binding:"omitempty,dive"`
	Stock             *int                  `json:"stock" binding:"required,gte=0"`
	LowStockThreshold *int                  `json:"lowStockThreshold" binding:"omitempty,gte=0"`
	SKU               string                `json:"sku"`
	Tags              []string              `json:"tags"`
	Features          []string              `json:"features"`
	Specifications    map[string]string     `json:"specifications"`
	IsFeatured        bool                  `json:"isFeatured"`
	IsDigital         bool                  `json:"isDigital"`
	Discount          float64               `json:"discount" binding:"omitempty,gte=0"`
	DiscountType      string                `json:"discountType" binding:"omitempty,oneof=percentage fixed"`
}

// 🟢 POST /api/products
func CreateProduct(c *gin.Context) {
	var in createInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	sellerID, _ := utils.ParseObjectID(c.GetString("user_id"))
	p := models.NewProduct(sellerID)
	p.Name = in.Name
	p.Description = in.Description
	p.ShortDescription = in.ShortDescription
	p.Price = *in.Price
	p.OriginalPrice = in.OriginalPrice
	p.Category = in.Category
	p.Subcategory = in.Subcategory
	p.Brand = in.Brand
	p.Stock = *in.Stock
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
	p.SKU = in.SKU
	if in.Tags != nil {
		p.Tags = in.Tags
	}
	p.Features = in.Features
	p.Specifications = in.Specifications
	p.IsFeatured = in.IsFeatured
	p.IsDigital = in.IsDigital
	p.Discount = in.Discount
	if in.DiscountType != "" {
		p.DiscountType = in.DiscountType
	}
	for _, img := range in.Images {
		p.AddImage(img)
	}
	p.RefreshSlug()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.Products.Create(ctx, p); err != nil {
		serverError(c, "Server error creating product", err)
		return
	}

	services.IndexProductAsync(*p)
	cache.InvalidateProducts(ctx)
	utils.LogAction(c, utils.ACTION_PRODUCT_CREATE, utils.RESOURCE_PRODUCT, p.ID.Hex(), nil, gin.H{"name": p.Name, "price": p.Price})

	zap.S().Infof("📦 Produit créé: %s (%s)", p.Name, p.ID.Hex())
	c.JSON(http.StatusCreated, gin.H{"message": "Product created successfully", "product": p})
}

type updateInput struct {
	Name              *string               `json:"name" binding:"omitempty,min=2,max=100"`
	Description       *string               `json:"description" binding:"omitempty,min=10,max=2000"`
	ShortDescription  *string               `json:"shortDescription" binding:"omitempty,max=200"`
	Price             *float64              `json:"price" binding:"omitempty,gte=0"`
	OriginalPrice     *float64              `json:"originalPrice" binding:"omitempty,gte=0"`
	Category          *string               `json:"category" binding:"omitempty,oneof=Electronics Books Sports Toys"`
	Subcategory       *string               `json:"subcategory"`
	Brand             *string               `json:"brand"`
	Images            []models.ProductImage `json:"images" binding:"omitempty,dive"`
	Stock             *int                  `json:"stock" binding:"omitempty,gte=0"`
	LowStockThreshold *int                  `json:"lowStockThreshold" binding:"omitempty,gte=0"`
	SKU               *string               `json:"sku"`
	Tags              []string              `json:"tags"`
	Features          []string              `json:"features"`
	Specifications    map[string]string     `json:"specifications"`
	IsActive          *bool                 `json:"isActive"`
	IsFeatured        *bool                 `json:"isFeatured"`
	IsDigital         *bool                 `json:"isDigital"`
	Discount          *float64              `json:"discount" binding:"omitempty,gte=0"`
	DiscountType      *string               `json:"discountType" binding:"omitempty,oneof=percentage fixed"`
	Status            *string               `json:"status" binding:"omitempty,oneof=draft active inactive out_of_stock discontinued"`
}

// apply recopie les champs fournis sur le produit et retourne les champs bson modifiés.
func (in updateInput) apply(p *models.Product) []string {
	var fields []string
	if in.Name != nil && *in.Name != p.Name {
		p.Name = *in.Name
		p.RefreshSlug()
		fields = append(fields, "name", "slug")
	}
	if in.Description != nil {
		p.Description = *in.Description
		fields = append(fields, "description")
	}
	if in.ShortDescription != nil {
		p.ShortDescription = *in.ShortDescription
		fields = append(fields, "shortDescription")
	}
	if in.Price != nil {
		p.Price = *in.Price
		fields = append(fields, "price")
	}
	if in.OriginalPrice != nil {
		p.OriginalPrice = *in.OriginalPrice
		fields = append(fields, "originalPrice")
	}
	if in.Category != nil {
		p.Category = *in.Category
		fields = append(fields, "category")
	}
	if in.Subcategory != nil {
		p.Subcategory = *in.Subcategory
		fields = append(fields, "subcategory")
	}
	if in.Brand != nil {
		p.Brand = *in.Brand
		fields = append(fields, "brand")
	}
	if in.Images != nil {
		p.Images = []models.ProductImage{}
		for _, img := range in.Images {
			p.AddImage(img)
		}
		fields = append(fields, "images")
	}
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
		fields = append(fields, "lowStockThreshold")
	}
	if in.SKU != nil {
		p.SKU = *in.SKU
		fields = append(fields, "sku")
	}
	if in.Tags != nil {
		p.Tags = in.Tags
		fields = append(fields, "tags")
	}
	if in.Features != nil {
		p.Features = in.Features
		fields = append(fields, "features")
	}
	if in.Specifications != nil {
		p.Specifications = in.Specifications
		fields = append(fields, "specifications")
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
		fields = append(fields, "isActive")
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
		fields = append(fields, "isFeatured")
	}
	if in.IsDigital != nil {
		p.IsDigital = *in.IsDigital
		fields = append(fields, "isDigital")
	}
	if in.Discount != nil {
		p.Discount = *in.Discount
		fields = append(fields, "discount")
	}
	if in.DiscountType != nil {
		p.DiscountType = *in.DiscountType
		fields = append(fields, "discountType")
	}
	if in.Status != nil {
		p.Status = *in.Status
		fields = append(fields, "status")
	}
	// le stock est une valeur absolue saisie par l'admin; le statut suit
	if in.Stock != nil {
		p.Stock = *in.Stock
		p.SyncStatus()
		fields = append(fields, "stock")
		if in.Status == nil {
			fields = append(fields, "status")
		}
	}
	return fields
}

// 🟢 PUT /api/products/:id
func UpdateProduct(c *gin.Context) {
	var in updateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p := loadProduct(c, ctx, "Server error updating product")
	if p == nil {
		return
	}

	oldPrice := p.Price
	fields := in.apply(p)
	if err := store.Products.Update(ctx, p, fields...); err != nil {
		serverError(c, "Server error updating product", err)
		return
	}
	if fresh, err := store.Products.FindByID(ctx, p.ID); err == nil {
		p = fresh
	}

	if p.Price < oldPrice {
		notifyPriceDrop(ctx, p, oldPrice)
	}

	if p.IsActive {
		services.IndexProductAsync(*p)
	} else {
		services.RemoveProductAsync(p.ID)
	}
	cache.InvalidateProducts(ctx)
	utils.LogAction(c, utils.ACTION_PRODUCT_UPDATE, utils.RESOURCE_PRODUCT, p.ID.Hex(), nil, gin.H{"name": p.Name, "price": p.Price})

	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": p})
}

// notifyPriceDrop prévient les utilisateurs qui ont le produit dans leur wishlist.
func notifyPriceDrop(ctx context.Context, p *models.Product, oldPrice float64) {
	users, err := store.Wishlists.UsersWithProduct(ctx, p.ID)
	if err != nil {
		zap.S().Warnf("⚠️ Wishlists non lues pour la baisse de prix de %s: %v", p.ID.Hex(), err)
		return
	}
	services.NotifyMany(ctx, users, models.NotifPriceDrop, "Price drop",
		fmt.Sprintf("%s is now $%.2f (was $%.2f)", p.Name, p.Price, oldPrice),
		map[string]interface{}{"productId": p.ID.Hex(), "oldPrice": oldPrice, "newPrice": p.Price})
	zap.S().Infof("📉 Baisse de prix %s notifiée à %d utilisateurs", p.Name, len(users))
}

// 🟢 DELETE /api/products/:id (désactivation)
func DeleteProduct(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p := loadProduct(c, ctx, "Server error deleting product")
	if p == nil {
		return
	}

	p.IsActive = false
	if err := store.Products.Update(ctx, p, "isActive"); err != nil {
		serverError(c, "Server error deleting product", err)
		return
	}

	services.RemoveProductAsync(p.ID)
	cache.InvalidateProducts(ctx)
	utils.LogAction(c, utils.ACTION_PRODUCT_DELETE, utils.RESOURCE_PRODUCT, p.ID.Hex(), gin.H{"isActive": true}, gin.H{"isActive": false})

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// 🟢 DELETE /api/products
func DeleteAllProducts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := store.Products.DeleteAll(ctx)
	if err != nil {
		serverError(c, "Server error deleting products", err)
		return
	}

	cache.InvalidateProducts(ctx)
	utils.LogAction(c, utils.ACTION_PRODUCT_DELETE_ALL, utils.RESOURCE_PRODUCT, "", nil, gin.H{"deletedCount": deleted})
	zap.S().Warnf("🗑️ %d produits supprimés par %s", deleted, c.GetString("email"))

	c.JSON(http.StatusOK, gin.H{"message": "All products deleted successfully", "deletedCount": deleted})
}
