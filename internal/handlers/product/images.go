package product

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"vendora_back_end/internal/cache"
	"vendora_back_end/internal/models"
	"vendora_back_end/internal/services"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

// UploadProductImage envoie l'image sur MinIO puis l'ajoute au produit.
// La première image d'un produit devient l'image principale.
func UploadProductImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Image file is required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p := loadProduct(c, ctx, "Server error uploading image")
	if p == nil {
		return
	}

	url, err := services.UploadFile(ctx, "products", file)
	switch {
	case errors.Is(err, services.ErrInvalidImage):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Only image files are allowed"})
		return
	case errors.Is(err, services.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Image storage is unavailable"})
		return
	case err != nil:
		serverError(c, "Server error uploading image", err)
		return
	}

	alt := c.PostForm("alt")
	if alt == "" {
		alt = p.Name
	}
	updated, err := store.Products.AddImage(ctx, p.ID, models.ProductImage{URL: url, Alt: alt, IsPrimary: cast.ToBool(c.PostForm("isPrimary"))})
	if err != nil {
		serverError(c, "Server error uploading image", err)
		return
	}

	cache.InvalidateProducts(ctx)
	utils.LogAction(c, utils.ACTION_PRODUCT_IMAGE_ADD, utils.RESOURCE_PRODUCT, p.ID.Hex(), nil, gin.H{"url": url})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Image uploaded successfully",
		"image":   updated.Images[len(updated.Images)-1],
		"images":  updated.Images,
	})
}
