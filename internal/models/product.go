package models

import (
	"time"

	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Catégories autorisées
var ProductCategories = []string{"Electronics", "Books", "Sports", "Toys"}

func IsValidCategory(category string) bool {
	for _, c := range ProductCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Statuts produit
const (
	ProductDraft        = "draft"
	ProductActive       = "active"
	ProductInactive     = "inactive"
	ProductOutOfStock   = "out_of_stock"
	ProductDiscontinued = "discontinued"
)

// Niveaux de stock
const (
	StockOut = "out_of_stock"
	StockLow = "low_stock"
	StockIn  = "in_stock"
)

const DefaultLowStockThreshold = 10

type ProductImage struct {
	URL       string `json:"url" bson:"url"`
	Alt       string `json:"alt" bson:"alt"`
	IsPrimary bool   `json:"isPrimary" bson:"isPrimary"`
	Order     int    `json:"order" bson:"order"`
}

type Dimensions struct {
	Length float64 `json:"length,omitempty" bson:"length,omitempty"`
	Width  float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height float64 `json:"height,omitempty" bson:"height,omitempty"`
	Unit   string  `json:"unit,omitempty" bson:"unit,omitempty"`
}

type ShippingInfo struct {
	FreeShipping bool    `json:"freeShipping" bson:"freeShipping"`
	ShippingCost float64 `json:"shippingCost" bson:"shippingCost"`
}

// SellerRef est le vendeur "peuplé" renvoyé avec un produit.
type SellerRef struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Email string             `json:"email,omitempty"`
}

type Product struct {
	ID               primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name             string             `json:"name" bson:"name"`
	Slug             string             `json:"slug" bson:"slug,omitempty"`
	Description      string             `json:"description" bson:"description"`
	ShortDescription string             `json:"shortDescription,omitempty" bson:"shortDescription,omitempty"`

	Price         float64 `json:"price" bson:"price"`
	OriginalPrice float64 `json:"originalPrice,omitempty" bson:"originalPrice,omitempty"`
	CostPrice     float64 `json:"costPrice,omitempty" bson:"costPrice,omitempty"`

	Category    string `json:"category" bson:"category"`
	Subcategory string `json:"subcategory,omitempty" bson:"subcategory,omitempty"`
	Brand       string `json:"brand,omitempty" bson:"brand,omitempty"`

	Images            []ProductImage `json:"images" bson:"images"`
	Stock             int            `json:"stock" bson:"stock"`
	ReservedStock     int            `json:"reservedStock" bson:"reservedStock"`
	LowStockThreshold int            `json:"lowStockThreshold" bson:"lowStockThreshold"`
	SKU               string         `json:"sku,omitempty" bson:"sku,omitempty"`
	Barcode           string         `json:"barcode,omitempty" bson:"barcode,omitempty"`
	Weight            float64        `json:"weight,omitempty" bson:"weight,omitempty"`
	Dimensions        *Dimensions    `json:"dimensions,omitempty" bson:"dimensions,omitempty"`
	ShippingInfo      ShippingInfo   `json:"shippingInfo" bson:"shippingInfo"`

	Tags           []string          `json:"tags" bson:"tags"`
	Features       []string          `json:"features,omitempty" bson:"features,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty" bson:"specifications,omitempty"`

	Reviews    []Review `json:"reviews,omitempty" bson:"reviews"`
	Rating     float64  `json:"rating" bson:"rating"`
	NumReviews int      `json:"numReviews" bson:"numReviews"`

	IsActive   bool `json:"isActive" bson:"isActive"`
	IsFeatured bool `json:"isFeatured" bson:"isFeatured"`
	IsDigital  bool `json:"isDigital" bson:"isDigital"`

	Discount          float64    `json:"discount" bson:"discount"`
	DiscountType      string     `json:"discountType" bson:"discountType"`
	DiscountStartDate *time.Time `json:"discountStartDate,omitempty" bson:"discountStartDate,omitempty"`
	DiscountEndDate   *time.Time `json:"discountEndDate,omitempty" bson:"discountEndDate,omitempty"`

	Seller    primitive.ObjectID `json:"seller" bson:"seller"`
	SellerRef *SellerRef         `json:"sellerInfo,omitempty" bson:"-"`

	MetaTitle       string `json:"metaTitle,omitempty" bson:"metaTitle,omitempty"`
	MetaDescription string `json:"metaDescription,omitempty" bson:"metaDescription,omitempty"`

	Views         int    `json:"views" bson:"views"`
	Purchases     int    `json:"purchases" bson:"purchases"`
	WishlistCount int    `json:"wishlistCount" bson:"wishlistCount"`
	Status        string `json:"status" bson:"status"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// NewProduct applique les valeurs par défaut du schéma.
func NewProduct(seller primitive.ObjectID) *Product {
	now := time.Now()
	return &Product{
		ID:                primitive.NewObjectID(),
		Images:            []ProductImage{},
		Tags:              []string{},
		Reviews:           []Review{},
		LowStockThreshold: DefaultLowStockThreshold,
		IsActive:          true,
		DiscountType:      "percentage",
		Seller:            seller,
		Status:            ProductActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// AvailableStock = stock - stock réservé, jamais négatif.
func (p *Product) AvailableStock() int {
	if avail := p.Stock - p.ReservedStock; avail > 0 {
		return avail
	}
	return 0
}

func (p *Product) StockStatus() string {
	avail := p.AvailableStock()
	if avail == 0 {
		return StockOut
	}
	if avail <= p.LowStockThreshold {
		return StockLow
	}
	return StockIn
}

func (p *Product) DiscountAmount() float64 {
	if p.Discount > 0 && p.OriginalPrice > 0 {
		if p.DiscountType == "fixed" {
			return p.Discount
		}
		return p.OriginalPrice * p.Discount / 100
	}
	return 0
}

// FinalPrice applique la remise au prix d'origine s'il y en a une.
func (p *Product) FinalPrice() float64 {
	if p.Discount > 0 && p.OriginalPrice > 0 {
		if final := p.OriginalPrice - p.DiscountAmount(); final > 0 {
			return final
		}
		return 0
	}
	return p.Price
}

func (p *Product) IsOnSale(now time.Time) bool {
	if p.Discount == 0 {
		return false
	}
	if p.DiscountStartDate != nil && now.Before(*p.DiscountStartDate) {
		return false
	}
	if p.DiscountEndDate != nil && now.After(*p.DiscountEndDate) {
		return false
	}
	return true
}

// RefreshSlug recalcule le slug à partir du nom.
func (p *Product) RefreshSlug() {
	p.Slug = slug.Make(p.Name)
}

// SyncStatus bascule active <-> out_of_stock selon le stock disponible.
func (p *Product) SyncStatus() {
	avail := p.AvailableStock()
	if avail == 0 && p.Status == ProductActive {
		p.Status = ProductOutOfStock
	} else if avail > 0 && p.Status == ProductOutOfStock {
		p.Status = ProductActive
	}
}

// ReserveStock réserve une quantité si le stock disponible suffit.
func (p *Product) ReserveStock(qty int) bool {
	if p.AvailableStock() < qty {
		return false
	}
	p.ReservedStock += qty
	return true
}

func (p *Product) ReleaseStock(qty int) {
	p.ReservedStock -= qty
	if p.ReservedStock < 0 {
		p.ReservedStock = 0
	}
}

// PrimaryImage retourne l'URL de l'image principale, sinon la première, sinon "".
func (p *Product) PrimaryImage() string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

// AddImage ajoute une image; la première devient principale.
func (p *Product) AddImage(img ProductImage) {
	if len(p.Images) == 0 {
		img.IsPrimary = true
	} else if img.IsPrimary {
		for i := range p.Images {
			p.Images[i].IsPrimary = false
		}
	}
	img.Order = len(p.Images)
	p.Images = append(p.Images, img)
}

// Prepare applique les hooks d'enregistrement: slug, note moyenne, statut.
func (p *Product) Prepare() {
	if p.Slug == "" {
		p.RefreshSlug()
	}
	p.CalculateAverageRating()
	p.SyncStatus()
	p.UpdatedAt = time.Now()
}
