// Package store regroupe l'accès aux données. Chaque collection est exposée
// via une interface; l'implémentation MongoDB est branchée par UseMongo, les
// tests utilisent le sous-paquet memstore.
package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vendora_back_end/internal/models"
)

var (
	ErrNotFound          = errors.New("document introuvable")
	ErrDuplicate         = errors.New("document déjà existant")
	ErrInsufficientStock = errors.New("stock insuffisant")
)

// Instances actives
var (
	Users         UserStore
	Products      ProductStore
	Carts         CartStore
	Orders        OrderStore
	Wishlists     WishlistStore
	Notifications NotificationStore
	Audit         AuditStore
)

type UserFilter struct {
	Role       string
	ActiveOnly bool
}

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	Save(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByResetToken(ctx context.Context, hashedToken string, now time.Time) (*models.User, error)
	FindBySocialID(ctx context.Context, provider, socialID string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	ListIDs(ctx context.Context, filter UserFilter) ([]primitive.ObjectID, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteAll(ctx context.Context) (int64, error)
}

// Tris de la liste produits
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
	SortNewest    = "newest"
	SortName      = "name"
)

type ProductQuery struct {
	Category  string
	MinPrice  *float64
	MaxPrice  *float64
	Brand     string
	Search    string
	MinRating *float64
	Featured  bool
	SortBy    string
	Page      int
	Limit     int
}

type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	// Update n'écrit que les champs bson nommés (plus updatedAt); le stock
	// décrémenté entre la lecture et l'écriture n'est donc jamais écrasé.
	Update(ctx context.Context, p *models.Product, fields ...string) error
	// AddReview ajoute l'avis et recalcule rating/numReviews en une opération.
	// ErrDuplicate si l'utilisateur a déjà noté le produit.
	AddReview(ctx context.Context, id primitive.ObjectID, r models.Review) (*models.Product, error)
	// AddImage ajoute l'image (la première, ou une isPrimary, devient principale).
	AddImage(ctx context.Context, id primitive.ObjectID, img models.ProductImage) (*models.Product, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error)
	// List ne retourne que les produits actifs, sans les avis.
	List(ctx context.Context, q ProductQuery) ([]models.Product, int64, error)
	// Distinct liste les valeurs d'un champ sur les produits actifs.
	Distinct(ctx context.Context, field string) ([]string, error)
	Featured(ctx context.Context, limit int) ([]models.Product, error)
	LowStock(ctx context.Context) ([]models.Product, error)
	// DecrementStock retire qty du stock seulement si stock >= qty (ErrInsufficientStock sinon).
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
	AdjustWishlistCount(ctx context.Context, ids []primitive.ObjectID, delta int) error
	DeleteAll(ctx context.Context) (int64, error)
}

type CartStore interface {
	FindByUser(ctx context.Context, user primitive.ObjectID) (*models.Cart, error)
	// Save crée ou remplace le panier de l'utilisateur.
	Save(ctx context.Context, c *models.Cart) error
	DeleteByUser(ctx context.Context, user primitive.ObjectID) error
}

type OrderQuery struct {
	User          *primitive.ObjectID
	Status        string
	PaymentMethod string
	Page          int
	Limit         int
}

type OrderStats struct {
	TotalOrders       int64   `json:"totalOrders"`
	TotalRevenue      float64 `json:"totalRevenue"`
	AverageOrderValue float64 `json:"averageOrderValue"`
}

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	Save(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error)
	// MarkPaid écrit le paiement seulement si la commande n'est pas déjà payée.
	// false signifie qu'un autre appel (confirm ou webhook) l'a fait avant.
	MarkPaid(ctx context.Context, o *models.Order) (bool, error)
	// List trie par date de création décroissante.
	List(ctx context.Context, q OrderQuery) ([]models.Order, int64, error)
	Stats(ctx context.Context) (OrderStats, error)
	// PaidByUser trie par date de paiement décroissante.
	PaidByUser(ctx context.Context, user primitive.ObjectID, limit int) ([]models.Order, error)
	HasPurchased(ctx context.Context, user, product primitive.ObjectID) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type WishlistStore interface {
	FindByUser(ctx context.Context, user primitive.ObjectID) (*models.Wishlist, error)
	FindByShareToken(ctx context.Context, token string) (*models.Wishlist, error)
	Save(ctx context.Context, w *models.Wishlist) error
	UsersWithProduct(ctx context.Context, product primitive.ObjectID) ([]primitive.ObjectID, error)
	DeleteByUser(ctx context.Context, user primitive.ObjectID) error
}

type NotificationQuery struct {
	Recipient  primitive.ObjectID
	UnreadOnly bool
	Type       string
	Priority   string
	Page       int
	Limit      int
}

type CountByKey struct {
	Key   string `json:"_id"`
	Count int64  `json:"count"`
}

type NotificationStats struct {
	Total      int64
	Unread     int64
	ByType     []CountByKey
	ByPriority []CountByKey
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	CreateMany(ctx context.Context, ns []*models.Notification) error
	List(ctx context.Context, q NotificationQuery) ([]models.Notification, error)
	CountUnread(ctx context.Context, recipient primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, recipient, id primitive.ObjectID) (*models.Notification, error)
	MarkManyRead(ctx context.Context, recipient primitive.ObjectID, ids []primitive.ObjectID) (int64, error)
	MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, recipient, id primitive.ObjectID) error
	DeleteMany(ctx context.Context, recipient primitive.ObjectID, ids []primitive.ObjectID) (int64, error)
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	// DeleteAllFor supprime toutes les notifications d'un destinataire (suppression de compte).
	DeleteAllFor(ctx context.Context, recipient primitive.ObjectID) (int64, error)
	Stats(ctx context.Context) (NotificationStats, error)
}

type AuditQuery struct {
	UserID     string
	Action     string
	Resource   string
	ResourceID string
	Success    *bool
	Limit      int
}

type AuditStats struct {
	Total      int64
	Successful int64
	Recent     int64
	TopActions []CountByKey
	TopUsers   []CountByKey
}

type AuditStore interface {
	Insert(ctx context.Context, entry *models.AuditLog) error
	// List trie du plus récent au plus ancien.
	List(ctx context.Context, q AuditQuery) ([]models.AuditLog, error)
	// Stats compte les entrées; Recent porte sur celles postérieures à since.
	Stats(ctx context.Context, since time.Time) (AuditStats, error)
}

// Skip calcule le décalage de pagination (pages à partir de 1).
func Skip(page, limit int) int64 {
	if page < 1 {
		page = 1
	}
	return int64((page - 1) * limit)
}
