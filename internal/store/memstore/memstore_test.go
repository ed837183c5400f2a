package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
)

func TestUsers_DuplicateEmail(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Users.Create(ctx, models.NewUser("Alice", "Alice@Example.com", "")))
	err := s.Users.Create(ctx, models.NewUser("Alice 2", "alice@example.com", ""))
	assert.ErrorIs(t, err, store.ErrDuplicate)

	u, err := s.Users.FindByEmail(ctx, " ALICE@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
}

func TestUsers_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := models.NewUser("Bob", "bob@example.com", "")
	require.NoError(t, s.Users.Create(ctx, u))

	got, err := s.Users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	got.Name = "Changed"

	again, err := s.Users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", again.Name)
}

func TestProducts_DecrementStockIsConditional(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := models.NewProduct(primitive.NewObjectID())
	p.Name = "Lamp"
	p.Price = 10
	p.Stock = 3
	require.NoError(t, s.Products.Create(ctx, p))

	require.NoError(t, s.Products.DecrementStock(ctx, p.ID, 2))
	assert.ErrorIs(t, s.Products.DecrementStock(ctx, p.ID, 2), store.ErrInsufficientStock)

	got, err := s.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)
	assert.Equal(t, 1, got.Purchases)
}

func TestProducts_ListFiltersAndPaginates(t *testing.T) {
	s := New()
	ctx := context.Background()
	seller := primitive.NewObjectID()
	for i, name := range []string{"Red Shoe", "Blue Shoe", "Green Hat"} {
		p := models.NewProduct(seller)
		p.Name = name
		p.Price = float64(10 * (i + 1))
		p.Category = "Sports"
		p.Stock = 5
		require.NoError(t, s.Products.Create(ctx, p))
	}
	hidden := models.NewProduct(seller)
	hidden.Name = "Hidden Shoe"
	hidden.IsActive = false
	require.NoError(t, s.Products.Create(ctx, hidden))

	items, total, err := s.Products.List(ctx, store.ProductQuery{Search: "shoe", SortBy: store.SortPriceAsc, Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Red Shoe", items[0].Name)
	assert.Nil(t, items[0].Reviews)
}

func TestNotifications_MarkAndCleanup(t *testing.T) {
	s := New()
	ctx := context.Background()
	user := primitive.NewObjectID()

	promo := &models.Notification{Recipient: user, Type: models.NotifPromotion, Title: "Sale", Message: "50% off"}
	order := &models.Notification{Recipient: user, Type: models.NotifOrderShipped, Title: "Shipped", Message: "On its way"}
	require.NoError(t, s.Notifications.CreateMany(ctx, []*models.Notification{promo, order}))

	count, err := s.Notifications.CountUnread(ctx, user)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	n, err := s.Notifications.MarkRead(ctx, user, order.ID)
	require.NoError(t, err)
	firstRead := *n.ReadAt

	n, err = s.Notifications.MarkRead(ctx, user, order.ID)
	require.NoError(t, err)
	assert.True(t, n.ReadAt.Equal(firstRead))

	_, err = s.Notifications.MarkRead(ctx, primitive.NewObjectID(), promo.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	purged, err := s.Notifications.DeleteExpired(ctx, time.Now().AddDate(0, 0, 8))
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	stats, err := s.Notifications.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Total)
	assert.EqualValues(t, 0, stats.Unread)
}

func TestProducts_UpdateWritesOnlyNamedFields(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := models.NewProduct(primitive.NewObjectID())
	p.Name = "Kettle"
	p.Brand = "Boil"
	p.Stock = 5
	require.NoError(t, s.Products.Create(ctx, p))

	snapshot, err := s.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, s.Products.DecrementStock(ctx, p.ID, 5))

	snapshot.Brand = ""
	snapshot.Price = 12
	require.NoError(t, s.Products.Update(ctx, snapshot, "brand", "price"))

	got, err := s.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
	assert.Equal(t, 1, got.Purchases)
	assert.Empty(t, got.Brand)
	assert.Equal(t, 12.0, got.Price)
	assert.ErrorIs(t, s.Products.DecrementStock(ctx, p.ID, 5), store.ErrInsufficientStock)

	assert.ErrorIs(t, s.Products.Update(ctx, models.NewProduct(primitive.NewObjectID()), "price"), store.ErrNotFound)
}

func TestProducts_AddReviewRecomputesRating(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := models.NewProduct(primitive.NewObjectID())
	p.Name = "Lamp"
	require.NoError(t, s.Products.Create(ctx, p))

	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	for i, r := range []models.Review{{User: a, Rating: 5}, {User: b, Rating: 4}, {User: c, Rating: 4}} {
		got, err := s.Products.AddReview(ctx, p.ID, r)
		require.NoError(t, err)
		assert.Equal(t, i+1, got.NumReviews)
	}

	_, err := s.Products.AddReview(ctx, p.ID, models.Review{User: a, Rating: 1})
	assert.ErrorIs(t, err, store.ErrDuplicate)
	_, err = s.Products.AddReview(ctx, primitive.NewObjectID(), models.Review{User: a, Rating: 1})
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.3, got.Rating)
	assert.Equal(t, 3, got.NumReviews)
}

func TestProducts_AddImageMovesPrimary(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := models.NewProduct(primitive.NewObjectID())
	require.NoError(t, s.Products.Create(ctx, p))

	got, err := s.Products.AddImage(ctx, p.ID, models.ProductImage{URL: "a.png"})
	require.NoError(t, err)
	assert.True(t, got.Images[0].IsPrimary)

	got, err = s.Products.AddImage(ctx, p.ID, models.ProductImage{URL: "b.png"})
	require.NoError(t, err)
	assert.True(t, got.Images[0].IsPrimary)
	assert.False(t, got.Images[1].IsPrimary)

	got, err = s.Products.AddImage(ctx, p.ID, models.ProductImage{URL: "c.png", IsPrimary: true})
	require.NoError(t, err)
	assert.Equal(t, "c.png", got.PrimaryImage())
	assert.Equal(t, 2, got.Images[2].Order)
	assert.False(t, got.Images[0].IsPrimary)
}
