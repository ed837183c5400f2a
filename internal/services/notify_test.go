package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/store/memstore"
)

func TestNotifyAndNotifyMany_SharePriorityRules(t *testing.T) {
	memstore.Install()
	ctx := context.Background()
	a, b := primitive.NewObjectID(), primitive.NewObjectID()

	Notify(ctx, a, models.NotifPaymentFailed, "Payment failed", "Retry", nil)
	NotifyMany(ctx, []primitive.ObjectID{a, b}, models.NotifLowStock, "Low stock", "Lamp", nil)
	NotifyMany(ctx, []primitive.ObjectID{b}, models.NotifPromotion, "Sale", "-20%", nil)

	got, err := store.Notifications.List(ctx, store.NotificationQuery{Recipient: a, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, n := range got {
		assert.Equal(t, models.PriorityHigh, n.Priority, n.Type)
	}

	got, err = store.Notifications.List(ctx, store.NotificationQuery{Recipient: b, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, n := range got {
		want := models.PriorityMedium
		if n.Type == models.NotifLowStock {
			want = models.PriorityHigh
		}
		assert.Equal(t, want, n.Priority, n.Type)
	}
}

func TestPriorityFor(t *testing.T) {
	assert.Equal(t, models.PriorityHigh, priorityFor(models.NotifLowStock))
	assert.Equal(t, models.PriorityHigh, priorityFor(models.NotifPaymentFailed))
	assert.Empty(t, priorityFor(models.NotifWelcome))
}
