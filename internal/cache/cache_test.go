package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendora_back_end/internal/database"
)

func TestWithoutRedis_ActsAsEmptyCache(t *testing.T) {
	require.Nil(t, database.Redis)
	ctx := context.Background()

	assert.False(t, Enabled())
	assert.NoError(t, BlacklistToken(ctx, "jti", time.Minute))
	assert.False(t, IsTokenBlacklisted(ctx, "jti"))

	assert.NoError(t, SetJSON(ctx, KeyProductFilters, ProductFilters{Categories: []string{"Books"}}, time.Minute))
	var got ProductFilters
	assert.False(t, GetJSON(ctx, KeyProductFilters, &got))

	n, err := IncrementRateLimit(ctx, "rate:x", time.Minute)
	require.NoError(t, err)
	assert.Zero(t, n)

	fresh, err := SetOnce(ctx, "marker", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestLowStockKey(t *testing.T) {
	day := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "lowstock:abc:2024-03-09", LowStockKey("abc", day))
}
