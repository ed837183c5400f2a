package payement

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/store/memstore"
)

func TestDashboard(t *testing.T) {
	memstore.Install()
	ctx := context.Background()
	admin := newUser(t, models.RoleAdmin)
	buyer := newUser(t, "")
	newProduct(t, "Atlas", 20, 50)
	newProduct(t, "Almanac", 10, 3)
	newProduct(t, "Dictionary", 30, 0)

	first := newPaidlessOrder(t, buyer.ID, 40)
	newPaidlessOrder(t, buyer.ID, 15)
	first.UpdateStatus(models.OrderShipped)
	require.NoError(t, store.Orders.Save(ctx, first))

	r := gin.New()
	r.GET("/dashboard", as(admin), GetDashboardStats)
	r.GET("/dashboard/recent-orders", as(admin), GetRecentOrders)

	w := do(r, http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Orders struct {
			Total    int64            `json:"total"`
			ByStatus map[string]int64 `json:"byStatus"`
		} `json:"orders"`
		Products struct {
			LowStock   int `json:"lowStock"`
			OutOfStock int `json:"outOfStock"`
		} `json:"products"`
		Users struct {
			Active int `json:"active"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 2, resp.Orders.Total)
	assert.EqualValues(t, 1, resp.Orders.ByStatus[models.OrderShipped])
	assert.EqualValues(t, 1, resp.Orders.ByStatus[models.OrderPending])
	assert.EqualValues(t, 0, resp.Orders.ByStatus[models.OrderRefunded])
	assert.Equal(t, 1, resp.Products.LowStock)
	assert.Equal(t, 1, resp.Products.OutOfStock)
	assert.Equal(t, 2, resp.Users.Active)

	w = do(r, http.MethodGet, "/dashboard/recent-orders?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}
