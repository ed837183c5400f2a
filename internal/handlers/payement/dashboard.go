package payement

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

// GetDashboardStats retourne les statistiques du dashboard admin
// 🟢 GET /api/admin/dashboard
func GetDashboardStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	stats, err := store.Orders.Stats(ctx)
	if err != nil {
		serverError(c, "Server error fetching dashboard", err)
		return
	}

	byStatus := make(map[string]int64, len(models.OrderStatuses))
	for _, status := range models.OrderStatuses {
		_, total, err := store.Orders.List(ctx, store.OrderQuery{Status: status, Page: 1, Limit: 1})
		if err != nil {
			serverError(c, "Server error fetching dashboard", err)
			return
		}
		byStatus[status] = total
	}

	lowStock, err := store.Products.LowStock(ctx)
	if err != nil {
		serverError(c, "Server error fetching dashboard", err)
		return
	}
	outOfStock := 0
	for _, p := range lowStock {
		if p.AvailableStock() == 0 {
			outOfStock++
		}
	}

	users, err := store.Users.ListIDs(ctx, store.UserFilter{ActiveOnly: true})
	if err != nil {
		serverError(c, "Server error fetching dashboard", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": gin.H{
			"total":             stats.TotalOrders,
			"totalRevenue":      stats.TotalRevenue,
			"averageOrderValue": stats.AverageOrderValue,
			"byStatus":          byStatus,
		},
		"products": gin.H{
			"lowStock":   len(lowStock) - outOfStock,
			"outOfStock": outOfStock,
		},
		"users":       gin.H{"active": len(users)},
		"generatedAt": time.Now().UTC(),
	})
}

// GetRecentOrders retourne les dernières commandes
// 🟢 GET /api/admin/dashboard/recent-orders?limit=10
func GetRecentOrders(c *gin.Context) {
	_, limit := utils.Pagination(c, 10, 50)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	orders, _, err := store.Orders.List(ctx, store.OrderQuery{Page: 1, Limit: limit})
	if err != nil {
		serverError(c, "Server error fetching recent orders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}
