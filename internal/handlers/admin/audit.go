package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"vendora_back_end/internal/store"
)

const (
	auditDefaultLimit    = 100
	auditMaxLimit        = 500
	resourceDefaultLimit = 50
	resourceMaxLimit     = 200
	auditRecentDuration  = 24 * time.Hour
)

func auditLimit(c *gin.Context, def, max int) int {
	limit := cast.ToInt(c.Query("limit"))
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// GetAuditLogs récupère les logs d'audit avec filtres
// 🟢 GET /api/admin/audit-logs?userId=&action=&resource=&success=&limit=
func GetAuditLogs(c *gin.Context) {
	q := store.AuditQuery{
		UserID:   c.Query("userId"),
		Action:   c.Query("action"),
		Resource: c.Query("resource"),
		Limit:    auditLimit(c, auditDefaultLimit, auditMaxLimit),
	}
	if raw := c.Query("success"); raw != "" {
		ok, err := cast.ToBoolE(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "success must be true or false"})
			return
		}
		q.Success = &ok
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logs, err := store.Audit.List(ctx, q)
	if err != nil {
		serverError(c, "Error fetching audit logs", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": len(logs),
		"filters": gin.H{
			"userId":   q.UserID,
			"action":   q.Action,
			"resource": q.Resource,
			"success":  c.Query("success"),
			"limit":    q.Limit,
		},
	})
}

// GetAuditLogsByResource récupère l'historique d'une ressource précise
// 🟢 GET /api/admin/audit-logs/:resource/:resourceId
func GetAuditLogsByResource(c *gin.Context) {
	q := store.AuditQuery{
		Resource:   c.Param("resource"),
		ResourceID: c.Param("resourceId"),
		Limit:      auditLimit(c, resourceDefaultLimit, resourceMaxLimit),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logs, err := store.Audit.List(ctx, q)
	if err != nil {
		serverError(c, "Error fetching audit logs", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"resource":   q.Resource,
		"resourceId": q.ResourceID,
		"logs":       logs,
		"total":      len(logs),
	})
}

// 🟢 GET /api/admin/audit-logs/stats
func GetAuditStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := store.Audit.Stats(ctx, time.Now().Add(-auditRecentDuration))
	if err != nil {
		serverError(c, "Error fetching audit statistics", err)
		return
	}

	successRate := 0.0
	if stats.Total > 0 {
		successRate = float64(stats.Successful) / float64(stats.Total) * 100
	}

	c.JSON(http.StatusOK, gin.H{
		"totalLogs":         stats.Total,
		"successfulActions": stats.Successful,
		"failedActions":     stats.Total - stats.Successful,
		"recentActions":     stats.Recent,
		"successRate":       successRate,
		"topActions":        stats.TopActions,
		"topUsers":          stats.TopUsers,
	})
}
