package utils

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
)

// LogAction enregistre une action dans les logs d'audit
func LogAction(c *gin.Context, action, resource string, resourceID string, oldValue, newValue interface{}) {
	entry := buildAuditLog(c, action, resource, resourceID, oldValue, newValue, true, "")
	go persistAudit(entry)
}

// LogFailedAction enregistre une action échouée dans les logs d'audit
func LogFailedAction(c *gin.Context, action, resource, resourceID, errorMsg string) {
	entry := buildAuditLog(c, action, resource, resourceID, nil, nil, false, errorMsg)
	go persistAudit(entry)
}

// buildAuditLog lit le contexte gin avant de quitter la requête.
func buildAuditLog(c *gin.Context, action, resource, resourceID string, oldValue, newValue interface{}, success bool, errorMsg string) *models.AuditLog {
	return &models.AuditLog{
		UserID:     c.GetString("user_id"),
		UserEmail:  c.GetString("email"),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		OldValue:   toJSON(oldValue),
		NewValue:   toJSON(newValue),
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
		Success:    success,
		ErrorMsg:   errorMsg,
		Timestamp:  time.Now(),
	}
}

func persistAudit(entry *models.AuditLog) {
	zap.L().Info("audit",
		zap.String("actor", entry.UserID),
		zap.String("action", entry.Action),
		zap.String("resource", entry.Resource),
		zap.String("id", entry.ResourceID),
		zap.Bool("success", entry.Success),
	)

	if store.Audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Audit.Insert(ctx, entry); err != nil {
		zap.L().Error("❌ Erreur enregistrement log audit", zap.Error(err))
	}
}

func toJSON(value interface{}) string {
	if value == nil {
		return ""
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(raw)
}

// Actions d'audit prédéfinies
const (
	ACTION_PRODUCT_CREATE       = "product.create"
	ACTION_PRODUCT_UPDATE       = "product.update"
	ACTION_PRODUCT_DELETE       = "product.delete"
	ACTION_PRODUCT_DELETE_ALL   = "product.delete_all"
	ACTION_PRODUCT_PRICE_CHANGE = "product.price_change"
	ACTION_PRODUCT_IMAGE_ADD    = "product.image_add"

	ACTION_ORDER_UPDATE     = "order.update"
	ACTION_ORDER_REFUND     = "order.refund"
	ACTION_ORDER_DELETE_ALL = "order.delete_all"

	ACTION_USER_DELETE     = "user.delete"
	ACTION_USER_DELETE_ALL = "user.delete_all"
	ACTION_ROLE_ASSIGN     = "role.assign"

	ACTION_NOTIFICATION_BROADCAST = "notification.broadcast"
	ACTION_NOTIFICATION_CLEANUP   = "notification.cleanup"
)

// Resources d'audit
const (
	RESOURCE_PRODUCT      = "product"
	RESOURCE_ORDER        = "order"
	RESOURCE_USER         = "user"
	RESOURCE_NOTIFICATION = "notification"
)
