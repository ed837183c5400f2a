package notification

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

const defaultCleanupDays = 30

type createInput struct {
	Recipients interface{}            `json:"recipients" binding:"required"`
	Type       string                 `json:"type" binding:"required"`
	Title      string                 `json:"title" binding:"required,min=1,max=100"`
	Message    string                 `json:"message" binding:"required,min=1,max=500"`
	Priority   string                 `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Channel    []string               `json:"channel" binding:"omitempty,dive,oneof=in_app email push sms"`
	ActionURL  string                 `json:"actionUrl" binding:"omitempty,url"`
	ExpiresAt  *time.Time             `json:"expiresAt"`
	Data       map[string]interface{} `json:"data"`
}

// resolveRecipients accepte "all", un identifiant ou une liste d'identifiants.
func resolveRecipients(ctx context.Context, raw interface{}) ([]primitive.ObjectID, bool, error) {
	switch v := raw.(type) {
	case string:
		if v == "all" {
			ids, err := store.Users.ListIDs(ctx, store.UserFilter{ActiveOnly: true})
			return ids, true, err
		}
		id, ok := utils.ParseObjectID(v)
		if !ok {
			return nil, false, nil
		}
		return []primitive.ObjectID{id}, true, nil
	case []interface{}:
		if len(v) == 0 {
			return nil, false, nil
		}
		ids := make([]primitive.ObjectID, 0, len(v))
		for _, item := range v {
			id, ok := utils.ParseObjectID(cast.ToString(item))
			if !ok {
				return nil, false, nil
			}
			ids = append(ids, id)
		}
		return ids, true, nil
	}
	return nil, false, nil
}

func invalidField(c *gin.Context, field, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": "Validation failed",
		"errors":  []utils.FieldError{{Field: field, Message: message}},
	})
}

// 🔔 POST /api/notifications/admin/create
func CreateNotification(c *gin.Context) {
	var in createInput
	if err := c.ShouldBindJSON(&in); err != nil {
		validationFailed(c, err)
		return
	}
	if !models.IsValidNotificationType(in.Type) {
		invalidField(c, "type", "Invalid notification type")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	recipients, ok, err := resolveRecipients(ctx, in.Recipients)
	if err != nil {
		fail(c, "Server error creating notification", err)
		return
	}
	if !ok {
		invalidField(c, "recipients", "Recipients must be 'all', an array of user IDs, or a single user ID")
		return
	}

	sender, _ := utils.ParseObjectID(c.GetString("user_id"))
	batch := make([]*models.Notification, 0, len(recipients))
	for _, r := range recipients {
		batch = append(batch, &models.Notification{
			Recipient: r,
			Sender:    &sender,
			Type:      in.Type,
			Title:     in.Title,
			Message:   in.Message,
			Data:      in.Data,
			Priority:  in.Priority,
			Channel:   in.Channel,
			ActionURL: in.ActionURL,
			ExpiresAt: in.ExpiresAt,
		})
	}

	if len(batch) > 0 {
		if err := store.Notifications.CreateMany(ctx, batch); err != nil {
			fail(c, "Server error creating notification", err)
			return
		}
	}

	utils.LogAction(c, utils.ACTION_NOTIFICATION_BROADCAST, utils.RESOURCE_NOTIFICATION, "", nil,
		gin.H{"type": in.Type, "recipients": len(batch)})
	zap.S().Infof("📣 %d notification(s) %s envoyée(s) par %s", len(batch), in.Type, c.GetString("email"))

	c.JSON(http.StatusCreated, gin.H{
		"success":       true,
		"message":       "Notification(s) created successfully",
		"notifications": batch,
	})
}

// 🔔 GET /api/notifications/admin/stats
func GetNotificationStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := store.Notifications.Stats(ctx)
	if err != nil {
		fail(c, "Server error fetching notification statistics", err)
		return
	}

	read := stats.Total - stats.Unread
	readRate := 0.0
	if stats.Total > 0 {
		readRate = float64(read) / float64(stats.Total) * 100
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"totalNotifications":  stats.Total,
			"unreadNotifications": stats.Unread,
			"readNotifications":   read,
			"readRate":            readRate,
		},
		"typeStats":     stats.ByType,
		"priorityStats": stats.ByPriority,
	})
}

// 🔔 DELETE /api/notifications/admin/cleanup?daysOld=30
func CleanupNotifications(c *gin.Context) {
	days := cast.ToInt(c.Query("daysOld"))
	if days <= 0 {
		days = defaultCleanupDays
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := store.Notifications.DeleteReadOlderThan(ctx, time.Now().AddDate(0, 0, -days))
	if err != nil {
		fail(c, "Server error cleaning up old notifications", err)
		return
	}

	utils.LogAction(c, utils.ACTION_NOTIFICATION_CLEANUP, utils.RESOURCE_NOTIFICATION, "", nil,
		gin.H{"daysOld": days, "deletedCount": deleted})

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      fmt.Sprintf("%d old notifications cleaned up", deleted),
		"deletedCount": deleted,
	})
}
