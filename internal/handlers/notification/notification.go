// Package notification expose les notifications in-app de l'utilisateur connecté
// et les outils d'administration (diffusion, statistiques, purge).
package notification

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

func fail(c *gin.Context, message string, err error) {
	zap.S().Errorw("❌ "+message, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": message})
}

func validationFailed(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": "Validation failed",
		"errors":  utils.ValidationErrors(err),
	})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Notification not found"})
}

func recipient(c *gin.Context) primitive.ObjectID {
	id, _ := utils.ParseObjectID(c.GetString("user_id"))
	return id
}

// idsInput est le corps des opérations groupées.
type idsInput struct {
	NotificationIDs []string `json:"notificationIds" binding:"required,min=1,dive,len=24,hexadecimal"`
}

func (in idsInput) objectIDs() []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(in.NotificationIDs))
	for _, raw := range in.NotificationIDs {
		if id, ok := utils.ParseObjectID(raw); ok {
			out = append(out, id)
		}
	}
	return out
}

// 🔔 GET /api/notifications
func GetNotifications(c *gin.Context) {
	page, limit := utils.Pagination(c, 20, 100)
	me := recipient(c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	list, err := store.Notifications.List(ctx, store.NotificationQuery{
		Recipient:  me,
		UnreadOnly: c.Query("unreadOnly") == "true",
		Type:       c.Query("type"),
		Priority:   c.Query("priority"),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		fail(c, "Server error fetching notifications", err)
		return
	}
	unread, err := store.Notifications.CountUnread(ctx, me)
	if err != nil {
		fail(c, "Server error fetching notifications", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"notifications": list,
		"unreadCount":   unread,
		"pagination": gin.H{
			"currentPage": page,
			"limit":       limit,
			"hasMore":     len(list) == limit,
		},
	})
}

// 🔔 GET /api/notifications/unread-count
func GetUnreadCount(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	unread, err := store.Notifications.CountUnread(ctx, recipient(c))
	if err != nil {
		fail(c, "Server error fetching unread count", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "unreadCount": unread})
}

// 🔔 PATCH /api/notifications/:notificationId/read
func MarkAsRead(c *gin.Context) {
	id, ok := utils.ParseObjectID(c.Param("notificationId"))
	if !ok {
		notFound(c)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := store.Notifications.MarkRead(ctx, recipient(c), id)
	if errors.Is(err, store.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		fail(c, "Server error marking notification as read", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification marked as read", "notification": n})
}

// 🔔 PATCH /api/notifications/read
func MarkManyAsRead(c *gin.Context) {
	var in idsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		validationFailed(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	modified, err := store.Notifications.MarkManyRead(ctx, recipient(c), in.objectIDs())
	if err != nil {
		fail(c, "Server error marking notifications as read", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       fmt.Sprintf("%d notifications marked as read", modified),
		"modifiedCount": modified,
	})
}

// 🔔 PATCH /api/notifications/read-all
func MarkAllAsRead(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	modified, err := store.Notifications.MarkAllRead(ctx, recipient(c))
	if err != nil {
		fail(c, "Server error marking all notifications as read", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       fmt.Sprintf("%d notifications marked as read", modified),
		"modifiedCount": modified,
	})
}

// 🔔 DELETE /api/notifications/:notificationId
func DeleteNotification(c *gin.Context) {
	id, ok := utils.ParseObjectID(c.Param("notificationId"))
	if !ok {
		notFound(c)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := store.Notifications.Delete(ctx, recipient(c), id)
	if errors.Is(err, store.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		fail(c, "Server error deleting notification", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification deleted successfully"})
}

// 🔔 DELETE /api/notifications
func DeleteNotifications(c *gin.Context) {
	var in idsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		validationFailed(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	deleted, err := store.Notifications.DeleteMany(ctx, recipient(c), in.objectIDs())
	if err != nil {
		fail(c, "Server error deleting notifications", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      fmt.Sprintf("%d notifications deleted", deleted),
		"deletedCount": deleted,
	})
}
