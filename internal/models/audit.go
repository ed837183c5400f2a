package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditLog trace une action d'administration.
type AuditLog struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID     string             `json:"userId" bson:"userId"`
	UserEmail  string             `json:"userEmail" bson:"userEmail"`
	Action     string             `json:"action" bson:"action"`
	Resource   string             `json:"resource" bson:"resource"`
	ResourceID string             `json:"resourceId,omitempty" bson:"resourceId,omitempty"`
	OldValue   string             `json:"oldValue,omitempty" bson:"oldValue,omitempty"`
	NewValue   string             `json:"newValue,omitempty" bson:"newValue,omitempty"`
	IPAddress  string             `json:"ipAddress" bson:"ipAddress"`
	UserAgent  string             `json:"userAgent" bson:"userAgent"`
	Success    bool               `json:"success" bson:"success"`
	ErrorMsg   string             `json:"errorMsg,omitempty" bson:"errorMsg,omitempty"`
	Timestamp  time.Time          `json:"timestamp" bson:"timestamp"`
}
