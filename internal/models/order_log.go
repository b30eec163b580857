package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderLog struct {
	ID          uint                   `json:"id" gorm:"primaryKey"`
	OrderID     uuid.UUID              `json:"order_id" gorm:"type:uuid;not null;index"`
	ActionType  string                 `json:"action_type" gorm:"not null"`
	Description string                 `json:"description" gorm:"type:text"`
	Metadata    map[string]interface{} `json:"metadata" gorm:"serializer:json;type:text"`
	UserID      string                 `json:"user_id"`
	CreatedAt   time.Time              `json:"created_at"`
}

const (
	LogCreated         = "created"
	LogUpdated         = "updated"
	LogTrackingUpdated = "tracking_updated"
	LogStatusChanged   = "status_changed"
)
