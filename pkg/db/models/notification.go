package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dulcemocka/ordering-backend/pkg/enums"
)

// Notification is an append-only per-user message produced by order,
// coupon, and loyalty state changes.
type Notification struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID              `gorm:"column:user_id;type:uuid;not null"`
	OrderID      *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	Type         enums.NotificationType `gorm:"column:type;type:text;not null"`
	Title        string                 `gorm:"column:title;not null"`
	Message      string                 `gorm:"column:message;not null"`
	CancelReason *string                `gorm:"column:cancel_reason"`
	ReadAt       *time.Time             `gorm:"column:read_at"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
}
