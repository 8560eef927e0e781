package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dulcemocka/ordering-backend/pkg/enums"
)

// Redemption records a loyalty point spend. PointCost is snapshotted at
// creation so later product price edits never change the refund amount.
type Redemption struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID              `gorm:"column:user_id;type:uuid;not null"`
	User        *User                  `gorm:"foreignKey:UserID"`
	ProductID   uuid.UUID              `gorm:"column:product_id;type:uuid;not null"`
	Product     *Product               `gorm:"foreignKey:ProductID"`
	PointCost   int                    `gorm:"column:point_cost;not null"`
	Status      enums.RedemptionStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	DeliveredAt *time.Time             `gorm:"column:delivered_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
