package models

import (
	"time"

	"github.com/google/uuid"
)

// Coupon is a percentage discount definition. Code is stored uppercase and
// matched case-insensitively.
type Coupon struct {
	ID              uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string       `gorm:"column:name;not null"`
	Code            string       `gorm:"column:code;not null;uniqueIndex"`
	DiscountPercent int          `gorm:"column:discount_percent;not null"`
	DiscountCap     *int         `gorm:"column:discount_cap"`
	MinimumPurchase *int         `gorm:"column:minimum_purchase"`
	ExpiresAt       *time.Time   `gorm:"column:expires_at"`
	IsActive        bool         `gorm:"column:is_active;not null;default:true"`
	Stock           *CouponStock `gorm:"foreignKey:CouponID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

// CouponStock is an optional finite availability counter. Coupons with no
// stock row have unlimited availability.
type CouponStock struct {
	CouponID  uuid.UUID `gorm:"column:coupon_id;type:uuid;primaryKey"`
	Available int       `gorm:"column:available;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// CouponClaim records a customer having obtained a coupon. At most one live
// (non-deleted) claim exists per (user, coupon) pair; UsedAt is set
// permanently the moment an order consumes the claim.
type CouponClaim struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID  `gorm:"column:user_id;type:uuid;not null"`
	CouponID   uuid.UUID  `gorm:"column:coupon_id;type:uuid;not null"`
	Coupon     *Coupon    `gorm:"foreignKey:CouponID"`
	AssignedAt time.Time  `gorm:"column:assigned_at;autoCreateTime"`
	UsedAt     *time.Time `gorm:"column:used_at"`
	DeletedAt  *time.Time `gorm:"column:deleted_at"`
}
