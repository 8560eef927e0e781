package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a delivery destination. UserID is nil for addresses captured
// during guest checkout.
type Address struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      *uuid.UUID `gorm:"column:user_id;type:uuid"`
	Street      string     `gorm:"column:street;not null"`
	HouseNumber *string    `gorm:"column:house_number"`
	Note        *string    `gorm:"column:note"`
	SectorID    *uuid.UUID `gorm:"column:sector_id;type:uuid"`
	Sector      *Sector    `gorm:"foreignKey:SectorID"`
	IsPrimary   bool       `gorm:"column:is_primary;not null;default:false"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
