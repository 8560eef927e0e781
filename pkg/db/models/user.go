package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dulcemocka/ordering-backend/pkg/enums"
)

// User is a storefront customer or back-office staff account. Points holds
// the running loyalty balance credited by delivered orders.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string         `gorm:"column:name;not null"`
	Email        string         `gorm:"column:email;not null;uniqueIndex"`
	Phone        *string        `gorm:"column:phone"`
	PasswordHash *string        `gorm:"column:password_hash"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:'customer'"`
	Points       int            `gorm:"column:points;not null;default:0"`
	BirthDate    *time.Time     `gorm:"column:birth_date;type:date"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
