package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dulcemocka/ordering-backend/pkg/enums"
)

// OrderStatus is a row in the fixed ordered progression. Position defines
// the display order; Cancelled sits outside the forward sequence.
type OrderStatus struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name     string    `gorm:"column:name;not null;uniqueIndex"`
	Position int       `gorm:"column:position;not null"`
}

// Order is the persisted checkout aggregate. All monetary fields are
// snapshots computed once at creation; later coupon or product changes
// never alter a placed order.
type Order struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Number         string             `gorm:"column:number;not null"`
	UserID         *uuid.UUID         `gorm:"column:user_id;type:uuid"`
	ContactName    string             `gorm:"column:contact_name;not null"`
	ContactEmail   string             `gorm:"column:contact_email;not null"`
	ContactPhone   string             `gorm:"column:contact_phone;not null"`
	DeliveryMode   enums.DeliveryMode `gorm:"column:delivery_mode;type:text;not null"`
	AddressID      *uuid.UUID         `gorm:"column:address_id;type:uuid"`
	Address        *Address           `gorm:"foreignKey:AddressID"`
	CouponID       *uuid.UUID         `gorm:"column:coupon_id;type:uuid"`
	CouponCode     *string            `gorm:"column:coupon_code"`
	Subtotal       int                `gorm:"column:subtotal;not null"`
	DiscountTotal  int                `gorm:"column:discount_total;not null;default:0"`
	ShippingCost   int                `gorm:"column:shipping_cost;not null;default:0"`
	Total          int                `gorm:"column:total;not null"`
	StatusID       uuid.UUID          `gorm:"column:status_id;type:uuid;not null"`
	Status         *OrderStatus       `gorm:"foreignKey:StatusID"`
	Items          []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	DeliveredAt    *time.Time         `gorm:"column:delivered_at"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem captures the name/price snapshot of each line in an order.
type OrderItem struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	ProductID   *uuid.UUID `gorm:"column:product_id;type:uuid"`
	ProductName string     `gorm:"column:product_name;not null"`
	UnitPrice   int        `gorm:"column:unit_price;not null"`
	Quantity    int        `gorm:"column:quantity;not null"`
	LineTotal   int        `gorm:"column:line_total;not null"`
	Notes       *string    `gorm:"column:notes"`
	DeletedAt   *time.Time `gorm:"column:deleted_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}
