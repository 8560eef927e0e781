package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products for storefront filtering.
type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description *string   `gorm:"column:description"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Ingredient is a catalog-level component products can reference.
type Ingredient struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description *string   `gorm:"column:description"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Product is the canonical storefront listing. PointCost, when set, makes
// the product redeemable with loyalty points.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string              `gorm:"column:name;not null"`
	Slug        string              `gorm:"column:slug;not null"`
	Description *string             `gorm:"column:description"`
	Price       int                 `gorm:"column:price;not null"`
	CategoryID  *uuid.UUID          `gorm:"column:category_id;type:uuid"`
	ImageURL    *string             `gorm:"column:image_url"`
	PointCost   *int                `gorm:"column:point_cost"`
	IsActive    bool                `gorm:"column:is_active;not null;default:true"`
	Ingredients []ProductIngredient `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductIngredient ties an ingredient to a product with customization
// flags. A non-removable ingredient stays at its default inclusion no
// matter what the client sends.
type ProductIngredient struct {
	ProductID         uuid.UUID  `gorm:"column:product_id;type:uuid;primaryKey"`
	IngredientID      uuid.UUID  `gorm:"column:ingredient_id;type:uuid;primaryKey"`
	IncludedByDefault bool       `gorm:"column:included_by_default;not null;default:true"`
	Removable         bool       `gorm:"column:removable;not null;default:true"`
	Ingredient        Ingredient `gorm:"foreignKey:IngredientID"`
}

// Sector is a delivery zone with a flat shipping price.
type Sector struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	Description   *string   `gorm:"column:description"`
	ShippingPrice int       `gorm:"column:shipping_price;not null"`
	IsActive      bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Slide is a storefront hero banner entry.
type Slide struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title     *string   `gorm:"column:title"`
	Subtitle  *string   `gorm:"column:subtitle"`
	ImageURL  string    `gorm:"column:image_url;not null"`
	LinkURL   *string   `gorm:"column:link_url"`
	Position  int       `gorm:"column:position;not null;default:0"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
