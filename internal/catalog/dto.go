package catalog

import "github.com/google/uuid"

// ListProductsParams filters the public product listing.
type ListProductsParams struct {
	CategoryID      *uuid.UUID
	RedeemableOnly  bool
	IncludeInactive bool
	Search          string
}

// ProductIngredientInput links an ingredient to a product being created or updated.
type ProductIngredientInput struct {
	IngredientID      uuid.UUID
	IncludedByDefault bool
	Removable         bool
}

// CreateProductInput carries the fields needed to create a product.
type CreateProductInput struct {
	Name        string
	Description *string
	Price       int
	CategoryID  *uuid.UUID
	ImageURL    *string
	PointCost   *int
	Ingredients []ProductIngredientInput
}

// UpdateProductInput applies partial changes to a product. Nil fields are
// left untouched; Ingredients, when non-nil, replaces the full set.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *int
	CategoryID  *uuid.UUID
	ImageURL    *string
	PointCost   *int
	IsActive    *bool
	Ingredients []ProductIngredientInput
}

// CreateCategoryInput carries the fields needed to create a category.
type CreateCategoryInput struct {
	Name        string
	Description *string
}

// UpdateCategoryInput applies partial changes to a category.
type UpdateCategoryInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// CreateIngredientInput carries the fields needed to create an ingredient.
type CreateIngredientInput struct {
	Name        string
	Description *string
}

// UpdateIngredientInput applies partial changes to an ingredient.
type UpdateIngredientInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// CreateSectorInput carries the fields needed to create a delivery sector.
type CreateSectorInput struct {
	Name          string
	Description   *string
	ShippingPrice int
}

// UpdateSectorInput applies partial changes to a sector.
type UpdateSectorInput struct {
	Name          *string
	Description   *string
	ShippingPrice *int
	IsActive      *bool
}

// CreateSlideInput carries the fields needed to create a storefront slide.
type CreateSlideInput struct {
	Title    *string
	Subtitle *string
	ImageURL string
	LinkURL  *string
	Position int
}

// UpdateSlideInput applies partial changes to a slide.
type UpdateSlideInput struct {
	Title    *string
	Subtitle *string
	ImageURL *string
	LinkURL  *string
	Position *int
	IsActive *bool
}
