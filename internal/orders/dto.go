package orders

import (
	"github.com/google/uuid"

	"github.com/dulcemocka/ordering-backend/pkg/db/models"
	"github.com/dulcemocka/ordering-backend/pkg/enums"
)

// CheckoutItemInput is one cart line submitted at checkout.
type CheckoutItemInput struct {
	ProductID            uuid.UUID
	Quantity             int
	Note                 *string
	RemovedIngredientIDs []uuid.UUID
}

// CheckoutAddressInput captures a delivery destination typed in by a guest.
type CheckoutAddressInput struct {
	Street      string
	HouseNumber *string
	Note        *string
	SectorID    *uuid.UUID
}

// CheckoutInput is everything needed to assemble an order.
type CheckoutInput struct {
	UserID       *uuid.UUID
	ContactName  string
	ContactEmail string
	ContactPhone string
	DeliveryMode enums.DeliveryMode
	AddressID    *uuid.UUID
	Address      *CheckoutAddressInput
	CouponCode   string
	Items        []CheckoutItemInput
}

// ListParams configures pagination and filtering for order listings.
type ListParams struct {
	UserID   *uuid.UUID
	StatusID *uuid.UUID
	Limit    int
	Cursor   string
}

// ListResult wraps returned orders and the cursor for the next page.
type ListResult struct {
	Items  []models.Order `json:"items"`
	Cursor string         `json:"cursor"`
}
