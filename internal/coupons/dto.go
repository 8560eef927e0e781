package coupons

import (
	"time"

	"github.com/google/uuid"

	"github.com/dulcemocka/ordering-backend/pkg/db/models"
	"github.com/dulcemocka/ordering-backend/pkg/enums"
)

// RejectReason explains why a coupon failed evaluation.
type RejectReason string

const (
	ReasonNotFound     RejectReason = "not_found"
	ReasonExpired      RejectReason = "expired"
	ReasonBelowMinimum RejectReason = "below_minimum"
	ReasonOutOfStock   RejectReason = "out_of_stock"
	ReasonNotClaimed   RejectReason = "not_claimed"
	ReasonAlreadyUsed  RejectReason = "already_used"
)

// Evaluation is the outcome of checking a code against a cart subtotal.
type Evaluation struct {
	Valid    bool           `json:"valid"`
	Reason   RejectReason   `json:"reason,omitempty"`
	Coupon   *models.Coupon `json:"coupon,omitempty"`
	Discount int            `json:"discount"`
}

// OrderDiscount is the coupon snapshot applied to an order at checkout.
type OrderDiscount struct {
	CouponID *uuid.UUID
	Code     *string
	Amount   int
}

// ClaimView decorates a stored claim with its derived display state.
type ClaimView struct {
	Claim models.CouponClaim     `json:"claim"`
	State enums.CouponClaimState `json:"state"`
}

// CreateCouponInput carries the fields needed to create a coupon.
type CreateCouponInput struct {
	Name            string
	Code            string
	DiscountPercent int
	DiscountCap     *int
	MinimumPurchase *int
	ExpiresAt       *time.Time
	Stock           *int
}

// UpdateCouponInput applies partial changes to a coupon.
type UpdateCouponInput struct {
	Name            *string
	DiscountPercent *int
	DiscountCap     *int
	MinimumPurchase *int
	ExpiresAt       *time.Time
	IsActive        *bool
	Stock           *int
}
