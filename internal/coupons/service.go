package coupons

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dulcemocka/ordering-backend/pkg/db/models"
	"github.com/dulcemocka/ordering-backend/pkg/enums"
	pkgerrors "github.com/dulcemocka/ordering-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// notifier is the slice of the notifications service coupons needs.
type notifier interface {
	CouponClaimed(ctx context.Context, tx *gorm.DB, userID uuid.UUID, coupon *models.Coupon) error
}

// Service defines coupon evaluation, claiming, and back-office management.
type Service interface {
	Evaluate(ctx context.Context, code string, subtotal int, userID *uuid.UUID) (*Evaluation, error)
	ApplyToOrder(ctx context.Context, tx *gorm.DB, code string, subtotal int, userID *uuid.UUID) (OrderDiscount, error)
	Claim(ctx context.Context, userID, couponID uuid.UUID) (*models.CouponClaim, error)
	ListClaims(ctx context.Context, userID uuid.UUID) ([]ClaimView, error)
	RemoveClaim(ctx context.Context, userID, claimID uuid.UUID) error

	List(ctx context.Context, includeInactive bool) ([]models.Coupon, error)
	Create(ctx context.Context, input CreateCouponInput) (*models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCouponInput) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     Repository
	tx       txRunner
	notifier notifier
	now      func() time.Time
}

// NewService wires coupon dependencies.
func NewService(repo Repository, tx txRunner, notifier notifier) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "coupons repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	}
	return &service{repo: repo, tx: tx, notifier: notifier, now: func() time.Time { return time.Now().UTC() }}, nil
}

// NormalizeCode uppercases and trims a coupon code for case-insensitive matching.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *service) Evaluate(ctx context.Context, code string, subtotal int, userID *uuid.UUID) (*Evaluation, error) {
	if subtotal < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal cannot be negative")
	}
	return s.evaluate(ctx, s.repo, code, subtotal, userID)
}

// evaluate runs the full rule chain against the given repository so callers
// inside a transaction see consistent state.
func (s *service) evaluate(ctx context.Context, repo Repository, code string, subtotal int, userID *uuid.UUID) (*Evaluation, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return &Evaluation{Reason: ReasonNotFound}, nil
	}

	coupon, err := repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Evaluation{Reason: ReasonNotFound}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	if !coupon.IsActive {
		return &Evaluation{Reason: ReasonNotFound}, nil
	}
	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(s.now()) {
		return &Evaluation{Reason: ReasonExpired}, nil
	}
	if coupon.MinimumPurchase != nil && subtotal < *coupon.MinimumPurchase {
		return &Evaluation{Reason: ReasonBelowMinimum, Coupon: coupon}, nil
	}
	// A missing stock row means unlimited supply.
	if coupon.Stock != nil && coupon.Stock.Available <= 0 {
		return &Evaluation{Reason: ReasonOutOfStock, Coupon: coupon}, nil
	}

	if userID != nil {
		claim, err := repo.FindClaim(ctx, *userID, coupon.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &Evaluation{Reason: ReasonNotClaimed, Coupon: coupon}, nil
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon claim")
		}
		if claim.UsedAt != nil {
			return &Evaluation{Reason: ReasonAlreadyUsed, Coupon: coupon}, nil
		}
	}

	return &Evaluation{
		Valid:    true,
		Coupon:   coupon,
		Discount: ComputeDiscount(subtotal, coupon.DiscountPercent, coupon.DiscountCap),
	}, nil
}

// ApplyToOrder resolves the coupon inside the checkout transaction. A coupon
// that fails any rule degrades to a zero discount instead of failing the
// order; only infrastructure errors abort checkout.
func (s *service) ApplyToOrder(ctx context.Context, tx *gorm.DB, code string, subtotal int, userID *uuid.UUID) (OrderDiscount, error) {
	repo := s.repo.WithTx(tx)

	eval, err := s.evaluate(ctx, repo, code, subtotal, userID)
	if err != nil {
		return OrderDiscount{}, err
	}
	if !eval.Valid {
		return OrderDiscount{}, nil
	}

	if userID != nil {
		claim, err := repo.FindClaim(ctx, *userID, eval.Coupon.ID)
		if err != nil {
			return OrderDiscount{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon claim")
		}
		consumed, err := repo.MarkClaimUsed(ctx, claim.ID, s.now())
		if err != nil {
			return OrderDiscount{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume coupon claim")
		}
		if !consumed {
			// Lost the race against a concurrent checkout using the same claim.
			return OrderDiscount{}, nil
		}
	}

	couponID := eval.Coupon.ID
	couponCode := eval.Coupon.Code
	return OrderDiscount{
		CouponID: &couponID,
		Code:     &couponCode,
		Amount:   eval.Discount,
	}, nil
}

func (s *service) Claim(ctx context.Context, userID, couponID uuid.UUID) (*models.CouponClaim, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if couponID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon id required")
	}

	var claim *models.CouponClaim
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		coupon, err := repo.FindByID(ctx, couponID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
		}
		if !coupon.IsActive {
			return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(s.now()) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "coupon has expired")
		}

		if _, err := repo.FindClaim(ctx, userID, couponID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "coupon already claimed")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing claim")
		}

		if coupon.Stock != nil {
			consumed, err := repo.DecrementStock(ctx, couponID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement coupon stock")
			}
			if !consumed {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "coupon is out of stock")
			}
		}

		claim = &models.CouponClaim{UserID: userID, CouponID: couponID}
		if err := repo.CreateClaim(ctx, claim); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon claim")
		}

		return s.notifier.CouponClaimed(ctx, tx, userID, coupon)
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

func (s *service) ListClaims(ctx context.Context, userID uuid.UUID) ([]ClaimView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	claims, err := s.repo.ListClaims(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupon claims")
	}

	views := make([]ClaimView, 0, len(claims))
	now := s.now()
	for _, claim := range claims {
		views = append(views, ClaimView{Claim: claim, State: claimState(claim, now)})
	}
	return views, nil
}

func (s *service) RemoveClaim(ctx context.Context, userID, claimID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if claimID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "claim id required")
	}
	removed, err := s.repo.SoftDeleteClaim(ctx, userID, claimID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove coupon claim")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "claim not found")
	}
	return nil
}

func (s *service) List(ctx context.Context, includeInactive bool) ([]models.Coupon, error) {
	coupons, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	return coupons, nil
}

func (s *service) Create(ctx context.Context, input CreateCouponInput) (*models.Coupon, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon name required")
	}
	code := NormalizeCode(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}
	if input.DiscountPercent < 1 || input.DiscountPercent > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 1 and 100")
	}
	if input.DiscountCap != nil && *input.DiscountCap < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount cap cannot be negative")
	}
	if input.MinimumPurchase != nil && *input.MinimumPurchase < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum purchase cannot be negative")
	}
	if input.Stock != nil && *input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	coupon := &models.Coupon{
		Name:            name,
		Code:            code,
		DiscountPercent: input.DiscountPercent,
		DiscountCap:     input.DiscountCap,
		MinimumPurchase: input.MinimumPurchase,
		ExpiresAt:       input.ExpiresAt,
		IsActive:        true,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, coupon); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
		}
		if input.Stock != nil {
			if err := repo.UpsertStock(ctx, coupon.ID, *input.Stock); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set coupon stock")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateCouponInput) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon id required")
	}
	if input.DiscountPercent != nil && (*input.DiscountPercent < 1 || *input.DiscountPercent > 100) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 1 and 100")
	}
	if input.Stock != nil && *input.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "coupon name cannot be empty")
		}
		updates["name"] = name
	}
	if input.DiscountPercent != nil {
		updates["discount_percent"] = *input.DiscountPercent
	}
	if input.DiscountCap != nil {
		updates["discount_cap"] = *input.DiscountCap
	}
	if input.MinimumPurchase != nil {
		updates["minimum_purchase"] = *input.MinimumPurchase
	}
	if input.ExpiresAt != nil {
		updates["expires_at"] = *input.ExpiresAt
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 && input.Stock == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if len(updates) > 0 {
			affected, err := repo.Update(ctx, id, updates)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update coupon")
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
			}
		} else {
			if _, err := repo.FindByID(ctx, id); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
			}
		}
		if input.Stock != nil {
			if err := repo.UpsertStock(ctx, id, *input.Stock); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set coupon stock")
			}
		}
		return nil
	})
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon id required")
	}
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	return nil
}

// ComputeDiscount rounds subtotal*percent/100 half away from zero, then
// clamps to the cap when one is set.
func ComputeDiscount(subtotal, percent int, cap *int) int {
	if subtotal <= 0 || percent <= 0 {
		return 0
	}
	amount := decimal.NewFromInt(int64(subtotal)).
		Mul(decimal.NewFromInt(int64(percent))).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
	discount := int(amount)
	if cap != nil && discount > *cap {
		discount = *cap
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount
}

func claimState(claim models.CouponClaim, now time.Time) enums.CouponClaimState {
	if claim.UsedAt != nil {
		return enums.CouponClaimStateUsed
	}
	if claim.Coupon != nil {
		if !claim.Coupon.IsActive {
			return enums.CouponClaimStateInactive
		}
		if claim.Coupon.ExpiresAt != nil && claim.Coupon.ExpiresAt.Before(now) {
			return enums.CouponClaimStateExpired
		}
	}
	return enums.CouponClaimStateAvailable
}
