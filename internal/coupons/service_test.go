package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dulcemocka/ordering-backend/pkg/db/models"
	"github.com/dulcemocka/ordering-backend/pkg/enums"
	pkgerrors "github.com/dulcemocka/ordering-backend/pkg/errors"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeNotifier struct {
	claimed int
}

func (f *fakeNotifier) CouponClaimed(ctx context.Context, tx *gorm.DB, userID uuid.UUID, coupon *models.Coupon) error {
	f.claimed++
	return nil
}

type fakeRepository struct {
	Repository

	findByCodeFn      func(ctx context.Context, code string) (*models.Coupon, error)
	findByIDFn        func(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	findClaimFn       func(ctx context.Context, userID, couponID uuid.UUID) (*models.CouponClaim, error)
	createClaimFn     func(ctx context.Context, claim *models.CouponClaim) error
	markClaimUsedFn   func(ctx context.Context, claimID uuid.UUID, now time.Time) (bool, error)
	decrementStockFn  func(ctx context.Context, couponID uuid.UUID) (bool, error)
	listClaimsFn      func(ctx context.Context, userID uuid.UUID) ([]models.CouponClaim, error)
	softDeleteClaimFn func(ctx context.Context, userID, claimID uuid.UUID, now time.Time) (bool, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	if f.findByCodeFn != nil {
		return f.findByCodeFn(ctx, code)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindClaim(ctx context.Context, userID, couponID uuid.UUID) (*models.CouponClaim, error) {
	if f.findClaimFn != nil {
		return f.findClaimFn(ctx, userID, couponID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) CreateClaim(ctx context.Context, claim *models.CouponClaim) error {
	if f.createClaimFn != nil {
		return f.createClaimFn(ctx, claim)
	}
	claim.ID = uuid.New()
	return nil
}

func (f *fakeRepository) MarkClaimUsed(ctx context.Context, claimID uuid.UUID, now time.Time) (bool, error) {
	if f.markClaimUsedFn != nil {
		return f.markClaimUsedFn(ctx, claimID, now)
	}
	return true, nil
}

func (f *fakeRepository) DecrementStock(ctx context.Context, couponID uuid.UUID) (bool, error) {
	if f.decrementStockFn != nil {
		return f.decrementStockFn(ctx, couponID)
	}
	return true, nil
}

func (f *fakeRepository) ListClaims(ctx context.Context, userID uuid.UUID) ([]models.CouponClaim, error) {
	if f.listClaimsFn != nil {
		return f.listClaimsFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeRepository) SoftDeleteClaim(ctx context.Context, userID, claimID uuid.UUID, now time.Time) (bool, error) {
	if f.softDeleteClaimFn != nil {
		return f.softDeleteClaimFn(ctx, userID, claimID, now)
	}
	return true, nil
}

func newTestService(t *testing.T, repo Repository) (*service, *fakeNotifier) {
	t.Helper()
	notif := &fakeNotifier{}
	svc, err := NewService(repo, fakeTxRunner{}, notif)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc.(*service), notif
}

func activeCoupon(percent int) *models.Coupon {
	return &models.Coupon{
		ID:              uuid.New(),
		Name:            "Welcome",
		Code:            "WELCOME10",
		DiscountPercent: percent,
		IsActive:        true,
	}
}

func TestComputeDiscount(t *testing.T) {
	cap2000 := 2000
	cases := []struct {
		subtotal int
		percent  int
		cap      *int
		want     int
	}{
		{10000, 10, nil, 1000},
		{9999, 10, nil, 1000},
		{105, 10, nil, 11},
		{10000, 50, &cap2000, 2000},
		{0, 10, nil, 0},
		{100, 0, nil, 0},
	}
	for _, tc := range cases {
		if got := ComputeDiscount(tc.subtotal, tc.percent, tc.cap); got != tc.want {
			t.Errorf("ComputeDiscount(%d, %d) = %d, want %d", tc.subtotal, tc.percent, got, tc.want)
		}
	}
}

func TestService_EvaluateNotFound(t *testing.T) {
	svc, _ := newTestService(t, &fakeRepository{})
	eval, err := svc.Evaluate(context.Background(), "nope", 5000, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Valid || eval.Reason != ReasonNotFound {
		t.Fatalf("expected not_found, got %+v", eval)
	}
}

func TestService_EvaluateUppercasesCode(t *testing.T) {
	var requested string
	repo := &fakeRepository{
		findByCodeFn: func(ctx context.Context, code string) (*models.Coupon, error) {
			requested = code
			return activeCoupon(10), nil
		},
	}
	svc, _ := newTestService(t, repo)
	eval, err := svc.Evaluate(context.Background(), "  welcome10 ", 10000, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requested != "WELCOME10" {
		t.Fatalf("expected normalized code, got %q", requested)
	}
	if !eval.Valid || eval.Discount != 1000 {
		t.Fatalf("expected valid evaluation with 1000 discount, got %+v", eval)
	}
}

func TestService_EvaluateExpired(t *testing.T) {
	expired := time.Now().Add(-24 * time.Hour)
	coupon := activeCoupon(10)
	coupon.ExpiresAt = &expired
	repo := &fakeRepository{
		findByCodeFn: func(ctx context.Context, code string) (*models.Coupon, error) {
			return coupon, nil
		},
	}
	svc, _ := newTestService(t, repo)
	eval, err := svc.Evaluate(context.Background(), "WELCOME10", 10000, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Reason != ReasonExpired {
		t.Fatalf("expected expired, got %+v", eval)
	}
}

func TestService_EvaluateOutOfStock(t *testing.T) {
	coupon := activeCoupon(10)
	coupon.Stock = &models.CouponStock{CouponID: coupon.ID, Available: 0}
	repo := &fakeRepository{
		findByCodeFn: func(ctx context.Context, code string) (*models.Coupon, error) {
			return coupon, nil
		},
	}
	svc, _ := newTestService(t, repo)
	eval, err := svc.Evaluate(context.Background(), "WELCOME10", 10000, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Valid || eval.Reason != ReasonOutOfStock {
		t.Fatalf("expected out_of_stock, got %+v", eval)
	}
}

func TestService_EvaluateBelowMinimum(t *testing.T) {
	minimum := 8000
	coupon := activeCoupon(10)
	coupon.MinimumPurchase = &minimum
	repo := &fakeRepository{
		findByCodeFn: func(ctx context.Context, code string) (*models.Coupon, error) {
			return coupon, nil
		},
	}
	svc, _ := newTestService(t, repo)
	eval, err := svc.Evaluate(context.Background(), "WELCOME10", 5000, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Reason != ReasonBelowMinimum {
		t.Fatalf("expected below_minimum, got %+v", eval)
	}
}

func TestService_EvaluateClaimRules(t *testing.T) {
	coupon := activeCoupon(20)
	userID := uuid.New()
	used := time.Now()

	repo := &fakeRepository{
		findByCodeFn: func(ctx context.Context, code string) (*models.Coupon, error) {
			return coupon, nil
		},
	}
	svc, _ := newTestService(t, repo)

	// No claim yet.
	eval, err := svc.Evaluate(context.Background(), "WELCOME10", 10000, &userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Reason != ReasonNotClaimed {
		t.Fatalf("expected not_claimed, got %+v", eval)
	}

	// Claim already consumed.
	repo.findClaimFn = func(ctx context.Context, uid, cid uuid.UUID) (*models.CouponClaim, error) {
		return &models.CouponClaim{ID: uuid.New(), UserID: uid, CouponID: cid, UsedAt: &used}, nil
	}
	eval, err = svc.Evaluate(context.Background(), "WELCOME10", 10000, &userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Reason != ReasonAlreadyUsed {
		t.Fatalf("expected already_used, got %+v", eval)
	}

	// Live claim.
	repo.findClaimFn = func(ctx context.Context, uid, cid uuid.UUID) (*models.CouponClaim, error) {
		return &models.CouponClaim{ID: uuid.New(), UserID: uid, CouponID: cid}, nil
	}
	eval, err = svc.Evaluate(context.Background(), "WELCOME10", 10000, &userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !eval.Valid || eval.Discount != 2000 {
		t.Fatalf("expected valid evaluation, got %+v", eval)
	}
}

func TestService_ApplyToOrderDegradesSilently(t *testing.T) {
	svc, _ := newTestService(t, &fakeRepository{})
	discount, err := svc.ApplyToOrder(context.Background(), nil, "MISSING", 10000, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if discount.Amount != 0 || discount.CouponID != nil {
		t.Fatalf("expected zero discount, got %+v", discount)
	}
}

func TestService_ApplyToOrderConsumesClaim(t *testing.T) {
	coupon := activeCoupon(10)
	userID := uuid.New()
	claimID := uuid.New()
	var marked uuid.UUID

	repo := &fakeRepository{
		findByCodeFn: func(ctx context.Context, code string) (*models.Coupon, error) {
			return coupon, nil
		},
		findClaimFn: func(ctx context.Context, uid, cid uuid.UUID) (*models.CouponClaim, error) {
			return &models.CouponClaim{ID: claimID, UserID: uid, CouponID: cid}, nil
		},
		markClaimUsedFn: func(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
			marked = id
			return true, nil
		},
	}
	svc, _ := newTestService(t, repo)

	discount, err := svc.ApplyToOrder(context.Background(), nil, "WELCOME10", 10000, &userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if discount.Amount != 1000 {
		t.Fatalf("expected 1000 discount, got %d", discount.Amount)
	}
	if discount.CouponID == nil || *discount.CouponID != coupon.ID {
		t.Fatalf("expected coupon snapshot, got %+v", discount)
	}
	if marked != claimID {
		t.Fatalf("expected claim %s marked used, got %s", claimID, marked)
	}
}

func TestService_ApplyToOrderClaimRaceYieldsZero(t *testing.T) {
	coupon := activeCoupon(10)
	userID := uuid.New()
	repo := &fakeRepository{
		findByCodeFn: func(ctx context.Context, code string) (*models.Coupon, error) {
			return coupon, nil
		},
		findClaimFn: func(ctx context.Context, uid, cid uuid.UUID) (*models.CouponClaim, error) {
			return &models.CouponClaim{ID: uuid.New(), UserID: uid, CouponID: cid}, nil
		},
		markClaimUsedFn: func(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
			return false, nil
		},
	}
	svc, _ := newTestService(t, repo)

	discount, err := svc.ApplyToOrder(context.Background(), nil, "WELCOME10", 10000, &userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if discount.Amount != 0 || discount.CouponID != nil {
		t.Fatalf("expected zero discount on claim race, got %+v", discount)
	}
}

func TestService_ClaimOutOfStock(t *testing.T) {
	coupon := activeCoupon(10)
	coupon.Stock = &models.CouponStock{CouponID: coupon.ID, Available: 0}
	repo := &fakeRepository{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
			return coupon, nil
		},
		decrementStockFn: func(ctx context.Context, couponID uuid.UUID) (bool, error) {
			return false, nil
		},
	}
	svc, _ := newTestService(t, repo)

	_, err := svc.Claim(context.Background(), uuid.New(), coupon.ID)
	if err == nil {
		t.Fatal("expected out of stock error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestService_ClaimAlreadyClaimed(t *testing.T) {
	coupon := activeCoupon(10)
	repo := &fakeRepository{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
			return coupon, nil
		},
		findClaimFn: func(ctx context.Context, uid, cid uuid.UUID) (*models.CouponClaim, error) {
			return &models.CouponClaim{ID: uuid.New()}, nil
		},
	}
	svc, _ := newTestService(t, repo)

	_, err := svc.Claim(context.Background(), uuid.New(), coupon.ID)
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestService_ClaimSuccessNotifies(t *testing.T) {
	coupon := activeCoupon(10)
	repo := &fakeRepository{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
			return coupon, nil
		},
	}
	svc, notif := newTestService(t, repo)

	claim, err := svc.Claim(context.Background(), uuid.New(), coupon.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claim == nil || claim.ID == uuid.Nil {
		t.Fatal("expected persisted claim")
	}
	if notif.claimed != 1 {
		t.Fatalf("expected claim notification, got %d", notif.claimed)
	}
}

func TestService_ListClaimsDerivesState(t *testing.T) {
	userID := uuid.New()
	used := time.Now()
	expired := time.Now().Add(-time.Hour)
	liveCoupon := activeCoupon(10)
	expiredCoupon := activeCoupon(10)
	expiredCoupon.ExpiresAt = &expired
	inactiveCoupon := activeCoupon(10)
	inactiveCoupon.IsActive = false

	repo := &fakeRepository{
		listClaimsFn: func(ctx context.Context, uid uuid.UUID) ([]models.CouponClaim, error) {
			return []models.CouponClaim{
				{ID: uuid.New(), UserID: uid, Coupon: liveCoupon},
				{ID: uuid.New(), UserID: uid, Coupon: liveCoupon, UsedAt: &used},
				{ID: uuid.New(), UserID: uid, Coupon: expiredCoupon},
				{ID: uuid.New(), UserID: uid, Coupon: inactiveCoupon},
			}, nil
		},
	}
	svc, _ := newTestService(t, repo)

	views, err := svc.ListClaims(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []enums.CouponClaimState{
		enums.CouponClaimStateAvailable,
		enums.CouponClaimStateUsed,
		enums.CouponClaimStateExpired,
		enums.CouponClaimStateInactive,
	}
	if len(views) != len(want) {
		t.Fatalf("expected %d claims, got %d", len(want), len(views))
	}
	for i, state := range want {
		if views[i].State != state {
			t.Errorf("claim %d: expected state %s, got %s", i, state, views[i].State)
		}
	}
}
