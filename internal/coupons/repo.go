package coupons

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dulcemocka/ordering-backend/pkg/db/models"
)

// Repository exposes persistence helpers for coupons, stock, and claims.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	List(ctx context.Context, includeInactive bool) ([]models.Coupon, error)
	Create(ctx context.Context, coupon *models.Coupon) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)

	UpsertStock(ctx context.Context, couponID uuid.UUID, available int) error
	DecrementStock(ctx context.Context, couponID uuid.UUID) (bool, error)

	FindClaim(ctx context.Context, userID, couponID uuid.UUID) (*models.CouponClaim, error)
	CreateClaim(ctx context.Context, claim *models.CouponClaim) error
	MarkClaimUsed(ctx context.Context, claimID uuid.UUID, now time.Time) (bool, error)
	ListClaims(ctx context.Context, userID uuid.UUID) ([]models.CouponClaim, error)
	SoftDeleteClaim(ctx context.Context, userID, claimID uuid.UUID, now time.Time) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a coupons repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).Preload("Stock").First(&coupon, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).Preload("Stock").First(&coupon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repositoryImpl) List(ctx context.Context, includeInactive bool) ([]models.Coupon, error) {
	query := r.db.WithContext(ctx).Model(&models.Coupon{}).Preload("Stock")
	if !includeInactive {
		query = query.Where("is_active = TRUE")
	}
	var coupons []models.Coupon
	if err := query.Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

func (r *repositoryImpl) Create(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

func (r *repositoryImpl) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Coupon{}).Where("id = ?", id).Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Coupon{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) UpsertStock(ctx context.Context, couponID uuid.UUID, available int) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO coupon_stock (coupon_id, available, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (coupon_id)
		DO UPDATE SET available = EXCLUDED.available, updated_at = CURRENT_TIMESTAMP
	`, couponID, available).Error
}

// DecrementStock consumes one unit, guarded so availability never goes negative.
func (r *repositoryImpl) DecrementStock(ctx context.Context, couponID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE coupon_stock
		SET available = available - 1, updated_at = CURRENT_TIMESTAMP
		WHERE coupon_id = ? AND available > 0
	`, couponID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) FindClaim(ctx context.Context, userID, couponID uuid.UUID) (*models.CouponClaim, error) {
	var claim models.CouponClaim
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND coupon_id = ? AND deleted_at IS NULL", userID, couponID).
		First(&claim).Error
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *repositoryImpl) CreateClaim(ctx context.Context, claim *models.CouponClaim) error {
	return r.db.WithContext(ctx).Create(claim).Error
}

// MarkClaimUsed stamps the claim once; a claim already consumed is left untouched.
func (r *repositoryImpl) MarkClaimUsed(ctx context.Context, claimID uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CouponClaim{}).
		Where("id = ? AND used_at IS NULL", claimID).
		UpdateColumn("used_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) ListClaims(ctx context.Context, userID uuid.UUID) ([]models.CouponClaim, error) {
	var claims []models.CouponClaim
	err := r.db.WithContext(ctx).
		Preload("Coupon").
		Preload("Coupon.Stock").
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Order("assigned_at DESC").
		Find(&claims).Error
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (r *repositoryImpl) SoftDeleteClaim(ctx context.Context, userID, claimID uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CouponClaim{}).
		Where("id = ? AND user_id = ? AND deleted_at IS NULL", claimID, userID).
		UpdateColumn("deleted_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
