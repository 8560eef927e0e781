package loyalty

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dulcemocka/ordering-backend/pkg/db/models"
	"github.com/dulcemocka/ordering-backend/pkg/enums"
	"github.com/dulcemocka/ordering-backend/pkg/pagination"
)

// Repository exposes point balance mutations and redemption persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	GetUserPoints(ctx context.Context, userID uuid.UUID) (int, error)
	AddPoints(ctx context.Context, userID uuid.UUID, delta int) error
	SpendPoints(ctx context.Context, userID uuid.UUID, cost int) (bool, error)

	CreateRedemption(ctx context.Context, redemption *models.Redemption) error
	FindRedemptionByID(ctx context.Context, id uuid.UUID) (*models.Redemption, error)
	UpdateRedemptionStatus(ctx context.Context, id uuid.UUID, status enums.RedemptionStatus, deliveredAt *time.Time) error
	ListRedemptions(ctx context.Context, params listRedemptionsParams) ([]models.Redemption, *pagination.Cursor, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a loyalty repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listRedemptionsParams struct {
	UserID *uuid.UUID
	Limit  int
	Cursor *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) GetUserPoints(ctx context.Context, userID uuid.UUID) (int, error) {
	var points int
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("points").
		Where("id = ?", userID).
		Take(&points).Error
	if err != nil {
		return 0, err
	}
	return points, nil
}

func (r *repositoryImpl) AddPoints(ctx context.Context, userID uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("points", gorm.Expr("points + ?", delta)).Error
}

// SpendPoints deducts cost only when the balance covers it. The guard in the
// WHERE clause keeps concurrent redemptions from driving the balance negative.
func (r *repositoryImpl) SpendPoints(ctx context.Context, userID uuid.UUID, cost int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND points >= ?", userID, cost).
		UpdateColumn("points", gorm.Expr("points - ?", cost))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) CreateRedemption(ctx context.Context, redemption *models.Redemption) error {
	return r.db.WithContext(ctx).Create(redemption).Error
}

func (r *repositoryImpl) FindRedemptionByID(ctx context.Context, id uuid.UUID) (*models.Redemption, error) {
	var redemption models.Redemption
	err := r.db.WithContext(ctx).
		Preload("Product").
		First(&redemption, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &redemption, nil
}

func (r *repositoryImpl) UpdateRedemptionStatus(ctx context.Context, id uuid.UUID, status enums.RedemptionStatus, deliveredAt *time.Time) error {
	updates := map[string]any{"status": status}
	if deliveredAt != nil {
		updates["delivered_at"] = *deliveredAt
	}
	return r.db.WithContext(ctx).Model(&models.Redemption{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repositoryImpl) ListRedemptions(ctx context.Context, params listRedemptionsParams) ([]models.Redemption, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Redemption{}).Preload("Product")
	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var redemptions []models.Redemption
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&redemptions).Error; err != nil {
		return nil, nil, err
	}

	if len(redemptions) > normalized {
		redemptions = redemptions[:normalized]
		last := redemptions[len(redemptions)-1]
		return redemptions, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return redemptions, nil, nil
}
