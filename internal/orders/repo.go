package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dulcemocka/ordering-backend/pkg/db/models"
	"github.com/dulcemocka/ordering-backend/pkg/pagination"
)

// Repository exposes persistence helpers for orders and their statuses.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByNumber(ctx context.Context, number string) (*models.Order, error)
	List(ctx context.Context, params listOrdersParams) ([]models.Order, *pagination.Cursor, error)
	UpdateStatus(ctx context.Context, orderID, statusID uuid.UUID, deliveredAt *time.Time) error

	FindStatusByName(ctx context.Context, name string) (*models.OrderStatus, error)
	ListStatuses(ctx context.Context) ([]models.OrderStatus, error)

	FindAddressByID(ctx context.Context, id uuid.UUID) (*models.Address, error)
	CreateAddress(ctx context.Context, address *models.Address) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listOrdersParams struct {
	UserID   *uuid.UUID
	StatusID *uuid.UUID
	Limit    int
	Cursor   *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", "deleted_at IS NULL").
		Preload("Status").
		Preload("Address").
		Preload("Address.Sector").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", "deleted_at IS NULL").
		Preload("Status").
		First(&order, "number = ?", number).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listOrdersParams) ([]models.Order, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Order{}).
		Preload("Items", "deleted_at IS NULL").
		Preload("Status")
	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.StatusID != nil {
		query = query.Where("status_id = ?", *params.StatusID)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, nil, err
	}

	if len(orders) > normalized {
		orders = orders[:normalized]
		last := orders[len(orders)-1]
		return orders, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return orders, nil, nil
}

func (r *repositoryImpl) UpdateStatus(ctx context.Context, orderID, statusID uuid.UUID, deliveredAt *time.Time) error {
	updates := map[string]any{"status_id": statusID}
	if deliveredAt != nil {
		updates["delivered_at"] = *deliveredAt
	}
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).Updates(updates).Error
}

func (r *repositoryImpl) FindStatusByName(ctx context.Context, name string) (*models.OrderStatus, error) {
	var status models.OrderStatus
	if err := r.db.WithContext(ctx).First(&status, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *repositoryImpl) ListStatuses(ctx context.Context) ([]models.OrderStatus, error) {
	var statuses []models.OrderStatus
	if err := r.db.WithContext(ctx).Order("position ASC").Find(&statuses).Error; err != nil {
		return nil, err
	}
	return statuses, nil
}

func (r *repositoryImpl) FindAddressByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := r.db.WithContext(ctx).Preload("Sector").First(&address, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *repositoryImpl) CreateAddress(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Create(address).Error
}
