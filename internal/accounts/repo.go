package accounts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dulcemocka/ordering-backend/pkg/db/models"
	"github.com/dulcemocka/ordering-backend/pkg/enums"
	"github.com/dulcemocka/ordering-backend/pkg/pagination"
)

// Repository exposes persistence for user profiles and saved addresses.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	ListUsers(ctx context.Context, params listUsersParams) ([]models.User, *pagination.Cursor, error)

	ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	FindAddressByID(ctx context.Context, id uuid.UUID) (*models.Address, error)
	CreateAddress(ctx context.Context, address *models.Address) error
	UpdateAddress(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	DeleteAddress(ctx context.Context, id uuid.UUID) (int64, error)
	ClearPrimaryAddress(ctx context.Context, userID uuid.UUID) error

	CountCustomers(ctx context.Context) (int64, error)
	CountOrders(ctx context.Context) (int64, error)
	SumDeliveredRevenue(ctx context.Context) (int64, error)
	OrdersByStatus(ctx context.Context) ([]StatusCount, error)
	RecentOrders(ctx context.Context, limit int) ([]models.Order, error)
	DailySales(ctx context.Context, since time.Time) ([]DailySales, error)
	TopProducts(ctx context.Context, limit int) ([]ProductSales, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an accounts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listUsersParams struct {
	Search string
	Role   *enums.UserRole
	Limit  int
	Cursor *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repositoryImpl) UpdateUser(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ListUsers(ctx context.Context, params listUsersParams) ([]models.User, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.User{})
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}
	if params.Role != nil {
		query = query.Where("role = ?", *params.Role)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var users []models.User
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&users).Error; err != nil {
		return nil, nil, err
	}

	if len(users) > normalized {
		users = users[:normalized]
		last := users[len(users)-1]
		return users, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return users, nil, nil
}

func (r *repositoryImpl) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var addresses []models.Address
	err := r.db.WithContext(ctx).
		Preload("Sector").
		Where("user_id = ?", userID).
		Order("is_primary DESC, created_at DESC").
		Find(&addresses).Error
	if err != nil {
		return nil, err
	}
	return addresses, nil
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

func (r *repositoryImpl) UpdateAddress(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Address{}).Where("id = ?", id).Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) DeleteAddress(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Address{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ClearPrimaryAddress(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Address{}).
		Where("user_id = ? AND is_primary", userID).
		UpdateColumn("is_primary", false).Error
}

func (r *repositoryImpl) CountCustomers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", enums.UserRoleCustomer).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) CountOrders(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&count).Error
	return count, err
}

func (r *repositoryImpl) SumDeliveredRevenue(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Joins("JOIN order_statuses ON order_statuses.id = orders.status_id").
		Where("order_statuses.name = ?", enums.OrderStatusDelivered).
		Select("COALESCE(SUM(orders.total), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repositoryImpl) OrdersByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("orders.status_id AS status_id, order_statuses.name AS name, COUNT(*) AS count").
		Joins("JOIN order_statuses ON order_statuses.id = orders.status_id").
		Group("orders.status_id, order_statuses.name").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *repositoryImpl) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Status").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *repositoryImpl) DailySales(ctx context.Context, since time.Time) ([]DailySales, error) {
	var rows []DailySales
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("DATE_TRUNC('day', orders.created_at) AS day, COALESCE(SUM(orders.total), 0) AS total").
		Where("orders.created_at >= ?", since).
		Group("DATE_TRUNC('day', orders.created_at)").
		Order("day ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *repositoryImpl) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	var rows []ProductSales
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Select("order_items.product_name AS name, SUM(order_items.quantity) AS quantity").
		Where("order_items.deleted_at IS NULL").
		Group("order_items.product_name").
		Order("quantity DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
