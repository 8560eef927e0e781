package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dulcemocka/ordering-backend/pkg/db/models"
)

// Repository exposes persistence helpers for the storefront catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	ListProducts(ctx context.Context, params listProductsParams) ([]models.Product, error)
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error)
	ReplaceProductIngredients(ctx context.Context, productID uuid.UUID, rows []models.ProductIngredient) error

	ListCategories(ctx context.Context, includeInactive bool) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) (int64, error)

	ListIngredients(ctx context.Context, includeInactive bool) ([]models.Ingredient, error)
	CreateIngredient(ctx context.Context, ingredient *models.Ingredient) error
	UpdateIngredient(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	DeleteIngredient(ctx context.Context, id uuid.UUID) (int64, error)

	ListSectors(ctx context.Context, includeInactive bool) ([]models.Sector, error)
	FindSectorByID(ctx context.Context, id uuid.UUID) (*models.Sector, error)
	CreateSector(ctx context.Context, sector *models.Sector) error
	UpdateSector(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	DeleteSector(ctx context.Context, id uuid.UUID) (int64, error)

	ListSlides(ctx context.Context, includeInactive bool) ([]models.Slide, error)
	CreateSlide(ctx context.Context, slide *models.Slide) error
	UpdateSlide(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	DeleteSlide(ctx context.Context, id uuid.UUID) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listProductsParams struct {
	CategoryID      *uuid.UUID
	RedeemableOnly  bool
	IncludeInactive bool
	Search          string
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) ListProducts(ctx context.Context, params listProductsParams) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).Preload("Ingredients.Ingredient")
	if !params.IncludeInactive {
		query = query.Where("is_active = TRUE")
	}
	if params.CategoryID != nil {
		query = query.Where("category_id = ?", *params.CategoryID)
	}
	if params.RedeemableOnly {
		query = query.Where("point_cost IS NOT NULL AND point_cost > 0")
	}
	if params.Search != "" {
		query = query.Where("name ILIKE ?", "%"+params.Search+"%")
	}

	var products []models.Product
	if err := query.Order("name ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repositoryImpl) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Ingredients.Ingredient").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repositoryImpl) FindProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Ingredients.Ingredient").First(&product, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repositoryImpl) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).Preload("Ingredients.Ingredient").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repositoryImpl) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repositoryImpl) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ReplaceProductIngredients(ctx context.Context, productID uuid.UUID, rows []models.ProductIngredient) error {
	if err := r.db.WithContext(ctx).Delete(&models.ProductIngredient{}, "product_id = ?", productID).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repositoryImpl) ListCategories(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	query := r.db.WithContext(ctx).Model(&models.Category{})
	if !includeInactive {
		query = query.Where("is_active = TRUE")
	}
	var categories []models.Category
	if err := query.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repositoryImpl) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *repositoryImpl) UpdateCategory(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) DeleteCategory(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ListIngredients(ctx context.Context, includeInactive bool) ([]models.Ingredient, error) {
	query := r.db.WithContext(ctx).Model(&models.Ingredient{})
	if !includeInactive {
		query = query.Where("is_active = TRUE")
	}
	var ingredients []models.Ingredient
	if err := query.Order("name ASC").Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (r *repositoryImpl) CreateIngredient(ctx context.Context, ingredient *models.Ingredient) error {
	return r.db.WithContext(ctx).Create(ingredient).Error
}

func (r *repositoryImpl) UpdateIngredient(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id = ?", id).Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) DeleteIngredient(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Ingredient{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ListSectors(ctx context.Context, includeInactive bool) ([]models.Sector, error) {
	query := r.db.WithContext(ctx).Model(&models.Sector{})
	if !includeInactive {
		query = query.Where("is_active = TRUE")
	}
	var sectors []models.Sector
	if err := query.Order("name ASC").Find(&sectors).Error; err != nil {
		return nil, err
	}
	return sectors, nil
}

func (r *repositoryImpl) FindSectorByID(ctx context.Context, id uuid.UUID) (*models.Sector, error) {
	var sector models.Sector
	if err := r.db.WithContext(ctx).First(&sector, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sector, nil
}

func (r *repositoryImpl) CreateSector(ctx context.Context, sector *models.Sector) error {
	return r.db.WithContext(ctx).Create(sector).Error
}

func (r *repositoryImpl) UpdateSector(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Sector{}).Where("id = ?", id).Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) DeleteSector(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Sector{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ListSlides(ctx context.Context, includeInactive bool) ([]models.Slide, error) {
	query := r.db.WithContext(ctx).Model(&models.Slide{})
	if !includeInactive {
		query = query.Where("is_active = TRUE")
	}
	var slides []models.Slide
	if err := query.Order("position ASC, created_at ASC").Find(&slides).Error; err != nil {
		return nil, err
	}
	return slides, nil
}

func (r *repositoryImpl) CreateSlide(ctx context.Context, slide *models.Slide) error {
	return r.db.WithContext(ctx).Create(slide).Error
}

func (r *repositoryImpl) UpdateSlide(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Slide{}).Where("id = ?", id).Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) DeleteSlide(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Slide{}, "id = ?", id)
	return result.RowsAffected, result.Error
}
