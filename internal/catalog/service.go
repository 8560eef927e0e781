package catalog

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dulcemocka/ordering-backend/pkg/db/models"
	pkgerrors "github.com/dulcemocka/ordering-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines storefront catalog reads plus the back-office CRUD surface.
type Service interface {
	ListProducts(ctx context.Context, params ListProductsParams) ([]models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	ListCategories(ctx context.Context, includeInactive bool) ([]models.Category, error)
	ListIngredients(ctx context.Context, includeInactive bool) ([]models.Ingredient, error)
	ListSectors(ctx context.Context, includeInactive bool) ([]models.Sector, error)
	ListSlides(ctx context.Context, includeInactive bool) ([]models.Slide, error)

	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateIngredient(ctx context.Context, input CreateIngredientInput) (*models.Ingredient, error)
	UpdateIngredient(ctx context.Context, id uuid.UUID, input UpdateIngredientInput) error
	DeleteIngredient(ctx context.Context, id uuid.UUID) error

	CreateSector(ctx context.Context, input CreateSectorInput) (*models.Sector, error)
	UpdateSector(ctx context.Context, id uuid.UUID, input UpdateSectorInput) error
	DeleteSector(ctx context.Context, id uuid.UUID) error

	CreateSlide(ctx context.Context, input CreateSlideInput) (*models.Slide, error)
	UpdateSlide(ctx context.Context, id uuid.UUID, input UpdateSlideInput) error
	DeleteSlide(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires catalog dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) ListProducts(ctx context.Context, params ListProductsParams) ([]models.Product, error) {
	products, err := s.repo.ListProducts(ctx, listProductsParams{
		CategoryID:      params.CategoryID,
		RedeemableOnly:  params.RedeemableOnly,
		IncludeInactive: params.IncludeInactive,
		Search:          strings.TrimSpace(params.Search),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product slug required")
	}
	product, err := s.repo.FindProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) ListCategories(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

func (s *service) ListIngredients(ctx context.Context, includeInactive bool) ([]models.Ingredient, error) {
	ingredients, err := s.repo.ListIngredients(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ingredients")
	}
	return ingredients, nil
}

func (s *service) ListSectors(ctx context.Context, includeInactive bool) ([]models.Sector, error) {
	sectors, err := s.repo.ListSectors(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sectors")
	}
	return sectors, nil
}

func (s *service) ListSlides(ctx context.Context, includeInactive bool) ([]models.Slide, error) {
	slides, err := s.repo.ListSlides(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list slides")
	}
	return slides, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price cannot be negative")
	}
	if input.PointCost != nil && *input.PointCost <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "point cost must be positive")
	}

	product := &models.Product{
		Name:        name,
		Slug:        Slugify(name),
		Description: input.Description,
		Price:       input.Price,
		CategoryID:  input.CategoryID,
		ImageURL:    input.ImageURL,
		PointCost:   input.PointCost,
		IsActive:    true,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}
		if len(input.Ingredients) > 0 {
			rows := buildIngredientRows(product.ID, input.Ingredients)
			if err := repo.ReplaceProductIngredients(ctx, product.ID, rows); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach product ingredients")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Price != nil && *input.Price < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product price cannot be negative")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		updates["name"] = name
		updates["slug"] = Slugify(name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		updates["price"] = *input.Price
	}
	if input.CategoryID != nil {
		updates["category_id"] = *input.CategoryID
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if input.PointCost != nil {
		updates["point_cost"] = *input.PointCost
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 && input.Ingredients == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if len(updates) > 0 {
			affected, err := repo.UpdateProduct(ctx, id, updates)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
		} else {
			if _, err := repo.FindProductByID(ctx, id); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
		}
		if input.Ingredients != nil {
			rows := buildIngredientRows(id, input.Ingredients)
			if err := repo.ReplaceProductIngredients(ctx, id, rows); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace product ingredients")
			}
		}
		return nil
	})
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, id, "product", s.repo.DeleteProduct)
}

func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}
	category := &models.Category{Name: name, Description: input.Description, IsActive: true}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return category, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) error {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "category name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	return s.updateByID(ctx, id, "category", updates, s.repo.UpdateCategory)
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, id, "category", s.repo.DeleteCategory)
}

func (s *service) CreateIngredient(ctx context.Context, input CreateIngredientInput) (*models.Ingredient, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ingredient name required")
	}
	ingredient := &models.Ingredient{Name: name, Description: input.Description, IsActive: true}
	if err := s.repo.CreateIngredient(ctx, ingredient); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ingredient")
	}
	return ingredient, nil
}

func (s *service) UpdateIngredient(ctx context.Context, id uuid.UUID, input UpdateIngredientInput) error {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "ingredient name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	return s.updateByID(ctx, id, "ingredient", updates, s.repo.UpdateIngredient)
}

func (s *service) DeleteIngredient(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, id, "ingredient", s.repo.DeleteIngredient)
}

func (s *service) CreateSector(ctx context.Context, input CreateSectorInput) (*models.Sector, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sector name required")
	}
	if input.ShippingPrice < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping price cannot be negative")
	}
	sector := &models.Sector{
		Name:          name,
		Description:   input.Description,
		ShippingPrice: input.ShippingPrice,
		IsActive:      true,
	}
	if err := s.repo.CreateSector(ctx, sector); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sector")
	}
	return sector, nil
}

func (s *service) UpdateSector(ctx context.Context, id uuid.UUID, input UpdateSectorInput) error {
	if input.ShippingPrice != nil && *input.ShippingPrice < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping price cannot be negative")
	}
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "sector name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.ShippingPrice != nil {
		updates["shipping_price"] = *input.ShippingPrice
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	return s.updateByID(ctx, id, "sector", updates, s.repo.UpdateSector)
}

func (s *service) DeleteSector(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, id, "sector", s.repo.DeleteSector)
}

func (s *service) CreateSlide(ctx context.Context, input CreateSlideInput) (*models.Slide, error) {
	if strings.TrimSpace(input.ImageURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slide image url required")
	}
	slide := &models.Slide{
		Title:    input.Title,
		Subtitle: input.Subtitle,
		ImageURL: input.ImageURL,
		LinkURL:  input.LinkURL,
		Position: input.Position,
		IsActive: true,
	}
	if err := s.repo.CreateSlide(ctx, slide); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create slide")
	}
	return slide, nil
}

func (s *service) UpdateSlide(ctx context.Context, id uuid.UUID, input UpdateSlideInput) error {
	updates := map[string]any{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Subtitle != nil {
		updates["subtitle"] = *input.Subtitle
	}
	if input.ImageURL != nil {
		if strings.TrimSpace(*input.ImageURL) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "slide image url cannot be empty")
		}
		updates["image_url"] = *input.ImageURL
	}
	if input.LinkURL != nil {
		updates["link_url"] = *input.LinkURL
	}
	if input.Position != nil {
		updates["position"] = *input.Position
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	return s.updateByID(ctx, id, "slide", updates, s.repo.UpdateSlide)
}

func (s *service) DeleteSlide(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, id, "slide", s.repo.DeleteSlide)
}

func (s *service) updateByID(ctx context.Context, id uuid.UUID, entity string, updates map[string]any, update func(context.Context, uuid.UUID, map[string]any) (int64, error)) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, entity+" id required")
	}
	if len(updates) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	affected, err := update(ctx, id, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update "+entity)
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	}
	return nil
}

func (s *service) deleteByID(ctx context.Context, id uuid.UUID, entity string, remove func(context.Context, uuid.UUID) (int64, error)) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, entity+" id required")
	}
	affected, err := remove(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete "+entity)
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	}
	return nil
}

func buildIngredientRows(productID uuid.UUID, inputs []ProductIngredientInput) []models.ProductIngredient {
	rows := make([]models.ProductIngredient, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, models.ProductIngredient{
			ProductID:         productID,
			IngredientID:      in.IngredientID,
			IncludedByDefault: in.IncludedByDefault,
			Removable:         in.Removable,
		})
	}
	return rows
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases the name and collapses non-alphanumeric runs into dashes.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugStripRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
