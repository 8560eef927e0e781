package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dulcemocka/ordering-backend/pkg/db/models"
	"github.com/dulcemocka/ordering-backend/pkg/enums"
	pkgerrors "github.com/dulcemocka/ordering-backend/pkg/errors"
	"github.com/dulcemocka/ordering-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// UpdateProfileInput carries partial profile updates. Nil fields are left
// untouched.
type UpdateProfileInput struct {
	Name      *string
	Phone     *string
	BirthDate *time.Time
}

// AddressInput carries a saved address create or full update.
type AddressInput struct {
	Street      string
	HouseNumber *string
	Note        *string
	SectorID    *uuid.UUID
	IsPrimary   bool
}

// ListUsersParams configures the back-office user listing.
type ListUsersParams struct {
	Search string
	Role   *enums.UserRole
	Limit  int
	Cursor string
}

// ListUsersResult wraps returned users and the cursor for the next page.
type ListUsersResult struct {
	Items  []models.User `json:"items"`
	Cursor string        `json:"cursor"`
}

// Service defines profile self-service, saved addresses, and back-office
// user management.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*models.User, error)

	ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	CreateAddress(ctx context.Context, userID uuid.UUID, input AddressInput) (*models.Address, error)
	UpdateAddress(ctx context.Context, userID, addressID uuid.UUID, input AddressInput) (*models.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error

	ListUsers(ctx context.Context, params ListUsersParams) (*ListUsersResult, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetUserActive(ctx context.Context, id uuid.UUID, active bool) error

	Dashboard(ctx context.Context) (*DashboardStats, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires account dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "accounts repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.findUser(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.BirthDate != nil {
		updates["birth_date"] = *input.BirthDate
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no profile fields to update")
	}

	affected, err := s.repo.UpdateUser(ctx, userID, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return s.findUser(ctx, userID)
}

func (s *service) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	addresses, err := s.repo.ListAddresses(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return addresses, nil
}

// CreateAddress saves a delivery address. Marking it primary demotes the
// previous primary in the same transaction.
func (s *service) CreateAddress(ctx context.Context, userID uuid.UUID, input AddressInput) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if strings.TrimSpace(input.Street) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "street required")
	}

	address := &models.Address{
		UserID:      &userID,
		Street:      strings.TrimSpace(input.Street),
		HouseNumber: input.HouseNumber,
		Note:        input.Note,
		SectorID:    input.SectorID,
		IsPrimary:   input.IsPrimary,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.IsPrimary {
			if err := repo.ClearPrimaryAddress(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear primary address")
			}
		}
		if err := repo.CreateAddress(ctx, address); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

func (s *service) UpdateAddress(ctx context.Context, userID, addressID uuid.UUID, input AddressInput) (*models.Address, error) {
	if err := s.checkAddressOwner(ctx, userID, addressID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Street) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "street required")
	}

	updates := map[string]any{
		"street":       strings.TrimSpace(input.Street),
		"house_number": input.HouseNumber,
		"note":         input.Note,
		"sector_id":    input.SectorID,
		"is_primary":   input.IsPrimary,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.IsPrimary {
			if err := repo.ClearPrimaryAddress(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear primary address")
			}
		}
		if _, err := repo.UpdateAddress(ctx, addressID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	address, err := s.repo.FindAddressByID(ctx, addressID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return address, nil
}

func (s *service) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	if err := s.checkAddressOwner(ctx, userID, addressID); err != nil {
		return err
	}
	affected, err := s.repo.DeleteAddress(ctx, addressID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

func (s *service) ListUsers(ctx context.Context, params ListUsersParams) (*ListUsersResult, error) {
	query := listUsersParams{
		Search: strings.TrimSpace(params.Search),
		Role:   params.Role,
		Limit:  params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListUsers(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListUsersResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.findUser(ctx, id)
}

func (s *service) SetUserActive(ctx context.Context, id uuid.UUID, active bool) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	affected, err := s.repo.UpdateUser(ctx, id, map[string]any{"is_active": active})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func (s *service) findUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) checkAddressOwner(ctx context.Context, userID, addressID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if addressID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "address id required")
	}
	address, err := s.repo.FindAddressByID(ctx, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	if address.UserID == nil || *address.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}
