package loyalty

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dulcemocka/ordering-backend/pkg/db/models"
	"github.com/dulcemocka/ordering-backend/pkg/enums"
	pkgerrors "github.com/dulcemocka/ordering-backend/pkg/errors"
	"github.com/dulcemocka/ordering-backend/pkg/pagination"
)

// Accrual rate: 50 points for every full 5000 pesos of order total.
const (
	accrualBlockAmount = 5000
	accrualBlockPoints = 50
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// productReader is the slice of the catalog surface redemptions need.
type productReader interface {
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// notifier is the slice of the notifications service loyalty needs.
type notifier interface {
	RedemptionCreated(ctx context.Context, tx *gorm.DB, userID uuid.UUID, redemption *models.Redemption) error
	RedemptionStatusChanged(ctx context.Context, tx *gorm.DB, userID uuid.UUID, redemption *models.Redemption, status enums.RedemptionStatus) error
}

// ListParams configures pagination and filtering for redemption listings.
type ListParams struct {
	UserID *uuid.UUID
	Limit  int
	Cursor string
}

// ListResult wraps returned redemptions and the cursor for the next page.
type ListResult struct {
	Items  []models.Redemption `json:"items"`
	Cursor string              `json:"cursor"`
}

// Service defines the point ledger and the product redemption lifecycle.
type Service interface {
	AccruePoints(ctx context.Context, tx *gorm.DB, userID uuid.UUID, orderTotal int) (int, error)
	Balance(ctx context.Context, userID uuid.UUID) (int, error)
	Redeem(ctx context.Context, userID, productID uuid.UUID) (*models.Redemption, int, error)
	ListRedemptions(ctx context.Context, params ListParams) (*ListResult, error)
	DeliverRedemption(ctx context.Context, id uuid.UUID) error
	CancelRedemption(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     Repository
	tx       txRunner
	catalog  productReader
	notifier notifier
	now      func() time.Time
}

// NewService wires loyalty dependencies.
func NewService(repo Repository, tx txRunner, catalog productReader, notifier notifier) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "loyalty repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product reader required")
	}
	if notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		catalog:  catalog,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// PointsForTotal returns the points earned for an order total.
func PointsForTotal(orderTotal int) int {
	if orderTotal <= 0 {
		return 0
	}
	return orderTotal / accrualBlockAmount * accrualBlockPoints
}

// AccruePoints credits the points earned by an order total. It runs inside
// the caller's transaction so the credit commits with the status change that
// triggered it.
func (s *service) AccruePoints(ctx context.Context, tx *gorm.DB, userID uuid.UUID, orderTotal int) (int, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	points := PointsForTotal(orderTotal)
	if points == 0 {
		return 0, nil
	}
	if err := s.repo.WithTx(tx).AddPoints(ctx, userID, points); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit points")
	}
	return points, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	points, err := s.repo.GetUserPoints(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load points balance")
	}
	return points, nil
}

// Redeem exchanges points for a redeemable product. The deduction and the
// redemption row commit together, and the guarded update rejects the spend
// when the balance no longer covers the cost.
func (s *service) Redeem(ctx context.Context, userID, productID uuid.UUID) (*models.Redemption, int, error) {
	if userID == uuid.Nil {
		return nil, 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID == uuid.Nil {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	product, err := s.catalog.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive || product.PointCost == nil || *product.PointCost <= 0 {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "product is not redeemable")
	}
	cost := *product.PointCost

	var redemption *models.Redemption
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		ok, err := repo.SpendPoints(ctx, userID, cost)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "spend points")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient points")
		}

		redemption = &models.Redemption{
			UserID:    userID,
			ProductID: product.ID,
			PointCost: cost,
			Status:    enums.RedemptionStatusPending,
		}
		if err := repo.CreateRedemption(ctx, redemption); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create redemption")
		}
		redemption.Product = product

		return s.notifier.RedemptionCreated(ctx, tx, userID, redemption)
	})
	if err != nil {
		return nil, 0, err
	}

	remaining, err := s.repo.GetUserPoints(ctx, userID)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load points balance")
	}
	return redemption, remaining, nil
}

func (s *service) ListRedemptions(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listRedemptionsParams{
		UserID: params.UserID,
		Limit:  params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListRedemptions(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list redemptions")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

// DeliverRedemption marks a pending redemption as handed over.
func (s *service) DeliverRedemption(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		redemption, err := s.findRedemption(ctx, repo, id)
		if err != nil {
			return err
		}
		if redemption.Status != enums.RedemptionStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "redemption is not pending")
		}

		now := s.now()
		if err := repo.UpdateRedemptionStatus(ctx, redemption.ID, enums.RedemptionStatusDelivered, &now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deliver redemption")
		}
		return s.notifier.RedemptionStatusChanged(ctx, tx, redemption.UserID, redemption, enums.RedemptionStatusDelivered)
	})
}

// CancelRedemption refunds the snapshotted point cost and marks the
// redemption cancelled. Delivered redemptions can still be cancelled, which
// refunds the points as well.
func (s *service) CancelRedemption(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		redemption, err := s.findRedemption(ctx, repo, id)
		if err != nil {
			return err
		}
		if redemption.Status == enums.RedemptionStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "redemption already cancelled")
		}

		if err := repo.AddPoints(ctx, redemption.UserID, redemption.PointCost); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund points")
		}
		if err := repo.UpdateRedemptionStatus(ctx, redemption.ID, enums.RedemptionStatusCancelled, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel redemption")
		}
		return s.notifier.RedemptionStatusChanged(ctx, tx, redemption.UserID, redemption, enums.RedemptionStatusCancelled)
	})
}

func (s *service) findRedemption(ctx context.Context, repo Repository, id uuid.UUID) (*models.Redemption, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "redemption id required")
	}
	redemption, err := repo.FindRedemptionByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "redemption not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load redemption")
	}
	return redemption, nil
}
