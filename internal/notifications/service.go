package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dulcemocka/ordering-backend/pkg/db/models"
	"github.com/dulcemocka/ordering-backend/pkg/enums"
	pkgerrors "github.com/dulcemocka/ordering-backend/pkg/errors"
	"github.com/dulcemocka/ordering-backend/pkg/pagination"
)

// ListParams configures pagination and filtering for a user's notifications.
type ListParams struct {
	UserID     uuid.UUID
	UnreadOnly bool
	Limit      int
	Cursor     string
}

// ListResult wraps returned notifications, the unread count, and the cursor
// for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Unread int64                 `json:"unread"`
	Cursor string                `json:"cursor"`
}

// Service defines the per-user notification log. The producer methods run
// inside the caller's transaction so a notification never outlives a rolled
// back state change.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, notificationID uuid.UUID) error

	OrderPlaced(ctx context.Context, tx *gorm.DB, userID uuid.UUID, order *models.Order) error
	OrderStatusChanged(ctx context.Context, tx *gorm.DB, userID uuid.UUID, order *models.Order, previousStatus, newStatus string, pointsEarned int) error
	OrderCancelled(ctx context.Context, tx *gorm.DB, userID uuid.UUID, order *models.Order, reason string) error
	CouponClaimed(ctx context.Context, tx *gorm.DB, userID uuid.UUID, coupon *models.Coupon) error
	RedemptionCreated(ctx context.Context, tx *gorm.DB, userID uuid.UUID, redemption *models.Redemption) error
	RedemptionStatusChanged(ctx context.Context, tx *gorm.DB, userID uuid.UUID, redemption *models.Redemption, status enums.RedemptionStatus) error
}

type service struct {
	repo Repository
}

// NewService wires notification dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	query := listNotificationsParams{
		UserID:     params.UserID,
		UnreadOnly: params.UnreadOnly,
		Limit:      params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	unread, err := s.repo.CountUnread(ctx, params.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Unread: unread, Cursor: cursor}, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	affected, err := s.repo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	affected, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return affected, nil
}

func (s *service) Delete(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	affected, err := s.repo.Delete(ctx, userID, notificationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete notification")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) OrderPlaced(ctx context.Context, tx *gorm.DB, userID uuid.UUID, order *models.Order) error {
	return s.create(ctx, tx, &models.Notification{
		UserID:  userID,
		OrderID: &order.ID,
		Type:    enums.NotificationTypeOrderStatus,
		Title:   "Pedido recibido",
		Message: fmt.Sprintf("Tu pedido %s fue recibido y esta en preparacion.", order.Number),
	})
}

func (s *service) OrderStatusChanged(ctx context.Context, tx *gorm.DB, userID uuid.UUID, order *models.Order, previousStatus, newStatus string, pointsEarned int) error {
	if previousStatus == "" {
		previousStatus = "Sin estado"
	}
	message := fmt.Sprintf("Tu pedido %s cambio de %q a %q.", order.Number, previousStatus, newStatus)
	if pointsEarned > 0 {
		message += fmt.Sprintf(" Ganaste %d puntos!", pointsEarned)
	}
	return s.create(ctx, tx, &models.Notification{
		UserID:  userID,
		OrderID: &order.ID,
		Type:    enums.NotificationTypeOrderStatus,
		Title:   "Actualizacion de pedido",
		Message: message,
	})
}

func (s *service) OrderCancelled(ctx context.Context, tx *gorm.DB, userID uuid.UUID, order *models.Order, reason string) error {
	return s.create(ctx, tx, &models.Notification{
		UserID:       userID,
		OrderID:      &order.ID,
		Type:         enums.NotificationTypeOrderCancelled,
		Title:        "Pedido cancelado",
		Message:      fmt.Sprintf("Tu pedido %s fue cancelado.", order.Number),
		CancelReason: &reason,
	})
}

func (s *service) CouponClaimed(ctx context.Context, tx *gorm.DB, userID uuid.UUID, coupon *models.Coupon) error {
	return s.create(ctx, tx, &models.Notification{
		UserID:  userID,
		Type:    enums.NotificationTypeCoupon,
		Title:   "Cupon reclamado",
		Message: fmt.Sprintf("Reclamaste el cupon %s por %d%% de descuento.", coupon.Code, coupon.DiscountPercent),
	})
}

func (s *service) RedemptionCreated(ctx context.Context, tx *gorm.DB, userID uuid.UUID, redemption *models.Redemption) error {
	productName := "tu producto"
	if redemption.Product != nil {
		productName = redemption.Product.Name
	}
	return s.create(ctx, tx, &models.Notification{
		UserID:  userID,
		Type:    enums.NotificationTypeRedemption,
		Title:   "Canje registrado",
		Message: fmt.Sprintf("Canjeaste %d puntos por %s.", redemption.PointCost, productName),
	})
}

func (s *service) RedemptionStatusChanged(ctx context.Context, tx *gorm.DB, userID uuid.UUID, redemption *models.Redemption, status enums.RedemptionStatus) error {
	message := ""
	switch status {
	case enums.RedemptionStatusDelivered:
		message = "Tu canje fue entregado. Disfrutalo!"
	case enums.RedemptionStatusCancelled:
		message = fmt.Sprintf("Tu canje fue cancelado y te devolvimos %d puntos.", redemption.PointCost)
	default:
		message = fmt.Sprintf("Tu canje cambio a: %s.", status)
	}
	return s.create(ctx, tx, &models.Notification{
		UserID:  userID,
		Type:    enums.NotificationTypeRedemption,
		Title:   "Actualizacion de canje",
		Message: message,
	})
}

func (s *service) create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error {
	if err := s.repo.WithTx(tx).Create(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return nil
}
