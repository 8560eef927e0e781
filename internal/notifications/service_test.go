package notifications

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dulcemocka/ordering-backend/pkg/db/models"
	"github.com/dulcemocka/ordering-backend/pkg/enums"
	pkgerrors "github.com/dulcemocka/ordering-backend/pkg/errors"
	"github.com/dulcemocka/ordering-backend/pkg/pagination"
)

type fakeRepository struct {
	Repository

	created      []*models.Notification
	markReadFn   func(ctx context.Context, userID, notificationID uuid.UUID) (int64, error)
	deleteFn     func(ctx context.Context, userID, notificationID uuid.UUID) (int64, error)
	listFn       func(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error)
	countFn      func(ctx context.Context, userID uuid.UUID) (int64, error)
	markAllCalls int
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, notification *models.Notification) error {
	f.created = append(f.created, notification)
	return nil
}

func (f *fakeRepository) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, nil, nil
}

func (f *fakeRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	if f.countFn != nil {
		return f.countFn(ctx, userID)
	}
	return 0, nil
}

func (f *fakeRepository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (int64, error) {
	if f.markReadFn != nil {
		return f.markReadFn(ctx, userID, notificationID)
	}
	return 1, nil
}

func (f *fakeRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	f.markAllCalls++
	return 3, nil
}

func (f *fakeRepository) Delete(ctx context.Context, userID, notificationID uuid.UUID) (int64, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, userID, notificationID)
	}
	return 1, nil
}

func newTestService(t *testing.T, repo *fakeRepository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestService_OrderCancelledCarriesReason(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)
	userID := uuid.New()
	order := &models.Order{ID: uuid.New(), Number: "DSM-123456"}

	if err := svc.OrderCancelled(context.Background(), nil, userID, order, "out of stock"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one notification, got %d", len(repo.created))
	}
	got := repo.created[0]
	if got.Type != enums.NotificationTypeOrderCancelled {
		t.Fatalf("unexpected type %s", got.Type)
	}
	if got.CancelReason == nil || *got.CancelReason != "out of stock" {
		t.Fatal("expected cancel reason on notification")
	}
	if got.OrderID == nil || *got.OrderID != order.ID {
		t.Fatal("expected order reference on notification")
	}
	if !strings.Contains(got.Message, order.Number) {
		t.Fatalf("expected order number in message, got %q", got.Message)
	}
}

func TestService_StatusChangeNamesBothStatuses(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)
	order := &models.Order{ID: uuid.New(), Number: "DSM-654321"}

	err := svc.OrderStatusChanged(context.Background(), nil, uuid.New(), order, enums.OrderStatusPreparing, enums.OrderStatusReadyForPickup, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	message := repo.created[0].Message
	if !strings.Contains(message, enums.OrderStatusPreparing) || !strings.Contains(message, enums.OrderStatusReadyForPickup) {
		t.Fatalf("expected both status names in message, got %q", message)
	}
	if strings.Contains(message, "puntos") {
		t.Fatalf("expected no points note without accrual, got %q", message)
	}
}

func TestService_StatusChangeMentionsEarnedPoints(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)
	order := &models.Order{ID: uuid.New(), Number: "DSM-654321"}

	err := svc.OrderStatusChanged(context.Background(), nil, uuid.New(), order, enums.OrderStatusPreparing, enums.OrderStatusDelivered, 150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(repo.created[0].Message, "150 puntos") {
		t.Fatalf("expected points note in message, got %q", repo.created[0].Message)
	}
}

func TestService_CouponClaimedMentionsCodeAndPercent(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)
	coupon := &models.Coupon{ID: uuid.New(), Code: "WELCOME10", DiscountPercent: 10}

	if err := svc.CouponClaimed(context.Background(), nil, uuid.New(), coupon); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	message := repo.created[0].Message
	if !strings.Contains(message, "WELCOME10") || !strings.Contains(message, "10%") {
		t.Fatalf("unexpected message %q", message)
	}
}

func TestService_RedemptionCancelledMentionsRefund(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)
	redemption := &models.Redemption{ID: uuid.New(), PointCost: 300}

	err := svc.RedemptionStatusChanged(context.Background(), nil, uuid.New(), redemption, enums.RedemptionStatusCancelled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(repo.created[0].Message, "300") {
		t.Fatalf("expected refund amount in message, got %q", repo.created[0].Message)
	}
}

func TestService_ListForwardsUnreadFilter(t *testing.T) {
	repo := &fakeRepository{}
	var captured listNotificationsParams
	repo.listFn = func(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
		captured = params
		return []models.Notification{{ID: uuid.New()}}, nil, nil
	}
	repo.countFn = func(ctx context.Context, userID uuid.UUID) (int64, error) {
		return 7, nil
	}
	svc := newTestService(t, repo)
	userID := uuid.New()

	result, err := svc.List(context.Background(), ListParams{UserID: userID, UnreadOnly: true, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !captured.UnreadOnly || captured.UserID != userID {
		t.Fatalf("unexpected forwarded params %+v", captured)
	}
	if result.Unread != 7 {
		t.Fatalf("expected unread count 7, got %d", result.Unread)
	}
}

func TestService_MarkReadUnknownNotification(t *testing.T) {
	repo := &fakeRepository{}
	repo.markReadFn = func(ctx context.Context, userID, notificationID uuid.UUID) (int64, error) {
		return 0, nil
	}
	svc := newTestService(t, repo)

	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	if err == nil {
		t.Fatal("expected not found")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_DeleteScopedToOwner(t *testing.T) {
	repo := &fakeRepository{}
	var capturedUser uuid.UUID
	repo.deleteFn = func(ctx context.Context, userID, notificationID uuid.UUID) (int64, error) {
		capturedUser = userID
		return 0, nil
	}
	svc := newTestService(t, repo)
	owner := uuid.New()

	err := svc.Delete(context.Background(), owner, uuid.New())
	if err == nil {
		t.Fatal("expected not found")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if capturedUser != owner {
		t.Fatal("expected delete to be scoped to the requesting user")
	}
}

func TestService_MarkAllRead(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	affected, err := svc.MarkAllRead(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if affected != 3 || repo.markAllCalls != 1 {
		t.Fatalf("expected one bulk update affecting 3 rows, got %d calls affecting %d", repo.markAllCalls, affected)
	}
}
