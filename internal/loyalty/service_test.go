package loyalty

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dulcemocka/ordering-backend/pkg/db/models"
	"github.com/dulcemocka/ordering-backend/pkg/enums"
	pkgerrors "github.com/dulcemocka/ordering-backend/pkg/errors"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeProducts struct {
	products map[uuid.UUID]*models.Product
}

func (f *fakeProducts) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeNotifier struct {
	created  int
	statuses []enums.RedemptionStatus
}

func (f *fakeNotifier) RedemptionCreated(ctx context.Context, tx *gorm.DB, userID uuid.UUID, redemption *models.Redemption) error {
	f.created++
	return nil
}

func (f *fakeNotifier) RedemptionStatusChanged(ctx context.Context, tx *gorm.DB, userID uuid.UUID, redemption *models.Redemption, status enums.RedemptionStatus) error {
	f.statuses = append(f.statuses, status)
	return nil
}

type fakeRepository struct {
	Repository

	points        map[uuid.UUID]int
	redemptions   map[uuid.UUID]*models.Redemption
	statusUpdates []enums.RedemptionStatus
	delivered     []*time.Time
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		points:      map[uuid.UUID]int{},
		redemptions: map[uuid.UUID]*models.Redemption{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) GetUserPoints(ctx context.Context, userID uuid.UUID) (int, error) {
	points, ok := f.points[userID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return points, nil
}

func (f *fakeRepository) AddPoints(ctx context.Context, userID uuid.UUID, delta int) error {
	f.points[userID] += delta
	return nil
}

func (f *fakeRepository) SpendPoints(ctx context.Context, userID uuid.UUID, cost int) (bool, error) {
	if f.points[userID] < cost {
		return false, nil
	}
	f.points[userID] -= cost
	return true, nil
}

func (f *fakeRepository) CreateRedemption(ctx context.Context, redemption *models.Redemption) error {
	redemption.ID = uuid.New()
	f.redemptions[redemption.ID] = redemption
	return nil
}

func (f *fakeRepository) FindRedemptionByID(ctx context.Context, id uuid.UUID) (*models.Redemption, error) {
	if r, ok := f.redemptions[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) UpdateRedemptionStatus(ctx context.Context, id uuid.UUID, status enums.RedemptionStatus, deliveredAt *time.Time) error {
	f.statusUpdates = append(f.statusUpdates, status)
	f.delivered = append(f.delivered, deliveredAt)
	if r, ok := f.redemptions[id]; ok {
		r.Status = status
	}
	return nil
}

type testEnv struct {
	repo     *fakeRepository
	products *fakeProducts
	notifier *fakeNotifier
	svc      Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:     newFakeRepository(),
		products: &fakeProducts{products: map[uuid.UUID]*models.Product{}},
		notifier: &fakeNotifier{},
	}
	svc, err := NewService(env.repo, fakeTxRunner{}, env.products, env.notifier)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	env.svc = svc
	return env
}

func intPtr(v int) *int { return &v }

func TestPointsForTotal(t *testing.T) {
	cases := []struct {
		total int
		want  int
	}{
		{0, 0},
		{4999, 0},
		{5000, 50},
		{9999, 50},
		{10000, 100},
		{12000, 100},
		{-100, 0},
	}
	for _, tc := range cases {
		if got := PointsForTotal(tc.total); got != tc.want {
			t.Fatalf("PointsForTotal(%d) = %d, want %d", tc.total, got, tc.want)
		}
	}
}

func TestService_AccruePointsCreditsBalance(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	env.repo.points[userID] = 10

	awarded, err := env.svc.AccruePoints(context.Background(), nil, userID, 12000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if awarded != 100 {
		t.Fatalf("expected 100 points awarded, got %d", awarded)
	}
	if env.repo.points[userID] != 110 {
		t.Fatalf("expected balance 110, got %d", env.repo.points[userID])
	}
}

func TestService_AccruePointsBelowBlockIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	awarded, err := env.svc.AccruePoints(context.Background(), nil, userID, 4500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if awarded != 0 {
		t.Fatalf("expected no points, got %d", awarded)
	}
	if _, ok := env.repo.points[userID]; ok {
		t.Fatal("expected no balance write for zero award")
	}
}

func TestService_RedeemSpendsPointsAndNotifies(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	env.repo.points[userID] = 500
	product := &models.Product{ID: uuid.New(), Name: "Latte", IsActive: true, PointCost: intPtr(300)}
	env.products.products[product.ID] = product

	redemption, remaining, err := env.svc.Redeem(context.Background(), userID, product.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if remaining != 200 {
		t.Fatalf("expected remaining 200, got %d", remaining)
	}
	if redemption.PointCost != 300 {
		t.Fatalf("expected snapshotted cost 300, got %d", redemption.PointCost)
	}
	if redemption.Status != enums.RedemptionStatusPending {
		t.Fatalf("expected pending status, got %s", redemption.Status)
	}
	if env.notifier.created != 1 {
		t.Fatalf("expected redemption notification, got %d", env.notifier.created)
	}
}

func TestService_RedeemInsufficientPoints(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	env.repo.points[userID] = 100
	product := &models.Product{ID: uuid.New(), Name: "Latte", IsActive: true, PointCost: intPtr(300)}
	env.products.products[product.ID] = product

	_, _, err := env.svc.Redeem(context.Background(), userID, product.ID)
	if err == nil {
		t.Fatal("expected state conflict")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if env.repo.points[userID] != 100 {
		t.Fatalf("balance should be untouched, got %d", env.repo.points[userID])
	}
}

func TestService_RedeemRejectsNonRedeemableProduct(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	env.repo.points[userID] = 500
	product := &models.Product{ID: uuid.New(), Name: "Brownie", IsActive: true}
	env.products.products[product.ID] = product

	_, _, err := env.svc.Redeem(context.Background(), userID, product.ID)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_DeliverRedemption(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	redemption := &models.Redemption{ID: uuid.New(), UserID: userID, PointCost: 300, Status: enums.RedemptionStatusPending}
	env.repo.redemptions[redemption.ID] = redemption

	if err := env.svc.DeliverRedemption(context.Background(), redemption.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.repo.delivered) != 1 || env.repo.delivered[0] == nil {
		t.Fatal("expected delivered_at stamp")
	}
	if len(env.notifier.statuses) != 1 || env.notifier.statuses[0] != enums.RedemptionStatusDelivered {
		t.Fatalf("expected delivered notification, got %v", env.notifier.statuses)
	}

	if err := env.svc.DeliverRedemption(context.Background(), redemption.ID); err == nil {
		t.Fatal("expected state conflict on second delivery")
	}
}

func TestService_CancelRedemptionRefundsSnapshotCost(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	env.repo.points[userID] = 0
	redemption := &models.Redemption{ID: uuid.New(), UserID: userID, PointCost: 300, Status: enums.RedemptionStatusDelivered}
	env.repo.redemptions[redemption.ID] = redemption

	if err := env.svc.CancelRedemption(context.Background(), redemption.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.repo.points[userID] != 300 {
		t.Fatalf("expected refund of 300, got %d", env.repo.points[userID])
	}

	err := env.svc.CancelRedemption(context.Background(), redemption.ID)
	if err == nil {
		t.Fatal("expected state conflict on double cancel")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if env.repo.points[userID] != 300 {
		t.Fatalf("refund must apply once, got %d", env.repo.points[userID])
	}
}

func TestService_BalanceUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Balance(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected not found")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
