package orders

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dulcemocka/ordering-backend/internal/coupons"
	"github.com/dulcemocka/ordering-backend/pkg/db/models"
	"github.com/dulcemocka/ordering-backend/pkg/enums"
	pkgerrors "github.com/dulcemocka/ordering-backend/pkg/errors"
	"github.com/dulcemocka/ordering-backend/pkg/pagination"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeCatalog struct {
	products map[uuid.UUID]models.Product
	sectors  map[uuid.UUID]models.Sector
}

func (f *fakeCatalog) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) FindSectorByID(ctx context.Context, id uuid.UUID) (*models.Sector, error) {
	if s, ok := f.sectors[id]; ok {
		return &s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeApplier struct {
	discount coupons.OrderDiscount
	code     string
	subtotal int
	calls    int
}

func (f *fakeApplier) ApplyToOrder(ctx context.Context, tx *gorm.DB, code string, subtotal int, userID *uuid.UUID) (coupons.OrderDiscount, error) {
	f.calls++
	f.code = code
	f.subtotal = subtotal
	return f.discount, nil
}

type fakeLoyalty struct {
	accrued []int
}

func (f *fakeLoyalty) AccruePoints(ctx context.Context, tx *gorm.DB, userID uuid.UUID, orderTotal int) (int, error) {
	f.accrued = append(f.accrued, orderTotal)
	return orderTotal / 5000 * 50, nil
}

type statusChange struct {
	previous string
	next     string
	points   int
}

type fakeNotifier struct {
	placed    int
	changed   []statusChange
	cancelled []string
}

func (f *fakeNotifier) OrderPlaced(ctx context.Context, tx *gorm.DB, userID uuid.UUID, order *models.Order) error {
	f.placed++
	return nil
}

func (f *fakeNotifier) OrderStatusChanged(ctx context.Context, tx *gorm.DB, userID uuid.UUID, order *models.Order, previousStatus, newStatus string, pointsEarned int) error {
	f.changed = append(f.changed, statusChange{previous: previousStatus, next: newStatus, points: pointsEarned})
	return nil
}

func (f *fakeNotifier) OrderCancelled(ctx context.Context, tx *gorm.DB, userID uuid.UUID, order *models.Order, reason string) error {
	f.cancelled = append(f.cancelled, reason)
	return nil
}

type fakeRepository struct {
	Repository

	createdOrder    *models.Order
	createdAddress  *models.Address
	statuses        map[string]*models.OrderStatus
	orders          map[uuid.UUID]*models.Order
	addresses       map[uuid.UUID]*models.Address
	statusUpdates   []uuid.UUID
	deliveredStamps []*time.Time
	listFn          func(ctx context.Context, params listOrdersParams) ([]models.Order, *pagination.Cursor, error)
}

func newFakeRepository() *fakeRepository {
	statuses := map[string]*models.OrderStatus{}
	for i, name := range []string{
		enums.OrderStatusPending,
		enums.OrderStatusPreparing,
		enums.OrderStatusReadyForPickup,
		enums.OrderStatusOutForDelivery,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	} {
		statuses[name] = &models.OrderStatus{ID: uuid.New(), Name: name, Position: i + 1}
	}
	return &fakeRepository{
		statuses:  statuses,
		orders:    map[uuid.UUID]*models.Order{},
		addresses: map[uuid.UUID]*models.Address{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, order *models.Order) error {
	order.ID = uuid.New()
	f.createdOrder = order
	f.orders[order.ID] = order
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := f.orders[id]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindStatusByName(ctx context.Context, name string) (*models.OrderStatus, error) {
	if status, ok := f.statuses[name]; ok {
		return status, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) UpdateStatus(ctx context.Context, orderID, statusID uuid.UUID, deliveredAt *time.Time) error {
	f.statusUpdates = append(f.statusUpdates, statusID)
	f.deliveredStamps = append(f.deliveredStamps, deliveredAt)
	if order, ok := f.orders[orderID]; ok {
		order.StatusID = statusID
		for _, status := range f.statuses {
			if status.ID == statusID {
				order.Status = status
				break
			}
		}
	}
	return nil
}

func (f *fakeRepository) FindAddressByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	if address, ok := f.addresses[id]; ok {
		return address, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) CreateAddress(ctx context.Context, address *models.Address) error {
	address.ID = uuid.New()
	f.createdAddress = address
	f.addresses[address.ID] = address
	return nil
}

func (f *fakeRepository) List(ctx context.Context, params listOrdersParams) ([]models.Order, *pagination.Cursor, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, nil, nil
}

type testEnv struct {
	repo     *fakeRepository
	catalog  *fakeCatalog
	applier  *fakeApplier
	loyalty  *fakeLoyalty
	notifier *fakeNotifier
	svc      *service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:     newFakeRepository(),
		catalog:  &fakeCatalog{products: map[uuid.UUID]models.Product{}, sectors: map[uuid.UUID]models.Sector{}},
		applier:  &fakeApplier{},
		loyalty:  &fakeLoyalty{},
		notifier: &fakeNotifier{},
	}
	svc, err := NewService(env.repo, fakeTxRunner{}, env.catalog, env.applier, env.loyalty, env.notifier, "DSM")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	env.svc = svc.(*service)
	env.svc.randInt = func(n int) int { return 0 }
	return env
}

func (e *testEnv) addProduct(t *testing.T, name string, price int, ingredients ...models.ProductIngredient) models.Product {
	t.Helper()
	product := models.Product{
		ID:          uuid.New(),
		Name:        name,
		Price:       price,
		IsActive:    true,
		Ingredients: ingredients,
	}
	e.catalog.products[product.ID] = product
	return product
}

func validCheckout(items ...CheckoutItemInput) CheckoutInput {
	return CheckoutInput{
		ContactName:  "Maria Lopez",
		ContactEmail: "maria@example.com",
		ContactPhone: "+56911111111",
		DeliveryMode: enums.DeliveryModePickup,
		Items:        items,
	}
}

func TestService_CheckoutComputesTotals(t *testing.T) {
	env := newTestEnv(t)
	brownie := env.addProduct(t, "Brownie", 2500)
	latte := env.addProduct(t, "Latte", 3000)

	order, err := env.svc.Checkout(context.Background(), validCheckout(
		CheckoutItemInput{ProductID: brownie.ID, Quantity: 2},
		CheckoutItemInput{ProductID: latte.ID, Quantity: 1},
	))
	if err != nil {
		t.Fatalf("unexpected checkout error: %v", err)
	}

	if order.Subtotal != 8000 {
		t.Fatalf("expected subtotal 8000, got %d", order.Subtotal)
	}
	if order.Total != 8000 {
		t.Fatalf("expected total 8000, got %d", order.Total)
	}
	if order.Number != "DSM-100000" {
		t.Fatalf("unexpected order number %q", order.Number)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}
	if order.Items[0].ProductName != "Brownie" || order.Items[0].LineTotal != 5000 {
		t.Fatalf("unexpected item snapshot %+v", order.Items[0])
	}
}

func TestService_CheckoutSynthesizesRemovedIngredientNotes(t *testing.T) {
	env := newTestEnv(t)
	nuts := models.ProductIngredient{
		IngredientID: uuid.New(),
		Removable:    true,
		Ingredient:   models.Ingredient{Name: "Nueces"},
	}
	cinnamon := models.ProductIngredient{
		IngredientID: uuid.New(),
		Removable:    false,
		Ingredient:   models.Ingredient{Name: "Canela"},
	}
	cake := env.addProduct(t, "Torta", 12000, nuts, cinnamon)

	note := "sin velas"
	order, err := env.svc.Checkout(context.Background(), validCheckout(
		CheckoutItemInput{
			ProductID:            cake.ID,
			Quantity:             1,
			Note:                 &note,
			RemovedIngredientIDs: []uuid.UUID{nuts.IngredientID, cinnamon.IngredientID},
		},
	))
	if err != nil {
		t.Fatalf("unexpected checkout error: %v", err)
	}

	if order.Items[0].Notes == nil {
		t.Fatal("expected synthesized notes")
	}
	got := *order.Items[0].Notes
	if got != "sin velas | Sin: Nueces" {
		t.Fatalf("unexpected notes %q", got)
	}
	if strings.Contains(got, "Canela") {
		t.Fatal("non-removable ingredient leaked into notes")
	}
}

func TestService_CheckoutAppliesCouponInsideTransaction(t *testing.T) {
	env := newTestEnv(t)
	brownie := env.addProduct(t, "Brownie", 5000)
	couponID := uuid.New()
	code := "WELCOME10"
	env.applier.discount = coupons.OrderDiscount{CouponID: &couponID, Code: &code, Amount: 1000}

	order, err := env.svc.Checkout(context.Background(), CheckoutInput{
		ContactName:  "Maria Lopez",
		ContactEmail: "maria@example.com",
		ContactPhone: "+56911111111",
		DeliveryMode: enums.DeliveryModePickup,
		CouponCode:   "welcome10",
		Items:        []CheckoutItemInput{{ProductID: brownie.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("unexpected checkout error: %v", err)
	}

	if env.applier.calls != 1 {
		t.Fatalf("expected one coupon application, got %d", env.applier.calls)
	}
	if env.applier.subtotal != 10000 {
		t.Fatalf("expected coupon evaluated against subtotal 10000, got %d", env.applier.subtotal)
	}
	if order.DiscountTotal != 1000 || order.Total != 9000 {
		t.Fatalf("unexpected totals %+v", order)
	}
	if order.CouponID == nil || *order.CouponID != couponID {
		t.Fatal("expected coupon snapshot on order")
	}
}

func TestService_CheckoutDeliveryUsesSectorShipping(t *testing.T) {
	env := newTestEnv(t)
	brownie := env.addProduct(t, "Brownie", 5000)
	sector := models.Sector{ID: uuid.New(), Name: "Centro", ShippingPrice: 1200, IsActive: true}
	env.catalog.sectors[sector.ID] = sector

	order, err := env.svc.Checkout(context.Background(), CheckoutInput{
		ContactName:  "Maria Lopez",
		ContactEmail: "maria@example.com",
		ContactPhone: "+56911111111",
		DeliveryMode: enums.DeliveryModeDelivery,
		Address: &CheckoutAddressInput{
			Street:   "Av. Siempre Viva 742",
			SectorID: &sector.ID,
		},
		Items: []CheckoutItemInput{{ProductID: brownie.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected checkout error: %v", err)
	}

	if order.ShippingCost != 1200 {
		t.Fatalf("expected shipping 1200, got %d", order.ShippingCost)
	}
	if order.Total != 6200 {
		t.Fatalf("expected total 6200, got %d", order.Total)
	}
	if env.repo.createdAddress == nil {
		t.Fatal("expected guest address persisted")
	}
}

func TestService_CheckoutUnknownSectorShipsFree(t *testing.T) {
	env := newTestEnv(t)
	brownie := env.addProduct(t, "Brownie", 5000)
	missing := uuid.New()

	order, err := env.svc.Checkout(context.Background(), CheckoutInput{
		ContactName:  "Maria Lopez",
		ContactEmail: "maria@example.com",
		ContactPhone: "+56911111111",
		DeliveryMode: enums.DeliveryModeDelivery,
		Address: &CheckoutAddressInput{
			Street:   "Av. Siempre Viva 742",
			SectorID: &missing,
		},
		Items: []CheckoutItemInput{{ProductID: brownie.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected checkout error: %v", err)
	}
	if order.ShippingCost != 0 {
		t.Fatalf("expected zero shipping for unresolved sector, got %d", order.ShippingCost)
	}
}

func TestService_CheckoutRejectsInactiveProduct(t *testing.T) {
	env := newTestEnv(t)
	product := env.addProduct(t, "Brownie", 5000)
	inactive := env.catalog.products[product.ID]
	inactive.IsActive = false
	env.catalog.products[product.ID] = inactive

	_, err := env.svc.Checkout(context.Background(), validCheckout(
		CheckoutItemInput{ProductID: product.ID, Quantity: 1},
	))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_CheckoutNotifiesSignedInUser(t *testing.T) {
	env := newTestEnv(t)
	brownie := env.addProduct(t, "Brownie", 5000)
	userID := uuid.New()

	input := validCheckout(CheckoutItemInput{ProductID: brownie.ID, Quantity: 1})
	input.UserID = &userID
	if _, err := env.svc.Checkout(context.Background(), input); err != nil {
		t.Fatalf("unexpected checkout error: %v", err)
	}
	if env.notifier.placed != 1 {
		t.Fatalf("expected order placed notification, got %d", env.notifier.placed)
	}
}

func makeOrder(env *testEnv, statusName string, userID *uuid.UUID, total int) *models.Order {
	status := env.repo.statuses[statusName]
	order := &models.Order{
		ID:       uuid.New(),
		Number:   "DSM-123456",
		UserID:   userID,
		Total:    total,
		StatusID: status.ID,
		Status:   status,
	}
	env.repo.orders[order.ID] = order
	return order
}

func TestService_ChangeStatusAwardsPointsOnFirstMilestone(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	order := makeOrder(env, enums.OrderStatusPreparing, &userID, 12000)

	if err := env.svc.ChangeStatus(context.Background(), order.ID, enums.OrderStatusReadyForPickup); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.loyalty.accrued) != 1 || env.loyalty.accrued[0] != 12000 {
		t.Fatalf("expected accrual for total 12000, got %v", env.loyalty.accrued)
	}
	if len(env.notifier.changed) != 1 {
		t.Fatalf("expected one status notification, got %v", env.notifier.changed)
	}
	change := env.notifier.changed[0]
	if change.previous != enums.OrderStatusPreparing || change.next != enums.OrderStatusReadyForPickup {
		t.Fatalf("unexpected notification transition %+v", change)
	}
	if change.points != 100 {
		t.Fatalf("expected 100 points in notification, got %d", change.points)
	}
}

func TestService_ChangeStatusMilestoneToMilestoneDoesNotReAward(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	order := makeOrder(env, enums.OrderStatusReadyForPickup, &userID, 12000)

	if err := env.svc.ChangeStatus(context.Background(), order.ID, enums.OrderStatusDelivered); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.loyalty.accrued) != 0 {
		t.Fatalf("expected no re-accrual, got %v", env.loyalty.accrued)
	}
	if len(env.repo.deliveredStamps) != 1 || env.repo.deliveredStamps[0] == nil {
		t.Fatal("expected delivered_at stamp")
	}
}

func TestService_ChangeStatusGuestOrderSkipsPoints(t *testing.T) {
	env := newTestEnv(t)
	order := makeOrder(env, enums.OrderStatusPreparing, nil, 12000)

	if err := env.svc.ChangeStatus(context.Background(), order.ID, enums.OrderStatusDelivered); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.loyalty.accrued) != 0 {
		t.Fatalf("expected no accrual for guest order, got %v", env.loyalty.accrued)
	}
}

func TestService_ChangeStatusReenteringMilestoneAccruesAgain(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	order := makeOrder(env, enums.OrderStatusPreparing, &userID, 12000)

	for _, target := range []string{
		enums.OrderStatusDelivered,
		enums.OrderStatusPreparing,
		enums.OrderStatusDelivered,
	} {
		if err := env.svc.ChangeStatus(context.Background(), order.ID, target); err != nil {
			t.Fatalf("transition to %s: %v", target, err)
		}
	}
	if len(env.loyalty.accrued) != 2 {
		t.Fatalf("expected accrual on each milestone entry, got %v", env.loyalty.accrued)
	}
	if len(env.notifier.changed) != 3 {
		t.Fatalf("expected three status notifications, got %v", env.notifier.changed)
	}
	if env.notifier.changed[1].points != 0 {
		t.Fatalf("expected no points leaving the milestone, got %+v", env.notifier.changed[1])
	}
}

func TestService_ChangeStatusRejectsCancelTarget(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.ChangeStatus(context.Background(), uuid.New(), enums.OrderStatusCancelled)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_CancelNotifiesWithReason(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	order := makeOrder(env, enums.OrderStatusPending, &userID, 9000)

	if err := env.svc.Cancel(context.Background(), order.ID, "out of stock"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.notifier.cancelled) != 1 || env.notifier.cancelled[0] != "out of stock" {
		t.Fatalf("expected cancellation notification, got %v", env.notifier.cancelled)
	}
}

func TestService_CancelDefaultsReasonToPlaceholder(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	order := makeOrder(env, enums.OrderStatusPending, &userID, 9000)

	if err := env.svc.Cancel(context.Background(), order.ID, "  "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.notifier.cancelled) != 1 || env.notifier.cancelled[0] != cancelReasonFallback {
		t.Fatalf("expected placeholder reason, got %v", env.notifier.cancelled)
	}
}

func TestService_GetForUserHidesOtherUsersOrders(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	order := makeOrder(env, enums.OrderStatusPending, &owner, 9000)

	if _, err := env.svc.GetForUser(context.Background(), owner, order.ID); err != nil {
		t.Fatalf("owner should see the order: %v", err)
	}
	if _, err := env.svc.GetForUser(context.Background(), uuid.New(), order.ID); err == nil {
		t.Fatal("expected not found for other user")
	} else if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
