package orders

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dulcemocka/ordering-backend/internal/coupons"
	"github.com/dulcemocka/ordering-backend/pkg/db/models"
	"github.com/dulcemocka/ordering-backend/pkg/enums"
	pkgerrors "github.com/dulcemocka/ordering-backend/pkg/errors"
	"github.com/dulcemocka/ordering-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// catalogReader is the slice of the catalog surface checkout needs.
type catalogReader interface {
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	FindSectorByID(ctx context.Context, id uuid.UUID) (*models.Sector, error)
}

// couponApplier resolves a coupon code inside the checkout transaction.
type couponApplier interface {
	ApplyToOrder(ctx context.Context, tx *gorm.DB, code string, subtotal int, userID *uuid.UUID) (coupons.OrderDiscount, error)
}

// loyaltyAccruer credits points when an order reaches a milestone status.
type loyaltyAccruer interface {
	AccruePoints(ctx context.Context, tx *gorm.DB, userID uuid.UUID, orderTotal int) (int, error)
}

// notifier is the slice of the notifications service orders needs.
type notifier interface {
	OrderPlaced(ctx context.Context, tx *gorm.DB, userID uuid.UUID, order *models.Order) error
	OrderStatusChanged(ctx context.Context, tx *gorm.DB, userID uuid.UUID, order *models.Order, previousStatus, newStatus string, pointsEarned int) error
	OrderCancelled(ctx context.Context, tx *gorm.DB, userID uuid.UUID, order *models.Order, reason string) error
}

// Service defines checkout, tracking, and the back-office status engine.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	ListStatuses(ctx context.Context) ([]models.OrderStatus, error)
	ChangeStatus(ctx context.Context, orderID uuid.UUID, statusName string) error
	Cancel(ctx context.Context, orderID uuid.UUID, reason string) error
}

type service struct {
	repo         Repository
	tx           txRunner
	catalog      catalogReader
	coupons      couponApplier
	loyalty      loyaltyAccruer
	notifier     notifier
	numberPrefix string
	now          func() time.Time
	randInt      func(n int) int
}

// NewService wires order dependencies. numberPrefix is the public order
// number prefix, e.g. "DSM".
func NewService(repo Repository, tx txRunner, catalog catalogReader, applier couponApplier, loyalty loyaltyAccruer, notifier notifier, numberPrefix string) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog reader required")
	}
	if applier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "coupon applier required")
	}
	if loyalty == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "loyalty accruer required")
	}
	if notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	}
	if strings.TrimSpace(numberPrefix) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order number prefix required")
	}
	return &service{
		repo:         repo,
		tx:           tx,
		catalog:      catalog,
		coupons:      applier,
		loyalty:      loyalty,
		notifier:     notifier,
		numberPrefix: strings.TrimSpace(numberPrefix),
		now:          func() time.Time { return time.Now().UTC() },
		randInt:      rand.IntN,
	}, nil
}

// Checkout assembles the order in a single transaction: price snapshots,
// coupon resolution, shipping, and the initial Pending status all commit or
// roll back together.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error) {
	if err := s.validateCheckout(input); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		items, subtotal, err := s.buildItems(ctx, input.Items)
		if err != nil {
			return err
		}

		discount := coupons.OrderDiscount{}
		if strings.TrimSpace(input.CouponCode) != "" {
			discount, err = s.coupons.ApplyToOrder(ctx, tx, input.CouponCode, subtotal, input.UserID)
			if err != nil {
				return err
			}
		}

		addressID, shipping, err := s.resolveShipping(ctx, repo, input)
		if err != nil {
			return err
		}

		pending, err := repo.FindStatusByName(ctx, enums.OrderStatusPending)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending status")
		}

		total := subtotal - discount.Amount + shipping
		if total < 0 {
			total = 0
		}

		order = &models.Order{
			Number:        s.newOrderNumber(),
			UserID:        input.UserID,
			ContactName:   strings.TrimSpace(input.ContactName),
			ContactEmail:  strings.TrimSpace(input.ContactEmail),
			ContactPhone:  strings.TrimSpace(input.ContactPhone),
			DeliveryMode:  input.DeliveryMode,
			AddressID:     addressID,
			CouponID:      discount.CouponID,
			CouponCode:    discount.Code,
			Subtotal:      subtotal,
			DiscountTotal: discount.Amount,
			ShippingCost:  shipping,
			Total:         total,
			StatusID:      pending.ID,
			Items:         items,
		}
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if input.UserID != nil {
			return s.notifier.OrderPlaced(ctx, tx, *input.UserID, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) validateCheckout(input CheckoutInput) error {
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must have at least one item")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}
	if strings.TrimSpace(input.ContactName) == "" || strings.TrimSpace(input.ContactEmail) == "" || strings.TrimSpace(input.ContactPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "contact name, email, and phone are required")
	}
	if !input.DeliveryMode.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery mode")
	}
	if input.DeliveryMode == enums.DeliveryModeDelivery {
		if input.AddressID == nil && input.Address == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "delivery orders require an address")
		}
		if input.AddressID != nil && input.UserID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "saved addresses require a signed-in user")
		}
		if input.Address != nil && strings.TrimSpace(input.Address.Street) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "address street required")
		}
	}
	return nil
}

// buildItems snapshots product names and prices and synthesizes the removed
// ingredient note for each line.
func (s *service) buildItems(ctx context.Context, inputs []CheckoutItemInput) ([]models.OrderItem, int, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, item := range inputs {
		ids = append(ids, item.ProductID)
	}

	products, err := s.catalog.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	items := make([]models.OrderItem, 0, len(inputs))
	subtotal := 0
	for _, input := range inputs {
		product, ok := byID[input.ProductID]
		if !ok || !product.IsActive {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "product unavailable").
				WithDetails(map[string]any{"product_id": input.ProductID})
		}

		lineTotal := product.Price * input.Quantity
		subtotal += lineTotal

		productID := product.ID
		items = append(items, models.OrderItem{
			ProductID:   &productID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    input.Quantity,
			LineTotal:   lineTotal,
			Notes:       buildItemNotes(product, input),
		})
	}
	return items, subtotal, nil
}

// buildItemNotes appends the removed ingredient summary after any free-form
// note, e.g. "extra hot | Sin: Nueces, Canela".
func buildItemNotes(product models.Product, input CheckoutItemInput) *string {
	removed := make([]string, 0, len(input.RemovedIngredientIDs))
	for _, ingredientID := range input.RemovedIngredientIDs {
		for _, link := range product.Ingredients {
			if link.IngredientID == ingredientID && link.Removable {
				removed = append(removed, link.Ingredient.Name)
				break
			}
		}
	}

	note := ""
	if input.Note != nil {
		note = strings.TrimSpace(*input.Note)
	}
	if len(removed) > 0 {
		sin := "Sin: " + strings.Join(removed, ", ")
		if note != "" {
			note = note + " | " + sin
		} else {
			note = sin
		}
	}
	if note == "" {
		return nil
	}
	return &note
}

// resolveShipping returns the address snapshot and the flat sector price.
// An address without a resolvable sector ships at zero cost.
func (s *service) resolveShipping(ctx context.Context, repo Repository, input CheckoutInput) (*uuid.UUID, int, error) {
	if input.DeliveryMode != enums.DeliveryModeDelivery {
		return nil, 0, nil
	}

	if input.AddressID != nil {
		address, err := repo.FindAddressByID(ctx, *input.AddressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
			}
			return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
		}
		if address.UserID == nil || input.UserID == nil || *address.UserID != *input.UserID {
			return nil, 0, pkgerrors.New(pkgerrors.CodeForbidden, "address does not belong to user")
		}
		return &address.ID, s.sectorPrice(ctx, address.SectorID), nil
	}

	address := &models.Address{
		UserID:      input.UserID,
		Street:      strings.TrimSpace(input.Address.Street),
		HouseNumber: input.Address.HouseNumber,
		Note:        input.Address.Note,
		SectorID:    input.Address.SectorID,
	}
	if err := repo.CreateAddress(ctx, address); err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
	}
	return &address.ID, s.sectorPrice(ctx, address.SectorID), nil
}

func (s *service) sectorPrice(ctx context.Context, sectorID *uuid.UUID) int {
	if sectorID == nil {
		return 0
	}
	sector, err := s.catalog.FindSectorByID(ctx, *sectorID)
	if err != nil || !sector.IsActive {
		return 0
	}
	return sector.ShippingPrice
}

func (s *service) newOrderNumber() string {
	return fmt.Sprintf("%s-%d", s.numberPrefix, 100000+s.randInt(900000))
}

// Get resolves an order without ownership checks. Back-office use only.
func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.findOrder(ctx, orderID)
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	order, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listOrdersParams{
		UserID:   params.UserID,
		StatusID: params.StatusID,
		Limit:    params.Limit,
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) ListStatuses(ctx context.Context) ([]models.OrderStatus, error) {
	statuses, err := s.repo.ListStatuses(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order statuses")
	}
	return statuses, nil
}

// ChangeStatus moves an order to any named status, including back out of
// Delivered. Points accrue on each transition into a milestone status whose
// immediately-prior status was not itself a milestone, and only for orders
// tied to a user account.
func (s *service) ChangeStatus(ctx context.Context, orderID uuid.UUID, statusName string) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	statusName = strings.TrimSpace(statusName)
	if statusName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "status name required")
	}
	if statusName == enums.OrderStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeValidation, "use the cancel operation to cancel an order")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		target, err := repo.FindStatusByName(ctx, statusName)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load target status")
		}

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		currentName := ""
		if order.Status != nil {
			currentName = order.Status.Name
		}
		if currentName == statusName {
			return nil
		}

		var deliveredAt *time.Time
		if statusName == enums.OrderStatusDelivered {
			now := s.now()
			deliveredAt = &now
		}
		if err := repo.UpdateStatus(ctx, order.ID, target.ID, deliveredAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		if order.UserID != nil {
			earned := 0
			if enums.IsMilestoneStatus(statusName) && !enums.IsMilestoneStatus(currentName) {
				points, err := s.loyalty.AccruePoints(ctx, tx, *order.UserID, order.Total)
				if err != nil {
					return err
				}
				earned = points
			}
			return s.notifier.OrderStatusChanged(ctx, tx, *order.UserID, order, currentName, statusName, earned)
		}
		return nil
	})
}

// cancelReasonFallback fills the customer notification when staff cancel
// without giving a reason.
const cancelReasonFallback = "Sin motivo especificado"

// Cancel moves the order to Cancelled and records the reason in the
// customer's notification. A consumed coupon claim stays consumed.
func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, reason string) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = cancelReasonFallback
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cancelled, err := repo.FindStatusByName(ctx, enums.OrderStatusCancelled)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cancelled status")
		}

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if err := repo.UpdateStatus(ctx, order.ID, cancelled.ID, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}

		if order.UserID != nil {
			return s.notifier.OrderCancelled(ctx, tx, *order.UserID, order, reason)
		}
		return nil
	})
}

func (s *service) findOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
