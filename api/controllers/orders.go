package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dulcemocka/ordering-backend/api/responses"
	"github.com/dulcemocka/ordering-backend/api/validators"
	"github.com/dulcemocka/ordering-backend/internal/orders"
	"github.com/dulcemocka/ordering-backend/pkg/enums"
	pkgerrors "github.com/dulcemocka/ordering-backend/pkg/errors"
	"github.com/dulcemocka/ordering-backend/pkg/logger"
	"github.com/dulcemocka/ordering-backend/pkg/pagination"
)

type checkoutItemRequest struct {
	ProductID            uuid.UUID   `json:"product_id" validate:"required"`
	Quantity             int         `json:"quantity" validate:"required,min=1"`
	Note                 *string     `json:"note,omitempty"`
	RemovedIngredientIDs []uuid.UUID `json:"removed_ingredient_ids,omitempty"`
}

type checkoutAddressRequest struct {
	Street      string     `json:"street" validate:"required"`
	HouseNumber *string    `json:"house_number,omitempty"`
	Note        *string    `json:"note,omitempty"`
	SectorID    *uuid.UUID `json:"sector_id,omitempty"`
}

type checkoutRequest struct {
	ContactName  string                  `json:"contact_name" validate:"required"`
	ContactEmail string                  `json:"contact_email" validate:"required,email"`
	ContactPhone string                  `json:"contact_phone" validate:"required"`
	DeliveryMode string                  `json:"delivery_mode" validate:"required"`
	AddressID    *uuid.UUID              `json:"address_id,omitempty"`
	Address      *checkoutAddressRequest `json:"address,omitempty"`
	CouponCode   string                  `json:"coupon_code,omitempty"`
	Items        []checkoutItemRequest   `json:"items" validate:"required,min=1,dive"`
}

// Checkout assembles an order for the signed-in user or a guest.
func Checkout(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mode, err := enums.ParseDeliveryMode(req.DeliveryMode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery mode"))
			return
		}
		userID, err := optionalUserIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.CheckoutInput{
			UserID:       userID,
			ContactName:  req.ContactName,
			ContactEmail: req.ContactEmail,
			ContactPhone: req.ContactPhone,
			DeliveryMode: mode,
			AddressID:    req.AddressID,
			CouponCode:   req.CouponCode,
		}
		if req.Address != nil {
			input.Address = &orders.CheckoutAddressInput{
				Street:      req.Address.Street,
				HouseNumber: req.Address.HouseNumber,
				Note:        req.Address.Note,
				SectorID:    req.Address.SectorID,
			}
		}
		for _, item := range req.Items {
			input.Items = append(input.Items, orders.CheckoutItemInput{
				ProductID:            item.ProductID,
				Quantity:             item.Quantity,
				Note:                 item.Note,
				RemovedIngredientIDs: item.RemovedIngredientIDs,
			})
		}

		order, err := svc.Checkout(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// TrackOrder resolves an order by its public number. Guests use this for
// order tracking, so it requires no credentials.
func TrackOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number := strings.TrimSpace(chi.URLParam(r, "number"))
		order, err := svc.GetByNumber(r.Context(), number)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func ListMyOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), orders.ListParams{
			UserID: &userID,
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetMyOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetForUser(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func ListOrderStatuses(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses, err := svc.ListStatuses(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, statuses)
	}
}
