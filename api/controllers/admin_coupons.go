package controllers

import (
	"net/http"
	"time"

	"github.com/dulcemocka/ordering-backend/api/responses"
	"github.com/dulcemocka/ordering-backend/api/validators"
	"github.com/dulcemocka/ordering-backend/internal/coupons"
	pkgerrors "github.com/dulcemocka/ordering-backend/pkg/errors"
	"github.com/dulcemocka/ordering-backend/pkg/logger"
)

type createCouponRequest struct {
	Name            string  `json:"name" validate:"required"`
	Code            string  `json:"code" validate:"required"`
	DiscountPercent int     `json:"discount_percent" validate:"required,min=1,max=100"`
	DiscountCap     *int    `json:"discount_cap,omitempty"`
	MinimumPurchase *int    `json:"minimum_purchase,omitempty"`
	ExpiresAt       *string `json:"expires_at,omitempty"`
	Stock           *int    `json:"stock,omitempty"`
}

type updateCouponRequest struct {
	Name            *string `json:"name,omitempty"`
	DiscountPercent *int    `json:"discount_percent,omitempty"`
	DiscountCap     *int    `json:"discount_cap,omitempty"`
	MinimumPurchase *int    `json:"minimum_purchase,omitempty"`
	ExpiresAt       *string `json:"expires_at,omitempty"`
	IsActive        *bool   `json:"is_active,omitempty"`
	Stock           *int    `json:"stock,omitempty"`
}

// parseExpiry accepts RFC 3339 timestamps for coupon expiry fields.
func parseExpiry(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "expires_at must be RFC 3339")
	}
	return &parsed, nil
}

func AdminListCoupons(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context(), true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AdminCreateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCouponRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		expiresAt, err := parseExpiry(req.ExpiresAt)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		coupon, err := svc.Create(r.Context(), coupons.CreateCouponInput{
			Name:            req.Name,
			Code:            req.Code,
			DiscountPercent: req.DiscountPercent,
			DiscountCap:     req.DiscountCap,
			MinimumPurchase: req.MinimumPurchase,
			ExpiresAt:       expiresAt,
			Stock:           req.Stock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

func AdminUpdateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		couponID, err := pathUUID(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateCouponRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		expiresAt, err := parseExpiry(req.ExpiresAt)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		err = svc.Update(r.Context(), couponID, coupons.UpdateCouponInput{
			Name:            req.Name,
			DiscountPercent: req.DiscountPercent,
			DiscountCap:     req.DiscountCap,
			MinimumPurchase: req.MinimumPurchase,
			ExpiresAt:       expiresAt,
			IsActive:        req.IsActive,
			Stock:           req.Stock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

func AdminDeleteCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		couponID, err := pathUUID(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), couponID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
