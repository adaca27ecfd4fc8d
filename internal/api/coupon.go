package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/storecore/storecore/internal/domain/coupon"
)

// CouponHandler serves the coupon CRUD endpoints.
type CouponHandler struct {
	coupons *coupon.Service
}

func NewCouponHandler(coupons *coupon.Service) *CouponHandler {
	return &CouponHandler{coupons: coupons}
}

type couponRequest struct {
	Code         string          `json:"code"`
	DiscountType string          `json:"discount_type"`
	Value        decimal.Decimal `json:"value"`
	ExpiresAt    time.Time       `json:"expires_at"`
}

type couponResponse struct {
	Code         string          `json:"code"`
	DiscountType string          `json:"discount_type"`
	Value        decimal.Decimal `json:"value"`
	ExpiresAt    time.Time       `json:"expires_at"`
}

func toCouponResponse(c coupon.Coupon) couponResponse {
	return couponResponse{
		Code:         c.Code,
		DiscountType: string(c.DiscountType),
		Value:        c.Value,
		ExpiresAt:    c.ExpiresAt,
	}
}

// Create handles POST /api/v1/coupons.
func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.coupons.Create(r.Context(), coupon.CreateCommand{
		Code:         req.Code,
		DiscountType: coupon.DiscountType(req.DiscountType),
		Value:        req.Value,
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCouponResponse(c))
}

// Update handles PUT /api/v1/coupons/{code}. The code in the path wins over
// any code in the body.
func (h *CouponHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.coupons.Update(r.Context(), coupon.CreateCommand{
		Code:         chi.URLParam(r, "code"),
		DiscountType: coupon.DiscountType(req.DiscountType),
		Value:        req.Value,
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCouponResponse(c))
}

// Get handles GET /api/v1/coupons/{code}.
func (h *CouponHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.coupons.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCouponResponse(c))
}

// List handles GET /api/v1/coupons.
func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.coupons.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]couponResponse, len(list))
	for i, c := range list {
		out[i] = toCouponResponse(c)
	}
	writeJSON(w, http.StatusOK, out)
}

// Delete handles DELETE /api/v1/coupons/{code}.
func (h *CouponHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.coupons.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
