package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/storecore/storecore/internal/domain/cart"
)

// CartHandler serves the cart endpoints. Every mutation returns the full
// cart state so clients never need a follow-up read.
type CartHandler struct {
	carts *cart.Service
}

func NewCartHandler(carts *cart.Service) *CartHandler {
	return &CartHandler{carts: carts}
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

type cartItemResponse struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type cartResponse struct {
	ID       string             `json:"id"`
	Items    []cartItemResponse `json:"items"`
	Coupon   *couponResponse    `json:"coupon,omitempty"`
	Subtotal decimal.Decimal    `json:"subtotal"`
	Total    decimal.Decimal    `json:"total"`
}

func toCartResponse(c cart.Cart) cartResponse {
	items := make([]cartItemResponse, len(c.Items))
	for i, it := range c.Items {
		items[i] = cartItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		}
	}
	resp := cartResponse{
		ID:       c.ID,
		Items:    items,
		Subtotal: c.Subtotal(),
		Total:    c.Total(),
	}
	if c.Coupon != nil {
		cr := toCouponResponse(*c.Coupon)
		resp.Coupon = &cr
	}
	return resp
}

// Get handles GET /api/v1/carts/{cartID}.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), chi.URLParam(r, "cartID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// AddItem handles POST /api/v1/carts/{cartID}/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	c, err := h.carts.AddItem(r.Context(), chi.URLParam(r, "cartID"), req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// IncreaseItem handles POST /api/v1/carts/{cartID}/items/{productID}/increase.
func (h *CartHandler) IncreaseItem(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.carts.IncreaseItem(r.Context(), chi.URLParam(r, "cartID"), chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// DecreaseItem handles POST /api/v1/carts/{cartID}/items/{productID}/decrease.
func (h *CartHandler) DecreaseItem(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.carts.DecreaseItem(r.Context(), chi.URLParam(r, "cartID"), chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// RemoveItem handles DELETE /api/v1/carts/{cartID}/items/{productID}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.RemoveItem(r.Context(), chi.URLParam(r, "cartID"), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// ApplyCoupon handles PUT /api/v1/carts/{cartID}/coupon.
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req applyCouponRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.carts.ApplyCoupon(r.Context(), chi.URLParam(r, "cartID"), req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// RemoveCoupon handles DELETE /api/v1/carts/{cartID}/coupon.
func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.RemoveCoupon(r.Context(), chi.URLParam(r, "cartID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// Checkout handles POST /api/v1/carts/{cartID}/checkout. The final cart
// state is returned so the caller can assemble the order from it.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Checkout(r.Context(), chi.URLParam(r, "cartID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// Delete handles DELETE /api/v1/carts/{cartID}.
func (h *CartHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Delete(r.Context(), chi.URLParam(r, "cartID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
