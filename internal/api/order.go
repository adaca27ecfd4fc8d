package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/storecore/storecore/internal/domain/order"
	"github.com/storecore/storecore/pkg/apperr"
)

// OrderHandler serves the order endpoints.
type OrderHandler struct {
	orders *order.Service
}

func NewOrderHandler(orders *order.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type orderItemRequest struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type cardRequest struct {
	Number     string `json:"number"`
	HolderName string `json:"holder_name"`
	Expiration string `json:"expiration"`
	CVV        string `json:"cvv"`
}

type paymentRequest struct {
	Type string       `json:"type"`
	Card *cardRequest `json:"card,omitempty"`
}

type createOrderRequest struct {
	AccountID  string             `json:"account_id"`
	CouponCode string             `json:"coupon_code"`
	Items      []orderItemRequest `json:"items"`
	Payment    paymentRequest     `json:"payment"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderItemResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type orderResponse struct {
	ID         string              `json:"id"`
	AccountID  string              `json:"account_id"`
	Items      []orderItemResponse `json:"items"`
	CouponCode string              `json:"coupon_code,omitempty"`
	Total      decimal.Decimal     `json:"total"`
	Status     string              `json:"status"`
	Payment    string              `json:"payment_type"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// Card details are deliberately absent from responses.
func toOrderResponse(o order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ID:       it.ID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
		}
	}
	return orderResponse{
		ID:         o.ID,
		AccountID:  o.AccountID,
		Items:      items,
		CouponCode: o.CouponCode,
		Total:      o.Total,
		Status:     string(o.Status),
		Payment:    string(o.Payment.Type),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

// Create handles POST /api/v1/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]order.ItemSpec, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.ItemSpec{
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
		}
	}
	payment := order.PaymentDetails{Type: order.PaymentType(req.Payment.Type)}
	if req.Payment.Card != nil {
		payment.Card = &order.Card{
			Number:     req.Payment.Card.Number,
			HolderName: req.Payment.Card.HolderName,
			Expiration: req.Payment.Card.Expiration,
			CVV:        req.Payment.Card.CVV,
		}
	}

	o, err := h.orders.Create(r.Context(), order.CreateCommand{
		AccountID:  req.AccountID,
		Items:      items,
		CouponCode: req.CouponCode,
		Payment:    payment,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

// Get handles GET /api/v1/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// List handles GET /api/v1/orders, optionally filtered by account_id.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		list []order.Order
		err  error
	)
	if accountID := r.URL.Query().Get("account_id"); accountID != "" {
		list, err = h.orders.FindAllByAccount(r.Context(), accountID)
	} else {
		list, err = h.orders.FindAll(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]orderResponse, len(list))
	for i, o := range list {
		out[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, out)
}

// UpdateStatus handles PUT /api/v1/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, apperr.Validation("status", err.Error()))
		return
	}
	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// Cancel handles POST /api/v1/orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// Authorize handles POST /api/v1/orders/{id}/authorize.
func (h *OrderHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Authorize(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// Delete handles DELETE /api/v1/orders/{id}.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
