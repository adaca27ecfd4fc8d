// Package order implements the order aggregate: a validated collection of
// line items with payment details, a monetary total, and a status lifecycle.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storecore/storecore/pkg/apperr"
)

// Status is the order lifecycle state. Any status is reachable from any
// other; PAID, CANCELLED, and FAILED are terminal by convention only.
type Status string

const (
	StatusCreated        Status = "CREATED"
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusPaid           Status = "PAID"
	StatusCancelled      Status = "CANCELLED"
	StatusFailed         Status = "FAILED"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusCreated, StatusPendingPayment, StatusPaid, StatusCancelled, StatusFailed:
		return Status(s), nil
	default:
		return "", apperr.Validation("status", "unknown order status")
	}
}

// PaymentType is the payment method selected at checkout.
type PaymentType string

const (
	PaymentPix    PaymentType = "PIX"
	PaymentCredit PaymentType = "CREDIT"
	PaymentDebit  PaymentType = "DEBIT"
)

// Card holds a payment card descriptor.
type Card struct {
	Number     string `json:"number"`
	HolderName string `json:"holder_name"`
	Expiration string `json:"expiration"`
	CVV        string `json:"cvv"`
}

// PaymentDetails combines a payment method with its optional card. A card
// must be present exactly when the method is card-based.
type PaymentDetails struct {
	Type PaymentType `json:"type"`
	Card *Card       `json:"card,omitempty"`
}

func (p PaymentDetails) requiresCard() bool {
	return p.Type == PaymentCredit || p.Type == PaymentDebit
}

func (p PaymentDetails) validate() error {
	switch p.Type {
	case PaymentPix, PaymentCredit, PaymentDebit:
	default:
		return apperr.Validation("payment_type", "unknown payment type")
	}
	if p.requiresCard() && p.Card == nil {
		return apperr.Validation("card", "card is required for credit and debit payments")
	}
	if !p.requiresCard() && p.Card != nil {
		return apperr.Validation("card", "card must not be set for non-card payments")
	}
	return nil
}

// Item is a single order line. Items are created once and never mutated.
type Item struct {
	ID       string
	OrderID  string
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// NewItem validates and returns an order line item.
func NewItem(id, orderID, name string, price decimal.Decimal, quantity int) (Item, error) {
	if name == "" {
		return Item{}, apperr.Validation("name", "must not be blank")
	}
	if !price.IsPositive() {
		return Item{}, apperr.Validation("price", "must be greater than zero")
	}
	if quantity <= 0 {
		return Item{}, apperr.Validation("quantity", "must be greater than zero")
	}

	return Item{
		ID:       id,
		OrderID:  orderID,
		Name:     name,
		Price:    price,
		Quantity: quantity,
	}, nil
}

// LineTotal is price * quantity for this item.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is the order aggregate. Like Cart, it is an immutable value: status
// transitions return new Order values. The total is fixed at creation time;
// coupon discounting is a cart-layer concern and the coupon code is carried
// only as a reference.
type Order struct {
	ID         string
	AccountID  string
	Items      []Item
	CouponCode string
	Total      decimal.Decimal
	Status     Status
	Payment    PaymentDetails
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// New builds and validates an order from already-validated items. The total
// is the sum of line totals and must be strictly positive, which also rules
// out an empty item list.
func New(id, accountID string, items []Item, couponCode string, payment PaymentDetails) (Order, error) {
	if err := payment.validate(); err != nil {
		return Order{}, err
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	if !total.IsPositive() {
		return Order{}, apperr.Validation("items", "order total must be greater than zero")
	}

	now := time.Now()
	return Order{
		ID:         id,
		AccountID:  accountID,
		Items:      items,
		CouponCode: couponCode,
		Total:      total,
		Status:     StatusCreated,
		Payment:    payment,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// InsertItems replaces the item collection wholesale. It exists to attach
// items loaded from their own table after the order row itself; the stored
// total is kept as-is.
func (o Order) InsertItems(items []Item) Order {
	o.Items = items
	return o
}

// UpdateStatus replaces the status and stamps UpdatedAt. No transition
// graph is enforced.
func (o Order) UpdateStatus(status Status) Order {
	o.Status = status
	o.UpdatedAt = time.Now()
	return o
}

// Cancel transitions the order to CANCELLED.
func (o Order) Cancel() Order {
	return o.UpdateStatus(StatusCancelled)
}

// Store defines persistence operations for order rows. Implementations
// return apperr.NotFoundError when an order id is unknown.
type Store interface {
	Get(ctx context.Context, id string) (Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	ListByAccount(ctx context.Context, accountID string) ([]Order, error)
	Put(ctx context.Context, o Order) error
	Update(ctx context.Context, o Order) error
	Delete(ctx context.Context, id string) error
}

// ItemStore defines persistence operations for order line items, stored
// separately from their order row.
type ItemStore interface {
	ListByOrder(ctx context.Context, orderID string) ([]Item, error)
	Put(ctx context.Context, item Item) error
}
