// Package coupon implements the discount coupon aggregate: an immutable
// descriptor combining a discount rule with an expiration instant.
package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storecore/storecore/pkg/apperr"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the subtotal.
	DiscountPercentage DiscountType = "PERCENTAGE"
	// DiscountFixed applies a fixed monetary discount floored at zero.
	DiscountFixed DiscountType = "FIXED"
)

var hundred = decimal.NewFromInt(100)

// Coupon is an immutable discount descriptor. The code is normalized to
// upper case at construction and never changes afterwards.
type Coupon struct {
	Code         string          `json:"code"`
	DiscountType DiscountType    `json:"discount_type"`
	Value        decimal.Decimal `json:"value"`
	ExpiresAt    time.Time       `json:"expires_at"`
}

// New validates all fields and returns a Coupon. The code must be non-blank,
// the value positive (and at most 100 for percentage discounts), and the
// expiration strictly in the future.
func New(code string, discountType DiscountType, value decimal.Decimal, expiresAt time.Time) (Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Coupon{}, apperr.Validation("code", "must not be blank")
	}
	if err := validateRule(discountType, value, expiresAt); err != nil {
		return Coupon{}, err
	}

	return Coupon{
		Code:         code,
		DiscountType: discountType,
		Value:        value,
		ExpiresAt:    expiresAt,
	}, nil
}

// Update returns a copy with a new discount rule and expiration. The code is
// immutable and carried over unchanged.
func (c Coupon) Update(discountType DiscountType, value decimal.Decimal, expiresAt time.Time) (Coupon, error) {
	if err := validateRule(discountType, value, expiresAt); err != nil {
		return Coupon{}, err
	}

	c.DiscountType = discountType
	c.Value = value
	c.ExpiresAt = expiresAt
	return c, nil
}

func validateRule(discountType DiscountType, value decimal.Decimal, expiresAt time.Time) error {
	switch discountType {
	case DiscountPercentage, DiscountFixed:
	default:
		return apperr.Validation("discount_type", "must be PERCENTAGE or FIXED")
	}
	if !value.IsPositive() {
		return apperr.Validation("value", "must be greater than zero")
	}
	if discountType == DiscountPercentage && value.GreaterThan(hundred) {
		return apperr.Validation("value", "percentage discount must not exceed 100")
	}
	if !expiresAt.After(time.Now()) {
		return apperr.Validation("expires_at", "must be in the future")
	}
	return nil
}

// IsValid reports whether the coupon has not yet expired.
func (c Coupon) IsValid() bool {
	return c.ExpiresAt.After(time.Now())
}

// ApplyDiscount returns the amount after applying the coupon. An expired
// coupon is a silent no-op rather than an error. The result never goes
// below zero.
func (c Coupon) ApplyDiscount(amount decimal.Decimal) decimal.Decimal {
	if !c.IsValid() {
		return amount
	}

	var discounted decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		discounted = amount.Mul(hundred.Sub(c.Value)).Div(hundred)
	case DiscountFixed:
		discounted = amount.Sub(c.Value)
	default:
		return amount
	}

	if discounted.IsNegative() {
		return decimal.Zero
	}
	return discounted
}

// TimeToLive returns the remaining coupon lifetime. The persistence layer
// uses it as the store expiry so a coupon record never outlives the coupon.
func (c Coupon) TimeToLive() time.Duration {
	return time.Until(c.ExpiresAt)
}

// Store defines persistence operations for coupons. Implementations return
// apperr.NotFoundError when a code is unknown.
type Store interface {
	Get(ctx context.Context, code string) (Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
	Put(ctx context.Context, c Coupon) error
	Delete(ctx context.Context, code string) error
}
