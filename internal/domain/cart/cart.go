// Package cart implements the shopping cart aggregate. A Cart is an
// immutable value: every mutation returns a new Cart, so a caller never
// observes a partially updated state.
package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storecore/storecore/internal/domain/coupon"
)

// Item is a single cart line: one product at a unit price with a positive
// quantity. An item with quantity <= 0 never exists in a cart; decreasing
// past zero removes the line instead.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Cart aggregates items unique by product id plus an optional coupon
// snapshot. The snapshot is denormalized at apply time and lives only as
// long as the cart record itself.
type Cart struct {
	ID     string         `json:"id"`
	Items  []Item         `json:"items"`
	Coupon *coupon.Coupon `json:"coupon,omitempty"`
}

// New returns an empty cart with the given id.
func New(id string) Cart {
	return Cart{ID: id}
}

// AddItem appends a new line for the product. Adding a product that is
// already in the cart is a no-op: quantities are not merged, the first
// write wins.
func (c Cart) AddItem(productID, name string, price decimal.Decimal, quantity int) Cart {
	if c.contains(productID) {
		return c
	}

	items := make([]Item, len(c.Items), len(c.Items)+1)
	copy(items, c.Items)
	c.Items = append(items, Item{
		ProductID: productID,
		Name:      name,
		Price:     price,
		Quantity:  quantity,
	})
	return c
}

// IncreaseItemQuantity raises the quantity of an existing line by qty.
// Unknown products are silently ignored.
func (c Cart) IncreaseItemQuantity(productID string, qty int) Cart {
	if !c.contains(productID) {
		return c
	}

	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += qty
		}
	}
	c.Items = items
	return c
}

// DecreaseItemQuantity lowers the quantity of an existing line by qty.
// When qty reaches or exceeds the current quantity the line is removed
// entirely; a line never stays with quantity <= 0. Unknown products are
// silently ignored.
func (c Cart) DecreaseItemQuantity(productID string, qty int) Cart {
	for _, item := range c.Items {
		if item.ProductID != productID {
			continue
		}
		if item.Quantity <= qty {
			return c.RemoveItem(productID)
		}

		items := make([]Item, len(c.Items))
		copy(items, c.Items)
		for i := range items {
			if items[i].ProductID == productID {
				items[i].Quantity -= qty
			}
		}
		c.Items = items
		return c
	}
	return c
}

// RemoveItem drops the line for the product, no-op when absent.
func (c Cart) RemoveItem(productID string) Cart {
	if !c.contains(productID) {
		return c
	}

	items := make([]Item, 0, len(c.Items)-1)
	for _, item := range c.Items {
		if item.ProductID != productID {
			items = append(items, item)
		}
	}
	c.Items = items
	return c
}

// ApplyCoupon snapshots the coupon into the cart, replacing any previous
// one. Validity is not checked here: an expired coupon simply contributes
// nothing at Total time.
func (c Cart) ApplyCoupon(cp coupon.Coupon) Cart {
	c.Coupon = &cp
	return c
}

// RemoveCoupon drops the coupon snapshot.
func (c Cart) RemoveCoupon() Cart {
	c.Coupon = nil
	return c
}

// IsEmpty reports whether the cart holds no items.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Subtotal is the sum of price * quantity over all lines, before discounts.
func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}

// Total is the subtotal after the coupon snapshot, when present and still
// valid, has been applied.
func (c Cart) Total() decimal.Decimal {
	subtotal := c.Subtotal()
	if c.Coupon == nil {
		return subtotal
	}
	return c.Coupon.ApplyDiscount(subtotal)
}

func (c Cart) contains(productID string) bool {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// Store defines persistence operations for carts. Records carry a fixed
// time-to-live independent of any coupon expiry. Implementations return
// apperr.NotFoundError when the cart id is unknown.
type Store interface {
	Get(ctx context.Context, id string) (Cart, error)
	Put(ctx context.Context, c Cart, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
