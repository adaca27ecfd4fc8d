package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/storecore/storecore/internal/domain/coupon"
	"github.com/storecore/storecore/pkg/apperr"
)

// TTL is the fixed store expiry for cart records. It is independent of the
// expiry of any coupon snapshotted into the cart.
const TTL = 15 * time.Minute

// Product is the stock service's view of a purchasable item.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// StockClient is the checkout side of the stock service.
type StockClient interface {
	FindByID(ctx context.Context, productID string) (Product, error)
	DecreaseQuantity(ctx context.Context, productID string, amount int) error
}

// Service orchestrates cart persistence around the aggregate. Mutations load
// the cart (creating it on first touch), apply a pure aggregate method, and
// persist the result, or delete the record when the cart became empty.
type Service struct {
	carts   Store
	coupons coupon.Store
	stock   StockClient
}

// NewService creates a cart Service with the required collaborators.
func NewService(carts Store, coupons coupon.Store, stock StockClient) *Service {
	return &Service{carts: carts, coupons: coupons, stock: stock}
}

// Get returns the cart with the given id.
func (s *Service) Get(ctx context.Context, id string) (Cart, error) {
	c, err := s.carts.Get(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return Cart{}, err
		}
		return Cart{}, errors.Wrap(err, "get cart")
	}
	return c, nil
}

// AddItem resolves the product against the stock service and appends it to
// the cart, creating the cart when it does not exist yet. Re-adding a
// product already in the cart is a no-op.
func (s *Service) AddItem(ctx context.Context, cartID, productID string, quantity int) (Cart, error) {
	if quantity <= 0 {
		return Cart{}, apperr.Validation("quantity", "must be greater than zero")
	}

	p, err := s.stock.FindByID(ctx, productID)
	if err != nil {
		return Cart{}, err
	}

	c, err := s.loadOrCreate(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}

	c = c.AddItem(p.ID, p.Name, p.Price, quantity)
	return c, s.put(ctx, c)
}

// IncreaseItem raises the quantity of a line; unknown products are ignored.
// A non-positive qty falls back to 1.
func (s *Service) IncreaseItem(ctx context.Context, cartID, productID string, qty int) (Cart, error) {
	if qty <= 0 {
		qty = 1
	}
	c, err := s.loadOrCreate(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}

	c = c.IncreaseItemQuantity(productID, qty)
	return c, s.put(ctx, c)
}

// DecreaseItem lowers the quantity of a line, removing the line when it
// reaches zero. When the cart ends up empty its record is deleted rather
// than persisted empty. A non-positive qty falls back to 1.
func (s *Service) DecreaseItem(ctx context.Context, cartID, productID string, qty int) (Cart, error) {
	if qty <= 0 {
		qty = 1
	}
	c, err := s.Get(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}

	c = c.DecreaseItemQuantity(productID, qty)
	return c, s.putOrDelete(ctx, c)
}

// RemoveItem drops a line entirely, deleting the cart record when it was
// the last one.
func (s *Service) RemoveItem(ctx context.Context, cartID, productID string) (Cart, error) {
	c, err := s.Get(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}

	c = c.RemoveItem(productID)
	return c, s.putOrDelete(ctx, c)
}

// ApplyCoupon looks up a live coupon by code and snapshots it into the
// cart. The code is normalized first; coupons are stored under their
// canonical upper-case code.
func (s *Service) ApplyCoupon(ctx context.Context, cartID, code string) (Cart, error) {
	cp, err := s.coupons.Get(ctx, coupon.NormalizeCode(code))
	if err != nil {
		if apperr.IsNotFound(err) {
			return Cart{}, err
		}
		return Cart{}, errors.Wrap(err, "get coupon")
	}

	c, err := s.loadOrCreate(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}

	c = c.ApplyCoupon(cp)
	return c, s.put(ctx, c)
}

// RemoveCoupon drops the coupon snapshot from the cart.
func (s *Service) RemoveCoupon(ctx context.Context, cartID string) (Cart, error) {
	c, err := s.Get(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}

	c = c.RemoveCoupon()
	return c, s.put(ctx, c)
}

// Delete removes the cart record regardless of its contents.
func (s *Service) Delete(ctx context.Context, cartID string) error {
	if err := s.carts.Delete(ctx, cartID); err != nil {
		return errors.Wrap(err, "delete cart")
	}
	return nil
}

// Checkout decrements stock for every cart line concurrently and deletes
// the cart. Decrements are fire-together, wait-for-all: the first failure
// aborts the wait and propagates, already-issued decrements are not
// compensated.
func (s *Service) Checkout(ctx context.Context, cartID string) (Cart, error) {
	c, err := s.Get(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	if c.IsEmpty() {
		return Cart{}, apperr.Validation("items", "cart is empty")
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, item := range c.Items {
		g.Go(func() error {
			return s.stock.DecreaseQuantity(ctx, item.ProductID, item.Quantity)
		})
	}
	if err := g.Wait(); err != nil {
		return Cart{}, err
	}

	if err := s.carts.Delete(ctx, c.ID); err != nil {
		return Cart{}, errors.Wrap(err, "delete cart")
	}
	return c, nil
}

func (s *Service) loadOrCreate(ctx context.Context, id string) (Cart, error) {
	c, err := s.carts.Get(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return New(id), nil
		}
		return Cart{}, errors.Wrap(err, "get cart")
	}
	return c, nil
}

func (s *Service) put(ctx context.Context, c Cart) error {
	if err := s.carts.Put(ctx, c, TTL); err != nil {
		return errors.Wrap(err, "put cart")
	}
	return nil
}

// putOrDelete persists the cart, unless the mutation emptied it, in which
// case the record is deleted instead of being stored empty.
func (s *Service) putOrDelete(ctx context.Context, c Cart) error {
	if c.IsEmpty() {
		if err := s.carts.Delete(ctx, c.ID); err != nil {
			return errors.Wrap(err, "delete cart")
		}
		return nil
	}
	return s.put(ctx, c)
}
