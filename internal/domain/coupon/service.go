package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/storecore/storecore/pkg/apperr"
)

// Service orchestrates coupon persistence around the aggregate: existence
// and uniqueness checks live here, all field validation lives in the
// aggregate itself.
type Service struct {
	store Store
}

// NewService creates a coupon Service backed by the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateCommand holds the input for creating or updating a coupon.
type CreateCommand struct {
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	ExpiresAt    time.Time
}

// Create validates and persists a new coupon. It fails with
// apperr.AlreadyExistsError when the code is already taken.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (Coupon, error) {
	c, err := New(cmd.Code, cmd.DiscountType, cmd.Value, cmd.ExpiresAt)
	if err != nil {
		return Coupon{}, err
	}

	if _, err := s.store.Get(ctx, c.Code); err == nil {
		return Coupon{}, apperr.AlreadyExists("coupon", c.Code)
	} else if !apperr.IsNotFound(err) {
		return Coupon{}, errors.Wrap(err, "check coupon existence")
	}

	if err := s.store.Put(ctx, c); err != nil {
		return Coupon{}, errors.Wrap(err, "put coupon")
	}
	return c, nil
}

// Update replaces the discount rule and expiration of an existing coupon.
func (s *Service) Update(ctx context.Context, cmd CreateCommand) (Coupon, error) {
	current, err := s.Get(ctx, cmd.Code)
	if err != nil {
		return Coupon{}, err
	}

	updated, err := current.Update(cmd.DiscountType, cmd.Value, cmd.ExpiresAt)
	if err != nil {
		return Coupon{}, err
	}

	if err := s.store.Put(ctx, updated); err != nil {
		return Coupon{}, errors.Wrap(err, "put coupon")
	}
	return updated, nil
}

// Get returns the coupon with the given code.
func (s *Service) Get(ctx context.Context, code string) (Coupon, error) {
	c, err := s.store.Get(ctx, NormalizeCode(code))
	if err != nil {
		if apperr.IsNotFound(err) {
			return Coupon{}, err
		}
		return Coupon{}, errors.Wrap(err, "get coupon")
	}
	return c, nil
}

// List returns all stored coupons.
func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	coupons, err := s.store.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}
	return coupons, nil
}

// Delete removes the coupon with the given code, failing with
// apperr.NotFoundError when it does not exist.
func (s *Service) Delete(ctx context.Context, code string) error {
	code = NormalizeCode(code)
	if _, err := s.Get(ctx, code); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, code); err != nil {
		return errors.Wrap(err, "delete coupon")
	}
	return nil
}

// NormalizeCode maps a user-supplied code to its canonical upper-case form.
// Every lookup path must pass through this, matching what New does at
// construction.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
