package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/storecore/storecore/internal/domain/cart"
	"github.com/storecore/storecore/pkg/apperr"
)

const cartKeyPrefix = "cart:"

var _ cart.Store = (*CartStore)(nil)

// CartStore implements cart.Store backed by Redis.
type CartStore struct {
	client *redis.Client
}

// NewCartStore returns a CartStore that uses the given client.
func NewCartStore(client *redis.Client) *CartStore {
	return &CartStore{client: client}
}

// Get loads a cart by id. A missing or expired record maps to
// apperr.NotFoundError.
func (s *CartStore) Get(ctx context.Context, id string) (cart.Cart, error) {
	raw, err := s.client.Get(ctx, cartKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return cart.Cart{}, apperr.NotFound("cart", id)
		}
		return cart.Cart{}, errors.Wrapf(err, "get cart %q", id)
	}

	var c cart.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return cart.Cart{}, errors.Wrapf(err, "unmarshal cart %q", id)
	}
	return c, nil
}

// Put stores the cart with the given time-to-live, resetting the expiry of
// an existing record.
func (s *CartStore) Put(ctx context.Context, c cart.Cart, ttl time.Duration) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return errors.Wrapf(err, "marshal cart %q", c.ID)
	}

	if err := s.client.Set(ctx, cartKeyPrefix+c.ID, raw, ttl).Err(); err != nil {
		return errors.Wrapf(err, "set cart %q", c.ID)
	}
	return nil
}

// Delete removes the cart record. Deleting an absent record is not an error.
func (s *CartStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, cartKeyPrefix+id).Err(); err != nil {
		return errors.Wrapf(err, "delete cart %q", id)
	}
	return nil
}
