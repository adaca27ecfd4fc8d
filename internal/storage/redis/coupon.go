package redis

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/storecore/storecore/internal/domain/coupon"
	"github.com/storecore/storecore/pkg/apperr"
)

const couponKeyPrefix = "coupon:"

var _ coupon.Store = (*CouponStore)(nil)

// CouponStore implements coupon.Store backed by Redis. Each record's expiry
// equals the coupon's own time-to-live, so expired coupons evict themselves.
type CouponStore struct {
	client *redis.Client
}

// NewCouponStore returns a CouponStore that uses the given client.
func NewCouponStore(client *redis.Client) *CouponStore {
	return &CouponStore{client: client}
}

// Get loads a coupon by its code.
func (s *CouponStore) Get(ctx context.Context, code string) (coupon.Coupon, error) {
	raw, err := s.client.Get(ctx, couponKeyPrefix+code).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return coupon.Coupon{}, apperr.NotFound("coupon", code)
		}
		return coupon.Coupon{}, errors.Wrapf(err, "get coupon %q", code)
	}

	var c coupon.Coupon
	if err := json.Unmarshal(raw, &c); err != nil {
		return coupon.Coupon{}, errors.Wrapf(err, "unmarshal coupon %q", code)
	}
	return c, nil
}

// List scans all coupon records. Records that expire mid-scan are skipped.
func (s *CouponStore) List(ctx context.Context) ([]coupon.Coupon, error) {
	var coupons []coupon.Coupon

	iter := s.client.Scan(ctx, 0, couponKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		raw, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, errors.Wrapf(err, "get coupon key %q", iter.Val())
		}

		var c coupon.Coupon
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, errors.Wrapf(err, "unmarshal coupon key %q", iter.Val())
		}
		coupons = append(coupons, c)
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "scan coupons")
	}

	return coupons, nil
}

// Put stores the coupon with an expiry equal to its remaining lifetime.
func (s *CouponStore) Put(ctx context.Context, c coupon.Coupon) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return errors.Wrapf(err, "marshal coupon %q", c.Code)
	}

	if err := s.client.Set(ctx, couponKeyPrefix+c.Code, raw, c.TimeToLive()).Err(); err != nil {
		return errors.Wrapf(err, "set coupon %q", c.Code)
	}
	return nil
}

// Delete removes the coupon record.
func (s *CouponStore) Delete(ctx context.Context, code string) error {
	if err := s.client.Del(ctx, couponKeyPrefix+code).Err(); err != nil {
		return errors.Wrapf(err, "delete coupon %q", code)
	}
	return nil
}
