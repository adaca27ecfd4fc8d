//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storecore/storecore/internal/client"
	"github.com/storecore/storecore/internal/domain/cart"
	"github.com/storecore/storecore/internal/domain/coupon"
	"github.com/storecore/storecore/internal/domain/order"
	"github.com/storecore/storecore/internal/storage/postgres"
	storageredis "github.com/storecore/storecore/internal/storage/redis"
	"github.com/storecore/storecore/pkg/apperr"
)

func TestOrderStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := postgres.NewOrderStore(pool)
	items := postgres.NewItemStore(pool)

	orderID := uuid.NewString()
	item, err := order.NewItem(uuid.NewString(), orderID, "Keyboard", decimal.NewFromInt(80), 1)
	require.NoError(t, err)

	o, err := order.New(orderID, "acc-int-1", []order.Item{item}, "SAVE10", order.PaymentDetails{
		Type: order.PaymentCredit,
		Card: &order.Card{Number: "4111111111111111", HolderName: "J Doe", Expiration: "12/30", CVV: "123"},
	})
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, o))
	require.NoError(t, items.Put(ctx, item))

	t.Run("get", func(t *testing.T) {
		got, err := store.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, o.ID, got.ID)
		assert.Equal(t, order.StatusCreated, got.Status)
		assert.True(t, got.Total.Equal(decimal.NewFromInt(80)))
		require.NotNil(t, got.Payment.Card)
		assert.Equal(t, "4111111111111111", got.Payment.Card.Number)
	})

	t.Run("duplicate id conflicts", func(t *testing.T) {
		err := store.Put(ctx, o)
		assert.True(t, apperr.IsAlreadyExists(err))
	})

	t.Run("items by order", func(t *testing.T) {
		got, err := items.ListByOrder(ctx, o.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Keyboard", got[0].Name)
	})

	t.Run("status update persists", func(t *testing.T) {
		updated := o.UpdateStatus(order.StatusPaid)
		require.NoError(t, store.Update(ctx, updated))

		got, err := store.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPaid, got.Status)
	})

	t.Run("list by account", func(t *testing.T) {
		got, err := store.ListByAccount(ctx, "acc-int-1")
		require.NoError(t, err)
		require.NotEmpty(t, got)
	})

	t.Run("delete cascades", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, o.ID))

		_, err := store.Get(ctx, o.ID)
		assert.True(t, apperr.IsNotFound(err))

		left, err := items.ListByOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.Empty(t, left)
	})
}

func TestOrderServiceAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	svc := order.NewService(
		postgres.NewOrderStore(pool),
		postgres.NewItemStore(pool),
		client.NewStubGateway(),
	)

	created, err := svc.Create(ctx, order.CreateCommand{
		AccountID: "acc-int-2",
		Items: []order.ItemSpec{
			{Name: "Monitor", Price: decimal.NewFromInt(110), Quantity: 1},
			{Name: "Cable", Price: decimal.NewFromInt(10), Quantity: 2},
		},
		Payment: order.PaymentDetails{Type: order.PaymentPix},
	})
	require.NoError(t, err)
	assert.True(t, created.Total.Equal(decimal.NewFromInt(130)))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)

	paid, err := svc.Authorize(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, paid.Status)
}

func TestCouponStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storageredis.NewCouponStore(rdb)

	c, err := coupon.New("intten", coupon.DiscountPercentage, decimal.NewFromInt(10), time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, c))

	got, err := store.Get(ctx, "INTTEN")
	require.NoError(t, err)
	assert.Equal(t, c.Code, got.Code)
	assert.True(t, got.Value.Equal(c.Value))

	t.Run("server-side expiry set", func(t *testing.T) {
		ttl := rdb.TTL(ctx, "coupon:INTTEN").Val()
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, time.Hour)
	})

	t.Run("list includes coupon", func(t *testing.T) {
		list, err := store.List(ctx)
		require.NoError(t, err)

		found := false
		for _, it := range list {
			if it.Code == "INTTEN" {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("delete then not found", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "INTTEN"))
		_, err := store.Get(ctx, "INTTEN")
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestCartStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storageredis.NewCartStore(rdb)

	c := cart.New("cart-int-1").AddItem("p1", "Keyboard", decimal.NewFromInt(10), 2)
	require.NoError(t, store.Put(ctx, c, cart.TTL))

	got, err := store.Get(ctx, "cart-int-1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Subtotal().Equal(decimal.NewFromInt(20)))

	t.Run("session expiry set", func(t *testing.T) {
		ttl := rdb.TTL(ctx, "cart:cart-int-1").Val()
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, cart.TTL)
	})

	t.Run("unknown cart not found", func(t *testing.T) {
		_, err := store.Get(ctx, "cart-int-missing")
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "cart-int-1"))
		_, err := store.Get(ctx, "cart-int-1")
		assert.True(t, apperr.IsNotFound(err))
	})
}
