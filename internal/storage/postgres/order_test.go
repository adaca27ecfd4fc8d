package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storecore/storecore/internal/domain/order"
	"github.com/storecore/storecore/pkg/apperr"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func sampleOrder(t *testing.T) order.Order {
	t.Helper()
	item, err := order.NewItem("i-1", "o-1", "Widget", decimal.RequireFromString("10.00"), 2)
	require.NoError(t, err)

	o, err := order.New("o-1", "acc-1", []order.Item{item}, "SAVE10", order.PaymentDetails{
		Type: order.PaymentCredit,
		Card: &order.Card{Number: "4111111111111111", HolderName: "J Doe", Expiration: "12/30", CVV: "123"},
	})
	require.NoError(t, err)
	return o
}

func orderColumns() []string {
	return []string{"id", "account_id", "coupon_code", "total", "status", "payment_type", "card", "created_at", "updated_at"}
}

func TestOrderStorePut(t *testing.T) {
	mock := newMockPool(t)
	store := NewOrderStore(mock)
	o := sampleOrder(t)

	mock.ExpectExec("INSERT INTO orders").
		WithArgs(o.ID, o.AccountID, o.CouponCode, o.Total, "CREATED",
			"CREDIT", pgxmock.AnyArg(), o.CreatedAt, o.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Put(context.Background(), o))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderStoreGet(t *testing.T) {
	mock := newMockPool(t)
	store := NewOrderStore(mock)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id").
		WithArgs("o-1").
		WillReturnRows(pgxmock.NewRows(orderColumns()).AddRow(
			"o-1", "acc-1", "SAVE10", decimal.RequireFromString("20.00"), "CREATED",
			"CREDIT", []byte(`{"number":"4111111111111111","holder_name":"J Doe","expiration":"12/30","cvv":"123"}`),
			now, now,
		))

	o, err := store.Get(context.Background(), "o-1")
	require.NoError(t, err)

	assert.Equal(t, "o-1", o.ID)
	assert.Equal(t, order.StatusCreated, o.Status)
	assert.Equal(t, order.PaymentCredit, o.Payment.Type)
	require.NotNil(t, o.Payment.Card)
	assert.Equal(t, "J Doe", o.Payment.Card.HolderName)
	assert.True(t, decimal.RequireFromString("20.00").Equal(o.Total))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderStoreGet_NoCard(t *testing.T) {
	mock := newMockPool(t)
	store := NewOrderStore(mock)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id").
		WithArgs("o-2").
		WillReturnRows(pgxmock.NewRows(orderColumns()).AddRow(
			"o-2", "acc-1", "", decimal.RequireFromString("15.00"), "PAID",
			"PIX", []byte(nil), now, now,
		))

	o, err := store.Get(context.Background(), "o-2")
	require.NoError(t, err)
	assert.Nil(t, o.Payment.Card)
	assert.Equal(t, order.StatusPaid, o.Status)
}

func TestOrderStoreGet_NotFound(t *testing.T) {
	mock := newMockPool(t)
	store := NewOrderStore(mock)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id").
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.Get(context.Background(), "ghost")
	assert.True(t, apperr.IsNotFound(err))
}

func TestOrderStoreListByAccount(t *testing.T) {
	mock := newMockPool(t)
	store := NewOrderStore(mock)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM orders WHERE account_id").
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows(orderColumns()).
			AddRow("o-1", "acc-1", "", decimal.RequireFromString("20.00"), "CREATED", "PIX", []byte(nil), now, now).
			AddRow("o-2", "acc-1", "", decimal.RequireFromString("35.00"), "PAID", "PIX", []byte(nil), now, now),
		)

	orders, err := store.ListByAccount(context.Background(), "acc-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "o-1", orders[0].ID)
	assert.Equal(t, "o-2", orders[1].ID)
}

func TestOrderStoreUpdate(t *testing.T) {
	mock := newMockPool(t)
	store := NewOrderStore(mock)
	o := sampleOrder(t).UpdateStatus(order.StatusPaid)

	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(o.ID, "PAID", o.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.Update(context.Background(), o))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderStoreUpdate_NotFound(t *testing.T) {
	mock := newMockPool(t)
	store := NewOrderStore(mock)
	o := sampleOrder(t)

	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(o.ID, "CREATED", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.Update(context.Background(), o)
	assert.True(t, apperr.IsNotFound(err))
}

func TestOrderStoreDelete(t *testing.T) {
	mock := newMockPool(t)
	store := NewOrderStore(mock)

	mock.ExpectExec("DELETE FROM orders").
		WithArgs("o-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, store.Delete(context.Background(), "o-1"))
}

func TestItemStorePut(t *testing.T) {
	mock := newMockPool(t)
	store := NewItemStore(mock)

	item, err := order.NewItem("i-1", "o-1", "Widget", decimal.RequireFromString("10.00"), 2)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(item.ID, item.OrderID, item.Name, item.Price, item.Quantity).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Put(context.Background(), item))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestItemStoreListByOrder(t *testing.T) {
	mock := newMockPool(t)
	store := NewItemStore(mock)

	mock.ExpectQuery("SELECT (.+) FROM order_items WHERE order_id").
		WithArgs("o-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_id", "name", "price", "quantity"}).
			AddRow("i-1", "o-1", "Widget", decimal.RequireFromString("10.00"), 2).
			AddRow("i-2", "o-1", "Gadget", decimal.RequireFromString("30.00"), 1),
		)

	items, err := store.ListByOrder(context.Background(), "o-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Widget", items[0].Name)
	assert.Equal(t, 1, items[1].Quantity)
}
