package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/storecore/storecore/internal/domain/order"
	"github.com/storecore/storecore/pkg/apperr"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, account_id, coupon_code, total, status, payment_type, card, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateOrderSQL = `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`

	selectOrderSQL = `SELECT id, account_id, coupon_code, total, status, payment_type, card, created_at, updated_at
	FROM orders WHERE id = $1`

	selectAllOrdersSQL = `SELECT id, account_id, coupon_code, total, status, payment_type, card, created_at, updated_at
	FROM orders ORDER BY created_at DESC`

	selectOrdersByAccountSQL = `SELECT id, account_id, coupon_code, total, status, payment_type, card, created_at, updated_at
	FROM orders WHERE account_id = $1 ORDER BY created_at DESC`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint hits.
const pgUniqueViolation = "23505"

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store backed by PostgreSQL. The optional card
// descriptor is serialized into a JSONB column; items live in their own
// table (see ItemStore).
type OrderStore struct {
	db DB
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(db DB) *OrderStore {
	return &OrderStore{db: db}
}

// Get loads one order row without its items.
func (s *OrderStore) Get(ctx context.Context, id string) (order.Order, error) {
	row := s.db.QueryRow(ctx, selectOrderSQL, id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, apperr.NotFound("order", id)
		}
		return order.Order{}, errors.Wrapf(err, "get order %q", id)
	}
	return o, nil
}

// ListAll returns every order row, newest first.
func (s *OrderStore) ListAll(ctx context.Context) ([]order.Order, error) {
	rows, err := s.db.Query(ctx, selectAllOrdersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	defer rows.Close()

	return collectOrders(rows)
}

// ListByAccount returns the account's order rows, newest first.
func (s *OrderStore) ListByAccount(ctx context.Context, accountID string) ([]order.Order, error) {
	rows, err := s.db.Query(ctx, selectOrdersByAccountSQL, accountID)
	if err != nil {
		return nil, errors.Wrapf(err, "list orders for account %q", accountID)
	}
	defer rows.Close()

	return collectOrders(rows)
}

// Put inserts a new order row.
func (s *OrderStore) Put(ctx context.Context, o order.Order) error {
	card, err := marshalCard(o.Payment.Card)
	if err != nil {
		return errors.Wrapf(err, "marshal card for order %q", o.ID)
	}

	_, err = s.db.Exec(ctx, insertOrderSQL,
		o.ID, o.AccountID, o.CouponCode, o.Total, string(o.Status),
		string(o.Payment.Type), card, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperr.AlreadyExists("order", o.ID)
		}
		return errors.Wrapf(err, "insert order %q", o.ID)
	}
	return nil
}

// Update persists the mutable fields of an order row. Last writer wins;
// there is no version check.
func (s *OrderStore) Update(ctx context.Context, o order.Order) error {
	tag, err := s.db.Exec(ctx, updateOrderSQL, o.ID, string(o.Status), o.UpdatedAt)
	if err != nil {
		return errors.Wrapf(err, "update order %q", o.ID)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("order", o.ID)
	}
	return nil
}

// Delete removes an order row; its items cascade.
func (s *OrderStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, deleteOrderSQL, id); err != nil {
		return errors.Wrapf(err, "delete order %q", id)
	}
	return nil
}

func scanOrder(row pgx.Row) (order.Order, error) {
	var (
		o           order.Order
		status      string
		paymentType string
		card        []byte
	)
	err := row.Scan(
		&o.ID, &o.AccountID, &o.CouponCode, &o.Total, &status,
		&paymentType, &card, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return order.Order{}, err
	}

	o.Status = order.Status(status)
	o.Payment.Type = order.PaymentType(paymentType)
	if len(card) > 0 {
		var c order.Card
		if err := json.Unmarshal(card, &c); err != nil {
			return order.Order{}, errors.Wrap(err, "unmarshal card")
		}
		o.Payment.Card = &c
	}
	return o, nil
}

func collectOrders(rows pgx.Rows) ([]order.Order, error) {
	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate orders")
	}
	return orders, nil
}

func marshalCard(c *order.Card) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(c)
}
