package postgres

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/storecore/storecore/internal/domain/order"
)

const (
	insertItemSQL = `INSERT INTO order_items (id, order_id, name, price, quantity)
	VALUES ($1, $2, $3, $4, $5)`

	selectItemsByOrderSQL = `SELECT id, order_id, name, price, quantity
	FROM order_items WHERE order_id = $1`
)

var _ order.ItemStore = (*ItemStore)(nil)

// ItemStore implements order.ItemStore backed by PostgreSQL. Item writes
// arrive concurrently from the order service fan-out; each insert is an
// independent statement on the pool.
type ItemStore struct {
	db DB
}

// NewItemStore returns an ItemStore that uses the given pool.
func NewItemStore(db DB) *ItemStore {
	return &ItemStore{db: db}
}

// ListByOrder returns all line items belonging to the order.
func (s *ItemStore) ListByOrder(ctx context.Context, orderID string) ([]order.Item, error) {
	rows, err := s.db.Query(ctx, selectItemsByOrderSQL, orderID)
	if err != nil {
		return nil, errors.Wrapf(err, "list items for order %q", orderID)
	}
	defer rows.Close()

	var items []order.Item
	for rows.Next() {
		var item order.Item
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, errors.Wrap(err, "scan item")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate items")
	}
	return items, nil
}

// Put inserts one line item.
func (s *ItemStore) Put(ctx context.Context, item order.Item) error {
	_, err := s.db.Exec(ctx, insertItemSQL,
		item.ID, item.OrderID, item.Name, item.Price, item.Quantity,
	)
	if err != nil {
		return errors.Wrapf(err, "insert item %q", item.ID)
	}
	return nil
}
