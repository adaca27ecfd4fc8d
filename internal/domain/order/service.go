package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/storecore/storecore/pkg/apperr"
)

// Authorization is the payment gateway's answer to a charge attempt.
type Authorization struct {
	TransactionID string
	Authorized    bool
}

// PaymentGateway is the order side of the payment service.
type PaymentGateway interface {
	Authorize(ctx context.Context, o Order) (Authorization, error)
}

// Service orchestrates order persistence. Order rows and their items live
// in separate tables; item writes and reads fan out concurrently and the
// request waits for all of them, failing on the first error. A failed item
// write after the order row exists is not compensated.
type Service struct {
	orders   Store
	items    ItemStore
	payments PaymentGateway
}

// NewService creates an order Service with the required collaborators.
func NewService(orders Store, items ItemStore, payments PaymentGateway) *Service {
	return &Service{orders: orders, items: items, payments: payments}
}

// ItemSpec is one requested order line.
type ItemSpec struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// CreateCommand holds the input for creating an order.
type CreateCommand struct {
	AccountID  string
	Items      []ItemSpec
	CouponCode string
	Payment    PaymentDetails
}

// Create builds, validates, and persists an order. The order row is written
// first, then every item concurrently.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (Order, error) {
	if cmd.AccountID == "" {
		return Order{}, apperr.Validation("account_id", "must not be blank")
	}

	orderID := uuid.New().String()
	items := make([]Item, len(cmd.Items))
	for i, spec := range cmd.Items {
		item, err := NewItem(uuid.New().String(), orderID, spec.Name, spec.Price, spec.Quantity)
		if err != nil {
			return Order{}, err
		}
		items[i] = item
	}

	o, err := New(orderID, cmd.AccountID, items, cmd.CouponCode, cmd.Payment)
	if err != nil {
		return Order{}, err
	}

	if err := s.orders.Put(ctx, o); err != nil {
		return Order{}, errors.Wrap(err, "put order")
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, item := range o.Items {
		g.Go(func() error {
			if err := s.items.Put(ctx, item); err != nil {
				return errors.Wrapf(err, "put item %s", item.ID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Order{}, err
	}

	return o, nil
}

// Get returns one order with its items attached.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return Order{}, err
		}
		return Order{}, errors.Wrap(err, "get order")
	}

	items, err := s.items.ListByOrder(ctx, o.ID)
	if err != nil {
		return Order{}, errors.Wrap(err, "list order items")
	}
	return o.InsertItems(items), nil
}

// FindAll returns every order, items attached, hydrated concurrently.
func (s *Service) FindAll(ctx context.Context) ([]Order, error) {
	rows, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return s.hydrate(ctx, rows)
}

// FindAllByAccount returns the account's orders, items attached.
func (s *Service) FindAllByAccount(ctx context.Context, accountID string) ([]Order, error) {
	rows, err := s.orders.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders by account")
	}
	return s.hydrate(ctx, rows)
}

// hydrate fetches each order's items concurrently and attaches them. There
// is no ordering requirement between sibling fetches; the slice position
// keeps results aligned with their order.
func (s *Service) hydrate(ctx context.Context, rows []Order) ([]Order, error) {
	hydrated := make([]Order, len(rows))

	g, ctx := errgroup.WithContext(ctx)
	for i, row := range rows {
		g.Go(func() error {
			items, err := s.items.ListByOrder(ctx, row.ID)
			if err != nil {
				return errors.Wrapf(err, "list items for order %s", row.ID)
			}
			hydrated[i] = row.InsertItems(items)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return hydrated, nil
}

// UpdateStatus transitions an order to the given status.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return Order{}, err
		}
		return Order{}, errors.Wrap(err, "get order")
	}

	o = o.UpdateStatus(status)
	if err := s.orders.Update(ctx, o); err != nil {
		return Order{}, errors.Wrap(err, "update order")
	}
	return o, nil
}

// Cancel transitions an order to CANCELLED.
func (s *Service) Cancel(ctx context.Context, id string) (Order, error) {
	return s.UpdateStatus(ctx, id, StatusCancelled)
}

// Authorize charges the order through the payment gateway and records the
// outcome: PAID when authorized, FAILED otherwise. The gateway call and the
// status write are independent; neither is retried.
func (s *Service) Authorize(ctx context.Context, id string) (Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return Order{}, err
		}
		return Order{}, errors.Wrap(err, "get order")
	}

	auth, err := s.payments.Authorize(ctx, o)
	if err != nil {
		return Order{}, err
	}

	status := StatusFailed
	if auth.Authorized {
		status = StatusPaid
	}

	o = o.UpdateStatus(status)
	if err := s.orders.Update(ctx, o); err != nil {
		return Order{}, errors.Wrap(err, "update order")
	}
	return o, nil
}

// Delete removes the order row, failing with apperr.NotFoundError when the
// id is unknown.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.orders.Get(ctx, id); err != nil {
		if apperr.IsNotFound(err) {
			return err
		}
		return errors.Wrap(err, "get order")
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete order")
	}
	return nil
}
