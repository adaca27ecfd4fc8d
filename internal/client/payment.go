package client

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/storecore/storecore/internal/domain/order"
)

var _ order.PaymentGateway = (*StubGateway)(nil)

// StubGateway is an in-process stand-in for a real payment provider. It is
// idempotent per order id: repeating an authorization returns the recorded
// outcome instead of charging twice.
//
// Card numbers ending in "0000" are declined, everything else (including
// cardless PIX payments) is authorized. The rule is deterministic so tests
// and local environments can trigger both paths.
type StubGateway struct {
	mu       sync.Mutex
	outcomes map[string]order.Authorization
}

// NewStubGateway creates an empty stub gateway.
func NewStubGateway() *StubGateway {
	return &StubGateway{outcomes: make(map[string]order.Authorization)}
}

// Authorize records and returns the authorization outcome for the order.
func (g *StubGateway) Authorize(_ context.Context, o order.Order) (order.Authorization, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if auth, ok := g.outcomes[o.ID]; ok {
		return auth, nil
	}

	auth := order.Authorization{
		TransactionID: uuid.New().String(),
		Authorized:    g.approves(o),
	}
	g.outcomes[o.ID] = auth
	return auth, nil
}

func (g *StubGateway) approves(o order.Order) bool {
	if o.Payment.Card == nil {
		return true
	}
	return !strings.HasSuffix(o.Payment.Card.Number, "0000")
}
