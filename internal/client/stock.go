// Package client holds the HTTP and stub implementations of the external
// collaborator interfaces the domain services depend on.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/storecore/storecore/internal/domain/cart"
	"github.com/storecore/storecore/pkg/apperr"
)

var _ cart.StockClient = (*Stock)(nil)

// Stock is the HTTP client for the stock service. Transport errors and
// unexpected statuses surface as apperr.ExternalServiceError; a 404 maps to
// apperr.NotFoundError so callers can distinguish an unknown product from
// an unavailable service.
type Stock struct {
	baseURL string
	client  *http.Client
}

// NewStock creates a stock client for the given base URL with a traced
// transport.
func NewStock(baseURL string, tp trace.TracerProvider) *Stock {
	return &Stock{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithTracerProvider(tp),
			),
		},
	}
}

type productResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

// FindByID fetches one product from the stock service.
func (s *Stock) FindByID(ctx context.Context, productID string) (cart.Product, error) {
	url := fmt.Sprintf("%s/api/v1/products/%s", s.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return cart.Product{}, apperr.External("stock", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return cart.Product{}, apperr.External("stock", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return cart.Product{}, apperr.NotFound("product", productID)
	default:
		return cart.Product{}, apperr.External("stock",
			errors.Errorf("find product %s: unexpected status %d", productID, resp.StatusCode))
	}

	var body productResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return cart.Product{}, apperr.External("stock", errors.Wrap(err, "decode product"))
	}

	p, err := body.toDomain()
	if err != nil {
		return cart.Product{}, apperr.External("stock", err)
	}
	return p, nil
}

func (r productResponse) toDomain() (cart.Product, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return cart.Product{}, errors.Wrapf(err, "product %s price", r.ID)
	}
	return cart.Product{
		ID:       r.ID,
		Name:     r.Name,
		Price:    price,
		Quantity: r.Quantity,
	}, nil
}

// DecreaseQuantity asks the stock service to reserve the given amount of a
// product.
func (s *Stock) DecreaseQuantity(ctx context.Context, productID string, amount int) error {
	payload, err := json.Marshal(map[string]int{"amount": amount})
	if err != nil {
		return apperr.External("stock", err)
	}

	url := fmt.Sprintf("%s/api/v1/products/%s/decrease", s.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return apperr.External("stock", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return apperr.External("stock", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return apperr.NotFound("product", productID)
	default:
		return apperr.External("stock",
			errors.Errorf("decrease product %s: unexpected status %d", productID, resp.StatusCode))
	}
}
