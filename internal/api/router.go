package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/storecore/storecore/internal/domain/cart"
	"github.com/storecore/storecore/internal/domain/coupon"
	"github.com/storecore/storecore/internal/domain/order"
	"github.com/storecore/storecore/pkg/health"
	"github.com/storecore/storecore/pkg/httpmiddleware"
)

// RouterConfig carries the knobs shared by both routers.
type RouterConfig struct {
	CORS          httpmiddleware.CORSConfig
	RateLimitMax  int
	RateLimitSpan time.Duration
}

// CheckoutRouter builds the handler tree of the checkout server: cart
// operations plus coupon management.
func CheckoutRouter(cfg RouterConfig, carts *cart.Service, coupons *coupon.Service, hs *health.Service) http.Handler {
	r := newRouter(cfg, hs)

	cartHandler := NewCartHandler(carts)
	r.Route("/api/v1/carts/{cartID}", func(r chi.Router) {
		r.Get("/", cartHandler.Get)
		r.Delete("/", cartHandler.Delete)
		r.Post("/items", cartHandler.AddItem)
		r.Post("/items/{productID}/increase", cartHandler.IncreaseItem)
		r.Post("/items/{productID}/decrease", cartHandler.DecreaseItem)
		r.Delete("/items/{productID}", cartHandler.RemoveItem)
		r.Put("/coupon", cartHandler.ApplyCoupon)
		r.Delete("/coupon", cartHandler.RemoveCoupon)
		r.Post("/checkout", cartHandler.Checkout)
	})

	couponHandler := NewCouponHandler(coupons)
	r.Route("/api/v1/coupons", func(r chi.Router) {
		r.Post("/", couponHandler.Create)
		r.Get("/", couponHandler.List)
		r.Get("/{code}", couponHandler.Get)
		r.Put("/{code}", couponHandler.Update)
		r.Delete("/{code}", couponHandler.Delete)
	})

	return r
}

// OrderRouter builds the handler tree of the order server.
func OrderRouter(cfg RouterConfig, orders *order.Service, hs *health.Service) http.Handler {
	r := newRouter(cfg, hs)

	orderHandler := NewOrderHandler(orders)
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/", orderHandler.Create)
		r.Get("/", orderHandler.List)
		r.Get("/{id}", orderHandler.Get)
		r.Put("/{id}/status", orderHandler.UpdateStatus)
		r.Post("/{id}/cancel", orderHandler.Cancel)
		r.Post("/{id}/authorize", orderHandler.Authorize)
		r.Delete("/{id}", orderHandler.Delete)
	})

	return r
}

// newRouter applies the shared middleware chain and health endpoints.
func newRouter(cfg RouterConfig, hs *health.Service) chi.Router {
	r := chi.NewRouter()

	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.Recovery())
	r.Use(httpmiddleware.Logging())
	r.Use(httpmiddleware.CORS(cfg.CORS))
	if cfg.RateLimitMax > 0 {
		span := cfg.RateLimitSpan
		if span <= 0 {
			span = time.Minute
		}
		r.Use(httpmiddleware.RateLimit(httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimitMax,
			Window: span,
		}))
	}

	if hs != nil {
		r.Get("/health/live", hs.LiveEndpoint)
		r.Get("/health/ready", hs.ReadyEndpoint)
	}

	return r
}
