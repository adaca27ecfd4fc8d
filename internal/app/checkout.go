package app

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	sdkapp "github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/storecore/storecore/internal/api"
	"github.com/storecore/storecore/internal/client"
	"github.com/storecore/storecore/internal/domain/cart"
	"github.com/storecore/storecore/internal/domain/coupon"
	storageredis "github.com/storecore/storecore/internal/storage/redis"
	"github.com/storecore/storecore/pkg/health"
	"github.com/storecore/storecore/pkg/httpmiddleware"
)

// RunCheckout wires and runs the checkout server: cart and coupon state in
// Redis, products resolved against the stock service.
func RunCheckout(ctx context.Context, lg *zap.Logger, m *sdkapp.Telemetry, cfg *Config) error {
	lg.Info("Initializing checkout server", zap.String("addr", cfg.Addr))

	if cfg.StockBaseURL == "" {
		return errors.New("stock base URL is required: set STORE_STOCK_BASE_URL")
	}

	rdb, err := storageredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return errors.Wrap(err, "connect redis")
	}
	defer func() {
		_ = rdb.Close()
	}()

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("redis", 5*time.Second, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.SetReady(true)

	stock := client.NewStock(cfg.StockBaseURL, m.TracerProvider())
	coupons := coupon.NewService(storageredis.NewCouponStore(rdb))
	carts := cart.NewService(
		storageredis.NewCartStore(rdb),
		storageredis.NewCouponStore(rdb),
		stock,
	)

	handler := api.CheckoutRouter(api.RouterConfig{
		CORS:          httpmiddleware.CORSConfig{AllowOrigins: cfg.CORS.Origins},
		RateLimitMax:  cfg.RateLimit.Max,
		RateLimitSpan: cfg.RateLimit.Window,
	}, carts, coupons, healthSvc)

	return serve(ctx, lg, cfg, handler, healthSvc)
}
