package app

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	sdkapp "github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/storecore/storecore/internal/api"
	"github.com/storecore/storecore/internal/client"
	"github.com/storecore/storecore/internal/domain/order"
	"github.com/storecore/storecore/internal/storage/postgres"
	"github.com/storecore/storecore/pkg/health"
	"github.com/storecore/storecore/pkg/httpmiddleware"
)

// RunOrder wires and runs the order server: order rows and line items in
// PostgreSQL, payment authorization behind the gateway interface.
func RunOrder(ctx context.Context, lg *zap.Logger, m *sdkapp.Telemetry, cfg *Config) error {
	lg.Info("Initializing order server", zap.String("addr", cfg.Addr))

	if cfg.DatabaseURL == "" {
		return errors.New("database URL is required: set STORE_DATABASE_URL or DATABASE_URL")
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.SetReady(true)

	orders := order.NewService(
		postgres.NewOrderStore(pool),
		postgres.NewItemStore(pool),
		client.NewStubGateway(),
	)

	handler := api.OrderRouter(api.RouterConfig{
		CORS:          httpmiddleware.CORSConfig{AllowOrigins: cfg.CORS.Origins},
		RateLimitMax:  cfg.RateLimit.Max,
		RateLimitSpan: cfg.RateLimit.Window,
	}, orders, healthSvc)

	return serve(ctx, lg, cfg, handler, healthSvc)
}
