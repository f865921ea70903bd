// Package app wires the storefront services together and runs the HTTP
// server.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/cart"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/catalog"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/coupon"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/fee"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/order"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/handler"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/notify"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/presenter"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/storage/memory"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/storage/postgres"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/storage/redis"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/token"
	"github.com/proxuthanh99yd/jenho-rest-api/pkg/health"
	"github.com/proxuthanh99yd/jenho-rest-api/pkg/httpmiddleware"
)

const serviceName = "jenho-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Pricing.
	ratios, err := cfg.Pricing.Ratios()
	if err != nil {
		return err
	}
	percent, err := cfg.Pricing.CustomizationPercent()
	if err != nil {
		return err
	}
	shipping, err := cfg.Shipping.Table()
	if err != nil {
		return err
	}
	base, err := cfg.Pricing.Base()
	if err != nil {
		return err
	}
	lg.Info("Pricing configured", zap.String("base_currency", string(base)), zap.Int("ratios", len(ratios)))
	exchanger := currency.NewExchanger(ratios)
	fees := fee.NewCalculator(percent, shipping, exchanger)

	// Repositories.
	products := catalog.NewSharedReader(postgres.NewProductRepository(pool))
	couponRepo := postgres.NewCouponRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)

	cartRepo, closeCarts, err := newCartRepository(ctx, lg, cfg, healthSvc)
	if err != nil {
		return err
	}
	defer closeCarts()

	notifier, closeNotifier := newNotifier(lg, cfg.Notify)
	defer closeNotifier()
	scheduler := notify.NewScheduler(lg, cfg.Notify.Timeout)

	// Domain services.
	matcher, ok := cart.MatcherByName(cfg.Cart.Matcher)
	if !ok {
		return errors.Errorf("unknown cart matcher %q", cfg.Cart.Matcher)
	}
	cartService := cart.NewService(cartRepo, products,
		cart.WithMatcher(matcher),
		cart.WithMaxRetries(cfg.Cart.MaxRetries),
	)
	couponEngine := coupon.NewEngine(couponRepo, products, exchanger)
	orderService := order.NewService(order.Deps{
		Products:          products,
		Coupons:           couponEngine,
		Fees:              fees,
		Exchanger:         exchanger,
		Orders:            orderRepo,
		Customers:         customerRepo,
		Carts:             cartService,
		Scheduler:         scheduler,
		Notifier:          notifier,
		ConfirmationDelay: cfg.Notify.Delay,
		Tracer:            m.TracerProvider().Tracer(serviceName),
	})

	// HTTP handlers.
	h := handler.New(handler.Deps{
		Carts:     cartService,
		Coupons:   couponEngine,
		Orders:    orderService,
		Presenter: presenter.New(exchanger),
		Verifier:  token.NewVerifier(cfg.Auth.JWTSecret),
	})

	instrument, err := httpmiddleware.Instrument(serviceName, m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create http metrics")
	}
	limiter := httpmiddleware.NewRateLimiter(httpmiddleware.RateLimitConfig{
		RPS:   cfg.RateLimit.RPS,
		Burst: cfg.RateLimit.Burst,
	})
	go limiter.Run(ctx)

	router := chi.NewRouter()
	router.Use(
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.RequestID(),
		httpmiddleware.Recovery(),
		httpmiddleware.LogRequests(),
		instrument,
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			Origins:        cfg.CORS.Origins,
			Headers:        []string{"Content-Type", "Authorization", httpmiddleware.RequestIDHeader},
			ExposedHeaders: []string{handler.TotalCountHeader, httpmiddleware.RequestIDHeader},
			MaxAge:         86400,
		}),
		limiter.Middleware(),
	)
	router.Get("/livez", healthSvc.LiveEndpoint)
	router.Get("/readyz", healthSvc.ReadyEndpoint)
	router.Mount(handler.BasePath, h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(router, serviceName,
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		lg.Info("Flushing scheduled jobs", zap.Int("pending", scheduler.Pending()))
		if err := scheduler.Close(shutdownCtx); err != nil {
			lg.Error("Scheduler shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newCartRepository returns the Redis cart store when a Redis URL is
// configured and the in-process store otherwise.
func newCartRepository(ctx context.Context, lg *zap.Logger, cfg *Config, hs *health.Health) (cart.Repository, func(), error) {
	if cfg.RedisURL == "" {
		lg.Warn("No Redis configured, carts are kept in process memory")
		return memory.NewCartRepository(), func() {}, nil
	}

	opts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parse redis url")
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, errors.Wrap(err, "ping redis")
	}
	hs.AddReadinessCheck("redis", 2*time.Second, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})

	closeFn := func() {
		if err := client.Close(); err != nil {
			lg.Warn("Close redis client", zap.Error(err))
		}
	}
	return redis.NewCartRepository(client, cfg.Cart.TTL), closeFn, nil
}

// newNotifier publishes confirmations to Kafka behind a circuit breaker when
// brokers are configured, and logs them otherwise.
func newNotifier(lg *zap.Logger, cfg NotifyConfig) (order.Notifier, func()) {
	if len(cfg.Brokers) == 0 {
		return notify.LogSender{}, func() {}
	}

	w := notify.NewKafkaWriter(cfg.Brokers, cfg.Topic)
	sender := notify.NewBreakerSender(lg, notify.NewKafkaSender(w), cfg.BreakerFailures, cfg.BreakerCooldown)
	return sender, func() {
		if err := w.Close(); err != nil {
			lg.Warn("Close kafka writer", zap.Error(err))
		}
	}
}
