// Command api-server serves the storefront cart, coupon and order API.
package main

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	server "github.com/proxuthanh99yd/jenho-rest-api/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := server.LoadConfig()
		if err != nil {
			return errors.Wrap(err, "load config")
		}
		lg.Info("Starting api-server",
			zap.String("addr", cfg.Addr),
			zap.Bool("redis_carts", cfg.RedisURL != ""),
			zap.Strings("kafka_brokers", cfg.Notify.Brokers),
		)
		return server.Run(ctx, lg, m, cfg)
	})
}
