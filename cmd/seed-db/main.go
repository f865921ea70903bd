// Command seed-db loads a catalog fixture of products, coupons and customers
// into PostgreSQL. Rows are upserted, so the command can be re-run.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/catalog"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/coupon"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/order"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/storage/postgres"
)

type (
	productWriter interface {
		Upsert(ctx context.Context, p catalog.Product) error
	}
	couponWriter interface {
		Upsert(ctx context.Context, c *coupon.Coupon) error
	}
	customerWriter interface {
		Upsert(ctx context.Context, c *order.Customer) error
	}
)

type seeder struct {
	lg        *zap.Logger
	products  productWriter
	coupons   couponWriter
	customers customerWriter
}

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		var (
			databaseURL string
			fixtureFile string
		)
		fs := flag.NewFlagSet("seed-db", flag.ContinueOnError)
		fs.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
		fs.StringVar(&fixtureFile, "fixture", "db/seed/catalog.json", "path to the catalog fixture")
		if err := fs.Parse(os.Args[1:]); err != nil {
			return err
		}

		if databaseURL == "" {
			databaseURL = os.Getenv("DATABASE_URL")
		}
		if databaseURL == "" {
			return errors.New("database URL is required: set --database-url or DATABASE_URL")
		}

		f, err := os.Open(fixtureFile)
		if err != nil {
			return errors.Wrap(err, "open fixture")
		}
		defer func() { _ = f.Close() }()

		fixture, err := DecodeFixture(f)
		if err != nil {
			return errors.Wrapf(err, "read %s", fixtureFile)
		}

		pool, err := postgres.NewPool(ctx, databaseURL)
		if err != nil {
			return errors.Wrap(err, "connect to database")
		}
		defer pool.Close()

		lg.Info("Running migrations")
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}

		s := &seeder{
			lg:        lg,
			products:  postgres.NewProductRepository(pool),
			coupons:   postgres.NewCouponRepository(pool),
			customers: postgres.NewCustomerRepository(pool),
		}
		if err := s.seed(ctx, fixture); err != nil {
			return err
		}

		lg.Info("Seed completed",
			zap.Int("products", len(fixture.Products)),
			zap.Int("coupons", len(fixture.Coupons)),
			zap.Int("customers", len(fixture.Customers)),
		)
		return nil
	})
}

func (s *seeder) seed(ctx context.Context, f *Fixture) error {
	for _, p := range f.Products {
		if err := s.products.Upsert(ctx, p); err != nil {
			return errors.Wrap(err, "seed products")
		}
		s.lg.Debug("Upserted product", zap.Int64("id", p.Base().ID), zap.String("name", p.Base().Name))
	}
	for i := range f.Coupons {
		if err := s.coupons.Upsert(ctx, &f.Coupons[i]); err != nil {
			return errors.Wrap(err, "seed coupons")
		}
		s.lg.Debug("Upserted coupon", zap.String("code", f.Coupons[i].Code))
	}
	for i := range f.Customers {
		if err := s.customers.Upsert(ctx, &f.Customers[i]); err != nil {
			return errors.Wrap(err, "seed customers")
		}
	}
	return nil
}
