// Command coupon-ingest bulk-loads coupon codes from gzip-compressed CSV
// exports into the coupons table.
//
// Each line is "code,discount_type,amount[,description[,min_items]]". A
// leading header row is skipped. Codes already present in the database, or
// repeated across files, are loaded once.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/storage/postgres"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		var (
			pattern     string
			databaseURL string
			batchSize   int
		)
		fs := flag.NewFlagSet("coupon-ingest", flag.ContinueOnError)
		fs.StringVar(&pattern, "files", "data/coupons-*.csv.gz", "glob of gzip-compressed CSV files")
		fs.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
		fs.IntVar(&batchSize, "batch", 5000, "coupons per COPY batch")
		if err := fs.Parse(os.Args[1:]); err != nil {
			return err
		}

		if databaseURL == "" {
			databaseURL = os.Getenv("DATABASE_URL")
		}
		if databaseURL == "" {
			return errors.New("database URL is required: set --database-url or DATABASE_URL")
		}

		files, err := filepath.Glob(pattern)
		if err != nil {
			return errors.Wrap(err, "expand file pattern")
		}
		if len(files) == 0 {
			return errors.Errorf("no files match %q", pattern)
		}
		slices.Sort(files)

		pool, err := postgres.NewPool(ctx, databaseURL)
		if err != nil {
			return errors.Wrap(err, "connect to database")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}

		ing := newIngester(lg, postgres.NewCouponRepository(pool), batchSize)
		stats, err := ing.Run(ctx, files)
		if err != nil {
			return errors.Wrap(err, "ingest coupons")
		}

		lg.Info("Coupon ingest completed",
			zap.Int("files", len(files)),
			zap.Int64("read", stats.Read),
			zap.Int64("invalid", stats.Invalid),
			zap.Int64("suspected_duplicates", stats.Suspects),
			zap.Int64("copied", stats.Copied),
		)
		return nil
	})
}
