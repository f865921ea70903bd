package main

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/coupon"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	minCodeLen    = 4
	maxCodeLen    = 32
	progressEvery = 1_000_000
)

// CouponCopier bulk-loads coupons, skipping codes that already exist.
type CouponCopier interface {
	CopyCoupons(ctx context.Context, coupons []coupon.Coupon) (int64, error)
}

// Stats summarizes an ingest run.
type Stats struct {
	Read     int64
	Invalid  int64
	Suspects int64
	Copied   int64
}

type ingester struct {
	lg     *zap.Logger
	repo   CouponCopier
	batch  int
	filter *bloom.BloomFilter
}

func newIngester(lg *zap.Logger, repo CouponCopier, batch int) *ingester {
	if batch <= 0 {
		batch = 5000
	}
	return &ingester{
		lg:     lg,
		repo:   repo,
		batch:  batch,
		filter: bloom.NewWithEstimates(bloomCapacity, bloomFPR),
	}
}

// Run streams every file concurrently into a single writer. Codes the bloom
// filter has not seen are copied in batches straight away. Codes it may
// have seen are held back, deduplicated exactly among themselves, and copied
// last, so the database decides between a true repeat and a false positive.
func (ing *ingester) Run(ctx context.Context, files []string) (Stats, error) {
	var stats Stats
	rows := make(chan coupon.Coupon, ing.batch)

	g, ctx := errgroup.WithContext(ctx)

	readers, rctx := errgroup.WithContext(ctx)
	invalid := make([]int64, len(files))
	for i, path := range files {
		readers.Go(func() error {
			n, err := readFile(rctx, path, rows)
			invalid[i] = n
			return err
		})
	}
	g.Go(func() error {
		defer close(rows)
		return readers.Wait()
	})

	g.Go(func() error {
		var (
			pending  = make([]coupon.Coupon, 0, ing.batch)
			suspects = make(map[string]coupon.Coupon)
		)
		flush := func(batch []coupon.Coupon) error {
			if len(batch) == 0 {
				return nil
			}
			n, err := ing.repo.CopyCoupons(ctx, batch)
			if err != nil {
				return err
			}
			stats.Copied += n
			return nil
		}

		for c := range rows {
			stats.Read++
			if stats.Read%progressEvery == 0 {
				ing.lg.Info("Ingest progress", zap.Int64("read", stats.Read), zap.Int("suspects", len(suspects)))
			}
			if ing.filter.TestOrAddString(c.Code) {
				if _, ok := suspects[c.Code]; !ok {
					suspects[c.Code] = c
				}
				continue
			}
			pending = append(pending, c)
			if len(pending) == ing.batch {
				if err := flush(pending); err != nil {
					return err
				}
				pending = pending[:0]
			}
		}
		if err := flush(pending); err != nil {
			return err
		}

		stats.Suspects = int64(len(suspects))
		held := make([]coupon.Coupon, 0, len(suspects))
		for _, c := range suspects {
			held = append(held, c)
		}
		for start := 0; start < len(held); start += ing.batch {
			if err := flush(held[start:min(start+ing.batch, len(held))]); err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return stats, err
	}
	for _, n := range invalid {
		stats.Invalid += n
	}
	return stats, nil
}

// readFile sends every valid row of the gzip-compressed CSV at path and
// returns how many rows were rejected.
func readFile(ctx context.Context, path string, out chan<- coupon.Coupon) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	return readCSV(ctx, gz, out)
}

func readCSV(ctx context.Context, r io.Reader, out chan<- coupon.Coupon) (int64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var (
		invalid int64
		line    int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return invalid, nil
		}
		line++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				invalid++
				continue
			}
			return invalid, errors.Wrapf(err, "read line %d", line)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "code") {
			continue
		}

		c, ok := parseRecord(rec)
		if !ok {
			invalid++
			continue
		}
		select {
		case out <- c:
		case <-ctx.Done():
			return invalid, ctx.Err()
		}
	}
}

// parseRecord converts one CSV record into a coupon.
func parseRecord(rec []string) (coupon.Coupon, bool) {
	if len(rec) < 3 {
		return coupon.Coupon{}, false
	}
	code := strings.ToUpper(strings.TrimSpace(rec[0]))
	if len(code) < minCodeLen || len(code) > maxCodeLen {
		return coupon.Coupon{}, false
	}

	typ := coupon.DiscountType(strings.ToLower(strings.TrimSpace(rec[1])))
	if typ != coupon.DiscountPercentage && typ != coupon.DiscountFixed {
		return coupon.Coupon{}, false
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
	if err != nil || amount.IsNegative() {
		return coupon.Coupon{}, false
	}
	if typ == coupon.DiscountPercentage && amount.GreaterThan(decimal.NewFromInt(100)) {
		return coupon.Coupon{}, false
	}

	c := coupon.Coupon{Code: code, DiscountType: typ, Amount: amount}
	if len(rec) > 3 {
		c.Description = strings.TrimSpace(rec[3])
	}
	if len(rec) > 4 && strings.TrimSpace(rec[4]) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(rec[4]))
		if err != nil || n < 0 {
			return coupon.Coupon{}, false
		}
		c.MinItems = n
	}
	return c, true
}
