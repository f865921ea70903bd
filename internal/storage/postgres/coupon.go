package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/coupon"
)

const (
	getCouponSQL = `SELECT code, discount_type, amount, description, valid_from, valid_until,
		usage_limit, usage_count, max_discount, min_items, product_ids, excluded_product_ids
		FROM coupons WHERE UPPER(code) = UPPER($1) AND active`

	incrementCouponUsesSQL = `UPDATE coupons SET usage_count = usage_count + 1 WHERE UPPER(code) = UPPER($1)`

	upsertCouponSQL = `INSERT INTO coupons (code, discount_type, amount, description, valid_from, valid_until,
		usage_limit, max_discount, min_items, product_ids, excluded_product_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (code) DO UPDATE SET
			discount_type = EXCLUDED.discount_type,
			amount = EXCLUDED.amount,
			description = EXCLUDED.description,
			valid_from = EXCLUDED.valid_from,
			valid_until = EXCLUDED.valid_until,
			usage_limit = EXCLUDED.usage_limit,
			max_discount = EXCLUDED.max_discount,
			min_items = EXCLUDED.min_items,
			product_ids = EXCLUDED.product_ids,
			excluded_product_ids = EXCLUDED.excluded_product_ids`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository stores coupons.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository creates a CouponRepository.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up an active coupon case-insensitively. An unknown or
// inactive code yields coupon.ErrInvalidCoupon.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponSQL, code)
	if err != nil {
		return nil, errors.Wrapf(err, "query coupon %q", code)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrInvalidCoupon
		}
		return nil, errors.Wrapf(err, "scan coupon %q", code)
	}
	return &c, nil
}

// IncrementUses bumps the usage counter.
func (r *CouponRepository) IncrementUses(ctx context.Context, code string) error {
	if _, err := r.pool.Exec(ctx, incrementCouponUsesSQL, code); err != nil {
		return errors.Wrapf(err, "increment uses of %q", code)
	}
	return nil
}

// Upsert inserts c or replaces its rule, keeping the usage counter.
func (r *CouponRepository) Upsert(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, upsertCouponSQL,
		c.Code, string(c.DiscountType), c.Amount, c.Description, c.ValidFrom, c.ValidUntil,
		c.UsageLimit, c.MaxDiscount, c.MinItems, nonNilSlice(c.ProductIDs), nonNilSlice(c.ExcludedProductIDs),
	)
	if err != nil {
		return errors.Wrapf(err, "upsert coupon %q", c.Code)
	}
	return nil
}

// CopyCoupons bulk-loads coupons that do not exist yet and returns how many
// rows were copied. Existing codes are left untouched.
func (r *CouponRepository) CopyCoupons(ctx context.Context, coupons []coupon.Coupon) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const stage = `CREATE TEMP TABLE coupons_stage (LIKE coupons INCLUDING DEFAULTS) ON COMMIT DROP`
	if _, err := tx.Exec(ctx, stage); err != nil {
		return 0, errors.Wrap(err, "create stage table")
	}
	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"coupons_stage"},
		[]string{"code", "discount_type", "amount", "description", "min_items"},
		pgx.CopyFromSlice(len(coupons), func(i int) ([]any, error) {
			c := coupons[i]
			return []any{c.Code, string(c.DiscountType), c.Amount, c.Description, c.MinItems}, nil
		}),
	)
	if err != nil {
		return 0, errors.Wrap(err, "copy coupons")
	}
	const merge = `INSERT INTO coupons SELECT * FROM coupons_stage ON CONFLICT DO NOTHING`
	if _, err := tx.Exec(ctx, merge); err != nil {
		return 0, errors.Wrap(err, "merge coupons")
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, "commit")
	}
	return n, nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c    coupon.Coupon
		kind string
	)
	err := row.Scan(&c.Code, &kind, &c.Amount, &c.Description, &c.ValidFrom, &c.ValidUntil,
		&c.UsageLimit, &c.UsageCount, &c.MaxDiscount, &c.MinItems, &c.ProductIDs, &c.ExcludedProductIDs)
	c.DiscountType = coupon.DiscountType(kind)
	return c, err
}
