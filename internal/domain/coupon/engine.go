// Package coupon validates coupon codes and computes their discounts for
// single products and whole orders.
package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/catalog"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
)

// Engine orchestrates coupon lookups, validity checks and discount
// arithmetic. Coupon definitions come from the catalog's Repository.
type Engine struct {
	coupons   Repository
	products  catalog.Repository
	exchanger *currency.Exchanger
	now       func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(coupons Repository, products catalog.Repository, exchanger *currency.Exchanger) *Engine {
	return &Engine{
		coupons:   coupons,
		products:  products,
		exchanger: exchanger,
		now:       time.Now,
	}
}

// Lookup returns the coupon for code. Unknown codes yield ErrInvalidCoupon.
func (e *Engine) Lookup(ctx context.Context, code string) (*Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidCoupon
	}
	c, err := e.coupons.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCoupon) {
			return nil, ErrInvalidCoupon
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}
	return c, nil
}

// checkUsable verifies the validity window and usage limit.
func (e *Engine) checkUsable(c *Coupon) error {
	now := e.now()
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return ErrCouponExpired
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return ErrCouponExpired
	}
	if c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit {
		return ErrCouponUsageLimitReached
	}
	return nil
}

// Validate checks that c is currently usable and applies to the product or
// variation.
func (e *Engine) Validate(c *Coupon, productID, variationID int64) error {
	if err := e.checkUsable(c); err != nil {
		return err
	}
	if !c.AppliesTo(productID, variationID) {
		return ErrCouponNotApplicable
	}
	return nil
}

// Line is an order line as seen by ApplyToOrder. Subtotal is in the order
// currency.
type Line struct {
	ProductID   int64
	VariationID int64
	Quantity    int
	Subtotal    decimal.Decimal
}

// Application is the outcome of applying a coupon to an order.
type Application struct {
	Code     string
	Discount decimal.Decimal
	// LineDiscounts holds each line's share of Discount, index-aligned with
	// the lines passed to ApplyToOrder.
	LineDiscounts []decimal.Decimal
}

// ApplyToOrder re-validates the coupon against lines priced in cur and
// computes the discount and its per-line allocation. It does not touch order
// totals.
func (e *Engine) ApplyToOrder(ctx context.Context, code string, cur currency.Code, lines []Line) (*Application, error) {
	c, err := e.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := e.checkUsable(c); err != nil {
		return nil, err
	}

	eligible := make([]decimal.Decimal, len(lines))
	eligibleTotal := decimal.Zero
	eligibleQty := 0
	for i, l := range lines {
		eligible[i] = decimal.Zero
		if !c.AppliesTo(l.ProductID, l.VariationID) {
			continue
		}
		eligible[i] = l.Subtotal
		eligibleTotal = eligibleTotal.Add(l.Subtotal)
		eligibleQty += l.Quantity
	}
	if !eligibleTotal.IsPositive() || (c.MinItems > 0 && eligibleQty < c.MinItems) {
		return nil, ErrCouponNotApplicable
	}

	// Fixed amounts and caps are defined in the base currency.
	amount := c.Amount
	if c.DiscountType == DiscountFixed {
		amount = e.exchanger.Convert(cur, amount)
	}
	maxDiscount := decimal.Zero
	if c.MaxDiscount.IsPositive() {
		maxDiscount = e.exchanger.Convert(cur, c.MaxDiscount)
	}

	total := computeDiscount(eligibleTotal, c.DiscountType, amount, maxDiscount)
	shares := allocate(total, eligible)

	applied := decimal.Zero
	for _, s := range shares {
		applied = applied.Add(s)
	}
	return &Application{
		Code:          c.Code,
		Discount:      applied,
		LineDiscounts: shares,
	}, nil
}

// RecordUsage increments the coupon's usage counter.
func (e *Engine) RecordUsage(ctx context.Context, code string) error {
	if err := e.coupons.IncrementUses(ctx, code); err != nil {
		return errors.Wrap(err, "increment coupon uses")
	}
	return nil
}
