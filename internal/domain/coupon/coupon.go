package coupon

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/apperr"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage takes a percentage off the eligible amount.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed takes a fixed base-currency amount off, capped at the
	// eligible amount.
	DiscountFixed DiscountType = "fixed"
)

var (
	// ErrInvalidCoupon is returned when a coupon code is unknown.
	ErrInvalidCoupon = apperr.Validation("invalid_coupon", "invalid coupon code")
	// ErrCouponExpired is returned when a coupon is outside its valid time window.
	ErrCouponExpired = apperr.Conflict("coupon_expired", "coupon expired")
	// ErrCouponUsageLimitReached is returned when a coupon has exhausted its allowed uses.
	ErrCouponUsageLimitReached = apperr.Conflict("coupon_usage_limit_reached", "coupon usage limit reached")
	// ErrCouponNotApplicable is returned when no item satisfies the coupon's
	// product restrictions or minimum quantity.
	ErrCouponNotApplicable = apperr.Conflict("coupon_not_applicable", "coupon is not applicable to these items")
)

// Coupon is the catalog's coupon definition.
type Coupon struct {
	Code         string
	DiscountType DiscountType
	Amount       decimal.Decimal
	Description  string
	ValidFrom    *time.Time
	ValidUntil   *time.Time
	UsageLimit   int
	UsageCount   int
	MaxDiscount  decimal.Decimal
	MinItems     int
	// ProductIDs limits the coupon to these products or variations. Empty
	// means every product.
	ProductIDs         []int64
	ExcludedProductIDs []int64
}

// AppliesTo reports whether the coupon may discount the given product or
// variation.
func (c *Coupon) AppliesTo(productID, variationID int64) bool {
	if slices.Contains(c.ExcludedProductIDs, productID) ||
		(variationID != 0 && slices.Contains(c.ExcludedProductIDs, variationID)) {
		return false
	}
	if len(c.ProductIDs) == 0 {
		return true
	}
	return slices.Contains(c.ProductIDs, productID) ||
		(variationID != 0 && slices.Contains(c.ProductIDs, variationID))
}

// Repository provides lookup and usage accounting of coupons.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	IncrementUses(ctx context.Context, code string) error
}
