// Package fee computes order-level surcharges: the customization fee and the
// shipping fee.
package fee

import (
	"github.com/shopspring/decimal"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
)

// Fee line names.
const (
	CustomizationName = "Customize Size Fee"
	ShippingName      = "Shipping Fee"
)

var hundred = decimal.NewFromInt(100)

// ShippingRule charges Fee when the order subtotal is below Under.
type ShippingRule struct {
	Under decimal.Decimal
	Fee   decimal.Decimal
}

func (r ShippingRule) valid() bool {
	return r.Under.IsPositive() && r.Fee.IsPositive()
}

// ShippingTable holds per-currency rules, denominated in their own currency,
// and a fallback rule denominated in the base currency.
type ShippingTable struct {
	Rules    map[currency.Code]ShippingRule
	Fallback ShippingRule
}

// Calculator computes fees. It is pure and safe for concurrent use.
type Calculator struct {
	customizationPercent decimal.Decimal
	shipping             ShippingTable
	exchanger            *currency.Exchanger
}

// NewCalculator creates a Calculator.
func NewCalculator(customizationPercent decimal.Decimal, shipping ShippingTable, exchanger *currency.Exchanger) *Calculator {
	return &Calculator{
		customizationPercent: customizationPercent,
		shipping:             shipping,
		exchanger:            exchanger,
	}
}

// Customization returns one customized line's contribution to the
// customization fee: quantity × unitPrice × percent / 100. Contributions are
// summed unrounded; the caller rounds the accumulated fee.
func (c *Calculator) Customization(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	if !c.customizationPercent.IsPositive() || quantity <= 0 {
		return decimal.Zero
	}
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Mul(c.customizationPercent).Div(hundred)
}

// Shipping returns the flat shipping fee for an order in cur with the given
// subtotal, or zero when shipping is free. A missing or malformed rule means
// free shipping.
func (c *Calculator) Shipping(cur currency.Code, subtotal decimal.Decimal) decimal.Decimal {
	if rule, ok := c.shipping.Rules[cur]; ok {
		if !rule.valid() || !subtotal.LessThan(rule.Under) {
			return decimal.Zero
		}
		return rule.Fee.Round(2)
	}

	rule := c.shipping.Fallback
	if !rule.valid() {
		return decimal.Zero
	}
	base := c.exchanger.ConvertReverse(cur, subtotal)
	if !base.LessThan(rule.Under) {
		return decimal.Zero
	}
	return c.exchanger.Convert(cur, rule.Fee)
}
