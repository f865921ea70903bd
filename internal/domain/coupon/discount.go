package coupon

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeDiscount returns the discount c grants on originalPrice, with fixed
// amounts taken in the same currency as originalPrice. The result always
// lies in [0, originalPrice].
func ComputeDiscount(originalPrice decimal.Decimal, c *Coupon) decimal.Decimal {
	return computeDiscount(originalPrice, c.DiscountType, c.Amount, c.MaxDiscount)
}

func computeDiscount(price decimal.Decimal, typ DiscountType, amount, maxDiscount decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}

	var d decimal.Decimal
	switch typ {
	case DiscountPercentage:
		d = price.Mul(amount).Div(hundred)
	case DiscountFixed:
		d = amount
	default:
		return decimal.Zero
	}

	if maxDiscount.IsPositive() {
		d = decimal.Min(d, maxDiscount)
	}
	return clamp(d.Round(2), price)
}

// clamp bounds d to [0, upper].
func clamp(d, upper decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(d, upper)
}

// allocate splits total across amounts proportionally, rounding each share to
// cents and giving the remainder to the last positive amount. No share exceeds
// its amount.
func allocate(total decimal.Decimal, amounts []decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(amounts))
	sum := decimal.Zero
	last := -1
	for i, a := range amounts {
		shares[i] = decimal.Zero
		if a.IsPositive() {
			sum = sum.Add(a)
			last = i
		}
	}
	if last < 0 || !total.IsPositive() {
		return shares
	}

	given := decimal.Zero
	for i, a := range amounts {
		if !a.IsPositive() || i == last {
			continue
		}
		s := clamp(total.Mul(a).Div(sum).Round(2), a)
		shares[i] = s
		given = given.Add(s)
	}
	shares[last] = clamp(total.Sub(given), amounts[last])
	return shares
}
