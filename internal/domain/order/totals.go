package order

import (
	"github.com/shopspring/decimal"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/fee"
)

// AddFee appends a fee line rounded to cents.
func (o *Order) AddFee(name string, amount decimal.Decimal) {
	o.Fees = append(o.Fees, Fee{Name: name, Amount: amount.Round(2)})
}

// CalculateTotals recomputes every derived amount from line items, fees and
// coupons:
//
//	total = Σ line subtotals + Σ fees − Σ coupon discounts
//
// A line's Total is its Subtotal. Its share of the coupon discounts is kept
// in Discount and is subtracted once, at order level.
func (o *Order) CalculateTotals() {
	subtotal := decimal.Zero
	for i := range o.LineItems {
		li := &o.LineItems[i]
		li.Subtotal = li.Subtotal.Round(2)
		li.Discount = li.Discount.Round(2)
		li.Total = li.Subtotal
		subtotal = subtotal.Add(li.Subtotal)
	}

	fees := decimal.Zero
	shipping := decimal.Zero
	for _, f := range o.Fees {
		fees = fees.Add(f.Amount)
		if f.Name == fee.ShippingName {
			shipping = shipping.Add(f.Amount)
		}
	}

	discount := decimal.Zero
	for _, c := range o.Coupons {
		discount = discount.Add(c.Discount)
	}

	total := subtotal.Add(fees).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	o.Subtotal = subtotal.Round(2)
	o.FeeTotal = fees.Round(2)
	o.DiscountTotal = discount.Round(2)
	o.ShippingTotal = shipping.Round(2)
	o.Total = total.Round(2)
}
