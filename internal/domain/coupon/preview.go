package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/apperr"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/catalog"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
)

// PreviewItem is one product line submitted for a discount preview.
type PreviewItem struct {
	ProductID   int64
	VariationID int64
	Quantity    int
}

// PreviewLine is the discount outcome for one item, in the preview currency.
type PreviewLine struct {
	PreviewItem
	OriginalPrice   decimal.Decimal
	Discount        decimal.Decimal
	DiscountedPrice decimal.Decimal
}

// Preview is the discount outcome for a whole item list.
type Preview struct {
	Code     string
	Currency currency.Code
	Items    []PreviewLine
}

// Preview computes the discount c would give each item without recording
// usage. Items whose product or variation is missing, or that the coupon
// does not cover, are left out.
func (e *Engine) Preview(ctx context.Context, code string, cur currency.Code, items []PreviewItem) (*Preview, error) {
	for _, it := range items {
		if it.ProductID <= 0 || it.VariationID < 0 || it.Quantity <= 0 {
			return nil, apperr.Validation("invalid_items", "each item needs product_id, variation_id and a positive quantity")
		}
	}

	c, err := e.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := e.checkUsable(c); err != nil {
		return nil, err
	}

	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	products, err := catalog.Lookup(ctx, e.products, ids)
	if err != nil {
		return nil, errors.Wrap(err, "lookup products")
	}

	out := &Preview{Code: c.Code, Currency: cur, Items: make([]PreviewLine, 0, len(items))}
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			continue
		}
		target, err := catalog.Resolve(p, it.VariationID)
		if err != nil {
			continue
		}
		if !c.AppliesTo(it.ProductID, it.VariationID) {
			continue
		}

		original := target.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		discount := ComputeDiscount(original, c)

		shownOriginal := e.exchanger.Convert(cur, original)
		shownDiscount := decimal.Min(e.exchanger.Convert(cur, discount), shownOriginal)
		out.Items = append(out.Items, PreviewLine{
			PreviewItem:     it,
			OriginalPrice:   shownOriginal,
			Discount:        shownDiscount,
			DiscountedPrice: shownOriginal.Sub(shownDiscount),
		})
	}
	return out, nil
}
