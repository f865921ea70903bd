package presenter

import (
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/coupon"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
)

// PreviewItemView is one line of a coupon preview.
type PreviewItemView struct {
	ProductID       int64  `json:"product_id"`
	VariationID     int64  `json:"variation_id"`
	Quantity        int    `json:"quantity"`
	OriginalPrice   string `json:"original_price"`
	Discount        string `json:"discount"`
	DiscountedPrice string `json:"discounted_price"`
}

// CouponPreviewView is the response of a coupon preview.
type CouponPreviewView struct {
	Coupon   string            `json:"coupon"`
	Currency currency.Code     `json:"currency"`
	Items    []PreviewItemView `json:"items"`
}

// CouponPreview renders p.
func CouponPreview(p *coupon.Preview) CouponPreviewView {
	v := CouponPreviewView{
		Coupon:   p.Code,
		Currency: p.Currency,
		Items:    make([]PreviewItemView, len(p.Items)),
	}
	for i, l := range p.Items {
		v.Items[i] = PreviewItemView{
			ProductID:       l.ProductID,
			VariationID:     l.VariationID,
			Quantity:        l.Quantity,
			OriginalPrice:   money(l.OriginalPrice),
			Discount:        money(l.Discount),
			DiscountedPrice: money(l.DiscountedPrice),
		}
	}
	return v
}
