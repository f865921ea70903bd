package handler

import (
	"net/http"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/coupon"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/presenter"
)

type couponItemBody struct {
	ProductID   int64 `json:"product_id"`
	VariationID int64 `json:"variation_id"`
	Quantity    int   `json:"quantity"`
}

type applyCouponBody struct {
	Items      []couponItemBody `json:"items"`
	CouponCode string           `json:"coupon_code"`
	Currency   string           `json:"currency"`
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) error {
	var body applyCouponBody
	if err := decodeBody(r, &body); err != nil {
		return err
	}
	cur, err := currency.Parse(body.Currency)
	if err != nil {
		return err
	}

	items := make([]coupon.PreviewItem, len(body.Items))
	for i, it := range body.Items {
		items[i] = coupon.PreviewItem{
			ProductID:   it.ProductID,
			VariationID: it.VariationID,
			Quantity:    it.Quantity,
		}
	}
	preview, err := h.coupons.Preview(r.Context(), body.CouponCode, cur, items)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, presenter.CouponPreview(preview))
}
