package presenter

import (
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/catalog"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/order"
)

// LineItemView is an order line.
type LineItemView struct {
	ProductID   int64             `json:"product_id"`
	VariationID int64             `json:"variation_id"`
	Name        string            `json:"name"`
	SKU         string            `json:"sku"`
	Type        catalog.Kind      `json:"type"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Customize   map[string]string `json:"customize,omitempty"`
	Quantity    int               `json:"quantity"`
	Price       string            `json:"price"`
	Subtotal    string            `json:"subtotal"`
	Discount    string            `json:"discount"`
	Total       string            `json:"total"`
}

// FeeView is an order-level fee line.
type FeeView struct {
	Name  string `json:"name"`
	Total string `json:"total"`
}

// CouponView is an applied coupon.
type CouponView struct {
	Code     string `json:"code"`
	Discount string `json:"discount"`
}

// OrderInfo groups the customer-facing order metadata.
type OrderInfo struct {
	CustomerID   int64         `json:"customer_id"`
	Billing      order.Address `json:"billing"`
	Shipping     order.Address `json:"shipping"`
	Payment      order.Payment `json:"payment"`
	CustomerNote string        `json:"customer_note,omitempty"`
}

// OrderView is the externally visible order.
type OrderView struct {
	ID            int64          `json:"id"`
	Status        order.Status   `json:"status"`
	Currency      currency.Code  `json:"currency"`
	DateCreated   string         `json:"date_created"`
	Subtotal      string         `json:"subtotal"`
	DiscountTotal string         `json:"discount_total"`
	ShippingTotal string         `json:"shipping_total"`
	FeeTotal      string         `json:"fee_total"`
	Total         string         `json:"total"`
	Items         []LineItemView `json:"items"`
	Fees          []FeeView      `json:"fees"`
	Coupons       []CouponView   `json:"coupons"`
	OrderInfo     OrderInfo      `json:"order_info"`
}

// Order renders o. Amounts are already in the order currency.
func Order(o *order.Order) OrderView {
	v := OrderView{
		ID:            o.ID,
		Status:        o.Status,
		Currency:      o.Currency,
		DateCreated:   timestamp(o.CreatedAt),
		Subtotal:      money(o.Subtotal),
		DiscountTotal: money(o.DiscountTotal),
		ShippingTotal: money(o.ShippingTotal),
		FeeTotal:      money(o.FeeTotal),
		Total:         money(o.Total),
		Items:         make([]LineItemView, len(o.LineItems)),
		Fees:          make([]FeeView, len(o.Fees)),
		Coupons:       make([]CouponView, len(o.Coupons)),
		OrderInfo: OrderInfo{
			CustomerID:   o.CustomerID,
			Billing:      o.Billing,
			Shipping:     o.Shipping,
			Payment:      o.Payment,
			CustomerNote: o.CustomerNote,
		},
	}
	for i, li := range o.LineItems {
		v.Items[i] = LineItemView{
			ProductID:   li.ProductID,
			VariationID: li.VariationID,
			Name:        li.Name,
			SKU:         li.SKU,
			Type:        li.ProductType,
			Attributes:  li.Attributes,
			Customize:   li.Customization,
			Quantity:    li.Quantity,
			Price:       money(li.UnitPrice),
			Subtotal:    money(li.Subtotal),
			Discount:    money(li.Discount),
			Total:       money(li.Total),
		}
	}
	for i, f := range o.Fees {
		v.Fees[i] = FeeView{Name: f.Name, Total: money(f.Amount)}
	}
	for i, c := range o.Coupons {
		v.Coupons[i] = CouponView{Code: c.Code, Discount: money(c.Discount)}
	}
	return v
}

// Orders renders a list.
func Orders(orders []*order.Order) []OrderView {
	out := make([]OrderView, len(orders))
	for i, o := range orders {
		out[i] = Order(o)
	}
	return out
}
