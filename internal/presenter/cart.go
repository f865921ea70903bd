package presenter

import (
	"maps"

	"github.com/shopspring/decimal"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/cart"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/catalog"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
)

// CartItemView is a cart line with its resolved product.
type CartItemView struct {
	Key         string            `json:"key"`
	ProductID   int64             `json:"product_id"`
	VariationID int64             `json:"variation_id"`
	Quantity    int               `json:"quantity"`
	Customize   map[string]string `json:"customize,omitempty"`
	Name        string            `json:"name"`
	SKU         string            `json:"sku"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Price       string            `json:"price"`
	Subtotal    string            `json:"subtotal"`
	Currency    currency.Code     `json:"currency"`
	CreatedAt   string            `json:"created_at"`
	Product     *ProductView      `json:"product,omitempty"`
}

// CartItem renders one resolved item. A variation that vanished from the
// catalog falls back to the product's own price.
func (pr *Presenter) CartItem(it cart.ResolvedItem, cur currency.Code) CartItemView {
	v := CartItemView{
		Key:         it.Key,
		ProductID:   it.ProductID,
		VariationID: it.VariationID,
		Quantity:    it.Quantity,
		Customize:   maps.Clone(it.Customization),
		Currency:    cur,
		CreatedAt:   timestamp(it.CreatedAt),
		Price:       money(decimal.Zero),
		Subtotal:    money(decimal.Zero),
	}
	if it.Product == nil {
		return v
	}

	target, err := catalog.Resolve(it.Product, it.VariationID)
	if err != nil {
		target, _ = catalog.Resolve(it.Product, 0)
	}
	price := pr.exchanger.Convert(cur, target.Price)
	v.Name = target.Name
	v.SKU = target.SKU
	v.Attributes = target.Attributes
	v.Price = money(price)
	v.Subtotal = money(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	product := pr.Product(it.Product, cur)
	v.Product = &product
	return v
}

// CartItems renders items in order.
func (pr *Presenter) CartItems(items []cart.ResolvedItem, cur currency.Code) []CartItemView {
	out := make([]CartItemView, len(items))
	for i, it := range items {
		out[i] = pr.CartItem(it, cur)
	}
	return out
}
