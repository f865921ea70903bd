// Package presenter turns domain snapshots into the JSON shapes served by
// the API. Money is rendered as a fixed two-decimal string in the response
// currency.
package presenter

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/catalog"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// StockView is the externally visible stock state.
type StockView struct {
	Status   string `json:"stock_status"`
	Managed  bool   `json:"manage_stock"`
	Quantity *int   `json:"stock_quantity"`
}

func stockView(s catalog.Stock) StockView {
	v := StockView{Status: "outofstock", Managed: s.Managed}
	if s.InStock {
		v.Status = "instock"
	}
	if s.Managed {
		q := s.Quantity
		v.Quantity = &q
	}
	return v
}

// VariationView is one variation of a variable product.
type VariationView struct {
	ID           int64             `json:"id"`
	SKU          string            `json:"sku"`
	Price        string            `json:"price"`
	RegularPrice string            `json:"regular_price"`
	Attributes   map[string]string `json:"attributes"`
	StockView
}

// ProductView is a product with prices in the requested currency.
type ProductView struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	Type         catalog.Kind    `json:"type"`
	Category     string          `json:"category,omitempty"`
	Price        string          `json:"price"`
	RegularPrice string          `json:"regular_price"`
	Image        string          `json:"image,omitempty"`
	Variations   []VariationView `json:"variations,omitempty"`
	StockView
}

// Presenter renders views, converting base-currency catalog prices.
type Presenter struct {
	exchanger *currency.Exchanger
}

// New creates a Presenter.
func New(exchanger *currency.Exchanger) *Presenter {
	return &Presenter{exchanger: exchanger}
}

// Product renders p in cur.
func (pr *Presenter) Product(p catalog.Product, cur currency.Code) ProductView {
	switch p := p.(type) {
	case *catalog.Simple:
		return pr.productInfo(&p.Info, catalog.KindSimple, cur)
	case *catalog.Variable:
		v := pr.productInfo(&p.Info, catalog.KindVariable, cur)
		v.Variations = make([]VariationView, len(p.Variations))
		for i, variation := range p.Variations {
			v.Variations[i] = VariationView{
				ID:           variation.ID,
				SKU:          variation.SKU,
				Price:        money(pr.exchanger.Convert(cur, variation.Price)),
				RegularPrice: money(pr.exchanger.Convert(cur, variation.RegularPrice)),
				Attributes:   variation.Attributes,
				StockView:    stockView(variation.Stock),
			}
		}
		return v
	default:
		return ProductView{}
	}
}

func (pr *Presenter) productInfo(info *catalog.Info, kind catalog.Kind, cur currency.Code) ProductView {
	return ProductView{
		ID:           info.ID,
		Name:         info.Name,
		SKU:          info.SKU,
		Type:         kind,
		Category:     info.Category,
		Price:        money(pr.exchanger.Convert(cur, info.Price)),
		RegularPrice: money(pr.exchanger.Convert(cur, info.RegularPrice)),
		Image:        info.Image,
		StockView:    stockView(info.Stock),
	}
}
