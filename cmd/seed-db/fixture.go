package main

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/catalog"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/coupon"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/order"
)

type stockJSON struct {
	InStock  *bool `json:"in_stock"`
	Managed  bool  `json:"manage_stock"`
	Quantity int   `json:"stock_quantity"`
}

func (s stockJSON) stock() catalog.Stock {
	in := true
	if s.InStock != nil {
		in = *s.InStock
	}
	return catalog.Stock{InStock: in, Managed: s.Managed, Quantity: s.Quantity}
}

type variationJSON struct {
	ID           int64             `json:"id"`
	SKU          string            `json:"sku"`
	Price        decimal.Decimal   `json:"price"`
	RegularPrice decimal.Decimal   `json:"regular_price"`
	Attributes   map[string]string `json:"attributes"`
	stockJSON
}

type productJSON struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	Type         catalog.Kind    `json:"type"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	RegularPrice decimal.Decimal `json:"regular_price"`
	Image        string          `json:"image"`
	Variations   []variationJSON `json:"variations"`
	stockJSON
}

type couponJSON struct {
	Code               string          `json:"code"`
	DiscountType       string          `json:"discount_type"`
	Amount             decimal.Decimal `json:"amount"`
	Description        string          `json:"description"`
	ValidFrom          *time.Time      `json:"valid_from"`
	ValidUntil         *time.Time      `json:"valid_until"`
	UsageLimit         int             `json:"usage_limit"`
	MaxDiscount        decimal.Decimal `json:"max_discount"`
	MinItems           int             `json:"min_items"`
	ProductIDs         []int64         `json:"product_ids"`
	ExcludedProductIDs []int64         `json:"excluded_product_ids"`
}

type customerJSON struct {
	ID       int64         `json:"id"`
	Email    string        `json:"email"`
	Billing  order.Address `json:"billing"`
	Shipping order.Address `json:"shipping"`
}

type fixtureJSON struct {
	Products  []productJSON  `json:"products"`
	Coupons   []couponJSON   `json:"coupons"`
	Customers []customerJSON `json:"customers"`
}

// Fixture is a decoded seed file.
type Fixture struct {
	Products  []catalog.Product
	Coupons   []coupon.Coupon
	Customers []order.Customer
}

// DecodeFixture reads and validates a seed file.
func DecodeFixture(r io.Reader) (*Fixture, error) {
	var raw fixtureJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode fixture")
	}

	f := &Fixture{}
	for _, p := range raw.Products {
		product, err := p.product()
		if err != nil {
			return nil, errors.Wrapf(err, "product %d", p.ID)
		}
		f.Products = append(f.Products, product)
	}
	for _, c := range raw.Coupons {
		cp, err := c.coupon()
		if err != nil {
			return nil, errors.Wrapf(err, "coupon %q", c.Code)
		}
		f.Coupons = append(f.Coupons, cp)
	}
	for _, c := range raw.Customers {
		if c.ID <= 0 || c.Email == "" {
			return nil, errors.Errorf("customer %d: id and email are required", c.ID)
		}
		f.Customers = append(f.Customers, order.Customer{
			ID: c.ID, Email: c.Email, Billing: c.Billing, Shipping: c.Shipping,
		})
	}
	return f, nil
}

func (p productJSON) product() (catalog.Product, error) {
	if p.ID <= 0 || p.Name == "" {
		return nil, errors.New("id and name are required")
	}
	info := catalog.Info{
		ID:           p.ID,
		Name:         p.Name,
		SKU:          p.SKU,
		Category:     p.Category,
		Region:       catalog.RegionForCategory(p.Category),
		Price:        p.Price,
		RegularPrice: orPrice(p.RegularPrice, p.Price),
		Stock:        p.stock(),
		Image:        p.Image,
	}

	switch p.Type {
	case catalog.KindSimple, "":
		if len(p.Variations) > 0 {
			return nil, errors.New("simple product cannot have variations")
		}
		return &catalog.Simple{Info: info}, nil
	case catalog.KindVariable:
		if len(p.Variations) == 0 {
			return nil, errors.New("variable product needs at least one variation")
		}
		v := &catalog.Variable{Info: info}
		for _, vj := range p.Variations {
			if vj.ID <= 0 || vj.ID == p.ID {
				return nil, errors.Errorf("invalid variation id %d", vj.ID)
			}
			v.Variations = append(v.Variations, catalog.Variation{
				ID:           vj.ID,
				SKU:          vj.SKU,
				Price:        vj.Price,
				RegularPrice: orPrice(vj.RegularPrice, vj.Price),
				Stock:        vj.stock(),
				Attributes:   vj.Attributes,
			})
		}
		return v, nil
	default:
		return nil, errors.Errorf("unknown product type %q", p.Type)
	}
}

func (c couponJSON) coupon() (coupon.Coupon, error) {
	t := coupon.DiscountType(c.DiscountType)
	if t != coupon.DiscountPercentage && t != coupon.DiscountFixed {
		return coupon.Coupon{}, errors.Errorf("unknown discount type %q", c.DiscountType)
	}
	if c.Code == "" || c.Amount.IsNegative() {
		return coupon.Coupon{}, errors.New("code and a non-negative amount are required")
	}
	return coupon.Coupon{
		Code:               strings.ToUpper(strings.TrimSpace(c.Code)),
		DiscountType:       t,
		Amount:             c.Amount,
		Description:        c.Description,
		ValidFrom:          c.ValidFrom,
		ValidUntil:         c.ValidUntil,
		UsageLimit:         c.UsageLimit,
		MaxDiscount:        c.MaxDiscount,
		MinItems:           c.MinItems,
		ProductIDs:         c.ProductIDs,
		ExcludedProductIDs: c.ExcludedProductIDs,
	}, nil
}

func orPrice(v, fallback decimal.Decimal) decimal.Decimal {
	if v.IsZero() {
		return fallback
	}
	return v
}
