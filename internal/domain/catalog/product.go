// Package catalog models the read-only product snapshot supplied by the
// commerce platform and the stock rules evaluated against it.
package catalog

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/apperr"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
)

var (
	// ErrProductNotFound is returned when a product id is unknown.
	ErrProductNotFound = apperr.NotFound("product_not_found", "product not found")
	// ErrVariationNotFound is returned when a variation does not belong to the product.
	ErrVariationNotFound = apperr.NotFound("variation_not_found", "variation not found")
	// ErrVariationRequired is returned when a variable product is addressed without a variation.
	ErrVariationRequired = apperr.Validation("variation_required", "variation_id is required for this product")
)

// Kind names the product variant.
type Kind string

const (
	KindSimple   Kind = "simple"
	KindVariable Kind = "variable"
)

// Stock is the inventory state of a product or variation.
type Stock struct {
	InStock  bool
	Managed  bool
	Quantity int
}

// Info holds the fields shared by every product variant.
type Info struct {
	ID           int64
	Name         string
	SKU          string
	Category     string
	Region       currency.Region
	Price        decimal.Decimal
	RegularPrice decimal.Decimal
	Stock        Stock
	Image        string
}

// Product is either a *Simple or a *Variable.
type Product interface {
	Base() *Info
	Kind() Kind
	sealed()
}

// Simple is a product sold as a single SKU.
type Simple struct {
	Info
}

func (p *Simple) Base() *Info { return &p.Info }
func (p *Simple) Kind() Kind  { return KindSimple }
func (*Simple) sealed()       {}

// Variable is a product sold through its variations.
type Variable struct {
	Info
	Variations []Variation
}

func (p *Variable) Base() *Info { return &p.Info }
func (p *Variable) Kind() Kind  { return KindVariable }
func (*Variable) sealed()       {}

// Variation returns the variation with the given id.
func (p *Variable) Variation(id int64) (*Variation, bool) {
	for i := range p.Variations {
		if p.Variations[i].ID == id {
			return &p.Variations[i], true
		}
	}
	return nil, false
}

// Variation is one SKU of a variable product.
type Variation struct {
	ID           int64
	SKU          string
	Price        decimal.Decimal
	RegularPrice decimal.Decimal
	Stock        Stock
	Attributes   map[string]string
}

// Target is the priced, stock-carrying entity an item resolves to: the
// variation when one is given, otherwise the product itself.
type Target struct {
	ProductID   int64
	VariationID int64
	Name        string
	SKU         string
	Price       decimal.Decimal
	Stock       Stock
	Attributes  map[string]string
}

// Resolve picks the target for variationID. Zero means the product itself.
func Resolve(p Product, variationID int64) (Target, error) {
	info := p.Base()
	if variationID == 0 {
		return Target{
			ProductID: info.ID,
			Name:      info.Name,
			SKU:       info.SKU,
			Price:     info.Price,
			Stock:     info.Stock,
		}, nil
	}

	v, ok := p.(*Variable)
	if !ok {
		return Target{}, ErrVariationNotFound
	}
	variation, ok := v.Variation(variationID)
	if !ok {
		return Target{}, ErrVariationNotFound
	}
	return Target{
		ProductID:   info.ID,
		VariationID: variation.ID,
		Name:        info.Name,
		SKU:         variation.SKU,
		Price:       variation.Price,
		Stock:       variation.Stock,
		Attributes:  variation.Attributes,
	}, nil
}

// RequiresVariation reports whether items of p must name a variation.
func RequiresVariation(p Product) bool {
	_, ok := p.(*Variable)
	return ok
}

// Repository is the read interface of the catalog collaborator.
type Repository interface {
	GetProduct(ctx context.Context, id int64) (Product, error)
	GetProducts(ctx context.Context, ids []int64) ([]Product, error)
}
