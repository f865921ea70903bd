// Package currency converts base-currency catalog prices into display
// currencies and reconciles order currencies with product sales regions.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/apperr"
)

// Code is an ISO 4217 currency code accepted by the storefront.
type Code string

const (
	MYR Code = "MYR"
	VND Code = "VND"
	USD Code = "USD"
	SGD Code = "SGD"
)

// Default is used when a request does not name a currency.
const Default = MYR

// ErrInvalidCurrency is returned for unsupported codes and for products that
// are not sold in the requested currency.
var ErrInvalidCurrency = apperr.Validation("invalid_currency", "invalid currency")

// Supported lists every accepted currency code.
var Supported = []Code{MYR, VND, USD, SGD}

// Parse normalizes s into a supported Code. An empty string yields Default.
func Parse(s string) (Code, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Default, nil
	}
	for _, c := range Supported {
		if string(c) == s {
			return c, nil
		}
	}
	return "", ErrInvalidCurrency.WithMessage("currency must be one of MYR, VND, USD, SGD")
}

// RatioTable maps a currency to its conversion ratio from the base currency.
type RatioTable map[Code]decimal.Decimal

// Exchanger converts amounts between the base currency and display
// currencies. It is safe for concurrent use once constructed.
type Exchanger struct {
	ratios RatioTable
}

// NewExchanger returns an Exchanger over a copy of ratios.
func NewExchanger(ratios RatioTable) *Exchanger {
	r := make(RatioTable, len(ratios))
	for k, v := range ratios {
		r[k] = v
	}
	return &Exchanger{ratios: r}
}

func (e *Exchanger) ratio(code Code) (decimal.Decimal, bool) {
	if e == nil {
		return decimal.Zero, false
	}
	r, ok := e.ratios[code]
	if !ok || !r.IsPositive() {
		return decimal.Zero, false
	}
	return r, true
}

// Convert turns a base-currency amount into code. Without a usable ratio the
// amount passes through, rounded to 2 decimals.
func (e *Exchanger) Convert(code Code, amount decimal.Decimal) decimal.Decimal {
	r, ok := e.ratio(code)
	if !ok {
		return amount.Round(2)
	}
	return amount.Mul(r).Round(2)
}

// ConvertReverse turns an amount in code back into the base currency.
func (e *Exchanger) ConvertReverse(code Code, amount decimal.Decimal) decimal.Decimal {
	r, ok := e.ratio(code)
	if !ok {
		return amount
	}
	return amount.Div(r).Round(2)
}

// Region is the sales region a product is stocked for.
type Region Code

// RegionOf returns the sales region that serves orders in code.
func RegionOf(code Code) Region {
	if code == VND {
		return Region(VND)
	}
	return Region(MYR)
}

// Reconcile checks that a product stocked for region can be sold in code. An
// empty region means the product is sold everywhere.
func Reconcile(region Region, code Code) error {
	if region == "" || RegionOf(code) == region {
		return nil
	}
	return ErrInvalidCurrency.WithMessage("product is not sold in " + string(code))
}
