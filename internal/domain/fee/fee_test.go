package fee

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testCalculator() *Calculator {
	ex := currency.NewExchanger(currency.RatioTable{
		currency.USD: d("0.25"),
		currency.VND: d("25000"),
	})
	return NewCalculator(d("10"), ShippingTable{
		Rules: map[currency.Code]ShippingRule{
			currency.MYR: {Under: d("200"), Fee: d("15")},
			currency.VND: {Under: d("1000000"), Fee: d("30000")},
			currency.SGD: {Under: d("0"), Fee: d("10")},
		},
		Fallback: ShippingRule{Under: d("300"), Fee: d("40")},
	}, ex)
}

func TestCalculator_Customization(t *testing.T) {
	c := testCalculator()

	assert.True(t, d("6").Equal(c.Customization(d("30"), 2)))
	assert.True(t, d("0").Equal(c.Customization(d("30"), 0)))

	none := NewCalculator(decimal.Zero, ShippingTable{}, nil)
	assert.True(t, none.Customization(d("30"), 2).IsZero())
}

func TestCalculator_Shipping(t *testing.T) {
	c := testCalculator()

	tests := []struct {
		name     string
		currency currency.Code
		subtotal string
		want     string
	}{
		{"listed currency below threshold", currency.MYR, "199.99", "15"},
		{"listed currency at threshold is free", currency.MYR, "200", "0"},
		{"vnd below threshold", currency.VND, "100000", "30000"},
		{"malformed rule is free", currency.SGD, "1", "0"},
		{"fallback compares in base currency", currency.USD, "70", "10"},
		{"fallback above threshold", currency.USD, "80", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Shipping(tt.currency, d(tt.subtotal))
			assert.True(t, d(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestCalculator_ShippingWithoutFallback(t *testing.T) {
	c := NewCalculator(decimal.Zero, ShippingTable{}, currency.NewExchanger(nil))
	assert.True(t, c.Shipping(currency.USD, d("1")).IsZero())
}
