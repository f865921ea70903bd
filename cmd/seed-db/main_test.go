package main

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/catalog"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/coupon"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/order"
)

func TestDecodeFixture_Bundled(t *testing.T) {
	f, err := os.Open("../../db/seed/catalog.json")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	fx, err := DecodeFixture(f)
	require.NoError(t, err)
	require.Len(t, fx.Products, 3)
	require.Len(t, fx.Coupons, 3)
	require.Len(t, fx.Customers, 1)

	scarf, ok := fx.Products[0].(*catalog.Simple)
	require.True(t, ok)
	assert.Equal(t, currency.Region(currency.VND), scarf.Region)
	assert.True(t, scarf.Stock.InStock)

	kurung, ok := fx.Products[1].(*catalog.Variable)
	require.True(t, ok)
	require.Len(t, kurung.Variations, 3)
	assert.True(t, kurung.Variations[0].Stock.Managed)
	assert.Equal(t, 12, kurung.Variations[0].Stock.Quantity)
	assert.False(t, kurung.Variations[2].Stock.InStock)
	assert.Equal(t, "Red", kurung.Variations[0].Attributes["color"])
	assert.True(t, kurung.Variations[0].RegularPrice.Equal(kurung.Variations[0].Price))

	assert.Equal(t, coupon.DiscountFixed, fx.Coupons[1].DiscountType)
	assert.Equal(t, []int64{20}, fx.Coupons[2].ProductIDs)
}

func TestDecodeFixture_Invalid(t *testing.T) {
	for name, body := range map[string]string{
		"unknown field":      `{"products":[],"extra":1}`,
		"unknown type":       `{"products":[{"id":1,"name":"x","type":"bundle"}]}`,
		"variable no vars":   `{"products":[{"id":1,"name":"x","type":"variable"}]}`,
		"simple with vars":   `{"products":[{"id":1,"name":"x","variations":[{"id":2}]}]}`,
		"variation same id":  `{"products":[{"id":1,"name":"x","type":"variable","variations":[{"id":1}]}]}`,
		"bad discount":       `{"coupons":[{"code":"X","discount_type":"bogo","amount":"1"}]}`,
		"negative amount":    `{"coupons":[{"code":"X","discount_type":"fixed","amount":"-1"}]}`,
		"customer w/o email": `{"customers":[{"id":3}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeFixture(strings.NewReader(body))
			require.Error(t, err)
		})
	}
}

type recorder struct {
	products  []int64
	coupons   []string
	customers []int64
	failOn    string
}

type productRec struct{ *recorder }

func (p productRec) Upsert(_ context.Context, prod catalog.Product) error {
	p.products = append(p.products, prod.Base().ID)
	return nil
}

type couponRec struct{ *recorder }

func (c couponRec) Upsert(_ context.Context, cp *coupon.Coupon) error {
	if cp.Code == c.failOn {
		return errors.New("boom")
	}
	c.coupons = append(c.coupons, cp.Code)
	return nil
}

type customerRec struct{ *recorder }

func (c customerRec) Upsert(_ context.Context, cu *order.Customer) error {
	c.customers = append(c.customers, cu.ID)
	return nil
}

func TestSeeder_Seed(t *testing.T) {
	fx, err := DecodeFixture(strings.NewReader(`{
		"products": [{"id": 1, "name": "Scarf", "price": "5"}],
		"coupons": [{"code": " save5 ", "discount_type": "fixed", "amount": "5"}],
		"customers": [{"id": 9, "email": "a@b.c"}]
	}`))
	require.NoError(t, err)

	rec := &recorder{}
	s := &seeder{lg: zap.NewNop(), products: productRec{rec}, coupons: couponRec{rec}, customers: customerRec{rec}}
	require.NoError(t, s.seed(context.Background(), fx))
	assert.Equal(t, []int64{1}, rec.products)
	assert.Equal(t, []string{"SAVE5"}, rec.coupons)
	assert.Equal(t, []int64{9}, rec.customers)

	rec = &recorder{failOn: "SAVE5"}
	s = &seeder{lg: zap.NewNop(), products: productRec{rec}, coupons: couponRec{rec}, customers: customerRec{rec}}
	require.Error(t, s.seed(context.Background(), fx))
	assert.Empty(t, rec.customers)
}
