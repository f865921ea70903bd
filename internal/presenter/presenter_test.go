package presenter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/cart"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/catalog"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/coupon"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/fee"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/order"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testPresenter() *Presenter {
	return New(currency.NewExchanger(currency.RatioTable{currency.VND: d("25000")}))
}

func variable() *catalog.Variable {
	return &catalog.Variable{
		Info: catalog.Info{ID: 20, Name: "Baju Kurung", SKU: "BK", Price: d("100"), RegularPrice: d("120"), Stock: catalog.Stock{InStock: true}},
		Variations: []catalog.Variation{
			{ID: 21, SKU: "BK-S", Price: d("4"), RegularPrice: d("5"), Stock: catalog.Stock{InStock: true, Managed: true, Quantity: 2}, Attributes: map[string]string{"size": "S"}},
		},
	}
}

func TestPresenter_Product(t *testing.T) {
	pr := testPresenter()

	t.Run("simple", func(t *testing.T) {
		v := pr.Product(&catalog.Simple{Info: catalog.Info{ID: 1, Name: "Scarf", Price: d("4")}}, currency.VND)
		assert.Equal(t, catalog.KindSimple, v.Type)
		assert.Equal(t, "100000.00", v.Price)
		assert.Equal(t, "outofstock", v.StockView.Status)
		assert.Nil(t, v.Quantity)
		assert.Empty(t, v.Variations)
	})

	t.Run("variable", func(t *testing.T) {
		v := pr.Product(variable(), currency.MYR)
		assert.Equal(t, catalog.KindVariable, v.Type)
		require.Len(t, v.Variations, 1)
		assert.Equal(t, "4.00", v.Variations[0].Price)
		assert.Equal(t, "instock", v.Variations[0].StockView.Status)
		require.NotNil(t, v.Variations[0].Quantity)
		assert.Equal(t, 2, *v.Variations[0].Quantity)
	})
}

func TestPresenter_CartItem(t *testing.T) {
	pr := testPresenter()
	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	v := pr.CartItem(cart.ResolvedItem{
		Item:    cart.Item{Key: "k1", ProductID: 20, VariationID: 21, Quantity: 3, CreatedAt: created},
		Product: variable(),
	}, currency.VND)

	assert.Equal(t, "k1", v.Key)
	assert.Equal(t, "BK-S", v.SKU)
	assert.Equal(t, "100000.00", v.Price)
	assert.Equal(t, "300000.00", v.Subtotal)
	assert.Equal(t, "2026-02-01T08:00:00Z", v.CreatedAt)
	require.NotNil(t, v.Product)

	orphan := pr.CartItem(cart.ResolvedItem{Item: cart.Item{Key: "k2", ProductID: 99, Quantity: 1}}, currency.MYR)
	assert.Nil(t, orphan.Product)
	assert.Equal(t, "0.00", orphan.Price)
}

func TestOrder(t *testing.T) {
	o := &order.Order{
		ID:       101,
		Status:   order.StatusPending,
		Currency: currency.VND,
		Billing:  order.Address{FirstName: "Lan", Email: "lan@example.com", Phone: "0901234567"},
		Payment:  order.Payment{Method: "cod"},
		LineItems: []order.LineItem{{
			ProductID: 10, Name: "Scarf", ProductType: catalog.KindSimple,
			Quantity: 1, UnitPrice: d("100000"), Subtotal: d("100000"), Total: d("100000"),
		}},
		Fees:      []order.Fee{{Name: fee.ShippingName, Amount: d("30000")}},
		Coupons:   []order.AppliedCoupon{},
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	o.CalculateTotals()

	raw, err := json.Marshal(Order(o))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "130000.00", body["total"])
	assert.Equal(t, "30000.00", body["shipping_total"])
	assert.Equal(t, "2026-03-01T10:00:00Z", body["date_created"])
	assert.Equal(t, []any{}, body["coupons"])

	info := body["order_info"].(map[string]any)
	billing := info["billing"].(map[string]any)
	assert.Equal(t, "lan@example.com", billing["email"])

	items := body["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "100000.00", item["total"])
	assert.Equal(t, "simple", item["type"])
	assert.NotContains(t, item, "taxes")
}

func TestCouponPreview(t *testing.T) {
	v := CouponPreview(&coupon.Preview{
		Code:     "SAVE10",
		Currency: currency.MYR,
		Items: []coupon.PreviewLine{{
			PreviewItem:     coupon.PreviewItem{ProductID: 10, Quantity: 1},
			OriginalPrice:   d("100"),
			Discount:        d("10"),
			DiscountedPrice: d("90"),
		}},
	})
	require.Len(t, v.Items, 1)
	assert.Equal(t, "10.00", v.Items[0].Discount)
	assert.Equal(t, "90.00", v.Items[0].DiscountedPrice)
}
