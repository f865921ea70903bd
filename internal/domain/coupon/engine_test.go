package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/catalog"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
)

type mockCouponRepo struct {
	coupon        *Coupon
	err           error
	incrementErr  error
	incrementCode string
}

func (m *mockCouponRepo) FindByCode(_ context.Context, _ string) (*Coupon, error) {
	return m.coupon, m.err
}

func (m *mockCouponRepo) IncrementUses(_ context.Context, code string) error {
	m.incrementCode = code
	return m.incrementErr
}

type mockProducts map[int64]catalog.Product

func (m mockProducts) GetProduct(_ context.Context, id int64) (catalog.Product, error) {
	p, ok := m[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

func (m mockProducts) GetProducts(ctx context.Context, ids []int64) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		if p, ok := m[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestEngine(repo Repository) *Engine {
	products := mockProducts{
		10: &catalog.Simple{Info: catalog.Info{ID: 10, Name: "Scarf", Price: decimal.NewFromInt(100)}},
		20: &catalog.Variable{
			Info: catalog.Info{ID: 20, Name: "Kebaya", Price: decimal.NewFromInt(120)},
			Variations: []catalog.Variation{
				{ID: 21, Price: decimal.NewFromInt(50)},
			},
		},
	}
	ex := currency.NewExchanger(currency.RatioTable{
		currency.VND: decimal.NewFromInt(25000),
		currency.USD: decimal.RequireFromString("0.25"),
	})
	e := NewEngine(repo, products, ex)
	e.now = func() time.Time { return fixedNow }
	return e
}

func lines(subtotals ...int64) []Line {
	out := make([]Line, len(subtotals))
	for i, s := range subtotals {
		out[i] = Line{ProductID: int64(10 + i), Quantity: 1, Subtotal: decimal.NewFromInt(s)}
	}
	return out
}

func TestEngine_ApplyToOrder(t *testing.T) {
	pastTime := fixedNow.Add(-24 * time.Hour)
	futureTime := fixedNow.Add(24 * time.Hour)

	tests := []struct {
		name     string
		repo     *mockCouponRepo
		currency currency.Code
		lines    []Line
		want     decimal.Decimal
		wantErr  error
	}{
		{
			name:     "percentage off the whole order",
			repo:     &mockCouponRepo{coupon: &Coupon{Code: "SAVE10", DiscountType: DiscountPercentage, Amount: decimal.NewFromInt(10)}},
			currency: currency.MYR,
			lines:    lines(100, 50),
			want:     decimal.NewFromInt(15),
		},
		{
			name:     "fixed amount is converted to the order currency",
			repo:     &mockCouponRepo{coupon: &Coupon{Code: "FIVE", DiscountType: DiscountFixed, Amount: decimal.NewFromInt(4)}},
			currency: currency.VND,
			lines:    lines(250000),
			want:     decimal.NewFromInt(100000),
		},
		{
			name:     "fixed amount is capped at the eligible subtotal",
			repo:     &mockCouponRepo{coupon: &Coupon{Code: "BIG", DiscountType: DiscountFixed, Amount: decimal.NewFromInt(500)}},
			currency: currency.MYR,
			lines:    lines(40),
			want:     decimal.NewFromInt(40),
		},
		{
			name: "max discount caps percentage",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code: "CAP", DiscountType: DiscountPercentage, Amount: decimal.NewFromInt(50),
				MaxDiscount: decimal.NewFromInt(20),
			}},
			currency: currency.MYR,
			lines:    lines(100),
			want:     decimal.NewFromInt(20),
		},
		{
			name: "restricted coupon only counts eligible lines",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code: "ONLY11", DiscountType: DiscountPercentage, Amount: decimal.NewFromInt(10),
				ProductIDs: []int64{11},
			}},
			currency: currency.MYR,
			lines:    lines(100, 50),
			want:     decimal.NewFromInt(5),
		},
		{
			name: "no eligible line",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code: "NONE", DiscountType: DiscountPercentage, Amount: decimal.NewFromInt(10),
				ProductIDs: []int64{99},
			}},
			currency: currency.MYR,
			lines:    lines(100),
			wantErr:  ErrCouponNotApplicable,
		},
		{
			name: "minimum item count not met",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code: "MIN3", DiscountType: DiscountFixed, Amount: decimal.NewFromInt(5), MinItems: 3,
			}},
			currency: currency.MYR,
			lines:    lines(20),
			wantErr:  ErrCouponNotApplicable,
		},
		{
			name:     "unknown code",
			repo:     &mockCouponRepo{err: ErrInvalidCoupon},
			currency: currency.MYR,
			lines:    lines(20),
			wantErr:  ErrInvalidCoupon,
		},
		{
			name: "expired",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code: "OLD", DiscountType: DiscountPercentage, Amount: decimal.NewFromInt(10), ValidUntil: &pastTime,
			}},
			currency: currency.MYR,
			lines:    lines(20),
			wantErr:  ErrCouponExpired,
		},
		{
			name: "not yet valid",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code: "FUTURE", DiscountType: DiscountPercentage, Amount: decimal.NewFromInt(10), ValidFrom: &futureTime,
			}},
			currency: currency.MYR,
			lines:    lines(20),
			wantErr:  ErrCouponExpired,
		},
		{
			name: "usage limit reached",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code: "USED", DiscountType: DiscountPercentage, Amount: decimal.NewFromInt(10),
				UsageLimit: 5, UsageCount: 5,
			}},
			currency: currency.MYR,
			lines:    lines(20),
			wantErr:  ErrCouponUsageLimitReached,
		},
		{
			name: "inside window with room left",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code: "WINDOW", DiscountType: DiscountPercentage, Amount: decimal.NewFromInt(10),
				ValidFrom: &pastTime, ValidUntil: &futureTime, UsageLimit: 5, UsageCount: 4,
			}},
			currency: currency.MYR,
			lines:    lines(20),
			want:     decimal.NewFromInt(2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(tt.repo)

			got, err := e.ApplyToOrder(context.Background(), "CODE", tt.currency, tt.lines)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got.Discount), "expected %s, got %s", tt.want, got.Discount)
			require.Len(t, got.LineDiscounts, len(tt.lines))

			sum := decimal.Zero
			for i, d := range got.LineDiscounts {
				assert.False(t, d.IsNegative())
				assert.True(t, d.LessThanOrEqual(tt.lines[i].Subtotal))
				sum = sum.Add(d)
			}
			assert.True(t, sum.Equal(got.Discount))
		})
	}
}

func TestEngine_ApplyToOrder_LookupFailure(t *testing.T) {
	e := newTestEngine(&mockCouponRepo{err: errors.New("db down")})

	_, err := e.ApplyToOrder(context.Background(), "X", currency.MYR, lines(10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lookup coupon")

	_, err = e.ApplyToOrder(context.Background(), "  ", currency.MYR, lines(10))
	assert.ErrorIs(t, err, ErrInvalidCoupon)
}

func TestEngine_Validate(t *testing.T) {
	e := newTestEngine(&mockCouponRepo{})
	c := &Coupon{Code: "V", DiscountType: DiscountPercentage, Amount: decimal.NewFromInt(5), ProductIDs: []int64{21}}

	assert.NoError(t, e.Validate(c, 20, 21))
	assert.ErrorIs(t, e.Validate(c, 10, 0), ErrCouponNotApplicable)

	c.ExcludedProductIDs = []int64{20}
	assert.ErrorIs(t, e.Validate(c, 20, 21), ErrCouponNotApplicable)
}

func TestEngine_Preview(t *testing.T) {
	ctx := context.Background()

	t.Run("ten percent in MYR", func(t *testing.T) {
		e := newTestEngine(&mockCouponRepo{coupon: &Coupon{
			Code: "SAVE10", DiscountType: DiscountPercentage, Amount: decimal.NewFromInt(10),
		}})

		got, err := e.Preview(ctx, "SAVE10", currency.MYR, []PreviewItem{{ProductID: 10, Quantity: 1}})
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		line := got.Items[0]
		assert.True(t, decimal.RequireFromString("100.00").Equal(line.OriginalPrice))
		assert.True(t, decimal.RequireFromString("10.00").Equal(line.Discount))
		assert.True(t, decimal.RequireFromString("90.00").Equal(line.DiscountedPrice))
		assert.Equal(t, currency.MYR, got.Currency)
		assert.Equal(t, "SAVE10", got.Code)
	})

	t.Run("converted and skipping unknown items", func(t *testing.T) {
		e := newTestEngine(&mockCouponRepo{coupon: &Coupon{
			Code: "SAVE10", DiscountType: DiscountPercentage, Amount: decimal.NewFromInt(10),
		}})

		got, err := e.Preview(ctx, "SAVE10", currency.USD, []PreviewItem{
			{ProductID: 20, VariationID: 21, Quantity: 2},
			{ProductID: 20, VariationID: 99, Quantity: 1},
			{ProductID: 404, Quantity: 1},
		})
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		line := got.Items[0]
		assert.True(t, decimal.RequireFromString("25.00").Equal(line.OriginalPrice))
		assert.True(t, decimal.RequireFromString("2.50").Equal(line.Discount))
		assert.True(t, decimal.RequireFromString("22.50").Equal(line.DiscountedPrice))
	})

	t.Run("restricted coupon skips other products", func(t *testing.T) {
		e := newTestEngine(&mockCouponRepo{coupon: &Coupon{
			Code: "ONLY20", DiscountType: DiscountFixed, Amount: decimal.NewFromInt(5), ProductIDs: []int64{20},
		}})

		got, err := e.Preview(ctx, "ONLY20", currency.MYR, []PreviewItem{
			{ProductID: 10, Quantity: 1},
			{ProductID: 20, VariationID: 21, Quantity: 1},
		})
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, int64(20), got.Items[0].ProductID)
		assert.True(t, decimal.NewFromInt(5).Equal(got.Items[0].Discount))
	})

	t.Run("invalid input", func(t *testing.T) {
		e := newTestEngine(&mockCouponRepo{err: ErrInvalidCoupon})

		_, err := e.Preview(ctx, "X", currency.MYR, []PreviewItem{{ProductID: 10, Quantity: 0}})
		require.Error(t, err)

		_, err = e.Preview(ctx, "BOGUS", currency.MYR, []PreviewItem{{ProductID: 10, Quantity: 1}})
		assert.ErrorIs(t, err, ErrInvalidCoupon)
	})
}

func TestEngine_RecordUsage(t *testing.T) {
	repo := &mockCouponRepo{}
	e := newTestEngine(repo)

	require.NoError(t, e.RecordUsage(context.Background(), "INC"))
	assert.Equal(t, "INC", repo.incrementCode)

	repo.incrementErr = errors.New("db error")
	err := e.RecordUsage(context.Background(), "INC")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "increment coupon uses")
}
