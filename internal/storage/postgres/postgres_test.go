//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/catalog"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/coupon"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/order"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("jenho"),
		tcpostgres.WithUsername("jenho"),
		tcpostgres.WithPassword("jenho"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))
	require.NoError(t, RunMigrations(ctx, pool), "schema must be idempotent")

	_, err = pool.Exec(ctx, `
		INSERT INTO products (id, name, sku, type, category, price, regular_price, in_stock, manage_stock, stock_quantity)
		VALUES (10, 'Scarf', 'SC-10', 'simple', 'jenho-viet-nam', 4, 5, TRUE, FALSE, 0),
		       (20, 'Baju Kurung', 'BK-20', 'variable', 'jenho-malaysia', 100, 120, TRUE, FALSE, 0);
		INSERT INTO product_variations (id, product_id, sku, price, regular_price, in_stock, manage_stock, stock_quantity, attributes)
		VALUES (21, 20, 'BK-20-S', 100, 120, TRUE, TRUE, 3, '{"size":"S"}'),
		       (22, 20, 'BK-20-M', 110, 120, TRUE, FALSE, 0, '{"size":"M"}');
		INSERT INTO customers (id, email, billing, shipping)
		VALUES (7, 'amy@example.com', '{"first_name":"Amy","city":"Kuala Lumpur"}', '{"first_name":"Amy"}');
	`)
	require.NoError(t, err)
	return pool
}

func TestRepositories(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	t.Run("products", func(t *testing.T) {
		repo := NewProductRepository(pool)

		p, err := repo.GetProduct(ctx, 20)
		require.NoError(t, err)
		v, ok := p.(*catalog.Variable)
		require.True(t, ok)
		assert.Equal(t, currency.Region(currency.MYR), v.Region)
		require.Len(t, v.Variations, 2)
		assert.Equal(t, map[string]string{"size": "S"}, v.Variations[0].Attributes)
		assert.True(t, v.Variations[0].Stock.Managed)
		assert.Equal(t, 3, v.Variations[0].Stock.Quantity)

		_, err = repo.GetProduct(ctx, 404)
		require.ErrorIs(t, err, catalog.ErrProductNotFound)

		list, err := repo.GetProducts(ctx, []int64{10, 20, 404})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, catalog.KindSimple, list[0].Kind())
		assert.True(t, d("4").Equal(list[0].Base().Price))
	})

	t.Run("coupons", func(t *testing.T) {
		repo := NewCouponRepository(pool)
		until := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)

		require.NoError(t, repo.Upsert(ctx, &coupon.Coupon{
			Code: "SAVE10", DiscountType: coupon.DiscountPercentage, Amount: d("10"),
			ValidUntil: &until, ProductIDs: []int64{10},
		}))

		c, err := repo.FindByCode(ctx, "save10")
		require.NoError(t, err)
		assert.Equal(t, coupon.DiscountPercentage, c.DiscountType)
		assert.Equal(t, []int64{10}, c.ProductIDs)
		require.NotNil(t, c.ValidUntil)
		assert.True(t, until.Equal(*c.ValidUntil))

		require.NoError(t, repo.IncrementUses(ctx, "SAVE10"))
		c, err = repo.FindByCode(ctx, "SAVE10")
		require.NoError(t, err)
		assert.Equal(t, 1, c.UsageCount)

		n, err := repo.CopyCoupons(ctx, []coupon.Coupon{
			{Code: "BULK0001", DiscountType: coupon.DiscountPercentage, Amount: d("10")},
			{Code: "SAVE10", DiscountType: coupon.DiscountFixed, Amount: d("99")},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		c, err = repo.FindByCode(ctx, "SAVE10")
		require.NoError(t, err)
		assert.Equal(t, coupon.DiscountPercentage, c.DiscountType, "bulk load keeps existing coupons")

		_, err = repo.FindByCode(ctx, "NOPE")
		require.ErrorIs(t, err, coupon.ErrInvalidCoupon)
	})

	t.Run("customers", func(t *testing.T) {
		repo := NewCustomerRepository(pool)
		c, err := repo.GetCustomer(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "Kuala Lumpur", c.Billing.City)

		_, err = repo.GetCustomer(ctx, 8)
		require.ErrorIs(t, err, ErrCustomerNotFound)
	})

	t.Run("upserts", func(t *testing.T) {
		products := NewProductRepository(pool)
		require.NoError(t, products.Upsert(ctx, &catalog.Variable{
			Info: catalog.Info{ID: 40, Name: "Kebaya", SKU: "KB-40", Category: catalog.CategoryVietnam, Price: d("60")},
			Variations: []catalog.Variation{
				{ID: 41, SKU: "KB-40-S", Price: d("60"), Stock: catalog.Stock{InStock: true}},
			},
		}))
		require.NoError(t, products.Upsert(ctx, &catalog.Variable{
			Info: catalog.Info{ID: 40, Name: "Kebaya Lace", SKU: "KB-40", Category: catalog.CategoryVietnam, Price: d("65")},
			Variations: []catalog.Variation{
				{ID: 42, SKU: "KB-40-M", Price: d("65"), Stock: catalog.Stock{InStock: true}, Attributes: map[string]string{"size": "M"}},
			},
		}))

		p, err := products.GetProduct(ctx, 40)
		require.NoError(t, err)
		assert.Equal(t, "Kebaya Lace", p.Base().Name)
		assert.Equal(t, currency.Region(currency.VND), p.Base().Region)
		v := p.(*catalog.Variable)
		require.Len(t, v.Variations, 1)
		assert.Equal(t, int64(42), v.Variations[0].ID)

		customers := NewCustomerRepository(pool)
		require.NoError(t, customers.Upsert(ctx, &order.Customer{
			ID: 8, Email: "binh@example.com",
			Billing: order.Address{FirstName: "Binh", Phone: "0901234567"},
		}))
		c, err := customers.GetCustomer(ctx, 8)
		require.NoError(t, err)
		assert.Equal(t, "0901234567", c.Billing.Phone)
	})

	t.Run("orders", func(t *testing.T) {
		repo := NewOrderRepository(pool)
		created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

		newOrder := func(customerID int64) *order.Order {
			o := &order.Order{
				Status:     order.StatusPending,
				CustomerID: customerID,
				Billing:    order.Address{FirstName: "Lan", Email: "Lan@Example.com", Phone: "0901234567"},
				Payment:    order.Payment{Method: "cod"},
				Currency:   currency.VND,
				LineItems: []order.LineItem{{
					ProductID: 10, Name: "Scarf", ProductType: catalog.KindSimple, Quantity: 1,
					UnitPrice: d("100000"), Subtotal: d("100000"),
				}},
				Fees:      []order.Fee{{Name: "Shipping Fee", Amount: d("30000")}},
				CreatedAt: created,
			}
			o.CalculateTotals()
			return o
		}

		first := newOrder(7)
		require.NoError(t, repo.Create(ctx, first))
		assert.NotZero(t, first.ID)
		second := newOrder(0)
		require.NoError(t, repo.Create(ctx, second))

		got, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPending, got.Status)
		assert.Equal(t, currency.VND, got.Currency)
		assert.Equal(t, "130000.00", got.Total.StringFixed(2))
		require.Len(t, got.LineItems, 1)
		assert.True(t, d("100000").Equal(got.LineItems[0].Total))
		assert.Empty(t, got.Coupons)
		assert.True(t, created.Equal(got.CreatedAt))

		byEmail, total, err := repo.List(ctx, order.Filter{Email: "lan@example.com"}, order.Page{Limit: 1, Page: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, byEmail, 1)
		assert.Equal(t, second.ID, byEmail[0].ID, "newest first")

		byCustomer, total, err := repo.List(ctx, order.Filter{CustomerID: 7}, order.Page{Limit: 10, Page: 1})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Len(t, byCustomer, 1)

		require.NoError(t, repo.UpdateStatus(ctx, first.ID, order.StatusPending, order.StatusCancelled))
		require.ErrorIs(t, repo.UpdateStatus(ctx, first.ID, order.StatusPending, order.StatusCancelled), order.ErrStatusChanged)
		require.ErrorIs(t, repo.UpdateStatus(ctx, 999999, order.StatusPending, order.StatusCancelled), order.ErrOrderNotFound)

		_, err = repo.GetByID(ctx, 999999)
		require.ErrorIs(t, err, order.ErrOrderNotFound)
	})
}
