package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVariable() *Variable {
	return &Variable{
		Info: Info{ID: 20, Name: "Kebaya", Price: decimal.NewFromInt(120), Stock: Stock{InStock: true}},
		Variations: []Variation{
			{ID: 21, SKU: "KB-S", Price: decimal.NewFromInt(110), Stock: Stock{InStock: true, Managed: true, Quantity: 3}, Attributes: map[string]string{"size": "S"}},
			{ID: 22, SKU: "KB-M", Price: decimal.NewFromInt(115), Stock: Stock{InStock: false}},
		},
	}
}

func TestStock_Allows(t *testing.T) {
	tests := []struct {
		name  string
		stock Stock
		qty   int
		want  bool
	}{
		{"unmanaged in stock", Stock{InStock: true}, 1000, true},
		{"unmanaged out of stock", Stock{InStock: false}, 1, false},
		{"managed within stock", Stock{InStock: true, Managed: true, Quantity: 5}, 5, true},
		{"managed above stock", Stock{InStock: true, Managed: true, Quantity: 5}, 6, false},
		{"managed but flagged out", Stock{InStock: false, Managed: true, Quantity: 5}, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.stock.Allows(tt.qty))
		})
	}
}

func TestIsAvailable_UsesVariationWhenGiven(t *testing.T) {
	p := newVariable()

	assert.True(t, IsAvailable(p, 21, 3))
	assert.False(t, IsAvailable(p, 21, 4))
	assert.False(t, IsAvailable(p, 22, 1))
	assert.True(t, IsAvailable(p, 0, 50), "product level stock is unmanaged")
	assert.False(t, IsAvailable(p, 99, 1), "unknown variation")
}

func TestCheckStock_Errors(t *testing.T) {
	p := newVariable()

	assert.ErrorIs(t, CheckStock(p, 21, 4), ErrOutOfStock)
	assert.ErrorIs(t, CheckStock(p, 99, 1), ErrVariationNotFound)

	simple := &Simple{Info: Info{ID: 10, Stock: Stock{InStock: true}}}
	assert.ErrorIs(t, CheckStock(simple, 5, 1), ErrVariationNotFound)
	assert.NoError(t, CheckStock(simple, 0, 1))
}

func TestResolve(t *testing.T) {
	p := newVariable()

	target, err := Resolve(p, 21)
	require.NoError(t, err)
	assert.Equal(t, int64(21), target.VariationID)
	assert.Equal(t, "KB-S", target.SKU)
	assert.True(t, decimal.NewFromInt(110).Equal(target.Price))
	assert.Equal(t, "S", target.Attributes["size"])

	target, err = Resolve(p, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), target.VariationID)
	assert.True(t, decimal.NewFromInt(120).Equal(target.Price))

	assert.True(t, RequiresVariation(p))
	assert.False(t, RequiresVariation(&Simple{}))
}

func TestRegionForCategory(t *testing.T) {
	assert.EqualValues(t, "MYR", RegionForCategory(CategoryMalaysia))
	assert.EqualValues(t, "VND", RegionForCategory(CategoryVietnam))
	assert.EqualValues(t, "", RegionForCategory("accessories"))
}

type slowRepo struct {
	calls    atomic.Int32
	products map[int64]Product
	err      error
	release  chan struct{}
}

func (r *slowRepo) GetProduct(_ context.Context, id int64) (Product, error) {
	r.calls.Add(1)
	if r.release != nil {
		<-r.release
	}
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (r *slowRepo) GetProducts(ctx context.Context, ids []int64) ([]Product, error) {
	var out []Product
	for _, id := range ids {
		if p, err := r.GetProduct(ctx, id); err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestSharedReader_CollapsesConcurrentLookups(t *testing.T) {
	repo := &slowRepo{
		products: map[int64]Product{10: &Simple{Info: Info{ID: 10}}},
		release:  make(chan struct{}),
	}
	reader := NewSharedReader(repo)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]Product, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := reader.GetProduct(context.Background(), 10)
			assert.NoError(t, err)
			results[i] = p
		}()
	}

	// Give the callers time to pile up behind the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(repo.release)
	wg.Wait()

	assert.LessOrEqual(t, repo.calls.Load(), int32(callers))
	assert.GreaterOrEqual(t, repo.calls.Load(), int32(1))
	for _, p := range results {
		require.NotNil(t, p)
		assert.Equal(t, int64(10), p.Base().ID)
	}
}

func TestLookup(t *testing.T) {
	repo := &slowRepo{products: map[int64]Product{
		10: &Simple{Info: Info{ID: 10}},
		20: newVariable(),
	}}

	got, err := Lookup(context.Background(), repo, []int64{10, 20, 10, 404})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, KindVariable, got[20].Kind())
	assert.Equal(t, int32(3), repo.calls.Load(), "duplicate ids are fetched once")

	failing := &slowRepo{err: errors.New("catalog down")}
	_, err = Lookup(context.Background(), failing, []int64{1})
	assert.Error(t, err)
}
