package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/catalog"
)

const (
	productColumns = `id, name, sku, type, category, price, regular_price,
		in_stock, manage_stock, stock_quantity, image`

	getProductSQL  = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	getProductsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY id`

	variationsSQL = `SELECT product_id, id, sku, price, regular_price,
		in_stock, manage_stock, stock_quantity, attributes
		FROM product_variations WHERE product_id = ANY($1) ORDER BY product_id, id`

	upsertProductSQL = `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, sku = EXCLUDED.sku, type = EXCLUDED.type,
			category = EXCLUDED.category, price = EXCLUDED.price, regular_price = EXCLUDED.regular_price,
			in_stock = EXCLUDED.in_stock, manage_stock = EXCLUDED.manage_stock,
			stock_quantity = EXCLUDED.stock_quantity, image = EXCLUDED.image`

	deleteVariationsSQL = `DELETE FROM product_variations WHERE product_id = $1`

	insertVariationSQL = `INSERT INTO product_variations (product_id, id, sku, price, regular_price,
		in_stock, manage_stock, stock_quantity, attributes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
)

var _ catalog.Repository = (*ProductRepository)(nil)

// ProductRepository reads the catalog.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository creates a ProductRepository.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetProduct returns the product with its variations, or
// catalog.ErrProductNotFound.
func (r *ProductRepository) GetProduct(ctx context.Context, id int64) (catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "query product %d", id)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, errors.Wrapf(err, "scan product %d", id)
	}
	if err := r.attachVariations(ctx, []catalog.Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProducts returns the products that exist among ids, ordered by id.
func (r *ProductRepository) GetProducts(ctx context.Context, ids []int64) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsSQL, ids)
	if err != nil {
		return nil, errors.Wrap(err, "query products")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, errors.Wrap(err, "scan products")
	}
	if err := r.attachVariations(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// Upsert stores p and replaces its variations in one transaction.
func (r *ProductRepository) Upsert(ctx context.Context, p catalog.Product) error {
	info := p.Base()
	batch := &pgx.Batch{}
	batch.Queue(upsertProductSQL, info.ID, info.Name, info.SKU, string(p.Kind()), info.Category,
		info.Price, info.RegularPrice, info.Stock.InStock, info.Stock.Managed, info.Stock.Quantity, info.Image)
	batch.Queue(deleteVariationsSQL, info.ID)
	if v, ok := p.(*catalog.Variable); ok {
		for _, variation := range v.Variations {
			attrs := variation.Attributes
			if attrs == nil {
				attrs = map[string]string{}
			}
			batch.Queue(insertVariationSQL, info.ID, variation.ID, variation.SKU, variation.Price,
				variation.RegularPrice, variation.Stock.InStock, variation.Stock.Managed,
				variation.Stock.Quantity, attrs)
		}
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return errors.Wrapf(err, "upsert product %d", info.ID)
	}
	return nil
}

func (r *ProductRepository) attachVariations(ctx context.Context, products []catalog.Product) error {
	byID := make(map[int64]*catalog.Variable)
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		if v, ok := p.(*catalog.Variable); ok {
			byID[v.ID] = v
			ids = append(ids, v.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	rows, err := r.pool.Query(ctx, variationsSQL, ids)
	if err != nil {
		return errors.Wrap(err, "query variations")
	}
	type row struct {
		productID int64
		variation catalog.Variation
	}
	variations, err := pgx.CollectRows(rows, func(cr pgx.CollectableRow) (row, error) {
		var (
			out row
			v   = &out.variation
		)
		err := cr.Scan(&out.productID, &v.ID, &v.SKU, &v.Price, &v.RegularPrice,
			&v.Stock.InStock, &v.Stock.Managed, &v.Stock.Quantity, &v.Attributes)
		return out, err
	})
	if err != nil {
		return errors.Wrap(err, "scan variations")
	}
	for _, v := range variations {
		p := byID[v.productID]
		p.Variations = append(p.Variations, v.variation)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		info catalog.Info
		kind string
	)
	err := row.Scan(&info.ID, &info.Name, &info.SKU, &kind, &info.Category,
		&info.Price, &info.RegularPrice,
		&info.Stock.InStock, &info.Stock.Managed, &info.Stock.Quantity, &info.Image)
	if err != nil {
		return nil, err
	}
	info.Region = catalog.RegionForCategory(info.Category)

	if catalog.Kind(kind) == catalog.KindVariable {
		return &catalog.Variable{Info: info}, nil
	}
	return &catalog.Simple{Info: info}, nil
}
