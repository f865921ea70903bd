package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/apperr"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/order"
)

const (
	getCustomerSQL = `SELECT id, email, billing, shipping FROM customers WHERE id = $1`

	upsertCustomerSQL = `INSERT INTO customers (id, email, billing, shipping)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email, billing = EXCLUDED.billing, shipping = EXCLUDED.shipping`
)

// ErrCustomerNotFound is returned for unknown customer ids.
var ErrCustomerNotFound = apperr.NotFound("customer_not_found", "customer not found")

var _ order.CustomerDirectory = (*CustomerRepository)(nil)

// CustomerRepository reads customer profiles.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository creates a CustomerRepository.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// GetCustomer returns the profile of customer id.
func (r *CustomerRepository) GetCustomer(ctx context.Context, id int64) (*order.Customer, error) {
	rows, err := r.pool.Query(ctx, getCustomerSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "query customer %d", id)
	}
	c, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (order.Customer, error) {
		var c order.Customer
		err := row.Scan(&c.ID, &c.Email, &c.Billing, &c.Shipping)
		return c, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, errors.Wrapf(err, "scan customer %d", id)
	}
	return &c, nil
}

// Upsert stores the profile of c.
func (r *CustomerRepository) Upsert(ctx context.Context, c *order.Customer) error {
	if _, err := r.pool.Exec(ctx, upsertCustomerSQL, c.ID, c.Email, c.Billing, c.Shipping); err != nil {
		return errors.Wrapf(err, "upsert customer %d", c.ID)
	}
	return nil
}
