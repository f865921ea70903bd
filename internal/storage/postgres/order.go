package postgres

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/order"
)

const (
	orderColumns = `id, status, customer_id, billing, shipping, payment, currency,
		line_items, fees, coupons, subtotal, fee_total, discount_total, shipping_total, total,
		customer_note, send_news_offers, created_at`

	createOrderSQL = `INSERT INTO orders (status, customer_id, billing_email, billing, shipping, payment,
		currency, line_items, fees, coupons, subtotal, fee_total, discount_total, shipping_total, total,
		customer_note, send_news_offers, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE ($1::bigint > 0 AND customer_id = $1) OR ($2 <> '' AND billing_email = $2)
		ORDER BY id DESC LIMIT $3 OFFSET $4`

	countOrdersSQL = `SELECT COUNT(*) FROM orders
		WHERE ($1::bigint > 0 AND customer_id = $1) OR ($2 <> '' AND billing_email = $2)`

	updateStatusSQL = `UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`

	orderExistsSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository stores orders. Line items, fees, coupons and addresses are
// kept as JSONB snapshots.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates an OrderRepository.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts o in a single statement and sets o.ID.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	err := r.pool.QueryRow(ctx, createOrderSQL,
		string(o.Status), o.CustomerID, strings.ToLower(strings.TrimSpace(o.Billing.Email)),
		o.Billing, o.Shipping, o.Payment, string(o.Currency),
		o.LineItems, nonNilSlice(o.Fees), nonNilSlice(o.Coupons),
		o.Subtotal, o.FeeTotal, o.DiscountTotal, o.ShippingTotal, o.Total,
		o.CustomerNote, o.SendNewsOffers, o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}
	return nil
}

// GetByID returns order id or order.ErrOrderNotFound.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "query order %d", id)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, errors.Wrapf(err, "scan order %d", id)
	}
	return o, nil
}

// List returns one page of matching orders, newest first, and the number of
// all matches.
func (r *OrderRepository) List(ctx context.Context, f order.Filter, p order.Page) ([]*order.Order, int, error) {
	email := strings.ToLower(strings.TrimSpace(f.Email))

	var total int
	if err := r.pool.QueryRow(ctx, countOrdersSQL, f.CustomerID, email).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count orders")
	}
	if total == 0 {
		return []*order.Order{}, 0, nil
	}

	rows, err := r.pool.Query(ctx, listOrdersSQL, f.CustomerID, email, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, errors.Wrap(err, "query orders")
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, errors.Wrap(err, "scan orders")
	}
	return orders, total, nil
}

// UpdateStatus moves order id from one status to another. It fails with
// order.ErrStatusChanged if the stored status is no longer from.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, from, to order.Status) error {
	tag, err := r.pool.Exec(ctx, updateStatusSQL, id, string(from), string(to))
	if err != nil {
		return errors.Wrapf(err, "update order %d status", id)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, orderExistsSQL, id).Scan(&exists); err != nil {
		return errors.Wrapf(err, "check order %d", id)
	}
	if !exists {
		return order.ErrOrderNotFound
	}
	return order.ErrStatusChanged
}

func scanOrder(row pgx.CollectableRow) (*order.Order, error) {
	var (
		o      order.Order
		status string
		code   string
	)
	err := row.Scan(&o.ID, &status, &o.CustomerID, &o.Billing, &o.Shipping, &o.Payment, &code,
		&o.LineItems, &o.Fees, &o.Coupons, &o.Subtotal, &o.FeeTotal, &o.DiscountTotal, &o.ShippingTotal, &o.Total,
		&o.CustomerNote, &o.SendNewsOffers, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = order.Status(status)
	o.Currency = currency.Code(code)
	return &o, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
