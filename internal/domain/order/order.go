package order

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/apperr"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/catalog"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
)

// Status is the lifecycle state of an order. Only pending → cancelled is
// driven here; other transitions belong to payment and fulfilment.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusOnHold     Status = "on-hold"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
	StatusFailed     Status = "failed"
)

// Cancellable reports whether an order in status s may be cancelled.
func (s Status) Cancellable() bool {
	return s != StatusCancelled && s != StatusCompleted
}

var (
	// ErrOrderNotFound is returned when an order id is unknown.
	ErrOrderNotFound = apperr.NotFound("order_not_found", "order not found")
	// ErrEmptyItems is returned when an order has no line items.
	ErrEmptyItems = apperr.Validation("empty_items", "line_items required")
	// ErrInvalidQuantity is returned for non-positive line quantities.
	ErrInvalidQuantity = apperr.Validation("invalid_quantity", "quantity must be greater than 0")
	// ErrMissingParams is returned when required request fields are absent.
	ErrMissingParams = apperr.Validation("missing_params", "missing required parameters")
	// ErrInvalidAuth is returned when cancel credentials do not match the order.
	ErrInvalidAuth = apperr.Unauthorized("invalid_auth", "email or phone does not match the order")
	// ErrInvalidStatus is returned when the order cannot leave its current status.
	ErrInvalidStatus = apperr.Conflict("invalid_order_status", "order cannot be cancelled in its current status")
	// ErrStatusChanged is returned by Repository.UpdateStatus when the stored
	// status no longer matches the expected one.
	ErrStatusChanged = apperr.Conflict("order_status_changed", "order status changed concurrently")
)

// Address is a billing or shipping address block.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// IsZero reports whether no field is set.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Payment describes how the order is paid.
type Payment struct {
	Method        string `json:"method"`
	MethodTitle   string `json:"method_title"`
	TransactionID string `json:"transaction_id"`
}

// LineItem is one product line of an order. Money amounts are in the order
// currency. Name, SKU and Attributes are captured at order time. Total is
// before coupons; Discount is the line's share of the order's coupons.
type LineItem struct {
	ProductID     int64             `json:"product_id"`
	VariationID   int64             `json:"variation_id"`
	Name          string            `json:"name"`
	SKU           string            `json:"sku"`
	ProductType   catalog.Kind      `json:"product_type"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	Quantity      int               `json:"quantity"`
	UnitPrice     decimal.Decimal   `json:"unit_price"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	Discount      decimal.Decimal   `json:"discount"`
	Total         decimal.Decimal   `json:"total"`
	Customization map[string]string `json:"customize,omitempty"`
}

// Fee is an order-level additive charge.
type Fee struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// AppliedCoupon records a coupon and the discount it granted.
type AppliedCoupon struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// Order is an immutable purchase record; only Status changes after creation.
type Order struct {
	ID             int64
	Status         Status
	CustomerID     int64
	Billing        Address
	Shipping       Address
	Payment        Payment
	Currency       currency.Code
	LineItems      []LineItem
	Fees           []Fee
	Coupons        []AppliedCoupon
	Subtotal       decimal.Decimal
	FeeTotal       decimal.Decimal
	DiscountTotal  decimal.Decimal
	ShippingTotal  decimal.Decimal
	Total          decimal.Decimal
	CustomerNote   string
	SendNewsOffers bool
	CreatedAt      time.Time
}

// Filter selects the orders to list. Exactly one field is expected to be set.
type Filter struct {
	CustomerID int64
	Email      string
}

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is a 1-based page request.
type Page struct {
	Limit int
	Page  int
}

// Normalize applies defaults and bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	return p
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Repository defines persistence operations for orders.
//
// Create stores the order atomically and assigns its ID. UpdateStatus
// changes the status only if it still equals from, returning
// ErrStatusChanged otherwise.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, f Filter, p Page) ([]*Order, int, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status) error
}

// Customer is a registered customer's profile.
type Customer struct {
	ID       int64
	Email    string
	Billing  Address
	Shipping Address
}

// CustomerDirectory looks up customer profiles.
type CustomerDirectory interface {
	GetCustomer(ctx context.Context, id int64) (*Customer, error)
}

// Notifier delivers order notifications.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, o *Order) error
}

// Job is a unit of deferred work.
type Job func(ctx context.Context) error

// Scheduler runs jobs after a delay, outside the calling request.
type Scheduler interface {
	Schedule(name string, delay time.Duration, job Job)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
