// Package order assembles priced orders from line items and manages their
// lifecycle.
package order

import (
	"context"
	"fmt"
	"maps"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/apperr"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/cart"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/catalog"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/coupon"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/fee"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]{7,}$`)

// ItemRequest is one requested line.
type ItemRequest struct {
	ProductID     int64
	VariationID   int64
	Quantity      int
	Customization map[string]string
}

// CreateRequest holds the input for creating an order.
type CreateRequest struct {
	CustomerID     int64
	Payment        Payment
	Billing        Address
	Shipping       Address
	Items          []ItemRequest
	CouponCode     string
	Currency       currency.Code
	CustomerNote   string
	SendNewsOffers bool
}

// CouponApplier validates a coupon against order lines and accounts its use.
type CouponApplier interface {
	ApplyToOrder(ctx context.Context, code string, cur currency.Code, lines []coupon.Line) (*coupon.Application, error)
	RecordUsage(ctx context.Context, code string) error
}

// CartSource provides the cart items an order is built from.
type CartSource interface {
	Items(ctx context.Context, userID int64, keys []string) ([]cart.Item, error)
	RemoveItems(ctx context.Context, userID int64, keys []string) (int, error)
}

// Deps lists the collaborators of a Service.
type Deps struct {
	Products          catalog.Repository
	Coupons           CouponApplier
	Fees              *fee.Calculator
	Exchanger         *currency.Exchanger
	Orders            Repository
	Customers         CustomerDirectory
	Carts             CartSource
	Scheduler         Scheduler
	Notifier          Notifier
	ConfirmationDelay time.Duration
	Tracer            trace.Tracer
}

// Service creates, reads and cancels orders.
type Service struct {
	products  catalog.Repository
	coupons   CouponApplier
	fees      *fee.Calculator
	exchanger *currency.Exchanger
	orders    Repository
	customers CustomerDirectory
	carts     CartSource
	scheduler Scheduler
	notifier  Notifier
	delay     time.Duration
	tracer    trace.Tracer
	now       func() time.Time
}

// NewService creates an order Service.
func NewService(d Deps) *Service {
	tracer := d.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("order")
	}
	return &Service{
		products:  d.Products,
		coupons:   d.Coupons,
		fees:      d.Fees,
		exchanger: d.Exchanger,
		orders:    d.Orders,
		customers: d.Customers,
		carts:     d.Carts,
		scheduler: d.Scheduler,
		notifier:  d.Notifier,
		delay:     d.ConfirmationDelay,
		tracer:    tracer,
		now:       time.Now,
	}
}

// CreateOrder prices req and persists it as a pending order. Nothing is
// persisted unless every step succeeds. Unclassified failures, panics
// included, surface as an internal order_creation_exception error.
func (s *Service) CreateOrder(ctx context.Context, req CreateRequest) (o *Order, err error) {
	ctx, span := s.tracer.Start(ctx, "order.Create",
		trace.WithAttributes(
			attribute.Int("order.items", len(req.Items)),
			attribute.String("order.currency", string(req.Currency)),
		),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			o, err = nil, errors.Errorf("panic: %v", r)
		}
		if err == nil {
			span.SetAttributes(attribute.Int64("order.id", o.ID))
			return
		}
		if !apperr.IsClassified(err) {
			err = apperr.Internal("order_creation_exception", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}()

	o, err = s.assemble(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "persist order")
	}

	s.afterCommit(ctx, o)
	return o, nil
}

// CreateFromCart builds the order lines from the customer's cart items under
// keys, defaults missing addresses from the customer profile, and removes the
// consumed items from the cart once the order is stored.
func (s *Service) CreateFromCart(ctx context.Context, req CreateRequest, keys []string) (*Order, error) {
	if req.CustomerID <= 0 {
		return nil, cart.ErrUserRequired
	}
	if len(keys) == 0 {
		return nil, ErrEmptyItems
	}

	items, err := s.carts.Items(ctx, req.CustomerID, keys)
	if err != nil {
		return nil, err
	}
	req.Items = make([]ItemRequest, len(items))
	for i, it := range items {
		req.Items[i] = ItemRequest{
			ProductID:     it.ProductID,
			VariationID:   it.VariationID,
			Quantity:      it.Quantity,
			Customization: it.Customization,
		}
	}

	if req.Billing.IsZero() || req.Shipping.IsZero() {
		c, err := s.customers.GetCustomer(ctx, req.CustomerID)
		if err != nil {
			return nil, errors.Wrap(err, "get customer")
		}
		if req.Billing.IsZero() {
			req.Billing = c.Billing
			if req.Billing.Email == "" {
				req.Billing.Email = c.Email
			}
		}
		if req.Shipping.IsZero() {
			req.Shipping = c.Shipping
		}
	}

	o, err := s.CreateOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	if _, err := s.carts.RemoveItems(ctx, req.CustomerID, keys); err != nil {
		zctx.From(ctx).Warn("Remove ordered items from cart",
			zap.Int64("order_id", o.ID),
			zap.Int64("customer_id", req.CustomerID),
			zap.Error(err),
		)
	}
	return o, nil
}

func validateRequest(req *CreateRequest) error {
	if len(req.Items) == 0 {
		return ErrEmptyItems
	}
	cur, err := currency.Parse(string(req.Currency))
	if err != nil {
		return err
	}
	req.Currency = cur
	if strings.TrimSpace(req.Payment.Method) == "" {
		return ErrMissingParams.WithMessage("payment_method is required")
	}
	if _, err := mail.ParseAddress(req.Billing.Email); err != nil {
		return apperr.Validation("invalid_email", "billing email is invalid")
	}
	if !phonePattern.MatchString(req.Billing.Phone) {
		return apperr.Validation("invalid_phone", "billing phone is invalid")
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return ErrInvalidQuantity.WithMessage(fmt.Sprintf("quantity must be greater than 0 for product %d", it.ProductID))
		}
	}
	return nil
}

// assemble runs the pricing pipeline and returns an unsaved order.
func (s *Service) assemble(ctx context.Context, req CreateRequest) (*Order, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	cur := req.Currency

	ids := make([]int64, len(req.Items))
	for i, it := range req.Items {
		ids[i] = it.ProductID
	}
	products, err := catalog.Lookup(ctx, s.products, ids)
	if err != nil {
		return nil, errors.Wrap(err, "lookup products")
	}

	o := &Order{
		Status:         StatusPending,
		CustomerID:     req.CustomerID,
		Billing:        req.Billing,
		Shipping:       req.Shipping,
		Payment:        req.Payment,
		Currency:       cur,
		CustomerNote:   req.CustomerNote,
		SendNewsOffers: req.SendNewsOffers,
		LineItems:      make([]LineItem, 0, len(req.Items)),
	}

	type stockKey struct{ product, variation int64 }
	requested := make(map[stockKey]int, len(req.Items))
	customizationFee := decimal.Zero

	for _, it := range req.Items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, catalog.ErrProductNotFound.WithMessage(fmt.Sprintf("product %d not found", it.ProductID))
		}

		variationID := it.VariationID
		if variationID == p.Base().ID {
			variationID = 0
		}
		customized := len(it.Customization) > 0
		if variationID == 0 && !customized && catalog.RequiresVariation(p) {
			return nil, catalog.ErrVariationRequired.WithMessage(fmt.Sprintf("variation_id is required for product %d", it.ProductID))
		}
		target, err := catalog.Resolve(p, variationID)
		if err != nil {
			return nil, err
		}
		if err := currency.Reconcile(p.Base().Region, cur); err != nil {
			return nil, err
		}

		key := stockKey{it.ProductID, variationID}
		requested[key] += it.Quantity
		if err := catalog.CheckTarget(target, requested[key]); err != nil {
			return nil, err
		}

		unitPrice := s.exchanger.Convert(cur, target.Price)
		subtotal := unitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2)

		// Customized lines that address the product itself carry the surcharge.
		if customized && variationID == 0 {
			customizationFee = customizationFee.Add(s.fees.Customization(unitPrice, it.Quantity))
		}

		o.LineItems = append(o.LineItems, LineItem{
			ProductID:     it.ProductID,
			VariationID:   variationID,
			Name:          target.Name,
			SKU:           target.SKU,
			ProductType:   p.Kind(),
			Attributes:    maps.Clone(target.Attributes),
			Quantity:      it.Quantity,
			UnitPrice:     unitPrice,
			Subtotal:      subtotal,
			Total:         subtotal,
			Customization: maps.Clone(it.Customization),
		})
	}

	if code := strings.TrimSpace(req.CouponCode); code != "" {
		if err := s.applyCoupon(ctx, o, code); err != nil {
			return nil, err
		}
	}

	if customizationFee.IsPositive() {
		o.AddFee(fee.CustomizationName, customizationFee)
	}
	o.CalculateTotals()

	if shipping := s.fees.Shipping(cur, o.Subtotal); shipping.IsPositive() {
		o.AddFee(fee.ShippingName, shipping)
		o.CalculateTotals()
	}

	o.CreatedAt = s.now()
	return o, nil
}

// applyCoupon records the coupon and its per-line discounts on o. Totals are
// left to the caller.
func (s *Service) applyCoupon(ctx context.Context, o *Order, code string) error {
	lines := make([]coupon.Line, len(o.LineItems))
	for i, li := range o.LineItems {
		lines[i] = coupon.Line{
			ProductID:   li.ProductID,
			VariationID: li.VariationID,
			Quantity:    li.Quantity,
			Subtotal:    li.Subtotal,
		}
	}
	app, err := s.coupons.ApplyToOrder(ctx, code, o.Currency, lines)
	if err != nil {
		return err
	}
	for i := range o.LineItems {
		if i < len(app.LineDiscounts) {
			o.LineItems[i].Discount = app.LineDiscounts[i]
		}
	}
	o.Coupons = append(o.Coupons, AppliedCoupon{Code: app.Code, Discount: app.Discount})
	return nil
}

// afterCommit runs the best-effort follow-ups of a stored order.
func (s *Service) afterCommit(ctx context.Context, o *Order) {
	lg := zctx.From(ctx)
	for _, c := range o.Coupons {
		if err := s.coupons.RecordUsage(ctx, c.Code); err != nil {
			lg.Warn("Record coupon usage",
				zap.Int64("order_id", o.ID),
				zap.String("coupon", c.Code),
				zap.Error(err),
			)
		}
	}

	if s.scheduler == nil {
		return
	}
	id := o.ID
	s.scheduler.Schedule("order-confirmation", s.delay, func(ctx context.Context) error {
		return s.SendConfirmation(ctx, id)
	})
}

// SendConfirmation loads the order and hands it to the notifier.
func (s *Service) SendConfirmation(ctx context.Context, id int64) error {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if err := s.notifier.SendOrderConfirmation(ctx, o); err != nil {
		return errors.Wrapf(err, "send confirmation for order %d", id)
	}
	return nil
}

// GetOrder returns the order with the given id.
func (s *Service) GetOrder(ctx context.Context, id int64) (*Order, error) {
	if id <= 0 {
		return nil, ErrOrderNotFound
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	return o, nil
}

// ListOrders returns one page of orders matching f and the total match count.
func (s *Service) ListOrders(ctx context.Context, f Filter, p Page) ([]*Order, int, error) {
	f.Email = normalizeEmail(f.Email)
	if f.CustomerID <= 0 && f.Email == "" {
		return nil, 0, ErrMissingParams.WithMessage("customer or email is required")
	}
	orders, total, err := s.orders.List(ctx, f, p.Normalize())
	if err != nil {
		return nil, 0, errors.Wrap(err, "list orders")
	}
	return orders, total, nil
}

// CancelOrder cancels the order after checking that email and phone match
// its billing contact.
func (s *Service) CancelOrder(ctx context.Context, id int64, email, phone string) (*Order, error) {
	if id <= 0 || strings.TrimSpace(email) == "" || strings.TrimSpace(phone) == "" {
		return nil, ErrMissingParams.WithMessage("order id, email and phone are required")
	}

	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if normalizeEmail(o.Billing.Email) != normalizeEmail(email) ||
		normalizePhone(o.Billing.Phone) != normalizePhone(phone) {
		return nil, ErrInvalidAuth
	}
	if !o.Status.Cancellable() {
		return nil, ErrInvalidStatus
	}

	if err := s.orders.UpdateStatus(ctx, id, o.Status, StatusCancelled); err != nil {
		return nil, errors.Wrapf(err, "cancel order %d", id)
	}
	o.Status = StatusCancelled
	return o, nil
}
