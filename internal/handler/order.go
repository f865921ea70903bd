package handler

import (
	"net/http"
	"strconv"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/order"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/presenter"
)

type lineItemBody struct {
	ProductID   int64             `json:"product_id"`
	VariationID int64             `json:"variation_id"`
	Quantity    int               `json:"quantity"`
	Customize   map[string]string `json:"customize"`
}

type createOrderBody struct {
	PaymentMethod      string         `json:"payment_method"`
	PaymentMethodTitle string         `json:"payment_method_title"`
	TransactionID      string         `json:"transaction_id"`
	Billing            order.Address  `json:"billing"`
	Shipping           order.Address  `json:"shipping"`
	LineItems          []lineItemBody `json:"line_items"`
	CartItemKeys       []string       `json:"cart_item_keys"`
	CouponCode         string         `json:"coupon_code"`
	Currency           string         `json:"currency"`
	CustomerNote       string         `json:"customer_note"`
	SendNewsOffers     bool           `json:"send_news_offers"`
}

func (b createOrderBody) request(customerID int64) order.CreateRequest {
	req := order.CreateRequest{
		CustomerID: customerID,
		Payment: order.Payment{
			Method:        b.PaymentMethod,
			MethodTitle:   b.PaymentMethodTitle,
			TransactionID: b.TransactionID,
		},
		Billing:        b.Billing,
		Shipping:       b.Shipping,
		CouponCode:     b.CouponCode,
		Currency:       currency.Code(b.Currency),
		CustomerNote:   b.CustomerNote,
		SendNewsOffers: b.SendNewsOffers,
		Items:          make([]order.ItemRequest, len(b.LineItems)),
	}
	for i, li := range b.LineItems {
		req.Items[i] = order.ItemRequest{
			ProductID:     li.ProductID,
			VariationID:   li.VariationID,
			Quantity:      li.Quantity,
			Customization: li.Customize,
		}
	}
	return req
}

type cancelOrderBody struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) error {
	var body createOrderBody
	if err := decodeBody(r, &body); err != nil {
		return err
	}
	req := body.request(UserFromContext(r.Context()))

	var (
		o   *order.Order
		err error
	)
	if len(body.CartItemKeys) > 0 {
		o, err = h.orders.CreateFromCart(r.Context(), req, body.CartItemKeys)
	} else {
		o, err = h.orders.CreateOrder(r.Context(), req)
	}
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, presenter.Order(o))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) error {
	id, err := idParam(r, "id")
	if err != nil {
		return err
	}
	o, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, presenter.Order(o))
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) error {
	return h.listOrders(w, r, order.Filter{CustomerID: UserFromContext(r.Context())})
}

func (h *Handler) listOrdersByEmail(w http.ResponseWriter, r *http.Request) error {
	return h.listOrders(w, r, order.Filter{Email: stringParam(r, "email")})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request, f order.Filter) error {
	page, err := pageParam(r)
	if err != nil {
		return err
	}
	orders, total, err := h.orders.ListOrders(r.Context(), f, page)
	if err != nil {
		return err
	}
	w.Header().Set(TotalCountHeader, strconv.Itoa(total))
	return writeJSON(w, http.StatusOK, presenter.Orders(orders))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) error {
	id, err := idParam(r, "id")
	if err != nil {
		return err
	}
	var body cancelOrderBody
	if err := decodeBody(r, &body); err != nil {
		return err
	}
	o, err := h.orders.CancelOrder(r.Context(), id, body.Email, body.Phone)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, presenter.Order(o))
}
