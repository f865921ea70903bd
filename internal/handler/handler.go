// Package handler exposes the storefront REST API over chi.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/cart"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/coupon"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/order"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/presenter"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/token"
)

// BasePath is the versioned prefix of every API route.
const BasePath = "/api/v1"

// Deps lists the collaborators of a Handler.
type Deps struct {
	Carts     *cart.Service
	Coupons   *coupon.Engine
	Orders    *order.Service
	Presenter *presenter.Presenter
	Verifier  *token.Verifier
}

// Handler translates HTTP requests into service calls and renders the
// results through the presenter.
type Handler struct {
	carts     *cart.Service
	coupons   *coupon.Engine
	orders    *order.Service
	presenter *presenter.Presenter
	verifier  *token.Verifier
}

// New creates a Handler.
func New(d Deps) *Handler {
	return &Handler{
		carts:     d.Carts,
		coupons:   d.Coupons,
		orders:    d.Orders,
		presenter: d.Presenter,
		verifier:  d.Verifier,
	}
}

// Routes returns the API routes, relative to BasePath.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(h.RequireUser)

		r.Get("/carts", h.handle(h.listCart))
		r.Post("/carts", h.handle(h.addCartItem))
		r.Delete("/carts", h.handle(h.clearCart))
		r.Get("/carts/{key}", h.handle(h.getCartItem))
		r.Put("/carts/{key}", h.handle(h.updateCartItem))
		r.Delete("/carts/{key}", h.handle(h.removeCartItem))
		r.Post("/carts-custom", h.handle(h.addCustomCartItem))
		r.Delete("/carts-multiple", h.handle(h.removeCartItems))

		r.Get("/orders", h.handle(h.listMyOrders))
	})

	r.Post("/coupons/apply", h.handle(h.applyCoupon))

	r.With(h.OptionalUser).Post("/orders", h.handle(h.createOrder))
	r.Get("/orders/{id:[0-9]+}", h.handle(h.getOrder))
	r.Get("/orders/{email}", h.handle(h.listOrdersByEmail))
	r.Post("/orders/{id:[0-9]+}/cancel", h.handle(h.cancelOrder))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route_not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return r
}
