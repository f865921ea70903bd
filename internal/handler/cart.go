package handler

import (
	"context"
	"net/http"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/cart"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/presenter"
)

type addCartItemBody struct {
	ProductID   int64 `json:"product_id"`
	VariationID int64 `json:"variation_id"`
	Quantity    int   `json:"quantity"`
}

type addCustomCartItemBody struct {
	ProductID int64             `json:"product_id"`
	Quantity  int               `json:"quantity"`
	Customize map[string]string `json:"customize"`
}

type updateCartItemBody struct {
	Quantity    int    `json:"quantity"`
	VariationID *int64 `json:"variation_id"`
}

type removeCartItemsBody struct {
	Keys []string `json:"keys"`
}

type removeCartItemsView struct {
	Removed int `json:"removed"`
}

func (h *Handler) renderItems(ctx context.Context, items []cart.Item, cur currency.Code) ([]presenter.CartItemView, error) {
	resolved, err := h.carts.Resolve(ctx, items)
	if err != nil {
		return nil, err
	}
	return h.presenter.CartItems(resolved, cur), nil
}

func (h *Handler) renderItem(ctx context.Context, item cart.Item, cur currency.Code) (presenter.CartItemView, error) {
	views, err := h.renderItems(ctx, []cart.Item{item}, cur)
	if err != nil {
		return presenter.CartItemView{}, err
	}
	return views[0], nil
}

func (h *Handler) listCart(w http.ResponseWriter, r *http.Request) error {
	cur, err := currencyParam(r)
	if err != nil {
		return err
	}
	items, err := h.carts.ListItems(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		return err
	}
	views, err := h.renderItems(r.Context(), items, cur)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, views)
}

func (h *Handler) getCartItem(w http.ResponseWriter, r *http.Request) error {
	cur, err := currencyParam(r)
	if err != nil {
		return err
	}
	item, err := h.carts.GetItem(r.Context(), UserFromContext(r.Context()), stringParam(r, "key"))
	if err != nil {
		return err
	}
	view, err := h.renderItem(r.Context(), item, cur)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, view)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) error {
	cur, err := currencyParam(r)
	if err != nil {
		return err
	}
	var body addCartItemBody
	if err := decodeBody(r, &body); err != nil {
		return err
	}
	item, err := h.carts.AddItem(r.Context(), UserFromContext(r.Context()), body.ProductID, body.VariationID, body.Quantity)
	if err != nil {
		return err
	}
	view, err := h.renderItem(r.Context(), item, cur)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) addCustomCartItem(w http.ResponseWriter, r *http.Request) error {
	cur, err := currencyParam(r)
	if err != nil {
		return err
	}
	var body addCustomCartItemBody
	if err := decodeBody(r, &body); err != nil {
		return err
	}
	item, err := h.carts.AddCustomItem(r.Context(), UserFromContext(r.Context()), body.ProductID, body.Quantity, body.Customize)
	if err != nil {
		return err
	}
	view, err := h.renderItem(r.Context(), item, cur)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) error {
	cur, err := currencyParam(r)
	if err != nil {
		return err
	}
	var body updateCartItemBody
	if err := decodeBody(r, &body); err != nil {
		return err
	}
	item, err := h.carts.UpdateItem(r.Context(), UserFromContext(r.Context()), stringParam(r, "key"), body.Quantity, body.VariationID)
	if err != nil {
		return err
	}
	view, err := h.renderItem(r.Context(), item, cur)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, view)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) error {
	if err := h.carts.RemoveItem(r.Context(), UserFromContext(r.Context()), stringParam(r, "key")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) removeCartItems(w http.ResponseWriter, r *http.Request) error {
	var body removeCartItemsBody
	if err := decodeBody(r, &body); err != nil {
		return err
	}
	n, err := h.carts.RemoveItems(r.Context(), UserFromContext(r.Context()), body.Keys)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, removeCartItemsView{Removed: n})
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) error {
	if err := h.carts.Clear(r.Context(), UserFromContext(r.Context())); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
