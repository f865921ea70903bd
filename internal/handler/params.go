package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/apperr"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/order"
)

// TotalCountHeader carries the unpaginated size of a listing.
const TotalCountHeader = "X-Total-Count"

var errInvalidPagination = apperr.Validation("invalid_pagination", "limit and page must be positive integers")

func currencyParam(r *http.Request) (currency.Code, error) {
	return currency.Parse(r.URL.Query().Get("currency"))
}

func pageParam(r *http.Request) (order.Page, error) {
	var p order.Page
	q := r.URL.Query()
	for name, dst := range map[string]*int{"limit": &p.Limit, "page": &p.Page} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return order.Page{}, errInvalidPagination
		}
		*dst = n
	}
	return p.Normalize(), nil
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid_"+name, name+" must be a positive integer")
	}
	return id, nil
}

func stringParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
