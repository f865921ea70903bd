package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/apperr"
	"github.com/proxuthanh99yd/jenho-rest-api/pkg/httpmiddleware"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = apperr.Validation("invalid_body", "request body is not valid JSON")

// handlerFunc is an HTTP handler that reports failures as errors.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (h *Handler) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			respondError(w, r, err)
		}
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := apperr.From(err)
	if !ok {
		e = apperr.Internal("internal_error", err)
	}
	if e.Kind == apperr.KindInternal {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	}
	writeError(w, e.Kind.Status(), e.Code, e.Message)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	httpmiddleware.WriteError(w, status, code, message)
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errInvalidBody.WithMessage("request body is required")
		}
		return errInvalidBody
	}
	return nil
}
