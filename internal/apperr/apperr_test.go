package apperr

import (
	"net/http"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesKindAndCode(t *testing.T) {
	sentinel := NotFound("product_not_found", "product not found")

	wrapped := errors.Wrap(sentinel.WithMessage("product 42 not found"), "resolve item")

	assert.ErrorIs(t, wrapped, sentinel)
	assert.NotErrorIs(t, wrapped, NotFound("order_not_found", "order not found"))
	assert.NotErrorIs(t, wrapped, Validation("product_not_found", "x"))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   Kind
		status int
	}{
		{"not found", NotFound("x", "x"), KindNotFound, http.StatusNotFound},
		{"validation", Validation("x", "x"), KindValidation, http.StatusBadRequest},
		{"conflict", errors.Wrap(Conflict("x", "x"), "ctx"), KindConflict, http.StatusConflict},
		{"unauthorized", Unauthorized("x", "x"), KindUnauthorized, http.StatusUnauthorized},
		{"plain", errors.New("boom"), KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KindOf(tt.err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.status, got.Status())
		})
	}
}

func TestInternal_KeepsOriginalMessage(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("order_creation_exception", cause)

	assert.Equal(t, "connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	e, ok := From(errors.Wrap(err, "create order"))
	require.True(t, ok)
	assert.Equal(t, KindInternal, e.Kind)
	assert.False(t, IsClassified(err))
}
