package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/token"
)

type userKey struct{}

// UserFromContext returns the authenticated user id, or 0 for guests.
func UserFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(userKey{}).(int64)
	return id
}

func withUser(ctx context.Context, userID int64) context.Context {
	ctx = context.WithValue(ctx, userKey{}, userID)
	return zctx.With(ctx, zap.Int64("user_id", userID))
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, raw, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(raw)
}

// RequireUser rejects requests without a valid bearer token.
func (h *Handler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			respondError(w, r, token.ErrMissingToken)
			return
		}
		userID, err := h.verifier.Verify(raw)
		if err != nil {
			respondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), userID)))
	})
}

// OptionalUser attaches the user when a bearer token is presented. A
// presented but invalid token is still rejected.
func (h *Handler) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		userID, err := h.verifier.Verify(raw)
		if err != nil {
			respondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), userID)))
	})
}
