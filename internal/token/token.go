// Package token verifies HS256 bearer tokens issued to storefront customers.
package token

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v4"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/apperr"
)

// TypeRefresh marks refresh tokens, which are not accepted as bearer tokens.
const TypeRefresh = "refresh"

var (
	// ErrMissingToken is returned when no bearer token is presented.
	ErrMissingToken = apperr.Unauthorized("missing_token", "bearer token is required")
	// ErrInvalidToken is returned for malformed, expired or foreign tokens.
	ErrInvalidToken = apperr.Unauthorized("invalid_token", "bearer token is invalid or expired")
)

// Claims is the token payload.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"user_id"`
	Type   string `json:"type,omitempty"`
}

// Verifier checks token signatures with a shared secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier creates a Verifier for secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Verify parses raw and returns the user it was issued to.
func (v *Verifier) Verify(raw string) (int64, error) {
	if raw == "" {
		return 0, ErrMissingToken
	}

	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return 0, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(v.now()) {
		return 0, ErrInvalidToken
	}
	if claims.Type == TypeRefresh || claims.UserID <= 0 {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}

// Sign issues a bearer token for userID that expires after ttl.
func (v *Verifier) Sign(userID int64, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}
