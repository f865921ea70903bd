// Package cart maintains per-user shopping carts.
//
// A cart is persisted as a full snapshot on every mutation. Repositories
// version the snapshot so that concurrent mutations for the same user are
// detected and retried instead of silently overwriting each other.
package cart

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/apperr"
)

var (
	// ErrItemNotFound is returned when no item with the given key exists.
	ErrItemNotFound = apperr.NotFound("cart_item_not_found", "cart item not found")
	// ErrInvalidQuantity is returned for non-positive quantities.
	ErrInvalidQuantity = apperr.Validation("invalid_quantity", "quantity must be greater than 0")
	// ErrInvalidVariation is returned for negative variation ids.
	ErrInvalidVariation = apperr.Validation("invalid_variation", "variation_id must not be negative")
	// ErrCustomizationRequired is returned when a custom item has no customization.
	ErrCustomizationRequired = apperr.Validation("customize_required", "customize is required")
	// ErrVersionConflict is returned by Repository.Save when the stored cart
	// changed since it was loaded.
	ErrVersionConflict = apperr.Conflict("cart_version_conflict", "cart was modified concurrently")
)

// Item is one line of a cart.
type Item struct {
	Key           string            `json:"key"`
	ProductID     int64             `json:"product_id"`
	VariationID   int64             `json:"variation_id"`
	Quantity      int               `json:"quantity"`
	Customization map[string]string `json:"customize,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Customized reports whether the item carries a customization payload.
func (i Item) Customized() bool {
	return len(i.Customization) > 0
}

// Cart is the snapshot of one user's cart.
type Cart struct {
	UserID    int64           `json:"user_id"`
	Items     map[string]Item `json:"items"`
	Version   int64           `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// New returns an empty, never persisted cart for userID.
func New(userID int64) *Cart {
	return &Cart{UserID: userID, Items: make(map[string]Item)}
}

// Sorted returns the items ordered by creation time, then key.
func (c *Cart) Sorted() []Item {
	items := slices.Collect(maps.Values(c.Items))
	slices.SortFunc(items, func(a, b Item) int {
		if cmp := a.CreatedAt.Compare(b.CreatedAt); cmp != 0 {
			return cmp
		}
		if a.Key < b.Key {
			return -1
		}
		if a.Key > b.Key {
			return 1
		}
		return 0
	})
	return items
}

// Repository persists cart snapshots.
//
// Load returns an empty cart with Version 0 when the user has none. Save
// stores c only if the persisted version still equals c.Version, and bumps
// c.Version on success; otherwise it returns ErrVersionConflict.
type Repository interface {
	Load(ctx context.Context, userID int64) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, userID int64) error
}
