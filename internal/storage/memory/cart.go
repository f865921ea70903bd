// Package memory provides in-process storage used when no Redis is
// configured and by tests.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/cart"
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository keeps carts in a map guarded by a mutex. Snapshots are
// copied on the way in and out.
type CartRepository struct {
	mu    sync.Mutex
	carts map[int64]*cart.Cart
	now   func() time.Time
}

// NewCartRepository creates an empty CartRepository.
func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[int64]*cart.Cart), now: time.Now}
}

func (r *CartRepository) Load(_ context.Context, userID int64) (*cart.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[userID]
	if !ok {
		return cart.New(userID), nil
	}
	return clone(c), nil
}

func (r *CartRepository) Save(_ context.Context, c *cart.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var version int64
	if stored, ok := r.carts[c.UserID]; ok {
		version = stored.Version
	}
	if version != c.Version {
		return cart.ErrVersionConflict
	}

	c.Version++
	c.UpdatedAt = r.now().UTC()
	r.carts[c.UserID] = clone(c)
	return nil
}

func (r *CartRepository) Delete(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, userID)
	return nil
}

func clone(c *cart.Cart) *cart.Cart {
	out := *c
	out.Items = make(map[string]cart.Item, len(c.Items))
	for k, it := range c.Items {
		it.Customization = maps.Clone(it.Customization)
		out.Items[k] = it
	}
	return &out
}
