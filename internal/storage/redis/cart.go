// Package redis stores cart snapshots in Redis.
package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/cart"
)

// DefaultTTL is how long an untouched cart is kept.
const DefaultTTL = 30 * 24 * time.Hour

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository keeps one JSON snapshot per user under cart:<userID>.
// Save uses WATCH so a snapshot is only replaced if nobody wrote it since it
// was loaded.
type CartRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
}

// NewCartRepository creates a CartRepository. A non-positive ttl selects
// DefaultTTL.
func NewCartRepository(client redis.UniversalClient, ttl time.Duration) *CartRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CartRepository{client: client, ttl: ttl, now: time.Now}
}

// Load returns the stored cart, or an empty cart with Version 0.
func (r *CartRepository) Load(ctx context.Context, userID int64) (*cart.Cart, error) {
	return load(ctx, r.client, userID)
}

// Save stores c if the stored version equals c.Version.
func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	key := cartKey(c.UserID)

	next := *c
	next.Version = c.Version + 1
	next.UpdatedAt = r.now().UTC()
	data, err := json.Marshal(&next)
	if err != nil {
		return errors.Wrap(err, "marshal cart")
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		stored, err := load(ctx, tx, c.UserID)
		if err != nil {
			return err
		}
		if stored.Version != c.Version {
			return cart.ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, data, r.ttl)
			return nil
		})
		return err
	}, key)
	switch {
	case errors.Is(err, redis.TxFailedErr), errors.Is(err, cart.ErrVersionConflict):
		return cart.ErrVersionConflict
	case err != nil:
		return errors.Wrapf(err, "save cart %d", c.UserID)
	}

	c.Version = next.Version
	c.UpdatedAt = next.UpdatedAt
	return nil
}

// Delete removes the user's cart.
func (r *CartRepository) Delete(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return errors.Wrapf(err, "delete cart %d", userID)
	}
	return nil
}

func load(ctx context.Context, c redis.Cmdable, userID int64) (*cart.Cart, error) {
	data, err := c.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.New(userID), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get cart %d", userID)
	}

	var out cart.Cart
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrapf(err, "decode cart %d", userID)
	}
	if out.Items == nil {
		out.Items = make(map[string]cart.Item)
	}
	out.UserID = userID
	return &out, nil
}

func cartKey(userID int64) string {
	return "cart:" + strconv.FormatInt(userID, 10)
}
