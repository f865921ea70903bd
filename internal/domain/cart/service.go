package cart

import (
	"context"
	"maps"
	"time"

	"github.com/go-faster/errors"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/apperr"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/catalog"
)

// ErrUserRequired is returned when a cart operation has no user.
var ErrUserRequired = apperr.Unauthorized("user_required", "authentication required")

// ErrVariationNotAllowed is returned when a customized item is moved to a variation.
var ErrVariationNotAllowed = apperr.Validation("variation_not_allowed", "customized items cannot change variation")

const defaultMaxRetries = 3

// Option configures a Service.
type Option func(*Service)

// WithMatcher sets the customization equality used by AddCustomItem.
func WithMatcher(m Matcher) Option {
	return func(s *Service) { s.matcher = m }
}

// WithMaxRetries bounds how often a conflicting write is retried.
func WithMaxRetries(n int) Option {
	return func(s *Service) { s.retries = n }
}

// WithClock overrides the time source used for item timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service implements cart mutations on top of a versioned Repository.
type Service struct {
	carts    Repository
	products catalog.Repository
	matcher  Matcher
	retries  int
	now      func() time.Time
}

// NewService creates a cart Service.
func NewService(carts Repository, products catalog.Repository, opts ...Option) *Service {
	s := &Service{
		carts:    carts,
		products: products,
		matcher:  ColorMatcher,
		retries:  defaultMaxRetries,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ResolvedItem pairs a cart item with its current catalog product. Product is
// nil when the product no longer exists.
type ResolvedItem struct {
	Item
	Product catalog.Product
}

// mutate runs fn against the freshly loaded cart and saves the result,
// reloading and re-running fn when another writer got there first.
func (s *Service) mutate(ctx context.Context, userID int64, fn func(c *Cart) error) error {
	if userID <= 0 {
		return ErrUserRequired
	}
	for attempt := 0; ; attempt++ {
		c, err := s.carts.Load(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "load cart")
		}
		if err := fn(c); err != nil {
			return err
		}
		c.UpdatedAt = s.now()

		err = s.carts.Save(ctx, c)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrVersionConflict) || attempt >= s.retries {
			return errors.Wrap(err, "save cart")
		}
	}
}

// normalizeVariation maps the "product is its own variation" convention of
// simple products onto variation 0.
func normalizeVariation(p catalog.Product, variationID int64) int64 {
	if _, ok := p.(*catalog.Simple); ok && variationID == p.Base().ID {
		return 0
	}
	return variationID
}

// AddItem adds quantity units of a product (or one of its variations),
// merging into the existing line for the same product/variation.
func (s *Service) AddItem(ctx context.Context, userID, productID, variationID int64, quantity int) (Item, error) {
	if quantity <= 0 {
		return Item{}, ErrInvalidQuantity
	}
	if variationID < 0 {
		return Item{}, ErrInvalidVariation
	}
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return Item{}, errors.Wrap(err, "get product")
	}
	variationID = normalizeVariation(p, variationID)
	if variationID == 0 && catalog.RequiresVariation(p) {
		return Item{}, catalog.ErrVariationRequired
	}
	target, err := catalog.Resolve(p, variationID)
	if err != nil {
		return Item{}, err
	}

	key := KeyFor(productID, variationID, "")
	var out Item
	err = s.mutate(ctx, userID, func(c *Cart) error {
		item, ok := c.Items[key]
		if !ok {
			item = Item{
				Key:         key,
				ProductID:   productID,
				VariationID: variationID,
				CreatedAt:   s.now(),
			}
		}
		if err := catalog.CheckTarget(target, item.Quantity+quantity); err != nil {
			return err
		}
		item.Quantity += quantity
		c.Items[key] = item
		out = item
		return nil
	})
	return out, err
}

// AddCustomItem adds a customized product, merging into the existing line
// whose customization the configured Matcher considers equal.
func (s *Service) AddCustomItem(ctx context.Context, userID, productID int64, quantity int, customization map[string]string) (Item, error) {
	if quantity <= 0 {
		return Item{}, ErrInvalidQuantity
	}
	if len(customization) == 0 {
		return Item{}, ErrCustomizationRequired
	}
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return Item{}, errors.Wrap(err, "get product")
	}
	target, err := catalog.Resolve(p, 0)
	if err != nil {
		return Item{}, err
	}

	key := KeyFor(productID, 0, s.matcher.Fingerprint(customization))
	var out Item
	err = s.mutate(ctx, userID, func(c *Cart) error {
		item, ok := c.Items[key]
		if !ok {
			item = Item{
				Key:           key,
				ProductID:     productID,
				Customization: maps.Clone(customization),
				CreatedAt:     s.now(),
			}
		}
		if err := catalog.CheckTarget(target, item.Quantity+quantity); err != nil {
			return err
		}
		item.Quantity += quantity
		c.Items[key] = item
		out = item
		return nil
	})
	return out, err
}

// UpdateItem sets the quantity of the item under key. When variationID is
// non-nil and differs from the current variation the item moves to that
// variation, merging with any line already holding it.
func (s *Service) UpdateItem(ctx context.Context, userID int64, key string, quantity int, variationID *int64) (Item, error) {
	if quantity <= 0 {
		return Item{}, ErrInvalidQuantity
	}
	if variationID != nil && *variationID < 0 {
		return Item{}, ErrInvalidVariation
	}
	var out Item
	err := s.mutate(ctx, userID, func(c *Cart) error {
		item, ok := c.Items[key]
		if !ok {
			return ErrItemNotFound
		}
		p, err := s.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			return errors.Wrap(err, "get product")
		}

		nextVariation := item.VariationID
		if variationID != nil {
			nextVariation = normalizeVariation(p, *variationID)
		}
		if nextVariation != item.VariationID && item.Customized() {
			return ErrVariationNotAllowed
		}
		if nextVariation == 0 && !item.Customized() && catalog.RequiresVariation(p) {
			return catalog.ErrVariationRequired
		}
		target, err := catalog.Resolve(p, nextVariation)
		if err != nil {
			return err
		}

		if nextVariation == item.VariationID {
			if err := catalog.CheckTarget(target, quantity); err != nil {
				return err
			}
			item.Quantity = quantity
			c.Items[key] = item
			out = item
			return nil
		}

		newKey := KeyFor(item.ProductID, nextVariation, "")
		moved := item
		moved.Key = newKey
		moved.VariationID = nextVariation
		moved.Quantity = quantity
		if existing, ok := c.Items[newKey]; ok {
			moved.Quantity += existing.Quantity
			moved.CreatedAt = existing.CreatedAt
		}
		if err := catalog.CheckTarget(target, moved.Quantity); err != nil {
			return err
		}
		delete(c.Items, key)
		c.Items[newKey] = moved
		out = moved
		return nil
	})
	return out, err
}

// RemoveItem deletes the item under key.
func (s *Service) RemoveItem(ctx context.Context, userID int64, key string) error {
	return s.mutate(ctx, userID, func(c *Cart) error {
		if _, ok := c.Items[key]; !ok {
			return ErrItemNotFound
		}
		delete(c.Items, key)
		return nil
	})
}

// RemoveItems deletes every listed key that exists and returns how many were
// removed. It fails with ErrItemNotFound when none of the keys exist.
func (s *Service) RemoveItems(ctx context.Context, userID int64, keys []string) (int, error) {
	var removed int
	err := s.mutate(ctx, userID, func(c *Cart) error {
		removed = 0
		for _, k := range keys {
			if _, ok := c.Items[k]; ok {
				delete(c.Items, k)
				removed++
			}
		}
		if removed == 0 {
			return ErrItemNotFound
		}
		return nil
	})
	return removed, err
}

// GetItem returns the item under key.
func (s *Service) GetItem(ctx context.Context, userID int64, key string) (Item, error) {
	if userID <= 0 {
		return Item{}, ErrUserRequired
	}
	c, err := s.carts.Load(ctx, userID)
	if err != nil {
		return Item{}, errors.Wrap(err, "load cart")
	}
	item, ok := c.Items[key]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return item, nil
}

// ListItems returns every item ordered by creation time.
func (s *Service) ListItems(ctx context.Context, userID int64) ([]Item, error) {
	if userID <= 0 {
		return nil, ErrUserRequired
	}
	c, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	return c.Sorted(), nil
}

// Items returns the items under keys in the given order. Every key must
// exist.
func (s *Service) Items(ctx context.Context, userID int64, keys []string) ([]Item, error) {
	if userID <= 0 {
		return nil, ErrUserRequired
	}
	c, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	out := make([]Item, 0, len(keys))
	for _, k := range keys {
		item, ok := c.Items[k]
		if !ok {
			return nil, ErrItemNotFound.WithMessage("cart item " + k + " not found")
		}
		out = append(out, item)
	}
	return out, nil
}

// Clear removes the user's cart.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrUserRequired
	}
	if err := s.carts.Delete(ctx, userID); err != nil {
		return errors.Wrap(err, "delete cart")
	}
	return nil
}

// Resolve attaches current catalog products to items.
func (s *Service) Resolve(ctx context.Context, items []Item) ([]ResolvedItem, error) {
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	products, err := catalog.Lookup(ctx, s.products, ids)
	if err != nil {
		return nil, errors.Wrap(err, "lookup products")
	}
	out := make([]ResolvedItem, len(items))
	for i, it := range items {
		out[i] = ResolvedItem{Item: it, Product: products[it.ProductID]}
	}
	return out, nil
}
