package catalog

import (
	"context"
	"strconv"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
)

// Category slugs that pin a product to a sales region.
const (
	CategoryMalaysia = "jenho-malaysia"
	CategoryVietnam  = "jenho-viet-nam"
)

// RegionForCategory maps a catalog category slug to its sales region.
func RegionForCategory(slug string) currency.Region {
	switch slug {
	case CategoryMalaysia:
		return currency.Region(currency.MYR)
	case CategoryVietnam:
		return currency.Region(currency.VND)
	default:
		return ""
	}
}

var _ Repository = (*SharedReader)(nil)

// SharedReader collapses concurrent lookups of the same product into one
// call to the underlying repository.
type SharedReader struct {
	repo  Repository
	group singleflight.Group
}

// NewSharedReader wraps repo.
func NewSharedReader(repo Repository) *SharedReader {
	return &SharedReader{repo: repo}
}

// GetProduct returns the product with the given id.
func (r *SharedReader) GetProduct(ctx context.Context, id int64) (Product, error) {
	v, err, _ := r.group.Do(strconv.FormatInt(id, 10), func() (any, error) {
		return r.repo.GetProduct(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(Product), nil
}

// GetProducts delegates to the underlying repository.
func (r *SharedReader) GetProducts(ctx context.Context, ids []int64) ([]Product, error) {
	return r.repo.GetProducts(ctx, ids)
}

// Lookup fetches each distinct id concurrently. Missing products are absent
// from the result; any other error aborts the lookup.
func Lookup(ctx context.Context, repo Repository, ids []int64) (map[int64]Product, error) {
	distinct := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}

	found := make([]Product, len(distinct))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range distinct {
		g.Go(func() error {
			p, err := repo.GetProduct(gctx, id)
			if err != nil {
				if isNotFound(err) {
					return nil
				}
				return err
			}
			found[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[int64]Product, len(distinct))
	for i, id := range distinct {
		if found[i] != nil {
			out[id] = found[i]
		}
	}
	return out, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}
