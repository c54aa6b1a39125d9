// Package catalog provides the storefront catalog with pricing and caching.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/000francisca0/Peluchemaniav3/domain/pricing"
	"github.com/000francisca0/Peluchemaniav3/domain/product"
	"github.com/000francisca0/Peluchemaniav3/modules/backend"
	"github.com/000francisca0/Peluchemaniav3/modules/cache"
	"golang.org/x/sync/singleflight"
)

// ErrProductNotFound is returned when the backend has no product with the ID.
var ErrProductNotFound = errors.New("product not found")

// Backend is the part of the shop backend the catalog reads from.
type Backend interface {
	Products(ctx context.Context) ([]product.Product, error)
	Product(ctx context.Context, id int64) (product.Product, error)
	ProductsByCategory(ctx context.Context, categoryID int64) ([]product.Product, error)
	Categories(ctx context.Context) ([]product.Category, error)
}

// Service serves priced catalog reads. Raw backend data is cached and prices
// are resolved on every read.
type Service struct {
	backend Backend
	cache   cache.CacheService
	sfGroup singleflight.Group // Prevents cache stampede
}

// NewService creates a catalog service.
func NewService(b Backend, c cache.CacheService) *Service {
	return &Service{
		backend: b,
		cache:   c,
	}
}

const (
	keyProducts   = "products"
	keyCategories = "categories"
)

func keyProduct(id int64) string {
	return "product:" + strconv.FormatInt(id, 10)
}

func keyCategoryProducts(id int64) string {
	return "category:" + strconv.FormatInt(id, 10) + ":products"
}

// Products lists every product with its resolved price.
func (s *Service) Products(ctx context.Context) ([]pricing.Priced, error) {
	products, err := s.products(ctx)
	if err != nil {
		return nil, err
	}
	return pricing.ApplyAll(products), nil
}

// Offers lists the products the backend flags as on sale.
func (s *Service) Offers(ctx context.Context) ([]pricing.Priced, error) {
	products, err := s.products(ctx)
	if err != nil {
		return nil, err
	}
	return pricing.ApplyAll(pricing.OnSale(products)), nil
}

// Product returns one product with its resolved price.
func (s *Service) Product(ctx context.Context, id int64) (pricing.Priced, error) {
	p, err := readThrough(ctx, s, keyProduct(id), func(ctx context.Context) (product.Product, error) {
		return s.backend.Product(ctx, id)
	})
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return pricing.Priced{}, fmt.Errorf("%w: %d", ErrProductNotFound, id)
		}
		return pricing.Priced{}, err
	}
	return pricing.Apply(p), nil
}

// ByCategory lists the products of a category.
func (s *Service) ByCategory(ctx context.Context, categoryID int64) ([]pricing.Priced, error) {
	products, err := readThrough(ctx, s, keyCategoryProducts(categoryID), func(ctx context.Context) ([]product.Product, error) {
		return s.backend.ProductsByCategory(ctx, categoryID)
	})
	if err != nil {
		return nil, err
	}
	return pricing.ApplyAll(products), nil
}

// Categories lists every category.
func (s *Service) Categories(ctx context.Context) ([]product.Category, error) {
	return readThrough(ctx, s, keyCategories, s.backend.Categories)
}

// Invalidate drops every cached catalog entry.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Printf("[catalog] Warning: failed to invalidate cache: %v", err)
	}
}

func (s *Service) products(ctx context.Context) ([]product.Product, error) {
	return readThrough(ctx, s, keyProducts, s.backend.Products)
}

// readThrough implements cache-aside: read the cache, on a miss fetch once
// per key across concurrent callers, then populate the cache. Cache errors
// degrade to a backend read.
func readThrough[T any](ctx context.Context, s *Service, key string, fetch func(context.Context) (T, error)) (T, error) {
	var cached T
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Printf("[catalog] Cache error for %s: %v", key, err)
	}
	if found {
		return cached, nil
	}

	val, err, shared := s.sfGroup.Do(key, func() (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, v); err != nil {
			log.Printf("[catalog] Warning: failed to cache %s: %v", key, err)
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if shared {
		log.Printf("[catalog] Shared backend read for %s", key)
	}
	return val.(T), nil
}
