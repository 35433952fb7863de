package cache

import (
	"context"
	"errors"
	"time"

	"CBDesk/internal/domain/models"
	"CBDesk/internal/domain/repository"
	pkgcache "CBDesk/pkg/cache"
)

// QuoteCache stores resolved quotes in any pkg/cache backend.
type QuoteCache struct {
	store pkgcache.Service
}

func NewQuoteCache(store pkgcache.Service) *QuoteCache {
	return &QuoteCache{store: store}
}

func SpotKey(id string) string  { return pkgcache.GenerateKey("quote", "spot", id) }
func TermsKey(id string) string { return pkgcache.GenerateKey("quote", "terms", id) }

func (c *QuoteCache) GetSpot(ctx context.Context, key string) (*models.SpotQuote, bool, error) {
	return get[models.SpotQuote](ctx, c.store, key)
}

func (c *QuoteCache) SetSpot(ctx context.Context, key string, q *models.SpotQuote, ttl time.Duration) error {
	return c.store.Set(ctx, key, q, ttl)
}

func (c *QuoteCache) GetTerms(ctx context.Context, key string) (*models.TermsQuote, bool, error) {
	return get[models.TermsQuote](ctx, c.store, key)
}

func (c *QuoteCache) SetTerms(ctx context.Context, key string, q *models.TermsQuote, ttl time.Duration) error {
	return c.store.Set(ctx, key, q, ttl)
}

func get[T any](ctx context.Context, store pkgcache.Service, key string) (*T, bool, error) {
	v, err := pkgcache.GetTyped[T](ctx, store, key)
	if errors.Is(err, pkgcache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

var _ repository.QuoteCache = (*QuoteCache)(nil)
