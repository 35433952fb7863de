package repository

import (
	"context"
	"time"

	"CBDesk/internal/domain/models"
)

// SpotProvider fetches a spot price for an instrument from one upstream source.
// Implementations try every venue they know before returning an error.
type SpotProvider interface {
	Name() string
	FetchSpot(ctx context.Context, id string) (*models.SpotQuote, error)
}

// TermsProvider fetches CB conversion terms for an underlying instrument.
type TermsProvider interface {
	Name() string
	FetchTerms(ctx context.Context, id string) (*models.TermsQuote, error)
}

// QuoteCache stores resolved quotes. A miss is (nil, false, nil).
type QuoteCache interface {
	GetSpot(ctx context.Context, key string) (*models.SpotQuote, bool, error)
	SetSpot(ctx context.Context, key string, q *models.SpotQuote, ttl time.Duration) error
	GetTerms(ctx context.Context, key string) (*models.TermsQuote, bool, error)
	SetTerms(ctx context.Context, key string, q *models.TermsQuote, ttl time.Duration) error
}

type Metrics interface {
	RecordProviderAttempt(provider, outcome string)
	RecordProviderLatency(provider string, seconds float64)
	RecordCacheHit(chain string)
	RecordCacheMiss(chain string)
	RecordResolve(chain, outcome string)
	RecordLastSpot(id string, price float64)
}
