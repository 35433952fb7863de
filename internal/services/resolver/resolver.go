// Package resolver walks an ordered chain of quote providers, caching the
// first success and recording every failed attempt.
package resolver

import (
	"context"
	"fmt"
	"math"
	"time"

	"CBDesk/internal/domain/errs"
	"CBDesk/internal/domain/models"
	"CBDesk/internal/domain/repository"
	"CBDesk/internal/domain/service"
	quotecache "CBDesk/internal/service/cache"
	"CBDesk/pkg/logger"
)

const (
	ChainSpot  = "spot"
	ChainTerms = "terms"

	DefaultTimeout  = 4 * time.Second
	DefaultCacheTTL = 20 * time.Minute
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithCacheTTL sets how long a resolved quote stays cached.
func WithCacheTTL(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.ttl = d
		}
	}
}

// WithCache enables the quote cache. Without it every call hits the chain.
func WithCache(c repository.QuoteCache) Option {
	return func(r *Resolver) {
		r.cache = c
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m repository.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

type Resolver struct {
	spot    []repository.SpotProvider
	terms   []repository.TermsProvider
	cache   repository.QuoteCache
	metrics repository.Metrics
	log     *logger.Logger
	timeout time.Duration
	ttl     time.Duration
}

var _ service.QuoteResolver = (*Resolver)(nil)

func New(spot []repository.SpotProvider, terms []repository.TermsProvider, log *logger.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		spot:    spot,
		terms:   terms,
		log:     log,
		timeout: DefaultTimeout,
		ttl:     DefaultCacheTTL,
	}
	if r.log == nil {
		r.log = logger.Nop()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type noCacheKey struct{}

// NoCache makes the resolver skip the cache lookup for ctx. A fresh result
// is still written back.
func NoCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, noCacheKey{}, true)
}

func skipCache(ctx context.Context) bool {
	v, _ := ctx.Value(noCacheKey{}).(bool)
	return v
}

// ResolveQuote returns the spot price of id from the first provider that has one.
// When all providers fail the error is an *errs.ExhaustedError.
func (r *Resolver) ResolveQuote(ctx context.Context, id string) (*models.SpotQuote, error) {
	if !models.ValidInstrumentID(id) {
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidInstrument, id)
	}

	key := quotecache.SpotKey(id)
	if r.cache != nil && !skipCache(ctx) {
		q, ok, err := r.cache.GetSpot(ctx, key)
		if r.cached(ChainSpot, key, ok, err) {
			return q, nil
		}
	}

	names := make([]string, len(r.spot))
	for i, p := range r.spot {
		names[i] = p.Name()
	}
	q, err := run(ctx, r, ChainSpot, id, names, func(ctx context.Context, i int) (*models.SpotQuote, error) {
		q, err := r.spot[i].FetchSpot(ctx, id)
		if err != nil {
			return nil, err
		}
		// !(x > 0) also rejects NaN.
		if q == nil || !(q.Price > 0) || math.IsInf(q.Price, 0) {
			return nil, errs.NoData(names[i], "", "no positive price")
		}
		if q.Source == "" {
			q.Source = names[i]
		}
		return q, nil
	})
	if err != nil {
		return nil, err
	}

	if r.metrics != nil {
		r.metrics.RecordLastSpot(id, q.Price)
	}
	if r.cache != nil {
		if err := r.cache.SetSpot(ctx, key, q, r.ttl); err != nil {
			r.log.Warn("quote cache write failed", logger.String("key", key), logger.Error(err))
		}
	}
	return q, nil
}

// ResolveTerms returns the CB series of id from the first provider that lists any.
func (r *Resolver) ResolveTerms(ctx context.Context, id string) (*models.TermsQuote, error) {
	if !models.ValidInstrumentID(id) {
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidInstrument, id)
	}

	key := quotecache.TermsKey(id)
	if r.cache != nil && !skipCache(ctx) {
		q, ok, err := r.cache.GetTerms(ctx, key)
		if r.cached(ChainTerms, key, ok, err) {
			return q, nil
		}
	}

	names := make([]string, len(r.terms))
	for i, p := range r.terms {
		names[i] = p.Name()
	}
	q, err := run(ctx, r, ChainTerms, id, names, func(ctx context.Context, i int) (*models.TermsQuote, error) {
		q, err := r.terms[i].FetchTerms(ctx, id)
		if err != nil {
			return nil, err
		}
		if q == nil || len(q.Bonds) == 0 {
			return nil, errs.NoData(names[i], "", "no bonds")
		}
		if q.Source == "" {
			q.Source = names[i]
		}
		for j := range q.Bonds {
			if q.Bonds[j].Source == "" {
				q.Bonds[j].Source = q.Source
			}
		}
		return q, nil
	})
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.SetTerms(ctx, key, q, r.ttl); err != nil {
			r.log.Warn("quote cache write failed", logger.String("key", key), logger.Error(err))
		}
	}
	return q, nil
}

// cached records the lookup and reports whether the cached value can be served.
// A cache error is logged and treated as a miss.
func (r *Resolver) cached(chain, key string, ok bool, err error) bool {
	if err != nil {
		r.log.Warn("quote cache read failed", logger.String("key", key), logger.Error(err))
	}
	if r.metrics != nil {
		if ok && err == nil {
			r.metrics.RecordCacheHit(chain)
			r.metrics.RecordResolve(chain, "cache_hit")
		} else {
			r.metrics.RecordCacheMiss(chain)
		}
	}
	return ok && err == nil
}

// run tries providers in order and returns the first success.
func run[T any](ctx context.Context, r *Resolver, chain, id string, names []string, fetch func(context.Context, int) (*T, error)) (*T, error) {
	var attempts []errs.Attempt
	for i, name := range names {
		if ctx.Err() != nil {
			break
		}

		start := time.Now()
		v, err := call(ctx, r.timeout, func(ctx context.Context) (*T, error) { return fetch(ctx, i) })
		if r.metrics != nil {
			r.metrics.RecordProviderLatency(name, time.Since(start).Seconds())
		}
		if err == nil {
			if r.metrics != nil {
				r.metrics.RecordProviderAttempt(name, "success")
				r.metrics.RecordResolve(chain, "success")
			}
			r.log.Debug("quote resolved",
				logger.String("chain", chain),
				logger.String("id", id),
				logger.String("provider", name),
				logger.Int("attempt", i+1),
			)
			return v, nil
		}

		kind := errs.Classify(err)
		if ctx.Err() != nil {
			kind = errs.KindCanceled
		}
		attempts = append(attempts, errs.Attempt{Provider: name, Kind: kind, Reason: err.Error()})
		if r.metrics != nil {
			r.metrics.RecordProviderAttempt(name, string(kind))
		}

		fields := []logger.Field{
			logger.String("chain", chain),
			logger.String("id", id),
			logger.String("provider", name),
			logger.String("kind", string(kind)),
			logger.Error(err),
		}
		if kind == errs.KindParseAmbiguous {
			r.log.Error("provider response ambiguous", fields...)
		} else {
			r.log.Warn("provider failed", fields...)
		}
	}

	ex := &errs.ExhaustedError{Chain: chain, ID: id, Attempts: attempts}
	outcome := "exhausted"
	if err := ctx.Err(); err != nil {
		ex.Reason = fmt.Sprintf("canceled: %v", err)
		outcome = "canceled"
	}
	if r.metrics != nil {
		r.metrics.RecordResolve(chain, outcome)
	}
	return nil, ex
}

// call runs one provider under its own deadline. A panic is turned into an
// unavailable error.
func call[T any](ctx context.Context, timeout time.Duration, fetch func(context.Context) (*T, error)) (v *T, err error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			v, err = nil, fmt.Errorf("%w: panic: %v", errs.ErrProviderUnavailable, rec)
		}
	}()
	return fetch(ctx)
}
