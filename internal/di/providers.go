package di

import (
	"fmt"

	"CBDesk/internal/domain/repository"
	"CBDesk/internal/domain/service"
	"CBDesk/internal/handler/api"
	quotecache "CBDesk/internal/service/cache"
	"CBDesk/internal/service/providers"
	"CBDesk/internal/service/ratelimit"
	"CBDesk/internal/services/resolver"
	"CBDesk/internal/services/valuation"
	"CBDesk/internal/usecase"
	pkgcache "CBDesk/pkg/cache"
	"CBDesk/pkg/config"
	xhttp "CBDesk/pkg/http"
	pkgkafka "CBDesk/pkg/kafka"
	"CBDesk/pkg/logger"
	"CBDesk/pkg/metrics"
	"CBDesk/pkg/server"
)

// Services is what the CLI needs without the HTTP server.
type Services struct {
	Log    *logger.Logger
	Desk   *usecase.ValuationDesk
	Quotes service.QuoteResolver
}

// Chains holds the configured provider chains.
type Chains struct {
	Spot  []repository.SpotProvider
	Terms []repository.TermsProvider
}

// ProvideKafkaProducer creates the log shipping producer. It is nil when the
// collector is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Collector.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Collector.Brokers),
		pkgkafka.WithCompression(cfg.Collector.Compression),
		pkgkafka.WithRequiredAcks(1),
		pkgkafka.WithAsync(false),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger creates the application logger and attaches the error log
// collector when a producer is available.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, func(), error) {
	log, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil {
		log.AddCollector(&logger.CollectionConfig{
			TimeInterval:   cfg.Collector.Interval,
			CountThreshold: cfg.Collector.Threshold,
			Topic:          cfg.Collector.Topic,
			Publisher:      producer,
			GroupBy:        cfg.Collector.GroupBy,
		})
	}
	return log, log.RemoveCollector, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCacheStore creates the cache backend selected by cache.backend.
func ProvideCacheStore(cfg *config.Config) (pkgcache.Service, func(), error) {
	redis := func() (*pkgcache.RedisCache, error) {
		rc := cfg.Cache.Redis
		return pkgcache.NewRedisCache(
			pkgcache.WithRedisAddr(rc.Addr),
			pkgcache.WithRedisPassword(rc.Password),
			pkgcache.WithRedisDB(rc.DB),
			pkgcache.WithRedisPrefix(rc.Prefix),
			pkgcache.WithRedisPool(rc.PoolSize, 2, 0),
		)
	}

	var store pkgcache.Service
	switch cfg.Cache.Backend {
	case "redis":
		rc, err := redis()
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		store = rc
	case "layered":
		rc, err := redis()
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		store = pkgcache.NewLayeredCache(rc,
			pkgcache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
			pkgcache.WithLayeredMemoryTTL(cfg.Cache.LayeredMemoryTTL),
		)
	default:
		store = pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize))
	}
	return store, func() { _ = store.Close() }, nil
}

// ProvideQuoteCache adapts the cache backend to quote records.
func ProvideQuoteCache(store pkgcache.Service) repository.QuoteCache {
	return quotecache.NewQuoteCache(store)
}

// ProvideChains builds the provider chains from resolver config.
func ProvideChains(cfg *config.Config, log *logger.Logger) (*Chains, error) {
	spot, terms, err := providers.Chains(cfg.Resolver, log)
	if err != nil {
		return nil, fmt.Errorf("providers: %w", err)
	}
	return &Chains{Spot: spot, Terms: terms}, nil
}

// ProvideResolver creates the quote resolver.
func ProvideResolver(
	cfg *config.Config,
	chains *Chains,
	cache repository.QuoteCache,
	m repository.Metrics,
	log *logger.Logger,
) service.QuoteResolver {
	return resolver.New(chains.Spot, chains.Terms, log,
		resolver.WithCache(cache),
		resolver.WithMetrics(m),
		resolver.WithTimeout(cfg.Resolver.Timeout),
		resolver.WithCacheTTL(cfg.Resolver.CacheTTL),
	)
}

// ProvidePolicy builds the valuation thresholds from config.
func ProvidePolicy(cfg *config.Config) (valuation.Policy, error) {
	v := cfg.Valuation
	p := valuation.Policy{
		CheapCut:         v.CheapCut,
		NeutralCut:       v.NeutralCut,
		OverheatedCut:    v.OverheatedCut,
		StrongRate:       v.StrongRate,
		WeakRate:         v.WeakRate,
		ReverseRates:     v.ReverseRates,
		NearTolerance:    v.NearTolerance,
		BondLikeParity:   v.BondLikeParity,
		EquityLikeParity: v.EquityLikeParity,
		ReferenceCost:    v.ReferenceCost,
	}
	if err := p.Validate(); err != nil {
		return valuation.Policy{}, fmt.Errorf("valuation policy: %w", err)
	}
	return p, nil
}

// ProvideValuationDesk creates the valuation use case.
func ProvideValuationDesk(cfg *config.Config, quotes service.QuoteResolver, policy valuation.Policy, log *logger.Logger) *usecase.ValuationDesk {
	return usecase.NewValuationDesk(quotes, policy, cfg.Desk.Timeout, log)
}

// ProvideRateLimiter throttles quote endpoint callers.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

// ProvideHandlers collects every HTTP route group.
func ProvideHandlers(
	cfg *config.Config,
	log *logger.Logger,
	desk *usecase.ValuationDesk,
	quotes service.QuoteResolver,
	policy valuation.Policy,
	limiter *ratelimit.Limiter,
) []xhttp.Handler {
	names := func(list []config.ProviderConfig) []string {
		out := make([]string, len(list))
		for i, p := range list {
			out[i] = p.Name
		}
		return out
	}
	return []xhttp.Handler{
		api.NewValuationHandler(log, desk, policy),
		api.NewQuotesHandler(log, quotes, limiter),
		api.NewHealthHandler(names(cfg.Resolver.SpotProviders), names(cfg.Resolver.TermsProviders)),
	}
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(cfg *config.Config, log *logger.Logger, handlers []xhttp.Handler) *xhttp.Server {
	return xhttp.NewServer(log, handlers,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Metrics.SlowThreshold),
	)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, log *logger.Logger, srv *xhttp.Server) *server.App {
	return server.New(cfg, log, srv)
}

// ProvideServices bundles the CLI dependencies.
func ProvideServices(log *logger.Logger, desk *usecase.ValuationDesk, quotes service.QuoteResolver) *Services {
	return &Services{Log: log, Desk: desk, Quotes: quotes}
}
