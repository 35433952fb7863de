//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"CBDesk/pkg/config"
	"CBDesk/pkg/server"
)

var coreSet = wire.NewSet(
	// Infrastructure clients
	ProvideKafkaProducer,
	ProvideLogger,
	ProvideMetrics,
	ProvideCacheStore,
	ProvideQuoteCache,

	// Providers and resolver
	ProvideChains,
	ProvideResolver,

	// Use cases
	ProvidePolicy,
	ProvideValuationDesk,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		coreSet,

		// HTTP
		ProvideRateLimiter,
		ProvideHandlers,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeServices wires the use cases for one-shot CLI commands.
func InitializeServices(cfg *config.Config) (*Services, func(), error) {
	wire.Build(coreSet, ProvideServices)
	return nil, nil, nil
}
