package providers

import (
	"fmt"

	"CBDesk/internal/domain/repository"
	"CBDesk/pkg/config"
	"CBDesk/pkg/logger"
)

// Chains builds the spot and terms provider lists in configured order.
func Chains(cfg config.ResolverConfig, log *logger.Logger) ([]repository.SpotProvider, []repository.TermsProvider, error) {
	spot := make([]repository.SpotProvider, 0, len(cfg.SpotProviders))
	for _, pc := range cfg.SpotProviders {
		o := options(cfg, pc, log)
		switch pc.Name {
		case NameYahoo:
			spot = append(spot, NewYahoo(o))
		case NameTWSEMIS:
			spot = append(spot, NewTWSEMIS(o))
		case NameGoodinfo:
			spot = append(spot, NewGoodinfo(o))
		default:
			return nil, nil, fmt.Errorf("unknown spot provider %q", pc.Name)
		}
	}

	terms := make([]repository.TermsProvider, 0, len(cfg.TermsProviders))
	for _, pc := range cfg.TermsProviders {
		o := options(cfg, pc, log)
		switch pc.Name {
		case NameTPExCB:
			terms = append(terms, NewTPExCB(o))
		case NameCBTable:
			terms = append(terms, NewCBTable(o))
		default:
			return nil, nil, fmt.Errorf("unknown terms provider %q", pc.Name)
		}
	}
	return spot, terms, nil
}

func options(cfg config.ResolverConfig, pc config.ProviderConfig, log *logger.Logger) Options {
	timeout := pc.Timeout
	if timeout <= 0 {
		timeout = cfg.Timeout
	}
	return Options{
		BaseURL:       pc.BaseURL,
		UserAgent:     cfg.UserAgent,
		Proxy:         cfg.Proxy,
		Timeout:       timeout,
		RatePerSecond: cfg.RatePerSecond,
		Burst:         cfg.Burst,
		Logger:        log,
	}
}
