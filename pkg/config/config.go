package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"CBDesk/pkg/logger"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORS            bool          `yaml:"cors"`
	} `yaml:"server"`
	Log     logger.Config `yaml:"log"`
	Metrics struct {
		Enabled       bool          `yaml:"enabled"`
		SlowThreshold time.Duration `yaml:"slow_threshold"`
	} `yaml:"metrics"`
	RateLimit struct {
		Capacity     float64 `yaml:"capacity"`
		RefillPerSec float64 `yaml:"refill_per_sec"`
	} `yaml:"rate_limit"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Cache     CacheConfig     `yaml:"cache"`
	Valuation ValuationConfig `yaml:"valuation"`
	Desk      struct {
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"desk"`
	Collector CollectorConfig `yaml:"collector"`
}

// ProviderConfig names one upstream source. Order in the list is chain order.
type ProviderConfig struct {
	Name    string        `yaml:"name"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type ResolverConfig struct {
	Timeout        time.Duration    `yaml:"timeout"`
	CacheTTL       time.Duration    `yaml:"cache_ttl"`
	UserAgent      string           `yaml:"user_agent"`
	Proxy          string           `yaml:"proxy"`
	RatePerSecond  float64          `yaml:"rate_per_second"`
	Burst          int              `yaml:"burst"`
	SpotProviders  []ProviderConfig `yaml:"spot_providers"`
	TermsProviders []ProviderConfig `yaml:"terms_providers"`
}

type CacheConfig struct {
	Backend          string        `yaml:"backend"` // memory, redis, layered
	MemoryMaxSize    int           `yaml:"memory_max_size"`
	LayeredMemoryTTL time.Duration `yaml:"layered_memory_ttl"`
	Redis            struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`
}

// ValuationConfig is the classification threshold table. Premium cuts are
// percentages, auction rates are fractions.
type ValuationConfig struct {
	CheapCut         float64   `yaml:"cheap_cut"`
	NeutralCut       float64   `yaml:"neutral_cut"`
	OverheatedCut    float64   `yaml:"overheated_cut"`
	StrongRate       float64   `yaml:"strong_rate"`
	WeakRate         float64   `yaml:"weak_rate"`
	ReverseRates     []float64 `yaml:"reverse_rates"`
	NearTolerance    float64   `yaml:"near_tolerance"`
	BondLikeParity   float64   `yaml:"bond_like_parity"`
	EquityLikeParity float64   `yaml:"equity_like_parity"`
	ReferenceCost    float64   `yaml:"reference_cost"`
}

// CollectorConfig ships aggregated error logs to Kafka.
type CollectorConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Brokers     []string      `yaml:"brokers"`
	Topic       string        `yaml:"topic"`
	Compression string        `yaml:"compression"`
	Interval    time.Duration `yaml:"interval"`
	Threshold   int           `yaml:"threshold"`
	GroupBy     []string      `yaml:"group_by"`
}

// Default returns a configuration that runs with no file at all.
func Default() *Config {
	c := &Config{Environment: "development"}

	c.Server.Host = "0.0.0.0"
	c.Server.Port = 8080
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Server.CORS = true

	c.Log = logger.Config{Level: "info", Format: "console", Output: "stdout"}

	c.Metrics.Enabled = true
	c.Metrics.SlowThreshold = 2 * time.Second

	c.RateLimit.Capacity = 30
	c.RateLimit.RefillPerSec = 1

	c.Resolver = ResolverConfig{
		Timeout:       4 * time.Second,
		CacheTTL:      20 * time.Minute,
		UserAgent:     "Mozilla/5.0 (compatible; cbdesk/1.0)",
		RatePerSecond: 2,
		Burst:         2,
		SpotProviders: []ProviderConfig{
			{Name: "yahoo"},
			{Name: "twse_mis"},
			{Name: "goodinfo"},
		},
		TermsProviders: []ProviderConfig{
			{Name: "tpex_cb"},
			{Name: "cb_table"},
		},
	}

	c.Cache.Backend = "memory"
	c.Cache.MemoryMaxSize = 1000
	c.Cache.LayeredMemoryTTL = time.Minute
	c.Cache.Redis.Addr = "localhost:6379"
	c.Cache.Redis.Prefix = "cbdesk"
	c.Cache.Redis.PoolSize = 10

	c.Valuation = ValuationConfig{
		CheapCut:         5,
		NeutralCut:       10,
		OverheatedCut:    20,
		StrongRate:       0.10,
		WeakRate:         0.20,
		ReverseRates:     []float64{0.10, 0.15, 0.20, 0.25},
		NearTolerance:    5,
		BondLikeParity:   90,
		EquityLikeParity: 130,
		ReferenceCost:    100,
	}

	c.Desk.Timeout = 15 * time.Second

	c.Collector.Topic = "cbdesk.logs"
	c.Collector.Compression = "gzip"
	c.Collector.Interval = 30 * time.Second
	c.Collector.Threshold = 100
	c.Collector.GroupBy = []string{"chain", "provider", "kind", "route", "status"}

	return c
}

// Load reads a YAML configuration file over the defaults.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// An empty path means defaults only.
func LoadWithEnv(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("CBDESK_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Collector.Brokers = splitList(v)
	}
	if v := os.Getenv("HTTP_PROXY_URL"); v != "" {
		c.Resolver.Proxy = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func read(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Resolver.Timeout <= 0 {
		return fmt.Errorf("resolver.timeout must be positive")
	}
	if c.Resolver.CacheTTL <= 0 {
		return fmt.Errorf("resolver.cache_ttl must be positive")
	}
	if err := validateProviders("resolver.spot_providers", c.Resolver.SpotProviders); err != nil {
		return err
	}
	if err := validateProviders("resolver.terms_providers", c.Resolver.TermsProviders); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.backend must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Backend)
	}
	if c.Cache.Backend != "memory" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required for backend '%s'", c.Cache.Backend)
	}
	if c.Desk.Timeout <= 0 {
		return fmt.Errorf("desk.timeout must be positive")
	}
	if c.Collector.Enabled {
		if len(c.Collector.Brokers) == 0 {
			return fmt.Errorf("collector.brokers cannot be empty when the collector is enabled")
		}
		if c.Collector.Topic == "" {
			return fmt.Errorf("collector.topic is required")
		}
	}
	return nil
}

func validateProviders(field string, list []ProviderConfig) error {
	if len(list) == 0 {
		return fmt.Errorf("%s cannot be empty", field)
	}
	seen := make(map[string]bool, len(list))
	var errs []error
	for i, p := range list {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("%s[%d].name is required", field, i))
			continue
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate provider '%s'", field, p.Name))
		}
		seen[p.Name] = true
	}
	return errors.Join(errs...)
}
