package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	providerAttempts *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	resolves         *prometheus.CounterVec
	lastSpot         *prometheus.GaugeVec
}

var (
	defaultRecorder *Recorder
	defaultOnce     sync.Once
)

// New returns the recorder registered on the default registry. Every call
// shares one set of collectors.
func New() *Recorder {
	defaultOnce.Do(func() {
		defaultRecorder = NewWithRegistry(prometheus.DefaultRegisterer)
	})
	return defaultRecorder
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		providerAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cbdesk_provider_attempts_total",
				Help: "Provider calls by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		providerLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cbdesk_provider_duration_seconds",
				Help:    "Duration of provider calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
			},
			[]string{"provider"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cbdesk_quote_cache_lookups_total",
				Help: "Quote cache lookups by chain and result",
			},
			[]string{"chain", "result"},
		),
		resolves: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cbdesk_resolves_total",
				Help: "Resolver outcomes by chain",
			},
			[]string{"chain", "outcome"},
		),
		lastSpot: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cbdesk_last_spot_price",
				Help: "Last resolved spot price per instrument",
			},
			[]string{"instrument"},
		),
	}
}

// RecordProviderAttempt counts one provider call.
func (r *Recorder) RecordProviderAttempt(provider, outcome string) {
	r.providerAttempts.WithLabelValues(provider, outcome).Inc()
}

// RecordProviderLatency records provider call latency in seconds.
func (r *Recorder) RecordProviderLatency(provider string, seconds float64) {
	r.providerLatency.WithLabelValues(provider).Observe(seconds)
}

func (r *Recorder) RecordCacheHit(chain string) {
	r.cacheLookups.WithLabelValues(chain, "hit").Inc()
}

func (r *Recorder) RecordCacheMiss(chain string) {
	r.cacheLookups.WithLabelValues(chain, "miss").Inc()
}

// RecordResolve counts a finished resolution (ok, cached, exhausted, canceled).
func (r *Recorder) RecordResolve(chain, outcome string) {
	r.resolves.WithLabelValues(chain, outcome).Inc()
}

// RecordLastSpot records the last spot price for an instrument.
func (r *Recorder) RecordLastSpot(id string, price float64) {
	r.lastSpot.WithLabelValues(id).Set(price)
}
