package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cbdesk",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of valuation and quote endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cbdesk",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by endpoint and error code",
		},
		[]string{"endpoint", "code"},
	)

	PremiumBands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cbdesk",
			Subsystem: "valuation",
			Name:      "premium_band_total",
			Help:      "Evaluations by premium band",
		},
		[]string{"band"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EndpointLatency, EndpointErrors, PremiumBands)
	})
}
