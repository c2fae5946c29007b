package nonce

import "github.com/prometheus/client_golang/prometheus"

// Metrics used in monitoring service.
var (
	nonceHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of nonces served from the cache",
			Name:      "nonce_cache_hits",
			Namespace: "aurora",
		},
	)
	nonceMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of nonces fetched from the chain",
			Name:      "nonce_cache_misses",
			Namespace: "aurora",
		},
	)
	nonceInvalidations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of invalidated cache entries",
			Name:      "nonce_cache_invalidations",
			Namespace: "aurora",
		},
	)
	nonceCorrections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of cached counters raised to a higher chain nonce",
			Name:      "nonce_cache_corrections",
			Namespace: "aurora",
		},
	)
)

func init() {
	prometheus.MustRegister(
		nonceHits,
		nonceMisses,
		nonceInvalidations,
		nonceCorrections,
	)
}
