package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposed by the resolution core. Labels keep cardinality
// bounded: tier is volatile|persistent, kind is a SourceKind, outcome
// is success|failure.
var (
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "econcli",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Cache hits by tier.",
	}, []string{"tier"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "econcli",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Cache misses by tier, stale entries included.",
	}, []string{"tier"})

	CacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "econcli",
		Subsystem: "cache",
		Name:      "evictions_total",
		Help:      "Entries evicted by tier.",
	}, []string{"tier"})

	SourceFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "econcli",
		Subsystem: "resolver",
		Name:      "source_fetches_total",
		Help:      "Source attempts by kind and outcome.",
	}, []string{"kind", "outcome"})

	CoalescedRequests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "econcli",
		Subsystem: "resolver",
		Name:      "coalesced_requests_total",
		Help:      "Requests that joined an identical in-flight resolution.",
	})

	FetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "econcli",
		Subsystem: "fetch",
		Name:      "retries_total",
		Help:      "Transient network failures retried by the paced client.",
	})
)
