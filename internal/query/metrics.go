package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_query_cache_hits_total",
		Help: "Fresh cache hits served without a fetch.",
	})
	cacheStale = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_query_cache_stale_total",
		Help: "Stale entries served while revalidating in the background.",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_query_cache_misses_total",
		Help: "Cache misses that required a foreground fetch.",
	})
	cacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_query_cache_invalidations_total",
		Help: "Entries dropped by mutation-declared invalidation.",
	})
)
