package karnets

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signet_karnet_cache_hits_total",
		Help: "Number of karnet lookups that returned a secret.",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signet_karnet_cache_misses_total",
		Help: "Number of karnet lookups that found no live entry.",
	})
)
