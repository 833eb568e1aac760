package quote

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ambiguousMatches = promauto.NewCounter(prometheus.CounterOpts{
	Name: "feedgraph_quote_ambiguous_matches_total",
	Help: "Number of quote lookups that matched more than one quote row",
})

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "feedgraph_quote_cache_lookups_total",
	Help: "Quote reconciliation cache lookups, by result",
}, []string{"result"})
