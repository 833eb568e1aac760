package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var degraded = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "feedgraph_feed_degraded_total",
	Help: "Enrichment steps that fell back to a default, by step",
}, []string{"step"})
