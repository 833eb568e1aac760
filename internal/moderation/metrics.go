package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var classifiedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "feedgraph_moderation_classified_total",
	Help: "Number of texts classified, by outcome",
}, []string{"result"})

var denylistRefreshes = promauto.NewCounter(prometheus.CounterOpts{
	Name: "feedgraph_moderation_denylist_refreshes_total",
	Help: "Number of successful denylist reloads",
})

var denylistFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "feedgraph_moderation_denylist_fetch_errors_total",
	Help: "Number of denylist reloads that failed and fell back to an empty list",
})
