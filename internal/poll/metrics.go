package poll

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var voteResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "feedgraph_poll_votes_total",
	Help: "Vote attempts, by outcome",
}, []string{"result"})
