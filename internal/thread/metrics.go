package thread

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cycleCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "feedgraph_thread_cycles_total",
	Help: "Number of root walks that found a cycle in parent links",
})

var depthExceededCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "feedgraph_thread_depth_exceeded_total",
	Help: "Number of root walks abandoned at the depth bound",
})
