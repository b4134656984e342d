package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PasteCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastebox_paste_created_total",
		Help: "no. of pastes created",
	})
	PasteRetrieved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastebox_paste_retrieved_total",
		Help: "no. of pastes retrieved",
	})
	PasteNotFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastebox_paste_not_found_total",
		Help: "no. of lookups for unknown ids",
	})
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastebox_cache_hits_total",
		Help: "no. of cache hits",
	})
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastebox_cache_misses_total",
		Help: "no. of cache misses",
	})
	TCPSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pastebox_tcp_sessions_active",
		Help: "currently open TCP sessions",
	})
	TCPCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pastebox_tcp_commands_total",
			Help: "no. of TCP commands processed",
		},
		[]string{"command"},
	)
)

func Init() {
}
