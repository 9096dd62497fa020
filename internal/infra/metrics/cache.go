package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(cacheRequestsTotal, cacheDiscardsTotal, cacheSubscribers) }

var cacheRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Entity cache reads by key kind and result.",
	},
	[]string{"kind", "result"}, // e.g., kind="jobs", result="hit" | "miss" | "join"
)

var cacheDiscardsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_stale_responses_discarded_total",
		Help: "Fetch completions dropped because a newer fetch for the key had started.",
	},
	[]string{"kind"},
)

var cacheSubscribers = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "cache_subscribers",
		Help: "Live view subscriptions on the entity cache.",
	},
)

func IncCacheRequest(kind, result string) {
	cacheRequestsTotal.WithLabelValues(norm(kind), norm(result)).Inc()
}

func IncStaleDiscard(kind string) {
	cacheDiscardsTotal.WithLabelValues(norm(kind)).Inc()
}

func AddSubscribers(delta int) {
	cacheSubscribers.Add(float64(delta))
}
