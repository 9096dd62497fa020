// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(gatewayLatencyMs) }

var gatewayLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "gateway_request_latency_ms",
		Help:    "Backend call latency distribution in milliseconds.",
		Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
	},
	[]string{"op", "result"}, // result = ok | NETWORK | NOT_FOUND | SERVER ...
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func ObserveGateway(op, result string, latencyMs int64) {
	gatewayLatencyMs.WithLabelValues(op, norm(result)).Observe(float64(latencyMs))
}
