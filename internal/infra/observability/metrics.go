package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the console.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	gatewayDuration *prometheus.HistogramVec
	gatewayErrors   *prometheus.CounterVec
	storeOps        *prometheus.CounterVec
	forcedLogouts   prometheus.Counter
}

// ConsoleStats is a cumulative snapshot of console activity, served by
// the GET /stats endpoint.
type ConsoleStats struct {
	StoreOpsTotal  float64 `json:"storeOpsTotal"`
	StoreOpsFailed float64 `json:"storeOpsFailed"`
	ErrorRate      float64 `json:"errorRate"`
	ForcedLogouts  float64 `json:"forcedLogouts"`
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		gatewayDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_gateway_request_duration_seconds",
				Help:    "Duration of outbound API requests by endpoint.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		gatewayErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_gateway_errors_total",
				Help: "Total failed outbound API requests by endpoint and kind.",
			},
			[]string{"endpoint", "kind"},
		),
		storeOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_store_ops_total",
				Help: "Total store operations by store, operation and outcome.",
			},
			[]string{"store", "op", "status"},
		),
		forcedLogouts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "console_forced_logouts_total",
				Help: "Total sessions terminated by a 401 response.",
			},
		),
	}
}

// RecordGatewayDuration records the duration of an outbound API call.
func (m *Metrics) RecordGatewayDuration(endpoint string, d time.Duration) {
	m.gatewayDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// IncrGatewayError increments the outbound error counter.
// kind is "transport" or "api".
func (m *Metrics) IncrGatewayError(endpoint, kind string) {
	m.gatewayErrors.WithLabelValues(endpoint, kind).Inc()
}

// IncrStoreOp increments the store operation counter.
func (m *Metrics) IncrStoreOp(store, op, status string) {
	m.storeOps.WithLabelValues(store, op, status).Inc()
}

// IncrForcedLogout increments the forced logout counter.
func (m *Metrics) IncrForcedLogout() {
	m.forcedLogouts.Inc()
}

// Stats gathers a cumulative snapshot from the counters, suitable for
// the GET /stats endpoint.
func (m *Metrics) Stats() *ConsoleStats {
	families, err := m.Registry.Gather()
	if err != nil {
		return &ConsoleStats{}
	}

	stats := &ConsoleStats{}
	for _, fam := range families {
		switch fam.GetName() {
		case "console_store_ops_total":
			for _, metric := range fam.GetMetric() {
				v := counterValue(metric)
				stats.StoreOpsTotal += v
				for _, lp := range metric.GetLabel() {
					if lp.GetName() == "status" && lp.GetValue() == "error" {
						stats.StoreOpsFailed += v
					}
				}
			}
		case "console_forced_logouts_total":
			for _, metric := range fam.GetMetric() {
				stats.ForcedLogouts += counterValue(metric)
			}
		}
	}

	if stats.StoreOpsTotal > 0 {
		stats.ErrorRate = stats.StoreOpsFailed / stats.StoreOpsTotal
	}
	return stats
}

func counterValue(m *dto.Metric) float64 {
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
