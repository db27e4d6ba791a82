// Package metrics exposes the Prometheus collectors of the capture layer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pragmaticfish/sushify/internal/logging"
)

var (
	// FlowsObserved counts hook invocations per hook.
	FlowsObserved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sushify",
		Name:      "flows_observed_total",
		Help:      "Number of flows seen by each capture hook.",
	}, []string{"hook"})

	// Deliveries counts delivery attempts by result.
	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sushify",
		Name:      "deliveries_total",
		Help:      "Number of exchange delivery attempts by result.",
	}, []string{"result"})

	// DeliveryDuration observes the time spent pushing one exchange to the
	// dashboard.
	DeliveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sushify",
		Name:      "delivery_duration_seconds",
		Help:      "Time spent pushing one exchange to the dashboard.",
	})

	// QueueDrops counts exchanges dropped because the delivery queue was
	// full.
	QueueDrops = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sushify",
		Name:      "queue_drops_total",
		Help:      "Number of exchanges dropped because the delivery queue was full.",
	})

	// TrackedFlows reports how many flows currently await an outcome.
	TrackedFlows = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sushify",
		Name:      "tracked_flows",
		Help:      "Number of flows whose start time is currently tracked.",
	})
)

// InitializeHTTP serves the metrics endpoint on the given bind address. It
// blocks, so run it in its own goroutine.
func InitializeHTTP(bind string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	if err := http.ListenAndServe(bind, mux); err != nil {
		logging.L.Error("metrics endpoint stopped", zap.Error(err))
	}
}
