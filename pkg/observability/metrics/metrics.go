// Package metrics provides Prometheus metrics for transaction outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TxRecorder counts transaction lifecycle events per resource. It
// implements the manager's Recorder interface.
type TxRecorder struct {
	registry   *prometheus.Registry
	begun      *prometheus.CounterVec
	committed  *prometheus.CounterVec
	rolledBack *prometheus.CounterVec
	joined     *prometheus.CounterVec
}

// NewTxRecorder creates a recorder with its own Prometheus registry,
// including the Go runtime collectors.
func NewTxRecorder() *TxRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &TxRecorder{
		registry: reg,
		begun: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "txscope_transactions_begun_total",
			Help: "Number of backend transactions begun, by resource.",
		}, []string{"resource"}),
		committed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "txscope_transactions_committed_total",
			Help: "Number of backend transactions committed, by resource.",
		}, []string{"resource"}),
		rolledBack: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "txscope_transactions_rolled_back_total",
			Help: "Number of backend transactions rolled back, by resource.",
		}, []string{"resource"}),
		joined: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "txscope_transactions_joined_total",
			Help: "Number of operations that joined an enclosing transaction, by resource.",
		}, []string{"resource"}),
	}
	reg.MustRegister(r.begun, r.committed, r.rolledBack, r.joined)
	return r
}

// TxBegun counts a begun transaction for resource.
func (r *TxRecorder) TxBegun(resource string) {
	r.begun.WithLabelValues(resource).Inc()
}

// TxCommitted counts a committed transaction for resource.
func (r *TxRecorder) TxCommitted(resource string) {
	r.committed.WithLabelValues(resource).Inc()
}

// TxRolledBack counts a rolled-back transaction for resource.
func (r *TxRecorder) TxRolledBack(resource string) {
	r.rolledBack.WithLabelValues(resource).Inc()
}

// TxJoined counts an operation that joined an enclosing transaction.
func (r *TxRecorder) TxJoined(resource string) {
	r.joined.WithLabelValues(resource).Inc()
}

// Register registers an additional collector on the recorder's registry.
func (r *TxRecorder) Register(collector prometheus.Collector) error {
	return r.registry.Register(collector)
}

// Handler returns an HTTP handler exposing the metrics in Prometheus
// format, for mounting on a management endpoint.
func (r *TxRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Gatherer returns the underlying prometheus.Gatherer.
func (r *TxRecorder) Gatherer() prometheus.Gatherer {
	return r.registry
}
