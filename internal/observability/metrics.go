package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the webhook service.
type Metrics struct {
	WebhooksReceived  prometheus.Counter
	RowsAppended      prometheus.Counter
	ValidationErrors  prometheus.Counter
	MappingErrors     prometheus.Counter
	AuthFailures      prometheus.Counter
	AuthBypassed      prometheus.Counter
	DuplicatesSkipped prometheus.Counter
	StoreErrors       prometheus.Counter

	AppendDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.WebhooksReceived,
		m.RowsAppended,
		m.ValidationErrors,
		m.MappingErrors,
		m.AuthFailures,
		m.AuthBypassed,
		m.DuplicatesSkipped,
		m.StoreErrors,
		m.AppendDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		WebhooksReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agendasync",
			Name:      "webhooks_received_total",
			Help:      "Total webhook deliveries received, regardless of outcome.",
		}),
		RowsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agendasync",
			Name:      "rows_appended_total",
			Help:      "Total rows appended to the sheet.",
		}),
		ValidationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agendasync",
			Name:      "validation_errors_total",
			Help:      "Deliveries rejected for an unsupported event or missing field.",
		}),
		MappingErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agendasync",
			Name:      "mapping_errors_total",
			Help:      "Unexpected normalization failures.",
		}),
		AuthFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agendasync",
			Name:      "auth_failures_total",
			Help:      "Deliveries rejected for a bad or missing credential.",
		}),
		AuthBypassed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agendasync",
			Name:      "auth_bypassed_total",
			Help:      "Deliveries accepted while the authorization bypass flag is on.",
		}),
		DuplicatesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agendasync",
			Name:      "duplicates_skipped_total",
			Help:      "Re-deliveries recognized by the dedup window and not appended.",
		}),
		StoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agendasync",
			Name:      "store_errors_total",
			Help:      "Append or read failures against the row store.",
		}),
		AppendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agendasync",
			Name:      "append_duration_seconds",
			Help:      "Duration of a single row append against the sheet API.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
	}
}
