package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the storefront's counters. Snapshot drops after teardown
// are expected under the async delivery model, so they get a counter rather
// than a log line.
type Registry struct {
	reg *prometheus.Registry

	SnapshotsDelivered prometheus.Counter
	SnapshotsDropped   prometheus.Counter
	MalformedRecords   prometheus.Counter

	CheckoutsStarted   prometheus.Counter
	CheckoutsSucceeded prometheus.Counter
	CheckoutsFailed    prometheus.Counter
	CheckoutsCancelled prometheus.Counter
	OrdersRecorded     prometheus.Counter

	UploadDuration prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	delivered := prometheus.NewCounter(prometheus.CounterOpts{Name: "bookhive_snapshots_delivered_total"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "bookhive_snapshots_dropped_after_teardown_total"})
	malformed := prometheus.NewCounter(prometheus.CounterOpts{Name: "bookhive_malformed_records_skipped_total"})

	started := prometheus.NewCounter(prometheus.CounterOpts{Name: "bookhive_checkouts_started_total"})
	succeeded := prometheus.NewCounter(prometheus.CounterOpts{Name: "bookhive_checkouts_succeeded_total"})
	failed := prometheus.NewCounter(prometheus.CounterOpts{Name: "bookhive_checkouts_failed_total"})
	cancelled := prometheus.NewCounter(prometheus.CounterOpts{Name: "bookhive_checkouts_cancelled_total"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{Name: "bookhive_orders_recorded_total"})

	upload := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bookhive_asset_upload_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(delivered, dropped, malformed, started, succeeded, failed, cancelled, orders, upload)
	return &Registry{
		reg:                r,
		SnapshotsDelivered: delivered,
		SnapshotsDropped:   dropped,
		MalformedRecords:   malformed,
		CheckoutsStarted:   started,
		CheckoutsSucceeded: succeeded,
		CheckoutsFailed:    failed,
		CheckoutsCancelled: cancelled,
		OrdersRecorded:     orders,
		UploadDuration:     upload,
	}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
