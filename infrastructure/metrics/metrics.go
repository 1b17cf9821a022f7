// Package metrics provides Prometheus metrics for the news service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "news"

// View outcomes recorded by ViewsTotal.
const (
	ViewCounted   = "counted"
	ViewDuplicate = "duplicate"
	ViewSkipped   = "skipped"
	ViewFailed    = "failed"
)

// Metrics groups the collectors. A nil *Metrics records nothing.
type Metrics struct {
	ViewsTotal          *prometheus.CounterVec
	BlobCleanupFailures prometheus.Counter
	MediaAttachedTotal  *prometheus.CounterVec
}

// New registers the collectors on reg; pass prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ViewsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "views_total",
				Help:      "Article reads by view-counting outcome",
			},
			[]string{"outcome"},
		),
		BlobCleanupFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "blob_cleanup_failures_total",
				Help:      "Blobs left behind after their media row was removed",
			},
		),
		MediaAttachedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "media_attached_total",
				Help:      "Media assets attached to articles",
			},
			[]string{"kind"},
		),
	}
}

func (m *Metrics) RecordView(outcome string) {
	if m == nil {
		return
	}
	m.ViewsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordBlobCleanupFailure() {
	if m == nil {
		return
	}
	m.BlobCleanupFailures.Inc()
}

func (m *Metrics) RecordMediaAttached(kind string) {
	if m == nil {
		return
	}
	m.MediaAttachedTotal.WithLabelValues(kind).Inc()
}
