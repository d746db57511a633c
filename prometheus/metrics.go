// Package prometheus records import metrics with the Prometheus client.
package prometheus

import (
	"context"
	"time"

	"github.com/fwojciec/postmap"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for post building and image side-loading.
type Metrics struct {
	BuildStatus      *prometheus.CounterVec
	Sideloads        *prometheus.CounterVec
	SideloadDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		BuildStatus: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postmap_build_status_total",
				Help: "Total number of statuses reported while building posts.",
			},
			[]string{"status"},
		),
		Sideloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postmap_sideload_total",
				Help: "Total number of image side-loads by result.",
			},
			[]string{"result"},
		),
		SideloadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "postmap_sideload_duration_seconds",
				Help:    "Duration of image side-loads.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
	}

	for _, c := range []prometheus.Collector{m.BuildStatus, m.Sideloads, m.SideloadDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// StatusRecorder returns a StatusFunc that counts every event and then
// passes it on to next. A nil next is allowed.
func (m *Metrics) StatusRecorder(next postmap.StatusFunc) postmap.StatusFunc {
	return func(ev postmap.StatusEvent) {
		m.BuildStatus.WithLabelValues(ev.Status.String()).Inc()
		if next != nil {
			next(ev)
		}
	}
}

// Compile-time interface verification.
var _ postmap.ImageLoader = (*InstrumentedImageLoader)(nil)

// InstrumentedImageLoader wraps an ImageLoader and records each side-load.
type InstrumentedImageLoader struct {
	next    postmap.ImageLoader
	metrics *Metrics
}

// NewInstrumentedImageLoader creates a new metrics decorator for ImageLoader.
func NewInstrumentedImageLoader(next postmap.ImageLoader, m *Metrics) *InstrumentedImageLoader {
	return &InstrumentedImageLoader{next: next, metrics: m}
}

func (l *InstrumentedImageLoader) Sideload(ctx context.Context, imageURL, postID, alt string) (fragment string, err error) {
	defer func(begin time.Time) {
		l.metrics.SideloadDuration.Observe(time.Since(begin).Seconds())
		result := "ok"
		if err != nil {
			result = "error"
		}
		l.metrics.Sideloads.WithLabelValues(result).Inc()
	}(time.Now())
	return l.next.Sideload(ctx, imageURL, postID, alt)
}

// Compile-time interface verification.
var _ postmap.PostBuilder = (*InstrumentedPostBuilder)(nil)

// InstrumentedPostBuilder counts the statuses of every build it runs.
type InstrumentedPostBuilder struct {
	next    postmap.PostBuilder
	metrics *Metrics
}

// NewInstrumentedPostBuilder creates a new metrics decorator for PostBuilder.
func NewInstrumentedPostBuilder(next postmap.PostBuilder, m *Metrics) *InstrumentedPostBuilder {
	return &InstrumentedPostBuilder{next: next, metrics: m}
}

// BuildPosts delegates to the wrapped builder through StatusRecorder.
func (b *InstrumentedPostBuilder) BuildPosts(ctx context.Context, connectorID, url string, fn postmap.StatusFunc) (bool, error) {
	return b.next.BuildPosts(ctx, connectorID, url, b.metrics.StatusRecorder(fn))
}
