// Package metrics provides Prometheus-backed observability for Flowgate.
// It defines counters and histograms for the operations that matter in a
// REST extraction pipeline: records extracted, API requests issued, page
// fetch latency, and sync outcomes.
//
// Example:
//
//	metrics.RecordsExtracted.WithLabelValues("jubelio", "orders", "success").Inc()
//
//	timer := metrics.NewTimer()
//	fetchPage()
//	metrics.PageFetchLatency.WithLabelValues("jubelio", "orders").
//	    Observe(timer.Stop().Seconds())
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsExtracted counts records emitted by sources.
	// Labels: connector, stream, status (success/failure)
	RecordsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowgate_records_extracted_total",
			Help: "Total number of records extracted from sources",
		},
		[]string{"connector", "stream", "status"},
	)

	// RecordsWritten counts records written by destinations.
	// Labels: connector, status
	RecordsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowgate_records_written_total",
			Help: "Total number of records written to destinations",
		},
		[]string{"connector", "status"},
	)

	// APIRequests counts upstream API requests.
	// Labels: connector, stream, code (HTTP status)
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowgate_api_requests_total",
			Help: "Total number of upstream API requests",
		},
		[]string{"connector", "stream", "code"},
	)

	// PageFetchLatency tracks the distribution of page fetch durations.
	// Labels: connector, stream
	PageFetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowgate_page_fetch_seconds",
			Help:    "Page fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"connector", "stream"},
	)

	// PagesFetched counts pages fetched per stream.
	// Labels: connector, stream
	PagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowgate_pages_fetched_total",
			Help: "Total number of pages fetched",
		},
		[]string{"connector", "stream"},
	)

	// SyncsCompleted counts full sync runs.
	// Labels: connector, status
	SyncsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowgate_syncs_completed_total",
			Help: "Total number of completed sync runs",
		},
		[]string{"connector", "status"},
	)
)

// Collector provides a per-component handle on the shared metric vectors so
// components do not repeat their own label values everywhere.
type Collector struct {
	name      string
	startTime time.Time
}

// NewCollector creates a metrics collector for a component. The name is used
// as the connector label on every metric it records.
func NewCollector(name string) *Collector {
	return &Collector{
		name:      name,
		startTime: time.Now(),
	}
}

// StartTime returns when the collector was created.
func (c *Collector) StartTime() time.Time {
	return c.startTime
}

// RecordExtracted increments the extraction counter for a stream.
func (c *Collector) RecordExtracted(stream, status string) {
	RecordsExtracted.WithLabelValues(c.name, stream, status).Inc()
}

// RecordWritten increments the write counter.
func (c *Collector) RecordWritten(status string, count int) {
	RecordsWritten.WithLabelValues(c.name, status).Add(float64(count))
}

// RecordAPIRequest increments the API request counter.
func (c *Collector) RecordAPIRequest(stream, code string) {
	APIRequests.WithLabelValues(c.name, stream, code).Inc()
}

// RecordPageFetch records a page fetch with its duration.
func (c *Collector) RecordPageFetch(stream string, duration time.Duration) {
	PagesFetched.WithLabelValues(c.name, stream).Inc()
	PageFetchLatency.WithLabelValues(c.name, stream).Observe(duration.Seconds())
}

// RecordSync records the outcome of a sync run.
func (c *Collector) RecordSync(status string) {
	SyncsCompleted.WithLabelValues(c.name, status).Inc()
}

// GetAll returns a snapshot of collector-level values for Metrics() surfaces.
func (c *Collector) GetAll() map[string]interface{} {
	return map[string]interface{}{
		"component":  c.name,
		"start_time": c.startTime,
		"uptime":     time.Since(c.startTime).Seconds(),
	}
}

// Timer measures a single operation duration.
type Timer struct {
	start time.Time
}

// NewTimer starts a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed time since the timer started.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
