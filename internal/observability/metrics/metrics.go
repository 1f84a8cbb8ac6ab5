package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "bptracker_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	reportRenderTotal   *prometheus.CounterVec
	reportRenderLatency *prometheus.HistogramVec

	exportDeliveryTotal   *prometheus.CounterVec
	exportDeliveryLatency *prometheus.HistogramVec

	readingMutationsTotal *prometheus.CounterVec
)

// Init registers metrics and DB-backed gauges. db may be nil for the in-memory store.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		reportRenderTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_render_total",
				Help: "Total report artifact renders by artifact and result",
			},
			[]string{"artifact", "result"},
		)
		reportRenderLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_render_latency_seconds",
				Help:    "Report artifact render latency in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"artifact", "result"},
		)

		exportDeliveryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_delivery_total",
				Help: "Total export deliveries by format, mode and result",
			},
			[]string{"format", "mode", "result"},
		)
		exportDeliveryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_delivery_latency_seconds",
				Help:    "Export delivery latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "mode", "result"},
		)

		readingMutationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "readings_mutations_total",
				Help: "Total reading inserts and deletes by result",
			},
			[]string{"op", "result"},
		)

		prometheus.MustRegister(
			reportRenderTotal,
			reportRenderLatency,
			exportDeliveryTotal,
			exportDeliveryLatency,
			readingMutationsTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveRender records a pipeline stage duration and result.
func ObserveRender(artifact, result string, duration time.Duration) {
	if artifact == "" {
		artifact = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportRenderTotal != nil {
		reportRenderTotal.WithLabelValues(artifact, result).Inc()
	}
	if reportRenderLatency != nil {
		reportRenderLatency.WithLabelValues(artifact, result).Observe(duration.Seconds())
	}
}

// ObserveDelivery records an export delivery.
func ObserveDelivery(format, mode, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if mode == "" {
		mode = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportDeliveryTotal != nil {
		exportDeliveryTotal.WithLabelValues(format, mode, result).Inc()
	}
	if exportDeliveryLatency != nil {
		exportDeliveryLatency.WithLabelValues(format, mode, result).Observe(duration.Seconds())
	}
}

// IncReadingMutation increments the insert/delete counter.
func IncReadingMutation(op, result string) {
	if op == "" {
		op = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if readingMutationsTotal != nil {
		readingMutationsTotal.WithLabelValues(op, result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
