// Package metrics provides Prometheus metrics for the posture analysis pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the analyzer.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	// Capture metrics - frame scheduling and encoding
	framesCaptured    prometheus.Counter
	framesDropped     prometheus.Counter
	frameEncodeErrors prometheus.Counter
	frameSizeBytes    prometheus.Histogram

	// Stream metrics - live websocket path
	streamConnects        prometheus.Counter
	streamMessages        prometheus.Counter
	streamShapeErrors     prometheus.Counter
	streamTransportErrors prometheus.Counter
	overlayUpdates        *prometheus.CounterVec

	// Upload metrics - batch path
	uploadsStarted   prometheus.Counter
	uploadsCompleted prometheus.Counter
	uploadsFailed    prometheus.Counter
	uploadBytes      prometheus.Counter
	uploadDurationMS prometheus.Histogram

	// Assessment metrics - LLM validation pipeline
	assessmentRequests     prometheus.Counter
	assessmentParseErrors  prometheus.Counter
	assessmentSchemaErrors prometheus.Counter
	materialsDropped       prometheus.Counter
	assessmentLatencyMS    prometheus.Histogram

	// HTTP metrics - gateway surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Operational health
	liveSessions   prometheus.Gauge
	goroutineCount prometheus.Gauge
	memoryBytes    prometheus.Gauge
}

var defaultManager *Manager

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	defaultManager = NewManager()
}

// NewManager creates a metrics manager with configuration options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ppa",
		subsystem:        "",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		enabled:          true,
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.framesCaptured = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "frames_captured_total",
		Help: "Frames accepted by the capture scheduler and handed to the stream.",
	})
	m.framesDropped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "frames_dropped_total",
		Help: "Frames skipped by the drop-newest rate throttle.",
	})
	m.frameEncodeErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "frame_encode_errors_total",
		Help: "Frames that failed JPEG encoding.",
	})
	m.frameSizeBytes = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "frame_size_bytes",
		Help:    "Encoded frame payload sizes.",
		Buckets: prometheus.ExponentialBuckets(1024, 2, 12),
	})

	m.streamConnects = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "stream_connects_total",
		Help: "Streaming connections opened.",
	})
	m.streamMessages = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "stream_messages_total",
		Help: "Inbound analysis messages received on the stream.",
	})
	m.streamShapeErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "stream_shape_errors_total",
		Help: "Inbound messages discarded because their shape did not match the domain.",
	})
	m.streamTransportErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "stream_transport_errors_total",
		Help: "Transport-level streaming failures.",
	})
	m.overlayUpdates = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "overlay_updates_total",
		Help: "Overlay slot updates applied from inbound messages.",
	}, []string{"slot"})

	m.uploadsStarted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "uploads_started_total",
		Help: "Video uploads started.",
	})
	m.uploadsCompleted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "uploads_completed_total",
		Help: "Video uploads completed successfully.",
	})
	m.uploadsFailed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "uploads_failed_total",
		Help: "Video uploads that failed or were cancelled.",
	})
	m.uploadBytes = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "upload_bytes_total",
		Help: "Bytes transferred by video uploads.",
	})
	m.uploadDurationMS = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "upload_duration_milliseconds",
		Help:    "Video upload round-trip durations.",
		Buckets: m.histogramBuckets,
	})

	m.assessmentRequests = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "assessment_requests_total",
		Help: "Assessment generation requests sent.",
	})
	m.assessmentParseErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "assessment_parse_errors_total",
		Help: "Model responses with no recoverable JSON object.",
	})
	m.assessmentSchemaErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "assessment_schema_errors_total",
		Help: "Parsed model responses that violated the assessment schema.",
	})
	m.materialsDropped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "assessment_materials_dropped_total",
		Help: "Returned materials dropped because their title is not in the catalog.",
	})
	m.assessmentLatencyMS = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "assessment_latency_milliseconds",
		Help:    "Assessment request round-trip durations.",
		Buckets: m.histogramBuckets,
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "Gateway HTTP requests.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_milliseconds",
		Help:    "Gateway HTTP request durations.",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.liveSessions = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "live_sessions",
		Help: "Live streaming sessions currently active.",
	})
	m.goroutineCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "goroutines",
		Help: "Current goroutine count.",
	})
	m.memoryBytes = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "memory_bytes",
		Help: "Heap memory in use.",
	})
}

// Capture metrics helpers.

func RecordFrameCaptured(sizeBytes int) {
	if !defaultManager.enabled {
		return
	}
	defaultManager.framesCaptured.Inc()
	defaultManager.frameSizeBytes.Observe(float64(sizeBytes))
}

func RecordFrameDropped() {
	if defaultManager.enabled {
		defaultManager.framesDropped.Inc()
	}
}

func RecordFrameEncodeError() {
	if defaultManager.enabled {
		defaultManager.frameEncodeErrors.Inc()
	}
}

// Stream metrics helpers.

func RecordStreamConnect() {
	if defaultManager.enabled {
		defaultManager.streamConnects.Inc()
	}
}

func RecordStreamMessage() {
	if defaultManager.enabled {
		defaultManager.streamMessages.Inc()
	}
}

func RecordStreamShapeError() {
	if defaultManager.enabled {
		defaultManager.streamShapeErrors.Inc()
	}
}

func RecordStreamTransportError() {
	if defaultManager.enabled {
		defaultManager.streamTransportErrors.Inc()
	}
}

func RecordOverlayUpdate(slot string) {
	if defaultManager.enabled {
		defaultManager.overlayUpdates.WithLabelValues(slot).Inc()
	}
}

// Upload metrics helpers.

func RecordUploadStarted() {
	if defaultManager.enabled {
		defaultManager.uploadsStarted.Inc()
	}
}

func RecordUploadCompleted(durationMS float64) {
	if !defaultManager.enabled {
		return
	}
	defaultManager.uploadsCompleted.Inc()
	defaultManager.uploadDurationMS.Observe(durationMS)
}

func RecordUploadFailed() {
	if defaultManager.enabled {
		defaultManager.uploadsFailed.Inc()
	}
}

func RecordUploadBytes(n int64) {
	if defaultManager.enabled && n > 0 {
		defaultManager.uploadBytes.Add(float64(n))
	}
}

// Assessment metrics helpers.

func RecordAssessmentRequest(latencyMS float64) {
	if !defaultManager.enabled {
		return
	}
	defaultManager.assessmentRequests.Inc()
	defaultManager.assessmentLatencyMS.Observe(latencyMS)
}

func RecordAssessmentParseError() {
	if defaultManager.enabled {
		defaultManager.assessmentParseErrors.Inc()
	}
}

func RecordAssessmentSchemaError() {
	if defaultManager.enabled {
		defaultManager.assessmentSchemaErrors.Inc()
	}
}

func RecordMaterialDropped() {
	if defaultManager.enabled {
		defaultManager.materialsDropped.Inc()
	}
}

// HTTP metrics helpers.

func RecordHTTPRequest(endpoint, method, statusCode string) {
	if defaultManager.enabled {
		defaultManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMS float64) {
	if defaultManager.enabled {
		defaultManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMS)
	}
}

// Operational gauges.

func UpdateLiveSessions(n int) {
	if defaultManager.enabled {
		defaultManager.liveSessions.Set(float64(n))
	}
}

func UpdateSystemGoroutineCount(n int) {
	if defaultManager.enabled {
		defaultManager.goroutineCount.Set(float64(n))
	}
}

func UpdateSystemMemoryUsage(bytes uint64) {
	if defaultManager.enabled {
		defaultManager.memoryBytes.Set(float64(bytes))
	}
}

// GetRegistry exposes the registry backing the default manager for promhttp.
func GetRegistry() *prometheus.Registry {
	return defaultManager.registry
}
