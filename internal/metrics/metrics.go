package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingest / archive-follower metrics.
	ChunksExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_chunks_extracted_total",
			Help: "Total number of audio chunks extracted by the archive follower",
		},
		[]string{"streamer"},
	)

	ChunkExtractDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_chunk_extract_duration_seconds",
			Help:    "Duration of a single chunk extraction",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"streamer"},
	)

	CursorSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ingest_cursor_seconds",
			Help: "Current archive-follower cursor position, in seconds into the VOD",
		},
		[]string{"streamer"},
	)

	IngestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_errors_total",
			Help: "Total number of ingest session errors by kind",
		},
		[]string{"streamer", "kind"}, // kind: transient, input, conflict, fatal_config
	)

	SessionsFinalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_sessions_finalized_total",
			Help: "Total number of ingest sessions that reached FINISHED",
		},
		[]string{"streamer"},
	)

	// Monitor supervisor metrics.
	MonitorState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "monitor_state",
			Help: "Current monitor supervisor state (0=idle, 1=polling, 2=ingesting, 3=error)",
		},
	)

	MonitorPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_polls_total",
			Help: "Total number of live-status polls performed by the monitor supervisor",
		},
		[]string{"result"}, // result: live, offline, error
	)

	// Search service metrics.
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Total number of clip search requests by outcome",
		},
		[]string{"outcome"}, // outcome: found, not_found, blocked, error
	)

	// Alignment engine metrics.
	AlignmentQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alignment_queries_total",
			Help: "Total number of alignment attempts run by the search service",
		},
	)

	AlignmentAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alignment_accepted_total",
			Help: "Total number of alignment attempts that cleared the vote thresholds",
		},
	)

	AlignmentVoteRatio = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "alignment_vote_ratio",
			Help:    "Winning bin's vote ratio for each alignment attempt",
			Buckets: []float64{0.02, 0.04, 0.08, 0.15, 0.25, 0.4, 0.6, 0.8, 1.0},
		},
	)

	// External dependency metrics (Twitch Helix, media extractor).
	ExternalCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "external_call_duration_seconds",
			Help:    "Duration of calls to external dependencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"dependency", "operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"dependency"},
	)

	// HTTP API metrics.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of HTTP API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of HTTP API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of HTTP API requests currently being handled",
		},
	)
)

// RecordChunkExtracted records a successful chunk extraction.
func RecordChunkExtracted(streamer string, duration time.Duration) {
	ChunksExtracted.WithLabelValues(streamer).Inc()
	ChunkExtractDuration.WithLabelValues(streamer).Observe(duration.Seconds())
}

// SetCursorSeconds updates the archive-follower cursor gauge.
func SetCursorSeconds(streamer string, seconds float64) {
	CursorSeconds.WithLabelValues(streamer).Set(seconds)
}

// RecordIngestError records an ingest session error, classified by kind.
func RecordIngestError(streamer, kind string) {
	IngestErrors.WithLabelValues(streamer, kind).Inc()
}

// RecordSessionFinalized records an ingest session reaching FINISHED.
func RecordSessionFinalized(streamer string) {
	SessionsFinalized.WithLabelValues(streamer).Inc()
}

// monitorStateValue maps monitor FSM state names to the gauge's numeric encoding.
var monitorStateValue = map[string]float64{
	"idle":      0,
	"polling":   1,
	"ingesting": 2,
	"error":     3,
}

// SetMonitorState updates the monitor supervisor state gauge.
func SetMonitorState(state string) {
	if v, ok := monitorStateValue[state]; ok {
		MonitorState.Set(v)
	}
}

// RecordMonitorPoll records the outcome of a live-status poll.
func RecordMonitorPoll(result string) {
	MonitorPolls.WithLabelValues(result).Inc()
}

// RecordAlignment records the outcome of one alignment attempt.
func RecordAlignment(accepted bool, voteRatio float64) {
	AlignmentQueries.Inc()
	if accepted {
		AlignmentAccepted.Inc()
	}
	AlignmentVoteRatio.Observe(voteRatio)
}

// RecordExternalCall records the latency of a call to an external dependency.
func RecordExternalCall(dependency, operation string, duration time.Duration) {
	ExternalCallDuration.WithLabelValues(dependency, operation).Observe(duration.Seconds())
}

// circuitBreakerStateValue maps gobreaker state names to the gauge's numeric encoding.
var circuitBreakerStateValue = map[string]float64{
	"closed":    0,
	"half-open": 1,
	"open":      2,
}

// SetCircuitBreakerState updates a dependency's circuit breaker state gauge.
func SetCircuitBreakerState(dependency, state string) {
	if v, ok := circuitBreakerStateValue[state]; ok {
		CircuitBreakerState.WithLabelValues(dependency).Set(v)
	}
}

// RecordAPIRequest records one completed HTTP API request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordSearchRequest records the outcome of one clip search request.
func RecordSearchRequest(outcome string) {
	SearchRequests.WithLabelValues(outcome).Inc()
}

// TrackActiveRequest increments or decrements the in-flight API request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
