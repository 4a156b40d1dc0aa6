package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Completion endpoint metrics
	completionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_completion_requests_total",
		Help: "Total number of completion requests by final status",
	}, []string{"status"})

	completionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assistant_completion_request_duration_seconds",
		Help:    "Duration of completion requests including retries",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})

	completionRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_completion_retries_total",
		Help: "Total number of completion request retries",
	}, []string{"reason"})

	tokensUsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_tokens_used_total",
		Help: "Total number of tokens consumed",
	}, []string{"direction"})

	// Conversation metrics
	conversationMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_conversation_messages_total",
		Help: "Total number of messages appended to conversations",
	}, []string{"role"})

	conversationTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_conversation_turns_total",
		Help: "Total number of conversation turns by outcome",
	}, []string{"status"})

	// Context building metrics
	contextBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_context_builds_total",
		Help: "Total number of user context builds",
	})

	contextBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assistant_context_build_duration_seconds",
		Help:    "Duration of user context builds",
		Buckets: prometheus.DefBuckets,
	})

	// Storage metrics
	storageReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_storage_reads_total",
		Help: "Total number of data source reads",
	}, []string{"source", "status"})
)

// Metrics provides methods to record metrics
type Metrics struct{}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordCompletionRequest records a finished completion request
func (m *Metrics) RecordCompletionRequest(status string, duration time.Duration) {
	completionRequests.WithLabelValues(status).Inc()
	completionDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordCompletionRetry records a retried completion attempt
func (m *Metrics) RecordCompletionRetry(reason string) {
	completionRetries.WithLabelValues(reason).Inc()
}

// RecordTokens records token usage from a successful response
func (m *Metrics) RecordTokens(input, output int) {
	tokensUsed.WithLabelValues("input").Add(float64(input))
	tokensUsed.WithLabelValues("output").Add(float64(output))
}

// RecordConversationMessage records an appended message
func (m *Metrics) RecordConversationMessage(role string) {
	conversationMessages.WithLabelValues(role).Inc()
}

// RecordConversationTurn records a completed turn
func (m *Metrics) RecordConversationTurn(status string) {
	conversationTurns.WithLabelValues(status).Inc()
}

// RecordContextBuild records a context build
func (m *Metrics) RecordContextBuild(duration time.Duration) {
	contextBuilds.Inc()
	contextBuildDuration.Observe(duration.Seconds())
}

// RecordStorageRead records a data source read
func (m *Metrics) RecordStorageRead(source, status string) {
	storageReads.WithLabelValues(source, status).Inc()
}

// StartMetricsServer starts the metrics HTTP server
func StartMetricsServer(port int, path string) error {
	router := mux.NewRouter()
	router.Handle(path, promhttp.Handler())

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
