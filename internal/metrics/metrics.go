package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OTP
	OTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otp_requests_total",
		Help: "Total number of one-time code requests.",
	}, []string{"mode", "outcome"}) // mode: simulated|delegated|none, outcome: issued|fallback|rejected|failed
	OTPVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otp_verifications_total",
		Help: "Total number of one-time code verification attempts.",
	}, []string{"outcome"})
	OTPActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "otp_active_sessions",
		Help: "Number of pending verification sessions held in memory.",
	})
	OTPSessionsSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "otp_sessions_swept_total",
		Help: "Total number of expired sessions removed by the janitor.",
	})

	// Documents
	DocumentsAnalyzedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "documents_analyzed_total",
		Help: "Total number of uploaded documents processed.",
	}, []string{"outcome"})
	ChatQuestionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "document_chat_questions_total",
		Help: "Total number of chat questions answered.",
	}, []string{"outcome"})

	// LLM
	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_request_duration_seconds",
		Help:    "Duration of language-model calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})
)

// HTTP
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
	HTTPResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_response_size_bytes",
		Help:    "Size of HTTP responses in bytes.",
		Buckets: prometheus.ExponentialBuckets(64, 4, 8),
	}, []string{"method", "path", "status"})
)
