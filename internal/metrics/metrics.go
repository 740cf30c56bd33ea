package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Domain metrics
	VotesTotal          prometheus.CounterVec
	DuplicateVotesTotal prometheus.Counter
	BadgesGrantedTotal  prometheus.CounterVec
	LeaderboardDuration prometheus.Histogram

	// Rate limiting metrics
	RateLimitExceededTotal prometheus.CounterVec

	// Error metrics
	ErrorsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			VotesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "memehub_votes_total",
					Help: "Total votes applied, by direction",
				},
				[]string{"direction"},
			),
			DuplicateVotesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "memehub_duplicate_votes_total",
					Help: "Votes rejected because the user already voted in that direction",
				},
			),
			BadgesGrantedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "memehub_badges_granted_total",
					Help: "Badges granted, by badge tag",
				},
				[]string{"badge"},
			),
			LeaderboardDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "memehub_leaderboard_duration_seconds",
					Help:    "Time to compute a leaderboard snapshot",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
				},
			),
			RateLimitExceededTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Requests rejected by rate limiting",
				},
				[]string{"endpoint"},
			),
			ErrorsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total errors by type",
				},
				[]string{"type"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it if needed
func Get() *Metrics {
	return Initialize()
}
