package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	ListsCreated         prometheus.Counter
	TokenCollisions      prometheus.Counter
	Resolutions          *prometheus.CounterVec
	IdentitiesBound      prometheus.Counter
	RecoveryRequests     prometheus.Counter
	RecoveryFanout       prometheus.Histogram
	RecoveryRedemptions  *prometheus.CounterVec
	Notifications        *prometheus.CounterVec
	NotificationsDropped prometheus.Counter
	RateLimited          *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		ListsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "blindlist_lists_created_total",
			Help: "Total number of lists created",
		}),
		TokenCollisions: f.NewCounter(prometheus.CounterOpts{
			Name: "blindlist_token_collisions_total",
			Help: "Capability token collisions detected at creation",
		}),
		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "blindlist_capability_resolutions_total",
			Help: "Capability token resolutions by required kind and outcome",
		}, []string{"kind", "result"}),
		IdentitiesBound: f.NewCounter(prometheus.CounterOpts{
			Name: "blindlist_identities_bound_total",
			Help: "Email identities bound to lists",
		}),
		RecoveryRequests: f.NewCounter(prometheus.CounterOpts{
			Name: "blindlist_recovery_requests_total",
			Help: "Recovery requests accepted, matched or not",
		}),
		RecoveryFanout: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "blindlist_recovery_fanout_lists",
			Help:    "Lists updated per issued recovery token",
			Buckets: []float64{1, 2, 3, 5, 10, 25, 50},
		}),
		RecoveryRedemptions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "blindlist_recovery_redemptions_total",
			Help: "Recovery redemptions by outcome",
		}, []string{"result"}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "blindlist_notifications_total",
			Help: "Notification deliveries by template and outcome",
		}, []string{"template", "result"}),
		NotificationsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "blindlist_notifications_dropped_total",
			Help: "Notifications dropped because the queue was full or closed",
		}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "blindlist_rate_limited_total",
			Help: "Requests rejected by rate limiting, by scope",
		}, []string{"scope"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blindlist_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// NewNop returns metrics registered on a throwaway registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
