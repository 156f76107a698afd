package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP surface
// and the registration domain.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	registrations *prometheus.CounterVec
	drops         *prometheus.CounterVec
	promotions    prometheus.Counter
	swaps         prometheus.Counter
	notifications *prometheus.CounterVec
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	registrations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "course_registrations_total",
		Help: "Add requests by terminal outcome",
	}, []string{"outcome"})

	drops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "course_drops_total",
		Help: "Drop requests by prior status",
	}, []string{"status"})

	promotions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "waitlist_promotions_total",
		Help: "Students promoted from a waitlist into a seat",
	})

	swaps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "section_swaps_total",
		Help: "Completed peer section swaps",
	})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Notifications dispatched by channel",
	}, []string{"channel"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	registry.MustRegister(requestDuration, requestTotal, registrations, drops, promotions, swaps, notifications, cacheHits, cacheMisses)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		registrations:   registrations,
		drops:           drops,
		promotions:      promotions,
		swaps:           swaps,
		notifications:   notifications,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the registry for the /metrics endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// RecordRequest observes one completed HTTP request.
func (s *MetricsService) RecordRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// RecordRegistration counts one add request outcome ("enrolled", "waitlisted"
// or "rejected").
func (s *MetricsService) RecordRegistration(outcome string) {
	s.registrations.WithLabelValues(outcome).Inc()
}

// RecordDrop counts one drop by the status the student held before it.
func (s *MetricsService) RecordDrop(status string) {
	s.drops.WithLabelValues(status).Inc()
}

// RecordPromotion counts one waitlist promotion.
func (s *MetricsService) RecordPromotion() {
	s.promotions.Inc()
}

// RecordSwap counts one completed swap.
func (s *MetricsService) RecordSwap() {
	s.swaps.Inc()
}

// RecordNotification counts one dispatched notification per channel.
func (s *MetricsService) RecordNotification(channel string) {
	s.notifications.WithLabelValues(channel).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func (s *MetricsService) RecordCacheLookup(hit bool) {
	if hit {
		s.cacheHits.Inc()
		return
	}
	s.cacheMisses.Inc()
}
