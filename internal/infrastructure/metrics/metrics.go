// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	global *Metrics
	once   sync.Once
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	AIRequestsTotal     *prometheus.CounterVec
	CacheHitsTotal      *prometheus.CounterVec
	CacheMissesTotal    *prometheus.CounterVec
	EventsPublished     *prometheus.CounterVec
}

// Default returns the process-wide collectors, registering them on first use.
//
// Metrics:
//   - plant_service_http_requests_total{method,route,status}
//   - plant_service_http_request_duration_seconds{method,route}
//   - plant_service_ai_requests_total{provider,outcome}
//   - plant_service_cache_hits_total{cache}
//   - plant_service_cache_misses_total{cache}
//   - plant_service_events_published_total{subject,outcome}
func Default() *Metrics {
	once.Do(func() {
		global = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "plant_service_http_requests_total",
					Help: "Total number of HTTP requests handled",
				},
				[]string{"method", "route", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "plant_service_http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),
			AIRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "plant_service_ai_requests_total",
					Help: "Total number of AI provider calls",
				},
				[]string{"provider", "outcome"}, // "ok" or "error"
			),
			CacheHitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "plant_service_cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache"},
			),
			CacheMissesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "plant_service_cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache"},
			),
			EventsPublished: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "plant_service_events_published_total",
					Help: "Total number of domain events published",
				},
				[]string{"subject", "outcome"},
			),
		}
	})
	return global
}

// CacheHit and CacheMiss are safe on a nil receiver.
func (m *Metrics) CacheHit(cache string) {
	if m != nil {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	}
}

func (m *Metrics) CacheMiss(cache string) {
	if m != nil {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}
