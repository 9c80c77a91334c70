// Package metrics owns the Prometheus registry of the support server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "citycard"

// Metrics wraps the Prometheus collectors of the server.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ChatReplies         *prometheus.CounterVec
	TicketOperations    *prometheus.CounterVec
	RateLimited         *prometheus.CounterVec
}

// New creates Metrics with its own registry, including the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ChatReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_replies_total",
			Help:      "Chat replies by source and ticket suggestion",
		}, []string{"source", "needs_ticket"}),
		TicketOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_operations_total",
			Help:      "Ticket operations by outcome",
		}, []string{"operation", "status"}),
		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by a rate limiter",
		}, []string{"limiter"}),
	}
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ChatReplies,
		m.TicketOperations,
		m.RateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveChatReply counts a composed chat reply.
func (m *Metrics) ObserveChatReply(source string, needsTicket bool) {
	m.ChatReplies.WithLabelValues(source, strconv.FormatBool(needsTicket)).Inc()
}

// ObserveTicketOperation counts a ticket operation with its outcome (ok or error).
func (m *Metrics) ObserveTicketOperation(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.TicketOperations.WithLabelValues(operation, status).Inc()
}

// ObserveRateLimited counts a request rejected by limiter.
func (m *Metrics) ObserveRateLimited(limiter string) {
	m.RateLimited.WithLabelValues(limiter).Inc()
}
