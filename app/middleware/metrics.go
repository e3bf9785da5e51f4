// Package middleware provides HTTP middleware for the campaign console API
package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Total HTTP requests partitioned by method, route, and status code
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// Request duration in seconds partitioned by method, route, and status code
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// In-flight HTTP requests
	httpInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	campaignSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_sends_total",
			Help: "Total number of campaign send operations",
		},
		[]string{"result"},
	)

	campaignSendRecipients = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_send_recipients_total",
			Help: "Total number of recipients across completed campaign sends",
		},
	)
)

// Metrics returns a Fiber v3 middleware that records basic Prometheus
// metrics. Labels use the matched route template to keep cardinality low.
func Metrics() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		err := c.Next()

		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}

		labels := prometheus.Labels{
			"method": c.Method(),
			"route":  route,
			"status": strconv.Itoa(c.Response().StatusCode()),
		}
		httpRequestsTotal.With(labels).Inc()
		httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())

		return err
	}
}

// RecordCampaignSend counts a send attempt and, when it succeeded, its
// recipient volume
func RecordCampaignSend(success bool, recipients int) {
	result := "success"
	if !success {
		result = "failure"
	}
	campaignSendsTotal.WithLabelValues(result).Inc()
	if success {
		campaignSendRecipients.Add(float64(recipients))
	}
}
