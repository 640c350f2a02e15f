// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability carries the Prometheus metrics and the HTTP
// instrumentation middleware for the storefront service.
package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	// httpRequests counts handled HTTP requests.
	// Labels: method, route (the registered route pattern, not the raw
	// path, to bound cardinality), status
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tidewater",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests handled",
	}, []string{"method", "route", "status"})

	// httpDuration measures request latency.
	// Labels: method, route
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tidewater",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "route"})

	// cartOperations counts cart mutations by operation and outcome.
	// Labels: operation (add, update, remove, clear, merge), status
	// (ok, rejected, error)
	cartOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tidewater",
		Subsystem: "cart",
		Name:      "operations_total",
		Help:      "Cart mutations by operation and outcome",
	}, []string{"operation", "status"})

	// webhookEvents counts received webhook events.
	// Labels: type (provider event type), status (applied, duplicate,
	// rejected, error)
	webhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tidewater",
		Subsystem: "webhook",
		Name:      "events_total",
		Help:      "Webhook events by type and processing outcome",
	}, []string{"type", "status"})

	// adminMutations counts back-office writes.
	// Labels: resource (product, customer, order, category), action
	adminMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tidewater",
		Subsystem: "admin",
		Name:      "mutations_total",
		Help:      "Admin mutations by resource and action",
	}, []string{"resource", "action"})

	// cacheRequests counts catalog cache lookups.
	// Labels: result (hit, miss)
	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tidewater",
		Subsystem: "cache",
		Name:      "requests_total",
		Help:      "Catalog cache lookups by result",
	}, []string{"result"})
)

// ObserveCartOperation records one cart mutation outcome.
func ObserveCartOperation(operation, status string) {
	cartOperations.WithLabelValues(operation, status).Inc()
}

// ObserveWebhookEvent records one webhook processing outcome.
func ObserveWebhookEvent(eventType, status string) {
	webhookEvents.WithLabelValues(eventType, status).Inc()
}

// ObserveAdminMutation records one back-office write.
func ObserveAdminMutation(resource, action string) {
	adminMutations.WithLabelValues(resource, action).Inc()
}

// ObserveCacheHit records a catalog cache hit or miss.
func ObserveCacheHit(hit bool) {
	if hit {
		cacheRequests.WithLabelValues("hit").Inc()
		return
	}
	cacheRequests.WithLabelValues("miss").Inc()
}

// =============================================================================
// HTTP Middleware
// =============================================================================

// Metrics returns a Gin middleware that records request counts and
// latency. It uses c.FullPath() so /v1/products/:slug stays one series
// regardless of the slug requested; unmatched routes report as
// "unmatched".
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		httpRequests.WithLabelValues(method, route, status).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
