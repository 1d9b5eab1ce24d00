package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Store operation results used as the "result" label.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	storeOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "itemd",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Number of item store operations by kind and result.",
		}, []string{"op", "result"},
	)
	storeItems = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "itemd",
			Subsystem: "store",
			Name:      "items",
			Help:      "Current number of items held in memory.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "itemd",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "itemd",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{storeOps, storeItems, httpRequests, httpDuration}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// NewServer returns an unstarted server exposing Handler on addr at /metrics.
// The caller owns its lifecycle (Serve/Shutdown).
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Serve exposes Handler on addr at /metrics. It blocks like http.ListenAndServe.
func Serve(addr string) error {
	return NewServer(addr).ListenAndServe()
}

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncStoreOp(op, result string) {
	if regOK.Load() {
		storeOps.WithLabelValues(op, result).Inc()
	}
}

func SetItems(n int) {
	if regOK.Load() {
		storeItems.Set(float64(n))
	}
}

func ObserveRequest(method, route string, code int, d time.Duration) {
	if regOK.Load() {
		httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
	}
}
