// Package itemd is the public facade for embedding the item server in another
// program. The types are aliases of the internal ones, so conversions are free.
package itemd

import (
	"net/http"

	cfg "github.com/loykin/itemd/internal/config"
	"github.com/loykin/itemd/internal/health"
	"github.com/loykin/itemd/internal/history"
	"github.com/loykin/itemd/internal/history/factory"
	"github.com/loykin/itemd/internal/item"
	"github.com/loykin/itemd/internal/metrics"
	iapi "github.com/loykin/itemd/internal/server"
	"github.com/prometheus/client_golang/prometheus"
)

type Item = item.Item

type Patch = item.Patch

type Store = item.Store

type Router = iapi.Router

type Config = cfg.Config

type HistorySink = history.Sink

type HistoryEvent = history.Event

// ErrNotFound is returned by Store lookups for unknown ids.
var ErrNotFound = item.ErrNotFound

func NewStore() *Store { return item.NewStore() }

// NewRouter returns the gin-backed router over s, mounted at basePath.
func NewRouter(s *Store, basePath string) *Router {
	return iapi.NewRouter(s, health.NewReporter(), basePath)
}

func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

// NewHTTPServer builds an unstarted server from the [server] section; TLS is
// applied when enabled there.
func NewHTTPServer(c cfg.ServerConfig, s *Store) (*http.Server, error) {
	return iapi.NewServer(c, s, health.NewReporter())
}

// OpenHistorySinks opens one sink per DSN (sqlite, postgres, clickhouse, opensearch).
func OpenHistorySinks(dsns []string) ([]HistorySink, error) { return factory.NewSinks(dsns) }

func CloseHistorySinks(sinks []HistorySink) error { return history.CloseAll(sinks) }

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

func MetricsHandler() http.Handler { return metrics.Handler() }

// ServeMetrics blocks serving /metrics on addr from the default registry.
func ServeMetrics(addr string) error { return metrics.Serve(addr) }
