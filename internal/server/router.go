package server

import (
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loykin/itemd/internal/config"
	"github.com/loykin/itemd/internal/health"
	"github.com/loykin/itemd/internal/item"
	itls "github.com/loykin/itemd/internal/tls"
)

// Router provides embeddable HTTP handlers for the item collection.
// Endpoints:
//
//	GET    /                       greeting text
//	GET    /health                 "OK"
//	GET    /metrics                uptime + memory snapshot (JSON)
//	GET    {basePath}/items        list
//	POST   {basePath}/items        create, body: {"name":..,"completed":..}
//	GET    {basePath}/items/:id    read
//	PUT    {basePath}/items/:id    partial update
//	DELETE {basePath}/items/:id    delete
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	store    *item.Store
	reporter *health.Reporter
	basePath string
	greeting string
}

// NewRouter constructs a Router over store. A nil reporter gets a fresh one.
func NewRouter(store *item.Store, reporter *health.Reporter, basePath string) *Router {
	if reporter == nil {
		reporter = health.NewReporter()
	}
	return &Router{
		store:    store,
		reporter: reporter,
		basePath: sanitizeBase(basePath),
		greeting: config.DefaultGreeting,
	}
}

// WithGreeting replaces the text served on GET /.
func (r *Router) WithGreeting(s string) *Router {
	if s != "" {
		r.greeting = s
	}
	return r
}

// Reset clears the underlying store. Not routed; used for test isolation.
func (r *Router) Reset() { r.store.Reset() }

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery(), requestLogger(), requestMetrics())

	g.GET("/", r.handleRoot)
	g.GET("/health", r.handleHealth)
	g.GET("/metrics", r.handleMetrics)

	group := g.Group(r.basePath)
	group.GET("/items", r.handleList)
	group.POST("/items", r.handleCreate)
	group.GET("/items/:id", r.handleGet)
	group.PUT("/items/:id", r.handleUpdate)
	group.DELETE("/items/:id", r.handleDelete)
	return g
}

// NewServer builds, but does not start, an HTTP server for cfg. TLSConfig is
// set when cfg.TLS is enabled; start it with Serve.
func NewServer(cfg config.ServerConfig, store *item.Store, reporter *health.Reporter) (*http.Server, error) {
	r := NewRouter(store, reporter, cfg.BasePath).WithGreeting(cfg.Greeting)
	tlsCfg, err := itls.SetupTLS(cfg)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r.Handler(),
		TLSConfig:         tlsCfg,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       durOr(cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      durOr(cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       durOr(cfg.IdleTimeout, 60*time.Second),
	}, nil
}

// Serve runs srv on ln, over TLS when srv carries a TLS config.
func Serve(srv *http.Server, ln net.Listener) error {
	if srv.TLSConfig != nil {
		return srv.ServeTLS(ln, "", "")
	}
	return srv.Serve(ln)
}

func durOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
