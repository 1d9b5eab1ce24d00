package itemd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func TestStoreFacade(t *testing.T) {
	s := NewStore()
	name := "facade"
	it := s.Create(Patch{Name: &name})
	if it.ID != 1 || it.Name != "facade" {
		t.Fatalf("created=%+v", it)
	}
	if _, err := s.Get(2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRouterFacade(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewStore()
	s.Create(Patch{})
	h := NewRouter(s, "/api").Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestConfigAndServerFacade(t *testing.T) {
	t.Setenv("PORT", "4321")
	c, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Server.Port != 4321 {
		t.Fatalf("port=%d", c.Server.Port)
	}
	srv, err := NewHTTPServer(c.Server, NewStore())
	if err != nil {
		t.Fatalf("NewHTTPServer: %v", err)
	}
	if !strings.HasSuffix(srv.Addr, ":4321") {
		t.Fatalf("addr=%q", srv.Addr)
	}
}

func TestHistoryFacade(t *testing.T) {
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "h.db")
	sinks, err := OpenHistorySinks([]string{dsn})
	if err != nil {
		t.Fatalf("OpenHistorySinks: %v", err)
	}
	s := NewStore()
	s.SetHistorySinks(sinks...)
	s.Create(Patch{})
	if err := sinks[0].Send(context.Background(), HistoryEvent{Type: "created"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := CloseHistorySinks(sinks); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestMetricsHelpers(t *testing.T) {
	if err := RegisterMetricsDefault(); err != nil {
		t.Fatalf("RegisterMetricsDefault: %v", err)
	}
	// later registrations are no-ops
	if err := RegisterMetrics(prometheus.NewRegistry()); err != nil {
		t.Fatalf("RegisterMetrics: %v", err)
	}
	NewStore().Create(Patch{})

	rr := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics handler status %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "itemd_store_operations_total") {
		t.Fatalf("metrics output missing itemd prefix: %s", rr.Body.String())
	}
}
