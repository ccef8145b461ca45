package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fireclub/vsearch/internal/catalog"
	"github.com/fireclub/vsearch/internal/domain/product"
	"github.com/fireclub/vsearch/internal/embedding"
	"github.com/fireclub/vsearch/internal/httpapi/middleware"
	"github.com/fireclub/vsearch/internal/indexcore"
	searchsvc "github.com/fireclub/vsearch/internal/search"
	"github.com/fireclub/vsearch/internal/snapshot"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()

	cat := catalog.NewMemory()
	p := &product.Product{ID: 1, Name: "Widget", Description: "a fine widget", Active: true}
	cat.Put(p)

	core := indexcore.New(cat, embedding.NewDeterministic())
	if err := core.Add(context.Background(), 1); err != nil {
		t.Fatalf("seed Add: %v", err)
	}
	store := snapshot.NewStore(dir)
	if err := store.Save(core.State("2026-01-01T00:00:00Z")); err != nil {
		t.Fatalf("seed Save: %v", err)
	}

	svc := searchsvc.New(store, embedding.NewDeterministic(), zap.NewNop())
	r := middleware.NewRouter(zap.NewNop(), 64)
	New(svc, zap.NewNop()).Register(r)

	return httptest.NewServer(r)
}

func TestSearchRequiresQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/search")
	if err != nil {
		t.Fatalf("GET /search: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSearchReturnsResults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/search?query=Widget+a+fine+widget")
	if err != nil {
		t.Fatalf("GET /search: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Query      string `json:"query"`
		Resultados []struct {
			ID        int64   `json:"id"`
			Similitud float64 `json:"similitud"`
		} `json:"resultados"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Resultados) == 0 {
		t.Fatal("expected at least one result")
	}
}

func TestProductNotFoundReturns404(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/product/404")
	if err != nil {
		t.Fatalf("GET /product/404: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestProductInvalidIDReturns400(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/product/not-a-number")
	if err != nil {
		t.Fatalf("GET /product/not-a-number: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestStatsReportsLoadedIndex(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stats")
	if err != nil {
		t.Fatalf("GET /stats: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		TotalProductos int  `json:"total_productos"`
		IndexLoaded    bool `json:"index_loaded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TotalProductos != 1 || !body.IndexLoaded {
		t.Fatalf("unexpected stats body: %+v", body)
	}
}

func TestReloadIndexReturnsImmediately(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/reload_index", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /reload_index: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHealthReportsHealthy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "healthy" {
		t.Fatalf("status = %q, want healthy", body.Status)
	}
}

func TestHealthReportsHealthyWithNoSnapshotYet(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := searchsvc.New(snapshot.NewStore(t.TempDir()), embedding.NewDeterministic(), zap.NewNop())
	r := middleware.NewRouter(zap.NewNop(), 64)
	New(svc, zap.NewNop()).Register(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "healthy" {
		t.Fatalf("status = %q, want healthy (an empty, not-yet-loaded index is a normal boot state, not a liveness failure)", body.Status)
	}
}
