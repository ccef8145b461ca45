package updater

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
	"github.com/fireclub/vsearch/internal/snapshot"
	"github.com/fireclub/vsearch/internal/updater"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, int64, string) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *catalog.Memory) {
	t.Helper()
	dir := t.TempDir()

	cat := catalog.NewMemory()
	core := indexcore.New(cat, embedding.NewDeterministic())
	store := snapshot.NewStore(dir)

	svc, err := updater.New(core, store, nopNotifier{}, zap.NewNop())
	if err != nil {
		t.Fatalf("updater.New: %v", err)
	}

	r := middleware.NewRouter(zap.NewNop(), 64)
	New(svc, zap.NewNop()).Register(r)

	return httptest.NewServer(r), cat
}

func TestAddUnknownProductReturns404(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv, _ := newTestServer(t)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/update/add/999", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /update/add/999: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestAddKnownProductReturns200(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv, cat := newTestServer(t)
	defer srv.Close()
	cat.Put(&product.Product{ID: 1, Name: "Widget", Active: true})

	resp, err := http.Post(srv.URL+"/update/add/1", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /update/add/1: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Mensaje string `json:"mensaje"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Mensaje == "" {
		t.Fatal("expected non-empty mensaje")
	}
}

func TestInvalidIDReturns400(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv, _ := newTestServer(t)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/update/add/not-a-number", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /update/add/not-a-number: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDeleteAbsentProductReturns200(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv, _ := newTestServer(t)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/update/delete/42", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /update/delete/42: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (delete is idempotent)", resp.StatusCode)
	}
}

func TestStatsReturnsZeroForEmptyIndex(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv, _ := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stats")
	if err != nil {
		t.Fatalf("GET /stats: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		TotalProductos int `json:"total_productos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TotalProductos != 0 {
		t.Fatalf("total_productos = %d, want 0", body.TotalProductos)
	}
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv, _ := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
