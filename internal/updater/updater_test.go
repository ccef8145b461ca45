package updater

import (
	"context"
	"os"
	"testing"

	"github.com/fireclub/vsearch/internal/apperr"
	"github.com/fireclub/vsearch/internal/catalog"
	"github.com/fireclub/vsearch/internal/domain/product"
	"github.com/fireclub/vsearch/internal/embedding"
	"github.com/fireclub/vsearch/internal/indexcore"
	"github.com/fireclub/vsearch/internal/snapshot"
	"go.uber.org/zap"
)

type fakeNotifier struct {
	calls int
	err   error
}

func (f *fakeNotifier) Notify(_ context.Context, _ string, _ int64, _ string) error {
	f.calls++
	return f.err
}

func newTestService(t *testing.T) (*Service, *catalog.Memory, *fakeNotifier, string) {
	t.Helper()
	dir := t.TempDir()

	cat := catalog.NewMemory()
	emb := embedding.NewDeterministic()
	core := indexcore.New(cat, emb)
	store := snapshot.NewStore(dir)
	notifier := &fakeNotifier{}

	svc, err := New(core, store, notifier, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc, cat, notifier, dir
}

func TestAddThenStatsReflectsOneProduct(t *testing.T) {
	svc, cat, notifier, _ := newTestService(t)
	cat.Put(&product.Product{ID: 1, Name: "Widget", Active: true})

	if err := svc.Add(context.Background(), 1); err != nil {
		t.Fatalf("Add: %v", err)
	}

	stats := svc.Stats()
	if stats.TotalProducts != 1 {
		t.Fatalf("TotalProducts = %d, want 1", stats.TotalProducts)
	}
	if stats.FaissTotal != 1 {
		t.Fatalf("FaissTotal = %d, want 1", stats.FaissTotal)
	}
	if notifier.calls != 1 {
		t.Fatalf("notifier.calls = %d, want 1", notifier.calls)
	}
}

func TestAddUnknownProductReturnsNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	err := svc.Add(context.Background(), 999)
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("Add() on unknown product err = %v, want NotFound", err)
	}
}

func TestModifyRebuildsCorpus(t *testing.T) {
	svc, cat, _, _ := newTestService(t)
	cat.Put(&product.Product{ID: 1, Name: "Widget", Active: true})
	cat.Put(&product.Product{ID: 2, Name: "Gadget", Active: true})

	if err := svc.Add(context.Background(), 1); err != nil {
		t.Fatalf("Add(1): %v", err)
	}
	if err := svc.Add(context.Background(), 2); err != nil {
		t.Fatalf("Add(2): %v", err)
	}

	cat.Put(&product.Product{ID: 1, Name: "Widget Pro", Active: true})
	if err := svc.Modify(context.Background(), 1); err != nil {
		t.Fatalf("Modify: %v", err)
	}

	if stats := svc.Stats(); stats.TotalProducts != 2 {
		t.Fatalf("TotalProducts = %d, want 2", stats.TotalProducts)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	if err := svc.Delete(context.Background(), 42); err != nil {
		t.Fatalf("Delete on absent id should be a no-op, got: %v", err)
	}
}

func TestAddPersistsSnapshotAcrossRestart(t *testing.T) {
	svc, cat, _, dir := newTestService(t)
	cat.Put(&product.Product{ID: 7, Name: "Thing", Active: true})

	if err := svc.Add(context.Background(), 7); err != nil {
		t.Fatalf("Add: %v", err)
	}

	store2 := snapshot.NewStore(dir)
	core2 := indexcore.New(cat, embedding.NewDeterministic())
	svc2, err := New(core2, store2, &fakeNotifier{}, zap.NewNop())
	if err != nil {
		t.Fatalf("New (restart): %v", err)
	}

	if stats := svc2.Stats(); stats.TotalProducts != 1 {
		t.Fatalf("restarted service TotalProducts = %d, want 1", stats.TotalProducts)
	}
}

func TestMutateRollsBackOnSaveFailure(t *testing.T) {
	dir := t.TempDir()
	cat := catalog.NewMemory()
	cat.Put(&product.Product{ID: 1, Name: "Widget", Active: true})

	core := indexcore.New(cat, embedding.NewDeterministic())
	store := snapshot.NewStore(dir)
	notifier := &fakeNotifier{}
	svc, err := New(core, store, notifier, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := svc.Add(context.Background(), 1); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Make the snapshot directory unwritable so the second Add's Save fails,
	// forcing the rollback path rather than os.Exit (no _old pair yet, and
	// prior to this call the current pair is loadable, so rollback succeeds).
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	cat.Put(&product.Product{ID: 2, Name: "Gadget", Active: true})

	err = svc.Add(context.Background(), 2)
	_ = os.Chmod(dir, 0o700)
	if err == nil {
		t.Fatal("expected Save failure to surface as an error")
	}

	stats := svc.Stats()
	if stats.TotalProducts != 1 {
		t.Fatalf("after rollback TotalProducts = %d, want 1 (pre-failure state)", stats.TotalProducts)
	}
}

func TestHTTPNotifierReturnsErrorForUnreachableAddress(t *testing.T) {
	// Exercises only construction and the transport-error path; a live HTTP
	// round trip belongs in the httpapi integration tests.
	n := NewHTTPNotifier("http://127.0.0.1:0")
	err := n.Notify(context.Background(), "add", 1, "2026-01-01T00:00:00Z")
	if err == nil {
		t.Fatal("expected connection error against an unreachable address")
	}
}
