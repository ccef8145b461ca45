package catalog

import (
	"context"
	"testing"

	"github.com/fireclub/vsearch/internal/domain/product"
)

func TestMemoryGetReturnsStoredProduct(t *testing.T) {
	m := NewMemory()
	m.Put(&product.Product{ID: 1, Active: true, Name: "widget"})

	p, err := m.Get(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if p == nil || p.Name != "widget" {
		t.Fatalf("Get(1) = %+v, want widget", p)
	}
}

func TestMemoryGetReturnsNilForAbsentID(t *testing.T) {
	m := NewMemory()
	p, err := m.Get(context.Background(), 1)
	if err != nil || p != nil {
		t.Fatalf("Get() on absent id = (%+v, %v), want (nil, nil)", p, err)
	}
}

func TestMemoryGetReturnsNilForInactiveProduct(t *testing.T) {
	m := NewMemory()
	m.Put(&product.Product{ID: 1, Active: false, Name: "widget"})

	p, err := m.Get(context.Background(), 1)
	if err != nil || p != nil {
		t.Fatalf("Get() on inactive product = (%+v, %v), want (nil, nil)", p, err)
	}
}

func TestMemoryGetReturnsACopyNotTheStoredPointer(t *testing.T) {
	m := NewMemory()
	m.Put(&product.Product{ID: 1, Active: true, Name: "widget"})

	p, _ := m.Get(context.Background(), 1)
	p.Name = "mutated"

	p2, _ := m.Get(context.Background(), 1)
	if p2.Name != "widget" {
		t.Fatalf("mutating a Get() result affected the stored record: %q", p2.Name)
	}
}

func TestMemoryRemoveDeletesTheRecord(t *testing.T) {
	m := NewMemory()
	m.Put(&product.Product{ID: 1, Active: true, Name: "widget"})
	m.Remove(1)

	p, _ := m.Get(context.Background(), 1)
	if p != nil {
		t.Fatalf("Get() after Remove() = %+v, want nil", p)
	}
}
