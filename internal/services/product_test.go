package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"authgate/internal/store"
)

func newProductFixture(t *testing.T) (*ProductService, *store.MemoryStore) {
	t.Helper()
	cache := store.NewMemoryStore()
	svc := NewProductService(testDB(t), cache, 5*time.Minute)
	return svc, cache
}

func createTestProduct(t *testing.T, svc *ProductService, name, owner string) string {
	t.Helper()
	p, err := svc.Create(context.Background(), &CreateProductRequest{
		Name:     name,
		Price:    9.99,
		Quantity: 3,
	}, owner)
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p.ID
}

func TestProductList_Pagination(t *testing.T) {
	svc, _ := newProductFixture(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		createTestProduct(t, svc, "Widget", "u1")
	}

	result, err := svc.List(ctx, &ProductListRequest{Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(result.Products) != 5 {
		t.Errorf("page 2 len = %d, expected 5", len(result.Products))
	}
	if result.Pagination.Total != 15 || result.Pagination.Pages != 2 {
		t.Errorf("pagination = %+v", result.Pagination)
	}
}

func TestProductList_Search(t *testing.T) {
	svc, _ := newProductFixture(t)
	ctx := context.Background()

	createTestProduct(t, svc, "Mechanical Keyboard", "u1")
	createTestProduct(t, svc, "Mouse", "u1")

	result, err := svc.List(ctx, &ProductListRequest{Page: 1, Limit: 10, Search: "keyboard"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(result.Products) != 1 {
		t.Fatalf("len = %d, expected 1", len(result.Products))
	}
	if result.Products[0].Name != "Mechanical Keyboard" {
		t.Errorf("name = %q", result.Products[0].Name)
	}
}

func TestProductList_FirstPageCached(t *testing.T) {
	svc, cache := newProductFixture(t)
	ctx := context.Background()

	createTestProduct(t, svc, "Widget", "u1")

	if _, err := svc.List(ctx, &ProductListRequest{Page: 1, Limit: 10}); err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if _, err := cache.Get(ctx, "products:all"); err != nil {
		t.Errorf("first page should be cached: %v", err)
	}

	// A write invalidates the cached listing.
	createTestProduct(t, svc, "Gadget", "u1")
	if _, err := cache.Get(ctx, "products:all"); !errors.Is(err, store.ErrNotFound) {
		t.Error("cache should be invalidated after create")
	}
}

func TestProductUpdate_OwnershipEnforced(t *testing.T) {
	svc, _ := newProductFixture(t)
	ctx := context.Background()

	id := createTestProduct(t, svc, "Widget", "u1")

	newName := "Renamed"
	_, err := svc.Update(ctx, id, &UpdateProductRequest{Name: &newName}, "u2", "user")
	if status := appErrStatus(t, err); status != http.StatusForbidden {
		t.Errorf("foreign update status = %d, expected 403", status)
	}

	// Admins may edit anyone's product.
	updated, err := svc.Update(ctx, id, &UpdateProductRequest{Name: &newName}, "u2", "admin")
	if err != nil {
		t.Fatalf("admin update error = %v", err)
	}

	got, _ := svc.GetByID(ctx, updated.ID)
	if got.Name != "Renamed" {
		t.Errorf("name = %q, expected Renamed", got.Name)
	}
}

func TestProductDelete(t *testing.T) {
	svc, _ := newProductFixture(t)
	ctx := context.Background()

	id := createTestProduct(t, svc, "Widget", "u1")

	if err := svc.Delete(ctx, id, "u2", "user"); err == nil {
		t.Error("foreign delete should fail")
	}
	if err := svc.Delete(ctx, id, "u1", "user"); err != nil {
		t.Fatalf("owner delete error = %v", err)
	}

	_, err := svc.GetByID(ctx, id)
	if status := appErrStatus(t, err); status != http.StatusNotFound {
		t.Errorf("status after delete = %d, expected 404", status)
	}
}
