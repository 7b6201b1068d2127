package snapshot

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/jchen-labs/shopfront/internal/cartview"
	pkgerrors "github.com/jchen-labs/shopfront/pkg/errors"
	"github.com/jchen-labs/shopfront/pkg/logger"
	"github.com/jchen-labs/shopfront/pkg/storeapi"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func intPtr(v int) *int { return &v }

type stubClient struct {
	mu       sync.Mutex
	rows     []storeapi.CartRow
	products []storeapi.Product
	cartErr  error
	prodErr  error
}

func (s *stubClient) FetchCart(ctx context.Context, userKey string) ([]storeapi.CartRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cartErr != nil {
		return nil, s.cartErr
	}
	return s.rows, nil
}

func (s *stubClient) FetchProducts(ctx context.Context) ([]storeapi.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prodErr != nil {
		return nil, s.prodErr
	}
	return s.products, nil
}

func TestReloadMergesCatalogStock(t *testing.T) {
	t.Parallel()

	client := &stubClient{
		rows: []storeapi.CartRow{
			{CartEntryID: 1, ProductID: 7, Quantity: 3, Name: "Oolong", UnitPrice: decimal.NewFromInt(300), Stock: intPtr(9)},
			{CartEntryID: 2, ProductID: 9, Quantity: 1, Name: "Sencha", UnitPrice: decimal.NewFromInt(500)},
		},
		products: []storeapi.Product{
			{ID: 7, Stock: 4, Level: "premium"},
			{ID: 9, Stock: 2, Level: "standard"},
		},
	}
	view := cartview.NewView(nil)
	loader, err := NewLoader(client, view, testLogger())
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	if err := loader.Reload(context.Background(), "alice"); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	items := view.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	// Catalog stock (4) wins over the embedded 9, and the server quantity 3
	// stays within it.
	if items[0].Stock == nil || *items[0].Stock != 4 {
		t.Fatalf("expected catalog stock 4, got %+v", items[0].Stock)
	}
	if items[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", items[0].Quantity)
	}
	if items[1].Level != "standard" {
		t.Fatalf("expected level filled from catalog, got %q", items[1].Level)
	}
}

func TestReloadFailsViewOnTransportError(t *testing.T) {
	t.Parallel()

	client := &stubClient{cartErr: pkgerrors.New(pkgerrors.CodeDependency, "cannot reach server")}
	view := cartview.NewView(nil)
	loader, err := NewLoader(client, view, testLogger())
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	if err := loader.Reload(context.Background(), "alice"); err == nil {
		t.Fatal("expected reload error")
	}
	if view.Err() == nil {
		t.Fatal("view must carry an explicit error state")
	}
	if view.Loaded() {
		t.Fatal("failed load must not present as a legitimate empty cart")
	}
}

func TestReloadToleratesCatalogFailureWithEmbeddedStock(t *testing.T) {
	t.Parallel()

	client := &stubClient{
		rows: []storeapi.CartRow{
			{CartEntryID: 1, ProductID: 7, Quantity: 2, UnitPrice: decimal.NewFromInt(300), Stock: intPtr(5)},
		},
		prodErr: pkgerrors.New(pkgerrors.CodeDependency, "catalog down"),
	}
	view := cartview.NewView(nil)
	loader, err := NewLoader(client, view, testLogger())
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	if err := loader.Reload(context.Background(), "alice"); err != nil {
		t.Fatalf("Reload should tolerate catalog failure: %v", err)
	}
	items := view.Items()
	if len(items) != 1 || items[0].Stock == nil || *items[0].Stock != 5 {
		t.Fatalf("expected embedded stock to survive, got %+v", items)
	}
}

func TestReloadRequiresCatalogWhenStockMissing(t *testing.T) {
	t.Parallel()

	client := &stubClient{
		rows: []storeapi.CartRow{
			{CartEntryID: 1, ProductID: 7, Quantity: 2, UnitPrice: decimal.NewFromInt(300)},
		},
		prodErr: pkgerrors.New(pkgerrors.CodeDependency, "catalog down"),
	}
	view := cartview.NewView(nil)
	loader, err := NewLoader(client, view, testLogger())
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	if err := loader.Reload(context.Background(), "alice"); err == nil {
		t.Fatal("expected reload failure when stock is unavailable")
	}
	if view.Err() == nil {
		t.Fatal("view must carry the error state")
	}
}

func TestSupersededReloadIsDiscarded(t *testing.T) {
	t.Parallel()

	// Two loads race; the earlier one resolves last and must be dropped.
	view := cartview.NewView(nil)
	client := &stubClient{
		rows: []storeapi.CartRow{
			{CartEntryID: 2, ProductID: 9, Quantity: 2, UnitPrice: decimal.NewFromInt(500), Stock: intPtr(5)},
		},
	}
	loader, err := NewLoader(client, view, testLogger())
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	staleToken := view.BeginLoad()
	if err := loader.Reload(context.Background(), "alice"); err != nil {
		t.Fatalf("latest reload: %v", err)
	}
	err = view.ApplySnapshot(staleToken, cartview.Snapshot{Items: []cartview.SnapshotItem{
		{CartEntryID: 1, ProductID: 7, UnitPrice: decimal.NewFromInt(300), Quantity: 1},
	}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStale {
		t.Fatalf("expected stale discard, got %v", err)
	}

	items := view.Items()
	if len(items) != 1 || items[0].ProductID != 9 {
		t.Fatalf("only the latest snapshot may be applied, got %+v", items)
	}
}
