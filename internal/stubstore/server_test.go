package stubstore

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jchen-labs/shopfront/internal/cartview"
	"github.com/jchen-labs/shopfront/internal/checkout"
	"github.com/jchen-labs/shopfront/internal/snapshot"
	"github.com/jchen-labs/shopfront/pkg/config"
	pkgerrors "github.com/jchen-labs/shopfront/pkg/errors"
	"github.com/jchen-labs/shopfront/pkg/logger"
	"github.com/jchen-labs/shopfront/pkg/storeapi"
)

type harness struct {
	store  *Store
	client *storeapi.Client
	view   *cartview.View
	loader *snapshot.Loader
	asm    *checkout.Assembler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	store := NewStore()
	store.AddProduct(storeapi.Product{ID: 7, Name: "Oolong", Price: decimal.NewFromInt(300), Stock: 5})
	store.AddProduct(storeapi.Product{ID: 9, Name: "Sencha", Price: decimal.NewFromInt(500), Stock: 2})

	srv, err := NewServer(store, logg)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client, err := storeapi.NewClient(config.StoreConfig{
		BaseURL:      ts.URL,
		UserKeyParam: "account",
	}, logg)
	require.NoError(t, err)

	view := cartview.NewView(nil)
	loader, err := snapshot.NewLoader(client, view, logg)
	require.NoError(t, err)
	asm, err := checkout.NewAssembler(client, loader, nil, logg)
	require.NoError(t, err)

	return &harness{store: store, client: client, view: view, loader: loader, asm: asm}
}

func TestEndToEndCheckoutFlow(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.AddToCart(ctx, "alice", 7, 2)
	require.NoError(t, err)
	_, err = h.client.AddToCart(ctx, "alice", 9, 1)
	require.NoError(t, err)

	require.NoError(t, h.loader.Reload(ctx, "alice"))
	require.Equal(t, 2, h.view.Len())

	// Bump the first line within stock, select everything.
	items := h.view.Items()
	applied, err := h.view.SetQuantity(items[0].CartEntryID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, applied)
	h.view.SetAllSelected(true)

	pending, err := h.asm.Prepare(h.view)
	require.NoError(t, err)
	assert.Equal(t, int64(1400), pending.TotalAmount)

	require.NoError(t, h.asm.Confirm(ctx, "alice", h.view, pending))
	assert.Equal(t, checkout.StateSucceeded, h.asm.State())

	// The forced reload reflects the cleared cart.
	assert.Equal(t, 0, h.view.Len())
	orders := h.store.Orders("alice")
	require.Len(t, orders, 2)
	assert.Equal(t, 2, h.store.Products()[0].Stock)
}

func TestEndToEndRejectionTightensStockOnReload(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.AddToCart(ctx, "alice", 9, 2)
	require.NoError(t, err)
	require.NoError(t, h.loader.Reload(ctx, "alice"))

	items := h.view.Items()
	_, err = h.view.SetQuantity(items[0].CartEntryID, 2)
	require.NoError(t, err)
	h.view.SetAllSelected(true)

	pending, err := h.asm.Prepare(h.view)
	require.NoError(t, err)

	// Another buyer takes most of the stock between assembly and dispatch.
	require.NoError(t, h.store.AddToCart("bob", 9, 1))
	require.NoError(t, h.store.Checkout("bob", []storeapi.CheckoutPair{{9, 1}}))

	err = h.asm.Confirm(ctx, "alice", h.view, pending)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, "stock insufficient for productId 9, only 1 left", typed.Message())
	assert.Equal(t, checkout.StateRejected, h.asm.State())

	// The forced reload pulled the corrected bound and reclamped.
	items = h.view.Items()
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Stock)
	assert.Equal(t, 1, *items[0].Stock)
	assert.Equal(t, 1, items[0].Quantity)
	assert.False(t, items[0].Selected)
}

func TestEndToEndQuantityClampAgainstServerStock(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.AddToCart(ctx, "alice", 7, 1)
	require.NoError(t, err)
	require.NoError(t, h.loader.Reload(ctx, "alice"))

	items := h.view.Items()
	applied, err := h.view.SetQuantity(items[0].CartEntryID, 99)
	require.NoError(t, err)
	assert.Equal(t, 5, applied)

	notices := h.view.TakeNotices()
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0].Message, "only 5")
}

func TestEndToEndOrderHistoryRoundTrip(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.AddToCart(ctx, "alice", 7, 2)
	require.NoError(t, err)
	require.NoError(t, h.loader.Reload(ctx, "alice"))
	h.view.SetAllSelected(true)

	pending, err := h.asm.Prepare(h.view)
	require.NoError(t, err)
	require.NoError(t, h.asm.Confirm(ctx, "alice", h.view, pending))

	rows, err := h.client.FetchOrders(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(7), rows[0].ProductID)

	_, err = h.client.DeleteOrder(ctx, "alice", rows[0].OrderID)
	require.NoError(t, err)
	rows, err = h.client.FetchOrders(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMissingAccountIsUnauthorized(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/cart", nil)

	srv, err := NewServer(h.store, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, 401, rr.Code)
	assert.Contains(t, rr.Body.String(), "account is required")
}
