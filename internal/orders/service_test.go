package orders

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/jchen-labs/shopfront/pkg/errors"
	"github.com/jchen-labs/shopfront/pkg/logger"
	"github.com/jchen-labs/shopfront/pkg/storeapi"
)

type stubHistoryClient struct {
	rows      []storeapi.OrderRow
	fetchErr  error
	deleteAck *storeapi.Ack
	deleteErr error
	deletedID int64
}

func (s *stubHistoryClient) FetchOrders(ctx context.Context, userKey string) ([]storeapi.OrderRow, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.rows, nil
}

func (s *stubHistoryClient) DeleteOrder(ctx context.Context, userKey string, orderID int64) (*storeapi.Ack, error) {
	s.deletedID = orderID
	if s.deleteErr != nil {
		return nil, s.deleteErr
	}
	if s.deleteAck != nil {
		return s.deleteAck, nil
	}
	return &storeapi.Ack{Success: true}, nil
}

func newTestService(t *testing.T, client *stubHistoryClient) Service {
	t.Helper()
	svc, err := NewService(client, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return svc
}

func TestListOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	client := &stubHistoryClient{rows: []storeapi.OrderRow{
		{OrderID: 1, ProductID: 7, Name: "Oolong", Quantity: 2, UnitPrice: decimal.NewFromInt(300), Total: decimal.NewFromInt(600), CheckoutTime: "2026-08-29 10:00:00"},
		{OrderID: 3, ProductID: 9, Name: "Sencha", Quantity: 1, UnitPrice: decimal.NewFromInt(500), Total: decimal.NewFromInt(500), CheckoutTime: "2026-08-31 09:30:00"},
		{OrderID: 2, ProductID: 4, Name: "Matcha", Quantity: 1, UnitPrice: decimal.NewFromInt(800), Total: decimal.NewFromInt(800), CheckoutTime: "2026-08-30 18:15:00"},
	}}
	svc := newTestService(t, client)

	entries, err := svc.List(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(3), entries[0].OrderID)
	assert.Equal(t, int64(2), entries[1].OrderID)
	assert.Equal(t, int64(1), entries[2].OrderID)
}

func TestListFallsBackToOrderIDWhenTimeUnparseable(t *testing.T) {
	t.Parallel()

	client := &stubHistoryClient{rows: []storeapi.OrderRow{
		{OrderID: 5, Name: "Oolong", Quantity: 1, UnitPrice: decimal.NewFromInt(300), CheckoutTime: "yesterday"},
		{OrderID: 9, Name: "Sencha", Quantity: 1, UnitPrice: decimal.NewFromInt(500), CheckoutTime: "earlier"},
	}}
	svc := newTestService(t, client)

	entries, err := svc.List(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(9), entries[0].OrderID)
	assert.Equal(t, int64(5), entries[1].OrderID)
}

func TestListRecomputesMissingTotalAndRounds(t *testing.T) {
	t.Parallel()

	client := &stubHistoryClient{rows: []storeapi.OrderRow{
		{OrderID: 1, Name: "Oolong", Quantity: 3, UnitPrice: decimal.RequireFromString("499.5"), CheckoutTime: "2026-08-31 09:30:00"},
	}}
	svc := newTestService(t, client)

	entries, err := svc.List(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	// 3 * 499.5 = 1498.5, rounded half away from zero.
	assert.Equal(t, int64(1499), entries[0].TotalAmount)
}

func TestRemoveSurfacesServerRefusal(t *testing.T) {
	t.Parallel()

	client := &stubHistoryClient{deleteAck: &storeapi.Ack{Success: false, Message: "order not found"}}
	svc := newTestService(t, client)

	err := svc.Remove(context.Background(), "alice", 42)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, "order not found", typed.Message())
	assert.Equal(t, int64(42), client.deletedID)
}

func TestRemoveRequiresOrderID(t *testing.T) {
	t.Parallel()

	client := &stubHistoryClient{}
	svc := newTestService(t, client)

	err := svc.Remove(context.Background(), "alice", 0)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Zero(t, client.deletedID)
}
