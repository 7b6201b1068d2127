package orders

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/jchen-labs/shopfront/pkg/errors"
	"github.com/jchen-labs/shopfront/pkg/logger"
	"github.com/jchen-labs/shopfront/pkg/storeapi"
)

// historyClient is the slice of the store API the service needs.
type historyClient interface {
	FetchOrders(ctx context.Context, userKey string) ([]storeapi.OrderRow, error)
	DeleteOrder(ctx context.Context, userKey string, orderID int64) (*storeapi.Ack, error)
}

// Entry is one purchased line in the user's order history, shaped for
// display: the total is already rounded to an integer currency amount.
type Entry struct {
	OrderID      int64
	ProductID    int64
	Name         string
	Image        string
	Level        string
	Quantity     int
	UnitPrice    decimal.Decimal
	TotalAmount  int64
	CheckoutTime string
}

// Service exposes the user's order history.
type Service interface {
	List(ctx context.Context, userKey string) ([]Entry, error)
	Remove(ctx context.Context, userKey string, orderID int64) error
}

type service struct {
	client historyClient
	logg   *logger.Logger
}

// NewService wires the history service over the store API client.
func NewService(client historyClient, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("orders: client is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("orders: logger is required")
	}
	return &service{client: client, logg: logg}, nil
}

// List returns the history newest first. Rows whose total the server left
// unset are recomputed from unit price and quantity.
func (s *service) List(ctx context.Context, userKey string) ([]Entry, error) {
	rows, err := s.client.FetchOrders(ctx, userKey)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		total := row.Total
		if total.IsZero() && row.Quantity > 0 {
			total = row.UnitPrice.Mul(decimal.NewFromInt(int64(row.Quantity)))
		}
		entries = append(entries, Entry{
			OrderID:      row.OrderID,
			ProductID:    row.ProductID,
			Name:         row.Name,
			Image:        row.Image,
			Level:        row.Level,
			Quantity:     row.Quantity,
			UnitPrice:    row.UnitPrice,
			TotalAmount:  total.Round(0).IntPart(),
			CheckoutTime: row.CheckoutTime,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ti, iOK := parseCheckoutTime(entries[i].CheckoutTime)
		tj, jOK := parseCheckoutTime(entries[j].CheckoutTime)
		if iOK && jOK && !ti.Equal(tj) {
			return ti.After(tj)
		}
		return entries[i].OrderID > entries[j].OrderID
	})

	return entries, nil
}

// Remove deletes one history row. A server refusal is surfaced verbatim.
func (s *service) Remove(ctx context.Context, userKey string, orderID int64) error {
	if orderID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	ack, err := s.client.DeleteOrder(ctx, userKey, orderID)
	if err != nil {
		return err
	}
	if ack != nil && !ack.Success {
		return pkgerrors.New(pkgerrors.CodeConflict, ack.Message)
	}
	s.logg.Info(ctx, "order removed")
	return nil
}

// checkoutTimeLayouts covers the server's timestamp renderings. Unparseable
// values fall back to ordering by order id.
var checkoutTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseCheckoutTime(value string) (time.Time, bool) {
	for _, layout := range checkoutTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
