package snapshot

import (
	"context"
	"fmt"

	"github.com/jchen-labs/shopfront/internal/cartview"
	pkgerrors "github.com/jchen-labs/shopfront/pkg/errors"
	"github.com/jchen-labs/shopfront/pkg/logger"
	"github.com/jchen-labs/shopfront/pkg/storeapi"
)

type storeClient interface {
	FetchCart(ctx context.Context, userKey string) ([]storeapi.CartRow, error)
	FetchProducts(ctx context.Context) ([]storeapi.Product, error)
}

// Loader rebuilds the cart view from server truth. It owns the snapshot:
// every reload replaces the line-item collection wholesale, and a reload
// superseded by a newer one is discarded when it resolves.
type Loader struct {
	client storeClient
	view   *cartview.View
	logg   *logger.Logger
}

// NewLoader builds a snapshot loader for the given view.
func NewLoader(client storeClient, view *cartview.View, logg *logger.Logger) (*Loader, error) {
	if client == nil {
		return nil, fmt.Errorf("store client required")
	}
	if view == nil {
		return nil, fmt.Errorf("cart view required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Loader{
		client: client,
		view:   view,
		logg:   logg,
	}, nil
}

// Reload fetches the authoritative cart rows plus the product catalog and
// applies them to the view under a fresh load token. It must run on initial
// load, after a successful checkout or deletion, and after a failed
// checkout. A transport or parse failure puts the view into an explicit
// error state rather than showing stale or empty-looking data.
func (l *Loader) Reload(ctx context.Context, userKey string) error {
	token := l.view.BeginLoad()
	ctx = l.logg.WithLoadToken(ctx, token)

	rows, err := l.client.FetchCart(ctx, userKey)
	if err != nil {
		l.view.FailLoad(token, err)
		l.logg.Error(ctx, "cart fetch failed", err)
		return err
	}

	stockByProduct, levelByProduct, catalogErr := l.fetchCatalog(ctx)
	if catalogErr != nil {
		// The catalog is only required when a row does not embed stock.
		if missing := rowsWithoutStock(rows); missing > 0 {
			l.view.FailLoad(token, catalogErr)
			l.logg.Error(ctx, "catalog fetch failed with stock-less cart rows", catalogErr)
			return catalogErr
		}
		l.logg.Warn(ctx, "catalog fetch failed, using stock embedded in cart rows")
	}

	snap := cartview.Snapshot{Items: make([]cartview.SnapshotItem, 0, len(rows))}
	for _, row := range rows {
		item := cartview.SnapshotItem{
			CartEntryID: row.CartEntryID,
			ProductID:   row.ProductID,
			Name:        row.Name,
			Image:       row.Image,
			Level:       row.Level,
			UnitPrice:   row.UnitPrice,
			Stock:       row.Stock,
			Quantity:    row.Quantity,
		}
		// Catalog stock is fresher than what the cart row embeds.
		if stock, ok := stockByProduct[row.ProductID]; ok {
			val := stock
			item.Stock = &val
		}
		if item.Level == "" {
			item.Level = levelByProduct[row.ProductID]
		}
		snap.Items = append(snap.Items, item)
	}

	if err := l.view.ApplySnapshot(token, snap); err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStale {
			l.logg.Info(ctx, "snapshot superseded, discarding")
		}
		return err
	}
	l.logg.Debug(ctx, "snapshot applied")
	return nil
}

func (l *Loader) fetchCatalog(ctx context.Context) (map[int64]int, map[int64]string, error) {
	products, err := l.client.FetchProducts(ctx)
	if err != nil {
		return nil, nil, err
	}
	stock := make(map[int64]int, len(products))
	level := make(map[int64]string, len(products))
	for _, product := range products {
		stock[product.ID] = product.Stock
		level[product.ID] = product.Level
	}
	return stock, level, nil
}

func rowsWithoutStock(rows []storeapi.CartRow) int {
	missing := 0
	for _, row := range rows {
		if row.Stock == nil {
			missing++
		}
	}
	return missing
}
