package cartview

import (
	"fmt"
	"sync"

	pkgerrors "github.com/jchen-labs/shopfront/pkg/errors"
	"github.com/jchen-labs/shopfront/pkg/metrics"
)

// View owns the working copy of the cart: the line-item collection, its
// selection state, and the notices produced by local mutations. All reads
// and mutations go through the view; the rendering layer derives everything
// it shows from here.
//
// Snapshot application is guarded by monotonically increasing load tokens:
// a response belonging to a superseded load is discarded, never applied.
type View struct {
	mu sync.Mutex

	items   []*LineItem
	notices []Notice

	issuedToken  uint64
	appliedToken uint64
	loadErr      error
	loaded       bool

	metrics *metrics.CartMetrics
}

// NewView builds an empty cart view. Metrics may be nil.
func NewView(cartMetrics *metrics.CartMetrics) *View {
	return &View{metrics: cartMetrics}
}

// BeginLoad issues the token for a new snapshot load. The latest issued
// token is the only one whose result will be applied.
func (v *View) BeginLoad() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.issuedToken++
	return v.issuedToken
}

// ApplySnapshot replaces the line-item collection wholesale with the
// snapshot fetched under token. Unsaved quantity and selection edits are
// discarded. A superseded token yields a STALE_SNAPSHOT error and no
// mutation.
func (v *View) ApplySnapshot(token uint64, snap Snapshot) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if token != v.issuedToken {
		v.metrics.IncStaleDiscard()
		return pkgerrors.New(pkgerrors.CodeStale,
			fmt.Sprintf("load %d superseded by %d", token, v.issuedToken))
	}

	items := make([]*LineItem, 0, len(snap.Items))
	for _, row := range snap.Items {
		item := &LineItem{
			CartEntryID: row.CartEntryID,
			ProductID:   row.ProductID,
			Name:        row.Name,
			Image:       row.Image,
			Level:       row.Level,
			UnitPrice:   row.UnitPrice,
			Stock:       copyStock(row.Stock),
			Quantity:    clampQuantity(row.Quantity, row.Stock),
			Selected:    false,
		}
		items = append(items, item)
	}

	v.items = items
	v.appliedToken = token
	v.loadErr = nil
	v.loaded = true
	v.metrics.IncSnapshotLoad(metrics.OutcomeApplied)
	return nil
}

// FailLoad records an explicit load error state for the latest load. The
// cart must render the error, never stale or empty-looking data. A failure
// belonging to a superseded load is ignored.
func (v *View) FailLoad(token uint64, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if token != v.issuedToken {
		v.metrics.IncStaleDiscard()
		return
	}
	v.loadErr = err
	v.loaded = false
	v.items = nil
	v.metrics.IncSnapshotLoad(metrics.OutcomeError)
}

// AppliedToken returns the token of the snapshot currently applied. A
// consumer that staged work against one snapshot can use it to detect that a
// reload has replaced the data underneath.
func (v *View) AppliedToken() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.appliedToken
}

// Err returns the load error state, if the last load failed.
func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loadErr
}

// Loaded reports whether a snapshot has been applied and is current.
func (v *View) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

// Items returns a copy of the line items in display order.
func (v *View) Items() []LineItem {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]LineItem, 0, len(v.items))
	for _, item := range v.items {
		li := *item
		li.Stock = copyStock(item.Stock)
		out = append(out, li)
	}
	return out
}

// Len returns the number of line items.
func (v *View) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.items)
}

// TakeNotices drains and returns the accumulated notices.
func (v *View) TakeNotices() []Notice {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.notices
	v.notices = nil
	return out
}

func (v *View) addNotice(level NoticeLevel, message string) {
	v.notices = append(v.notices, Notice{Level: level, Message: message})
}

// itemByEntryID must be called with the lock held.
func (v *View) itemByEntryID(cartEntryID int64) *LineItem {
	for _, item := range v.items {
		if item.CartEntryID == cartEntryID {
			return item
		}
	}
	return nil
}

func copyStock(stock *int) *int {
	if stock == nil {
		return nil
	}
	val := *stock
	return &val
}
