package cartview

import "github.com/shopspring/decimal"

// LineItem is one product present in the cart working copy. Quantity always
// satisfies 1 <= Quantity, and Quantity <= *Stock whenever Stock is known.
type LineItem struct {
	CartEntryID int64
	ProductID   int64
	Name        string
	Image       string
	Level       string
	UnitPrice   decimal.Decimal
	Stock       *int
	Quantity    int
	Selected    bool
}

// Subtotal is the row amount the user sees: unit price times quantity,
// independent of selection.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// SubtotalAmount is Subtotal rounded to an integer currency amount.
func (li LineItem) SubtotalAmount() int64 {
	return roundAmount(li.Subtotal())
}

// LineSubtotal is the item's contribution to the checkout total: the
// subtotal when selected, zero otherwise.
func (li LineItem) LineSubtotal() decimal.Decimal {
	if !li.Selected {
		return decimal.Zero
	}
	return li.Subtotal()
}

// StockKnown reports whether the server exposed a stock bound for the item.
func (li LineItem) StockKnown() bool {
	return li.Stock != nil
}

// SnapshotItem is one cart row as assembled by the snapshot loader, before
// it becomes a working LineItem.
type SnapshotItem struct {
	CartEntryID int64
	ProductID   int64
	Name        string
	Image       string
	Level       string
	UnitPrice   decimal.Decimal
	Stock       *int
	Quantity    int
}

// Snapshot is the authoritative cart as last fetched, in server display
// order. It is applied wholesale, never diffed in place.
type Snapshot struct {
	Items []SnapshotItem
}

func roundAmount(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
