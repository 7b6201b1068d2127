package cartview

import (
	"fmt"

	pkgerrors "github.com/jchen-labs/shopfront/pkg/errors"
)

// SetQuantity applies a proposed quantity to the addressed line item. A
// non-positive proposal becomes 1; a proposal above the known stock bound is
// clamped to the bound and a warn notice is recorded — a recoverable
// correction, not an error. Nothing is persisted to the server; quantity
// only reaches it via the next checkout.
func (v *View) SetQuantity(cartEntryID int64, proposed int) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	item := v.itemByEntryID(cartEntryID)
	if item == nil {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("cart entry %d not found", cartEntryID))
	}

	clamped := clampQuantity(proposed, item.Stock)
	if item.Stock != nil && proposed > *item.Stock {
		v.addNotice(NoticeWarn, fmt.Sprintf(
			"requested quantity exceeds available stock: only %d of %q left",
			*item.Stock, item.Name))
	}
	item.Quantity = clamped
	return clamped, nil
}

// clampQuantity bounds a proposed quantity into [1, stock]. With unknown
// stock the result is max(1, proposed).
func clampQuantity(proposed int, stock *int) int {
	if proposed < 1 {
		proposed = 1
	}
	if stock != nil && proposed > *stock {
		proposed = *stock
	}
	if proposed < 1 {
		// Zero-stock rows still display a quantity of one.
		proposed = 1
	}
	return proposed
}
