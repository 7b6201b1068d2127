package cartview

import (
	"fmt"

	pkgerrors "github.com/jchen-labs/shopfront/pkg/errors"
)

// SelectionState is the derived tri-state backing the "select all" control.
// An empty cart reports NoneSelected and a disabled aggregate control.
type SelectionState struct {
	AllSelected      bool
	NoneSelected     bool
	SomeSelected     bool
	AggregateEnabled bool
}

// SetSelected sets one line item's selection flag.
func (v *View) SetSelected(cartEntryID int64, selected bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	item := v.itemByEntryID(cartEntryID)
	if item == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("cart entry %d not found", cartEntryID))
	}
	item.Selected = selected
	return nil
}

// ToggleSelected flips one line item's selection flag and returns the new
// value.
func (v *View) ToggleSelected(cartEntryID int64) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	item := v.itemByEntryID(cartEntryID)
	if item == nil {
		return false, pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("cart entry %d not found", cartEntryID))
	}
	item.Selected = !item.Selected
	return item.Selected, nil
}

// SetAllSelected fans the aggregate control out to every line item.
func (v *View) SetAllSelected(selected bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, item := range v.items {
		item.Selected = selected
	}
}

// Selection computes the aggregate tri-state from the current items.
func (v *View) Selection() SelectionState {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.items) == 0 {
		return SelectionState{NoneSelected: true}
	}

	selected := 0
	for _, item := range v.items {
		if item.Selected {
			selected++
		}
	}
	return SelectionState{
		AllSelected:      selected == len(v.items),
		NoneSelected:     selected == 0,
		SomeSelected:     selected > 0 && selected < len(v.items),
		AggregateEnabled: true,
	}
}

// SelectedItems returns copies of the selected line items in display order.
func (v *View) SelectedItems() []LineItem {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]LineItem, 0, len(v.items))
	for _, item := range v.items {
		if !item.Selected {
			continue
		}
		li := *item
		li.Stock = copyStock(item.Stock)
		out = append(out, li)
	}
	return out
}
