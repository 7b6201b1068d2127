package cartview

import "github.com/shopspring/decimal"

// Total derives the checkout total: the exact sum of line subtotals over the
// selected items. Derivation keeps the total consistent with every
// mutation; rounding happens only at display time.
func (v *View) Total() decimal.Decimal {
	v.mu.Lock()
	defer v.mu.Unlock()

	total := decimal.Zero
	for _, item := range v.items {
		total = total.Add(item.LineSubtotal())
	}
	return total
}

// TotalAmount is Total rounded to a non-negative integer currency amount,
// matching how individual subtotals are displayed.
func (v *View) TotalAmount() int64 {
	return roundAmount(v.Total())
}
