package storeapi

import "github.com/shopspring/decimal"

// CartRow is one row of the authoritative cart as the server reports it.
// stock_qty is only present when the deployment embeds stock in the cart
// response; otherwise stock comes from the product catalog.
type CartRow struct {
	CartEntryID int64           `json:"cart_id" validate:"required"`
	ProductID   int64           `json:"product_id" validate:"required"`
	Quantity    int             `json:"cart_qty"`
	Name        string          `json:"name"`
	Image       string          `json:"image"`
	UnitPrice   decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Level       string          `json:"level"`
	Stock       *int            `json:"stock_qty,omitempty"`
}

// Product is one catalog entry.
type Product struct {
	ID          int64           `json:"id" validate:"required"`
	Name        string          `json:"name"`
	Image       string          `json:"image"`
	Level       string          `json:"level"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description string          `json:"description"`
}

// OrderRow is one row of the user's order history.
type OrderRow struct {
	OrderID      int64           `json:"order_id" validate:"required"`
	ProductID    int64           `json:"product_id"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"price"`
	CheckoutTime string          `json:"checkout_time"`
	Name         string          `json:"name"`
	Image        string          `json:"image"`
	Total        decimal.Decimal `json:"total"`
	Level        string          `json:"level"`
}

// Ack is the generic mutation acknowledgement envelope.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CheckoutPair is one (productId, quantity) pair in display order. It
// marshals to a two-element JSON array, matching the wire contract.
type CheckoutPair [2]int64

// ProductID returns the product identifier of the pair.
func (p CheckoutPair) ProductID() int64 { return p[0] }

// Quantity returns the requested quantity of the pair.
func (p CheckoutPair) Quantity() int64 { return p[1] }

type checkoutRequest struct {
	SelectedItems []CheckoutPair `json:"selected_items"`
}

type addCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}
