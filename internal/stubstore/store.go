package stubstore

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/jchen-labs/shopfront/pkg/errors"
	"github.com/jchen-labs/shopfront/pkg/storeapi"
)

// Store is the in-memory reference backend. It keeps a finite product
// catalog, per-account cart rows and order history, and applies checkouts
// atomically: every selected item is validated against current stock before
// any stock is decremented or any cart row cleared.
type Store struct {
	mu         sync.Mutex
	products   map[int64]*product
	productIDs []int64
	carts      map[string][]*cartRow
	orders     map[string][]storeapi.OrderRow
	nextCartID int64
	nextOrder  int64
	now        func() time.Time
}

type product struct {
	id          int64
	name        string
	image       string
	level       string
	category    string
	price       decimal.Decimal
	stock       int
	description string
}

type cartRow struct {
	id        int64
	productID int64
	quantity  int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		products:   map[int64]*product{},
		carts:      map[string][]*cartRow{},
		orders:     map[string][]storeapi.OrderRow{},
		nextCartID: 1,
		nextOrder:  1,
		now:        time.Now,
	}
}

// SeedDemo loads a small tea catalog so the stub is usable out of the box.
func (s *Store) SeedDemo() {
	s.AddProduct(storeapi.Product{ID: 1, Name: "Oolong", Image: "oolong.jpg", Level: "premium", Category: "tea", Price: decimal.NewFromInt(300), Stock: 10, Description: "High mountain oolong"})
	s.AddProduct(storeapi.Product{ID: 2, Name: "Sencha", Image: "sencha.jpg", Level: "standard", Category: "tea", Price: decimal.NewFromInt(500), Stock: 6, Description: "First flush sencha"})
	s.AddProduct(storeapi.Product{ID: 3, Name: "Matcha", Image: "matcha.jpg", Level: "premium", Category: "tea", Price: decimal.RequireFromString("799.5"), Stock: 4, Description: "Ceremonial grade matcha"})
}

// AddProduct inserts or replaces a catalog entry.
func (s *Store) AddProduct(p storeapi.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[p.ID]; !exists {
		s.productIDs = append(s.productIDs, p.ID)
	}
	s.products[p.ID] = &product{
		id:          p.ID,
		name:        p.Name,
		image:       p.Image,
		level:       p.Level,
		category:    p.Category,
		price:       p.Price,
		stock:       p.Stock,
		description: p.Description,
	}
}

// Products lists the catalog in insertion order.
func (s *Store) Products() []storeapi.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]storeapi.Product, 0, len(s.productIDs))
	for _, id := range s.productIDs {
		p := s.products[id]
		out = append(out, storeapi.Product{
			ID:          p.id,
			Name:        p.name,
			Image:       p.image,
			Level:       p.level,
			Category:    p.category,
			Price:       p.price,
			Stock:       p.stock,
			Description: p.description,
		})
	}
	return out
}

// Cart lists the account's cart rows in insertion order, joined with the
// catalog and carrying the current stock bound.
func (s *Store) Cart(account string) []storeapi.CartRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.carts[account]
	out := make([]storeapi.CartRow, 0, len(rows))
	for _, row := range rows {
		p, ok := s.products[row.productID]
		if !ok {
			continue
		}
		stock := p.stock
		out = append(out, storeapi.CartRow{
			CartEntryID: row.id,
			ProductID:   row.productID,
			Quantity:    row.quantity,
			Name:        p.name,
			Image:       p.image,
			UnitPrice:   p.price,
			Subtotal:    p.price.Mul(decimal.NewFromInt(int64(row.quantity))),
			Level:       p.level,
			Stock:       &stock,
		})
	}
	return out
}

// AddToCart merges quantity into an existing row for the product, or
// appends a new row. The merged quantity may not exceed current stock.
func (s *Store) AddToCart(account string, productID int64, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no such product %d", productID))
	}

	for _, row := range s.carts[account] {
		if row.productID == productID {
			if row.quantity+quantity > p.stock {
				return insufficientStock(productID, p.stock)
			}
			row.quantity += quantity
			return nil
		}
	}

	if quantity > p.stock {
		return insufficientStock(productID, p.stock)
	}
	s.carts[account] = append(s.carts[account], &cartRow{
		id:        s.nextCartID,
		productID: productID,
		quantity:  quantity,
	})
	s.nextCartID++
	return nil
}

// DeleteCartEntry removes one cart row by its entry id.
func (s *Store) DeleteCartEntry(account string, cartEntryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.carts[account]
	for i, row := range rows {
		if row.id == cartEntryID {
			s.carts[account] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no cart entry %d", cartEntryID))
}

// Checkout applies the selected (productId, quantity) pairs atomically.
// Validation runs over every pair first; the first insufficient pair
// rejects the whole request and nothing is mutated.
func (s *Store) Checkout(account string, items []storeapi.CheckoutPair) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no items selected")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, pair := range items {
		p, ok := s.products[pair.ProductID()]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no such product %d", pair.ProductID()))
		}
		if pair.Quantity() < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid quantity for productId %d", pair.ProductID()))
		}
		if int(pair.Quantity()) > p.stock {
			return insufficientStock(pair.ProductID(), p.stock)
		}
	}

	checkoutTime := s.now().Format("2006-01-02 15:04:05")
	for _, pair := range items {
		p := s.products[pair.ProductID()]
		qty := int(pair.Quantity())
		p.stock -= qty
		s.orders[account] = append(s.orders[account], storeapi.OrderRow{
			OrderID:      s.nextOrder,
			ProductID:    p.id,
			Quantity:     qty,
			UnitPrice:    p.price,
			Total:        p.price.Mul(decimal.NewFromInt(int64(qty))),
			CheckoutTime: checkoutTime,
			Name:         p.name,
			Image:        p.image,
			Level:        p.level,
		})
		s.nextOrder++
		s.removePurchasedLocked(account, p.id)
	}
	return nil
}

// Orders lists the account's purchase history.
func (s *Store) Orders(account string) []storeapi.OrderRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.orders[account]
	out := make([]storeapi.OrderRow, len(rows))
	copy(out, rows)
	return out
}

// DeleteOrder removes one history row by order id.
func (s *Store) DeleteOrder(account string, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.orders[account]
	for i, row := range rows {
		if row.OrderID == orderID {
			s.orders[account] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no order %d", orderID))
}

func (s *Store) removePurchasedLocked(account string, productID int64) {
	rows := s.carts[account]
	for i, row := range rows {
		if row.productID == productID {
			s.carts[account] = append(rows[:i], rows[i+1:]...)
			return
		}
	}
}

func insufficientStock(productID int64, remaining int) error {
	return pkgerrors.New(pkgerrors.CodeConflict,
		fmt.Sprintf("stock insufficient for productId %d, only %d left", productID, remaining))
}
