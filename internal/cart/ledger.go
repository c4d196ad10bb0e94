package cart

import (
	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// Ledger is a shopper's cart: at most one item per product id, quantities always
// positive, and a single cart-wide discount rate.
//
// Ledger is not safe for concurrent use; the owning session serialises access.
type Ledger struct {
	items        []domain.CartItem
	discountRate decimal.Decimal
}

// NewLedger returns an empty cart with no discount
func NewLedger() *Ledger {
	return &Ledger{items: []domain.CartItem{}, discountRate: decimal.Zero}
}

func (l *Ledger) index(productID string) int {
	for i, item := range l.items {
		if item.Product.ID == productID {
			return i
		}
	}
	return -1
}

// AddItem increments the quantity of p by quantity, inserting it if absent.
// Quantities below 1 are ignored.
func (l *Ledger) AddItem(p domain.Product, quantity int) bool {
	if quantity < 1 {
		return false
	}
	if i := l.index(p.ID); i >= 0 {
		l.items[i].Quantity += quantity
		return true
	}
	l.items = append(l.items, domain.CartItem{Product: p, Quantity: quantity})
	return true
}

// AddMany adds exactly one unit of each product and then replaces the discount rate.
// The rate is clamped to [0, 1].
func (l *Ledger) AddMany(products []domain.Product, rate decimal.Decimal) {
	for _, p := range products {
		if i := l.index(p.ID); i >= 0 {
			l.items[i].Quantity++
		} else {
			l.items = append(l.items, domain.CartItem{Product: p, Quantity: 1})
		}
	}
	l.discountRate = clampRate(rate)
}

// UpdateQuantity sets an absolute quantity; zero or less removes the item.
// Unknown ids are ignored.
func (l *Ledger) UpdateQuantity(productID string, quantity int) {
	if quantity <= 0 {
		l.RemoveItem(productID)
		return
	}
	if i := l.index(productID); i >= 0 {
		l.items[i].Quantity = quantity
	}
}

// RemoveItem drops the item for productID if present
func (l *Ledger) RemoveItem(productID string) {
	if i := l.index(productID); i >= 0 {
		l.items = append(l.items[:i], l.items[i+1:]...)
	}
}

// ResetDiscount clears the bulk discount when a new shopping context starts
func (l *Ledger) ResetDiscount() {
	l.discountRate = decimal.Zero
}

// DiscountRate returns the current cart-wide discount rate
func (l *Ledger) DiscountRate() decimal.Decimal {
	return l.discountRate
}

// Items returns a copy of the cart items in insertion order
func (l *Ledger) Items() []domain.CartItem {
	out := make([]domain.CartItem, len(l.items))
	copy(out, l.items)
	return out
}

// Item returns the cart item for productID
func (l *Ledger) Item(productID string) (domain.CartItem, bool) {
	if i := l.index(productID); i >= 0 {
		return l.items[i], true
	}
	return domain.CartItem{}, false
}

// ItemCount is the total number of units in the cart
func (l *Ledger) ItemCount() int {
	n := 0
	for _, item := range l.items {
		n += item.Quantity
	}
	return n
}

// Summary prices the cart under the given shipping policy
func (l *Ledger) Summary(policy Policy) Summary {
	return Price(l.items, l.discountRate, policy)
}

func clampRate(rate decimal.Decimal) decimal.Decimal {
	if rate.IsNegative() {
		return decimal.Zero
	}
	if rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return rate
}
