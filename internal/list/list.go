// Package list implements the shopping list model: an ordered collection of
// line items mutated by add/remove/quantity changes, and the history of
// committed (frozen) lists.
package list

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartkurv/pricing-service/internal/catalog"
)

// Item is one line of a shopping list. It snapshots the product and variant
// at add time; later catalog changes do not affect existing list items.
// Each item carries its own id, independent of product/variant identity.
type Item struct {
	ID      uuid.UUID       `json:"id"`
	Product catalog.Product `json:"product"`
	Variant catalog.Variant `json:"variant"`
	Qty     int             `json:"qty"`
}

// ShoppingList is an ordered collection of items. Order is insertion order
// and has no pricing significance.
type ShoppingList struct {
	ID        uuid.UUID `json:"id"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
}

// New returns an empty list with a fresh identity.
func New() *ShoppingList {
	return &ShoppingList{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
	}
}

// Empty reports whether the list has no items.
func (l *ShoppingList) Empty() bool {
	return len(l.Items) == 0
}

// Add appends qty units of a product variant. An existing item for the same
// product and variant is merged by incrementing its quantity instead of
// adding a duplicate line. qty values below 1 are treated as 1.
func (l *ShoppingList) Add(p catalog.Product, v catalog.Variant, qty int) {
	if qty < 1 {
		qty = 1
	}
	for i := range l.Items {
		if l.Items[i].Product.ID == p.ID && l.Items[i].Variant == v {
			l.Items[i].Qty += qty
			return
		}
	}
	l.Items = append(l.Items, Item{
		ID:      uuid.New(),
		Product: p,
		Variant: v,
		Qty:     qty,
	})
}

// ChangeQty adjusts an item's quantity by delta. Quantity is clamped at
// zero; an item reaching zero is removed from the list.
func (l *ShoppingList) ChangeQty(itemID uuid.UUID, delta int) {
	for i := range l.Items {
		if l.Items[i].ID != itemID {
			continue
		}
		l.Items[i].Qty += delta
		if l.Items[i].Qty <= 0 {
			l.Items = append(l.Items[:i], l.Items[i+1:]...)
		}
		return
	}
}

// Remove deletes an item regardless of its quantity.
func (l *ShoppingList) Remove(itemID uuid.UUID) {
	for i := range l.Items {
		if l.Items[i].ID == itemID {
			l.Items = append(l.Items[:i], l.Items[i+1:]...)
			return
		}
	}
}

// snapshot returns a frozen deep copy of the list.
func (l *ShoppingList) snapshot() ShoppingList {
	items := make([]Item, len(l.Items))
	copy(items, l.Items)
	return ShoppingList{
		ID:        l.ID,
		Items:     items,
		CreatedAt: l.CreatedAt,
	}
}

// History keeps committed shopping lists, most recent first. Entries are
// frozen snapshots and are never mutated in place.
type History struct {
	entries []ShoppingList
}

// Commit freezes the list into history and resets it to a fresh empty list.
// Committing an empty list is a no-op and reports false.
func (h *History) Commit(l *ShoppingList) bool {
	if l.Empty() {
		return false
	}
	h.entries = append([]ShoppingList{l.snapshot()}, h.entries...)
	*l = *New()
	return true
}

// Entries returns the committed lists, most recent first.
func (h *History) Entries() []ShoppingList {
	out := make([]ShoppingList, len(h.entries))
	copy(out, h.entries)
	return out
}
