package list

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartkurv/pricing-service/internal/catalog"
)

var (
	banana = catalog.Product{ID: "banana", Name: "Banan"}
	milk   = catalog.Product{ID: "milk-1l", Name: "Mælk Let 1L"}
)

func TestAddMergesSameVariant(t *testing.T) {
	l := New()

	l.Add(banana, catalog.Variant{Unit: "stk"}, 2)
	l.Add(banana, catalog.Variant{Unit: "stk"}, 3)

	require.Len(t, l.Items, 1, "Same product and variant should merge into one line")
	assert.Equal(t, 5, l.Items[0].Qty)
}

func TestAddSeparatesVariants(t *testing.T) {
	l := New()

	l.Add(banana, catalog.Variant{Unit: "stk"}, 1)
	l.Add(banana, catalog.Variant{Unit: "bundt"}, 1)
	l.Add(banana, catalog.Variant{Unit: "stk", Organic: true}, 1)

	assert.Len(t, l.Items, 3, "Different units and organic flags are separate lines")
}

func TestAddClampsQuantity(t *testing.T) {
	l := New()

	l.Add(banana, catalog.Variant{Unit: "stk"}, 0)
	require.Len(t, l.Items, 1)
	assert.Equal(t, 1, l.Items[0].Qty, "Quantities below one are treated as one")

	l.Add(milk, catalog.Variant{Unit: "ltr"}, -5)
	assert.Equal(t, 1, l.Items[1].Qty)
}

func TestAddPreservesInsertionOrder(t *testing.T) {
	l := New()

	l.Add(milk, catalog.Variant{Unit: "ltr"}, 1)
	l.Add(banana, catalog.Variant{Unit: "stk"}, 1)

	assert.Equal(t, "milk-1l", l.Items[0].Product.ID)
	assert.Equal(t, "banana", l.Items[1].Product.ID)
}

func TestChangeQty(t *testing.T) {
	l := New()
	l.Add(banana, catalog.Variant{Unit: "stk"}, 2)
	itemID := l.Items[0].ID

	l.ChangeQty(itemID, 3)
	assert.Equal(t, 5, l.Items[0].Qty)

	l.ChangeQty(itemID, -4)
	assert.Equal(t, 1, l.Items[0].Qty)

	// Reaching zero removes the line
	l.ChangeQty(itemID, -1)
	assert.True(t, l.Empty())
}

func TestChangeQtyUnknownItem(t *testing.T) {
	l := New()
	l.Add(banana, catalog.Variant{Unit: "stk"}, 2)

	other := New()
	other.Add(milk, catalog.Variant{Unit: "ltr"}, 1)

	l.ChangeQty(other.Items[0].ID, 5)
	assert.Equal(t, 2, l.Items[0].Qty, "Unknown item id should be a no-op")
}

func TestRemove(t *testing.T) {
	l := New()
	l.Add(banana, catalog.Variant{Unit: "stk"}, 2)
	l.Add(milk, catalog.Variant{Unit: "ltr"}, 1)

	l.Remove(l.Items[0].ID)

	require.Len(t, l.Items, 1)
	assert.Equal(t, "milk-1l", l.Items[0].Product.ID)
}

func TestHistoryCommit(t *testing.T) {
	var h History

	l := New()
	originalID := l.ID
	l.Add(banana, catalog.Variant{Unit: "stk"}, 2)

	ok := h.Commit(l)
	require.True(t, ok)

	// The committed snapshot keeps the old identity; the live list is reset
	assert.True(t, l.Empty())
	assert.NotEqual(t, originalID, l.ID)

	entries := h.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, originalID, entries[0].ID)
	assert.Equal(t, 2, entries[0].Items[0].Qty)
}

func TestHistoryCommitEmptyListNoOp(t *testing.T) {
	var h History
	l := New()

	assert.False(t, h.Commit(l))
	assert.Empty(t, h.Entries())
}

func TestHistoryMostRecentFirst(t *testing.T) {
	var h History

	l := New()
	l.Add(banana, catalog.Variant{Unit: "stk"}, 1)
	h.Commit(l)

	l.Add(milk, catalog.Variant{Unit: "ltr"}, 1)
	h.Commit(l)

	entries := h.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "milk-1l", entries[0].Items[0].Product.ID)
	assert.Equal(t, "banana", entries[1].Items[0].Product.ID)
}

// TestHistorySnapshotsAreFrozen verifies mutating the live list after a
// commit does not leak into history.
func TestHistorySnapshotsAreFrozen(t *testing.T) {
	var h History

	l := New()
	l.Add(banana, catalog.Variant{Unit: "stk"}, 1)
	h.Commit(l)

	l.Add(milk, catalog.Variant{Unit: "ltr"}, 7)

	entries := h.Entries()
	require.Len(t, entries[0].Items, 1)
	assert.Equal(t, "banana", entries[0].Items[0].Product.ID)
}
