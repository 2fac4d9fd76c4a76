package board

import "testing"

func TestMaxIDReturnsLargestSuffix(t *testing.T) {
	got := MaxID([]string{"item-1", "item-7", "item-3"})
	if got != 7 {
		t.Fatalf("expected max 7, got %d", got)
	}
}

func TestMaxIDEmptySetFallsBackToZero(t *testing.T) {
	if got := MaxID(nil); got != 0 {
		t.Fatalf("expected 0 for empty set, got %d", got)
	}
	if next := NextID("item", nil); next != "item-1" {
		t.Fatalf("expected first id item-1, got %q", next)
	}
}

func TestMaxIDSkipsMalformedKeys(t *testing.T) {
	got := MaxID([]string{"item-2", "item", "item-x", "item-10"})
	if got != 10 {
		t.Fatalf("expected malformed keys to be skipped, got max %d", got)
	}
}

func TestNextIDScansKeysNotCounts(t *testing.T) {
	b := New("Sprint", "sprint-deadbeef")
	for _, content := range []string{"a", "b", "c"} {
		if _, err := AddItem(b, "container-1", content, testColor()); err != nil {
			t.Fatalf("add item: %v", err)
		}
	}
	// Delete a low id; the allocator keys off the surviving maximum, so the
	// next id moves past every id still in use.
	if err := RemoveItem(b, "item-2"); err != nil {
		t.Fatalf("remove item: %v", err)
	}
	id, err := AddItem(b, "container-1", "d", testColor())
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if id != "item-5" {
		t.Fatalf("expected item-5, got %q", id)
	}
}
