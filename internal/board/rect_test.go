package board

import "testing"

func TestDiffRectsReportsTranslations(t *testing.T) {
	before := map[string]Rect{
		"item-1": {X: 0, Y: 2, W: 20, H: 1},
		"item-2": {X: 0, Y: 3, W: 20, H: 1},
		"item-3": {X: 0, Y: 4, W: 20, H: 1},
	}
	after := map[string]Rect{
		"item-1": {X: 0, Y: 3, W: 20, H: 1},
		"item-2": {X: 0, Y: 2, W: 20, H: 1},
		"item-3": {X: 0, Y: 4, W: 20, H: 1},
		"item-4": {X: 0, Y: 5, W: 20, H: 1},
	}

	deltas := DiffRects(before, after)
	if len(deltas) != 2 {
		t.Fatalf("expected 2 moved keys, got %d: %v", len(deltas), deltas)
	}
	if d := deltas["item-1"]; d.DY != 1 || d.DX != 0 {
		t.Fatalf("unexpected delta for item-1: %+v", d)
	}
	if d := deltas["item-2"]; d.DY != -1 {
		t.Fatalf("unexpected delta for item-2: %+v", d)
	}
	if _, ok := deltas["item-4"]; ok {
		t.Fatalf("new key should not produce a delta")
	}
}
