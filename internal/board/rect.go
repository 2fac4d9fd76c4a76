package board

// Rect is a rendered entity's layout rectangle, keyed by the same stable id the
// reorder engine moves around. The TUI snapshots rects before and after a
// reorder to animate (flash) rows that moved.
type Rect struct {
	X, Y, W, H int
}

type RectDelta struct {
	DX, DY int
}

// DiffRects maps each key present in both snapshots to the translation between
// its old and new rectangle. Keys that appeared, disappeared, or did not move
// are omitted.
func DiffRects(before, after map[string]Rect) map[string]RectDelta {
	deltas := make(map[string]RectDelta)
	for key, b := range before {
		a, ok := after[key]
		if !ok {
			continue
		}
		dx := a.X - b.X
		dy := a.Y - b.Y
		if dx == 0 && dy == 0 {
			continue
		}
		deltas[key] = RectDelta{DX: dx, DY: dy}
	}
	return deltas
}
