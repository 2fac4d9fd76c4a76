package board

import (
	"fmt"

	"kanbo/internal/model"
)

type GestureKind string

const (
	GestureItem      GestureKind = "item"
	GestureContainer GestureKind = "container"
)

// Gesture is the result of a drag: where the dragged entity started and where
// it was dropped. Container gestures ignore the container ids since there is
// only one container list.
type Gesture struct {
	Kind            GestureKind
	FromContainerID string
	FromIndex       int
	ToContainerID   string
	ToIndex         int
}

// Noop reports whether applying the gesture would leave the board unchanged.
// A cancelled drag (no destination) should never reach Apply; an in-place drop
// is detected here so callers can skip the write entirely.
func (g Gesture) Noop() bool {
	if g.Kind == GestureContainer {
		return g.FromIndex == g.ToIndex
	}
	return g.FromContainerID == g.ToContainerID && g.FromIndex == g.ToIndex
}

// Apply rewrites the board's order structures for one gesture. Same-list moves
// splice the element out first and then insert at the destination index; the
// removal already shifted later indices, so no off-by-one adjustment is applied
// on top. Destination indices beyond the sequence clamp to append.
func Apply(b *model.Board, g Gesture) error {
	if g.Noop() {
		return nil
	}

	if g.Kind == GestureContainer {
		moved, err := spliceMove(b.ContainerOrder, g.FromIndex, g.ToIndex)
		if err != nil {
			return fmt.Errorf("reorder containers: %w", err)
		}
		b.ContainerOrder = moved
		return nil
	}

	source, ok := b.ContainerItemMapping[g.FromContainerID]
	if !ok {
		return NotFoundError{Kind: "container", ID: g.FromContainerID}
	}
	if g.FromContainerID == g.ToContainerID {
		moved, err := spliceMove(source, g.FromIndex, g.ToIndex)
		if err != nil {
			return fmt.Errorf("reorder items in %s: %w", g.FromContainerID, err)
		}
		b.ContainerItemMapping[g.FromContainerID] = moved
		return nil
	}

	// Cross-container move: positional bookkeeping only, the item itself is untouched.
	dest, ok := b.ContainerItemMapping[g.ToContainerID]
	if !ok {
		return NotFoundError{Kind: "container", ID: g.ToContainerID}
	}
	if g.FromIndex < 0 || g.FromIndex >= len(source) {
		return fmt.Errorf("move from %s: index %d out of range (len %d)", g.FromContainerID, g.FromIndex, len(source))
	}
	itemID := source[g.FromIndex]
	b.ContainerItemMapping[g.FromContainerID] = append(source[:g.FromIndex:g.FromIndex], source[g.FromIndex+1:]...)
	b.ContainerItemMapping[g.ToContainerID] = insertAt(dest, g.ToIndex, itemID)
	return nil
}

func spliceMove(seq []string, from, to int) ([]string, error) {
	if from < 0 || from >= len(seq) {
		return nil, fmt.Errorf("index %d out of range (len %d)", from, len(seq))
	}
	v := seq[from]
	rest := make([]string, 0, len(seq)-1)
	rest = append(rest, seq[:from]...)
	rest = append(rest, seq[from+1:]...)
	return insertAt(rest, to, v), nil
}
