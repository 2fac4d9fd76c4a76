package model

import (
	"fmt"
	"time"
)

type ContainerType string

const (
	ContainerChecklist ContainerType = "checklist"
	ContainerSimple    ContainerType = "simple"
)

// CompletedOrder controls where completed items cluster inside a container.
type CompletedOrder string

const (
	CompletedAtStart CompletedOrder = "start"
	CompletedAtEnd   CompletedOrder = "end"
	CompletedNoSort  CompletedOrder = "noChange"
)

type Color struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	TextDark bool   `json:"textDark"`
}

type Item struct {
	ID         string    `json:"id"`
	BadgeColor Color     `json:"badgeColor"`
	Content    string    `json:"content"`
	Completed  bool      `json:"completed"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Container holds column metadata only. Item membership and order live in the
// board's ContainerItemMapping.
type Container struct {
	ID                 string         `json:"id"`
	Title              string         `json:"title"`
	Type               ContainerType  `json:"type"`
	CompletedItemOrder CompletedOrder `json:"completedItemOrder"`
	BadgeColor         Color          `json:"badgeColor"`
}

type BoardTag struct {
	Text  string `json:"text"`
	Color Color  `json:"color"`
}

// Board is the unit of persistence: one denormalized document per board.
type Board struct {
	Title                string               `json:"title"`
	Slug                 string               `json:"slug"`
	Tags                 []BoardTag           `json:"tags,omitempty"`
	CreatedAt            time.Time            `json:"createdAt"`
	UpdatedAt            time.Time            `json:"updatedAt"`
	Items                map[string]Item      `json:"items"`
	Containers           map[string]Container `json:"containers"`
	ContainerOrder       []string             `json:"containerOrder"`
	ContainerItemMapping map[string][]string  `json:"containerItemMapping"`
}

// Validate checks the structural invariants that must hold after every committed
// mutation: ContainerOrder is a permutation of the container keys, every ordered
// container has a mapping entry, and the mapping sequences partition the item
// keys with no duplicates.
func (b *Board) Validate() error {
	if len(b.ContainerOrder) != len(b.Containers) {
		return fmt.Errorf("board %s: containerOrder has %d entries, containers has %d", b.Slug, len(b.ContainerOrder), len(b.Containers))
	}
	seenContainers := make(map[string]struct{}, len(b.ContainerOrder))
	for _, id := range b.ContainerOrder {
		if _, ok := b.Containers[id]; !ok {
			return fmt.Errorf("board %s: containerOrder references unknown container %s", b.Slug, id)
		}
		if _, dup := seenContainers[id]; dup {
			return fmt.Errorf("board %s: container %s appears twice in containerOrder", b.Slug, id)
		}
		seenContainers[id] = struct{}{}
	}

	seenItems := make(map[string]string, len(b.Items))
	for containerID, itemIDs := range b.ContainerItemMapping {
		if _, ok := b.Containers[containerID]; !ok {
			return fmt.Errorf("board %s: mapping entry for unknown container %s", b.Slug, containerID)
		}
		for _, itemID := range itemIDs {
			if _, ok := b.Items[itemID]; !ok {
				return fmt.Errorf("board %s: container %s references unknown item %s", b.Slug, containerID, itemID)
			}
			if owner, dup := seenItems[itemID]; dup {
				return fmt.Errorf("board %s: item %s appears in both %s and %s", b.Slug, itemID, owner, containerID)
			}
			seenItems[itemID] = containerID
		}
	}
	for _, id := range b.ContainerOrder {
		if _, ok := b.ContainerItemMapping[id]; !ok {
			return fmt.Errorf("board %s: container %s has no mapping entry", b.Slug, id)
		}
	}
	if len(seenItems) != len(b.Items) {
		return fmt.Errorf("board %s: %d items mapped, %d items stored", b.Slug, len(seenItems), len(b.Items))
	}
	return nil
}

// Clone returns a deep copy so callers can transform a board without aliasing
// maps or order slices held elsewhere.
func (b *Board) Clone() *Board {
	out := *b
	out.Tags = append([]BoardTag(nil), b.Tags...)
	out.ContainerOrder = append([]string(nil), b.ContainerOrder...)
	out.Items = make(map[string]Item, len(b.Items))
	for id, item := range b.Items {
		out.Items[id] = item
	}
	out.Containers = make(map[string]Container, len(b.Containers))
	for id, container := range b.Containers {
		out.Containers[id] = container
	}
	out.ContainerItemMapping = make(map[string][]string, len(b.ContainerItemMapping))
	for id, itemIDs := range b.ContainerItemMapping {
		out.ContainerItemMapping[id] = append([]string(nil), itemIDs...)
	}
	return &out
}

// ContainerOf returns the id of the container whose sequence holds itemID.
func (b *Board) ContainerOf(itemID string) (string, bool) {
	for _, containerID := range b.ContainerOrder {
		for _, id := range b.ContainerItemMapping[containerID] {
			if id == itemID {
				return containerID, true
			}
		}
	}
	return "", false
}
