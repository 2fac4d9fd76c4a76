package board

import (
	"strings"
	"time"

	"kanbo/internal/model"
)

const (
	itemPrefix      = "item"
	containerPrefix = "container"
)

// New builds the initial board document: one container holding one item, so a
// fresh board is never in an empty-column edge state.
func New(title, slug string) *model.Board {
	now := time.Now().UTC()
	containerID := containerPrefix + "-1"
	itemID := itemPrefix + "-1"
	return &model.Board{
		Title:     strings.TrimSpace(title),
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
		Items: map[string]model.Item{
			itemID: {
				ID:         itemID,
				BadgeColor: model.DefaultColor,
				Content:    "Add your first task",
				CreatedAt:  now,
				UpdatedAt:  now,
			},
		},
		Containers: map[string]model.Container{
			containerID: {
				ID:                 containerID,
				Title:              "To Do",
				Type:               model.ContainerChecklist,
				CompletedItemOrder: model.CompletedNoSort,
				BadgeColor:         model.DefaultColor,
			},
		},
		ContainerOrder:       []string{containerID},
		ContainerItemMapping: map[string][]string{containerID: {itemID}},
	}
}

// AddItem allocates a new item id and places it in containerID's sequence at
// the position dictated by the container's completed-order policy. New items
// start incomplete, so the "start" policy (completed clustered first) inserts
// at the head of the incomplete region; "end" and "noChange" append.
func AddItem(b *model.Board, containerID, content string, color model.Color) (string, error) {
	container, ok := b.Containers[containerID]
	if !ok {
		return "", NotFoundError{Kind: "container", ID: containerID}
	}

	now := time.Now().UTC()
	id := NextID(itemPrefix, itemKeys(b))
	b.Items[id] = model.Item{
		ID:         id,
		BadgeColor: color,
		Content:    strings.TrimSpace(content),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	seq := b.ContainerItemMapping[containerID]
	pos := len(seq)
	if container.CompletedItemOrder == model.CompletedAtStart {
		pos = leadingCompleted(b, seq)
	}
	b.ContainerItemMapping[containerID] = insertAt(seq, pos, id)
	return id, nil
}

// RemoveItem deletes the item and strips it from its owning container's
// sequence. The last remaining item on a board cannot be removed.
func RemoveItem(b *model.Board, itemID string) error {
	if _, ok := b.Items[itemID]; !ok {
		return NotFoundError{Kind: "item", ID: itemID}
	}
	if len(b.Items) == 1 {
		return LastItemError{ItemID: itemID}
	}

	containerID, ok := b.ContainerOf(itemID)
	if !ok {
		// An item outside every sequence breaks invariant 3; surface it loudly.
		return NotFoundError{Kind: "item mapping", ID: itemID}
	}
	b.ContainerItemMapping[containerID] = removeFirst(b.ContainerItemMapping[containerID], itemID)
	delete(b.Items, itemID)
	return nil
}

func UpdateItem(b *model.Board, itemID, content string, color model.Color, completed bool) error {
	item, ok := b.Items[itemID]
	if !ok {
		return NotFoundError{Kind: "item", ID: itemID}
	}
	toggled := item.Completed != completed
	item.Content = strings.TrimSpace(content)
	item.BadgeColor = color
	item.Completed = completed
	item.UpdatedAt = time.Now().UTC()
	b.Items[itemID] = item

	if toggled {
		resortForCompleted(b, itemID)
	}
	return nil
}

// AddContainer appends a new container to the board order with an empty item
// sequence.
func AddContainer(b *model.Board, title string) (string, error) {
	id := NextID(containerPrefix, containerKeys(b))
	b.Containers[id] = model.Container{
		ID:                 id,
		Title:              strings.TrimSpace(title),
		Type:               model.ContainerChecklist,
		CompletedItemOrder: model.CompletedNoSort,
		BadgeColor:         model.NextColor(model.DefaultColor, len(b.Containers)),
	}
	b.ContainerOrder = append(b.ContainerOrder, id)
	b.ContainerItemMapping[id] = []string{}
	return id, nil
}

// RemoveContainer deletes the container, its order entry, and every item it
// holds. Removing the only container on a board is rejected.
func RemoveContainer(b *model.Board, containerID string) error {
	if _, ok := b.Containers[containerID]; !ok {
		return NotFoundError{Kind: "container", ID: containerID}
	}
	if len(b.ContainerOrder) == 1 {
		return LastContainerError{ContainerID: containerID}
	}

	for _, itemID := range b.ContainerItemMapping[containerID] {
		delete(b.Items, itemID)
	}
	delete(b.ContainerItemMapping, containerID)
	delete(b.Containers, containerID)
	b.ContainerOrder = removeFirst(b.ContainerOrder, containerID)
	return nil
}

func UpdateContainer(b *model.Board, containerID, title string, ctype model.ContainerType, order model.CompletedOrder, color model.Color) error {
	container, ok := b.Containers[containerID]
	if !ok {
		return NotFoundError{Kind: "container", ID: containerID}
	}
	container.Title = strings.TrimSpace(title)
	container.Type = ctype
	container.CompletedItemOrder = order
	container.BadgeColor = color
	b.Containers[containerID] = container

	// A policy change re-clusters immediately rather than waiting for the next toggle.
	if order == model.CompletedAtStart || order == model.CompletedAtEnd {
		seq := b.ContainerItemMapping[containerID]
		b.ContainerItemMapping[containerID] = stablePartition(b, seq, order == model.CompletedAtStart)
	}
	return nil
}

// ToggleItemCompleted flips the item's completed flag and, when the owning
// container clusters completed items, re-partitions that container's sequence.
func ToggleItemCompleted(b *model.Board, itemID string) error {
	item, ok := b.Items[itemID]
	if !ok {
		return NotFoundError{Kind: "item", ID: itemID}
	}
	item.Completed = !item.Completed
	item.UpdatedAt = time.Now().UTC()
	b.Items[itemID] = item

	resortForCompleted(b, itemID)
	return nil
}

func SetTags(b *model.Board, tags []model.BoardTag) {
	b.Tags = append([]model.BoardTag(nil), tags...)
}

func resortForCompleted(b *model.Board, itemID string) {
	containerID, ok := b.ContainerOf(itemID)
	if !ok {
		return
	}
	switch b.Containers[containerID].CompletedItemOrder {
	case model.CompletedAtStart:
		b.ContainerItemMapping[containerID] = stablePartition(b, b.ContainerItemMapping[containerID], true)
	case model.CompletedAtEnd:
		b.ContainerItemMapping[containerID] = stablePartition(b, b.ContainerItemMapping[containerID], false)
	}
}

// stablePartition clusters completed items at one edge while preserving the
// relative order inside each partition. It is deliberately not a full sort.
func stablePartition(b *model.Board, seq []string, completedFirst bool) []string {
	completed := make([]string, 0, len(seq))
	incomplete := make([]string, 0, len(seq))
	for _, id := range seq {
		if b.Items[id].Completed {
			completed = append(completed, id)
		} else {
			incomplete = append(incomplete, id)
		}
	}
	if completedFirst {
		return append(completed, incomplete...)
	}
	return append(incomplete, completed...)
}

func leadingCompleted(b *model.Board, seq []string) int {
	for i, id := range seq {
		if !b.Items[id].Completed {
			return i
		}
	}
	return len(seq)
}

func insertAt(seq []string, pos int, id string) []string {
	if pos < 0 {
		pos = 0
	}
	if pos > len(seq) {
		pos = len(seq)
	}
	out := make([]string, 0, len(seq)+1)
	out = append(out, seq[:pos]...)
	out = append(out, id)
	out = append(out, seq[pos:]...)
	return out
}

func removeFirst(seq []string, id string) []string {
	for i, v := range seq {
		if v == id {
			return append(seq[:i:i], seq[i+1:]...)
		}
	}
	return seq
}

func itemKeys(b *model.Board) []string {
	keys := make([]string, 0, len(b.Items))
	for id := range b.Items {
		keys = append(keys, id)
	}
	return keys
}

func containerKeys(b *model.Board) []string {
	keys := make([]string, 0, len(b.Containers))
	for id := range b.Containers {
		keys = append(keys, id)
	}
	return keys
}
