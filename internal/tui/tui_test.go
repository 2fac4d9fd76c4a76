package tui

import (
	"context"
	"testing"

	"kanbo/internal/board"
	"kanbo/internal/db"
	"kanbo/internal/model"
)

func TestMoveItemDownReordersColumn(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	ui := newTestUI(t, store, "Sprint")
	containerID := ui.current.ContainerOrder[0]
	for _, content := range []string{"second", "third"} {
		mutateBoard(t, ui, func(b *model.Board) error {
			_, err := board.AddItem(b, containerID, content, model.DefaultColor)
			return err
		})
	}

	ui.selected[containerID] = 0
	if err := ui.moveItemDown(nil, nil); err != nil {
		t.Fatalf("move item down: %v", err)
	}

	got := ui.current.ContainerItemMapping[containerID]
	if got[0] != "item-2" || got[1] != "item-1" {
		t.Fatalf("expected item-1 to move below item-2, got %v", got)
	}
	if ui.selected[containerID] != 1 {
		t.Fatalf("expected selection to follow the card, got %d", ui.selected[containerID])
	}
	if _, ok := ui.moved["item-1"]; !ok {
		t.Fatalf("expected item-1 to be marked as moved, got %v", ui.moved)
	}

	persisted, err := store.GetBoard(context.Background(), ui.current.Slug)
	if err != nil {
		t.Fatalf("get board: %v", err)
	}
	if persisted.ContainerItemMapping[containerID][0] != "item-2" {
		t.Fatalf("expected reorder to persist, got %v", persisted.ContainerItemMapping[containerID])
	}
}

func TestMoveItemAcrossColumns(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	ui := newTestUI(t, store, "Sprint")
	source := ui.current.ContainerOrder[0]
	mutateBoard(t, ui, func(b *model.Board) error {
		_, err := board.AddContainer(b, "Doing")
		return err
	})
	dest := ui.current.ContainerOrder[1]

	ui.focusCol = 0
	ui.selected[source] = 0
	if err := ui.moveItemRight(nil, nil); err != nil {
		t.Fatalf("move item right: %v", err)
	}

	if len(ui.current.ContainerItemMapping[source]) != 0 {
		t.Fatalf("expected source column to be empty, got %v", ui.current.ContainerItemMapping[source])
	}
	if got := ui.current.ContainerItemMapping[dest]; len(got) != 1 || got[0] != "item-1" {
		t.Fatalf("expected item-1 in destination column, got %v", got)
	}
	if ui.focusCol != 1 {
		t.Fatalf("expected focus to follow the card, got column %d", ui.focusCol)
	}
}

func TestMoveContainerPersistsOrder(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	ui := newTestUI(t, store, "Sprint")
	mutateBoard(t, ui, func(b *model.Board) error {
		_, err := board.AddContainer(b, "Done")
		return err
	})
	first := ui.current.ContainerOrder[0]
	second := ui.current.ContainerOrder[1]

	ui.focusCol = 0
	if err := ui.moveContainerRight(nil, nil); err != nil {
		t.Fatalf("move container: %v", err)
	}

	if ui.current.ContainerOrder[0] != second || ui.current.ContainerOrder[1] != first {
		t.Fatalf("expected columns swapped, got %v", ui.current.ContainerOrder)
	}
	if ui.focusCol != 1 {
		t.Fatalf("expected focus to follow the column, got %d", ui.focusCol)
	}

	persisted, err := store.GetBoard(context.Background(), ui.current.Slug)
	if err != nil {
		t.Fatalf("get board: %v", err)
	}
	if persisted.ContainerOrder[0] != second {
		t.Fatalf("expected swap to persist, got %v", persisted.ContainerOrder)
	}
}

func TestDeleteLastItemShowsStatus(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	ui := newTestUI(t, store, "Sprint")
	containerID := ui.current.ContainerOrder[0]
	ui.selected[containerID] = 0

	if err := ui.deleteItem(nil, nil); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	if ui.status == "" {
		t.Fatalf("expected a status message for the last card")
	}
	if len(ui.current.Items) != 1 {
		t.Fatalf("expected the last card to survive, got %d items", len(ui.current.Items))
	}
}

func TestSubmitItemFormAddsCard(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	ui := newTestUI(t, store, "Sprint")
	containerID := ui.current.ContainerOrder[0]

	ui.form = newItemForm(containerID, nil)
	ui.form.fields[itemFieldContent].Value = "Write release notes"
	ui.form.fields[itemFieldColor].Value = "teal"

	if err := ui.submitForm(nil, nil); err != nil {
		t.Fatalf("submit form: %v", err)
	}
	if ui.form != nil {
		t.Fatalf("expected form to close on success")
	}

	itemIDs := ui.current.ContainerItemMapping[containerID]
	added := ui.current.Items[itemIDs[len(itemIDs)-1]]
	if added.Content != "Write release notes" {
		t.Fatalf("expected new card content, got %q", added.Content)
	}
	if added.BadgeColor.Name != "teal" {
		t.Fatalf("expected teal badge, got %q", added.BadgeColor.Name)
	}
}

func TestSubmitItemFormRejectsEmptyContent(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	ui := newTestUI(t, store, "Sprint")
	containerID := ui.current.ContainerOrder[0]

	ui.form = newItemForm(containerID, nil)
	if err := ui.submitForm(nil, nil); err != nil {
		t.Fatalf("submit form: %v", err)
	}
	if ui.form == nil {
		t.Fatalf("expected form to stay open on validation failure")
	}
	if ui.status == "" {
		t.Fatalf("expected a status message")
	}
}

func TestSubmitContainerFormChangesPolicy(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	ui := newTestUI(t, store, "Sprint")
	containerID := ui.current.ContainerOrder[0]
	container := ui.current.Containers[containerID]

	ui.form = newContainerForm(&container)
	ui.form.fields[containerFieldOrder].Value = string(model.CompletedAtEnd)

	if err := ui.submitForm(nil, nil); err != nil {
		t.Fatalf("submit form: %v", err)
	}
	if got := ui.current.Containers[containerID].CompletedItemOrder; got != model.CompletedAtEnd {
		t.Fatalf("expected completed-at-end policy, got %q", got)
	}
}

func TestSubmitBoardMetaFormUpdatesTitleAndTags(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	ui := newTestUI(t, store, "Sprint")
	ui.form = newBoardMetaForm(ui.current)
	ui.form.fields[0].Value = "Sprint 2"
	ui.form.fields[1].Value = "work, urgent"

	if err := ui.submitForm(nil, nil); err != nil {
		t.Fatalf("submit form: %v", err)
	}
	if ui.current.Title != "Sprint 2" {
		t.Fatalf("expected renamed board, got %q", ui.current.Title)
	}
	if len(ui.current.Tags) != 2 || ui.current.Tags[0].Text != "work" {
		t.Fatalf("expected two tags, got %v", ui.current.Tags)
	}
}

func TestCycleOptionWraps(t *testing.T) {
	options := []string{"a", "b", "c"}
	if got := cycleOption(options, "c", 1); got != "a" {
		t.Fatalf("expected wrap to a, got %q", got)
	}
	if got := cycleOption(options, "a", -1); got != "c" {
		t.Fatalf("expected wrap back to c, got %q", got)
	}
	if got := cycleOption(options, "missing", 1); got != "b" {
		t.Fatalf("expected unknown value to step from the first option, got %q", got)
	}
}

func TestResetStoreNeedsConfirmation(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	ui := newTestUI(t, store, "Sprint")
	ui.pickerActive = true

	if err := ui.resetStore(nil, nil); err != nil {
		t.Fatalf("first reset press: %v", err)
	}
	if !ui.confirmReset {
		t.Fatalf("expected first press to arm the confirmation")
	}
	boards, err := store.ListBoards(context.Background(), true)
	if err != nil {
		t.Fatalf("list boards: %v", err)
	}
	if len(boards) != 1 {
		t.Fatalf("expected the board to survive the first press, got %d", len(boards))
	}

	if err := ui.resetStore(nil, nil); err != nil {
		t.Fatalf("second reset press: %v", err)
	}
	boards, err = store.ListBoards(context.Background(), true)
	if err != nil {
		t.Fatalf("list boards: %v", err)
	}
	if len(boards) != 0 {
		t.Fatalf("expected all boards gone, got %d", len(boards))
	}
	if ui.current != nil {
		t.Fatalf("expected no current board after reset")
	}
}

func mutateBoard(t *testing.T, ui *UI, fn func(*model.Board) error) {
	t.Helper()
	b, err := ui.store.Mutate(context.Background(), ui.current.Slug, fn)
	if err != nil {
		t.Fatalf("mutate board: %v", err)
	}
	ui.current = b
}

func newTestUI(t *testing.T, store *db.Store, title string) *UI {
	t.Helper()
	b, err := store.CreateBoard(context.Background(), title)
	if err != nil {
		t.Fatalf("create board: %v", err)
	}
	return &UI{
		store:    store,
		engine:   board.NewEngine(store),
		current:  b,
		selected: make(map[string]int),
	}
}

func newTestStore(t *testing.T) (*db.Store, func()) {
	t.Helper()
	dbConn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return db.NewStore(dbConn), func() {
		_ = dbConn.Close()
	}
}
