package db

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"testing"
	"time"

	"kanbo/internal/board"
	"kanbo/internal/model"
)

func newTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	conn, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return NewStore(conn), func() {
		_ = conn.Close()
	}
}

func TestCreateBoardSlugAndInitialState(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	created, err := store.CreateBoard(context.Background(), "Sprint")
	if err != nil {
		t.Fatalf("create board: %v", err)
	}

	if ok, _ := regexp.MatchString(`^sprint-[0-9a-f]{8}$`, created.Slug); !ok {
		t.Fatalf("unexpected slug %q", created.Slug)
	}
	if len(created.Containers) != 1 || len(created.Items) != 1 {
		t.Fatalf("expected 1 container and 1 item, got %d/%d", len(created.Containers), len(created.Items))
	}

	loaded, err := store.GetBoard(context.Background(), created.Slug)
	if err != nil {
		t.Fatalf("get board: %v", err)
	}
	if err := loaded.Validate(); err != nil {
		t.Fatalf("persisted board invalid: %v", err)
	}
}

func TestCreateBoardRetriesOnSlugCollision(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	suffixes := []string{"deadbeef", "deadbeef", "0badf00d"}
	restore := randomSuffix
	randomSuffix = func() (string, error) {
		next := suffixes[0]
		if len(suffixes) > 1 {
			suffixes = suffixes[1:]
		}
		return next, nil
	}
	defer func() { randomSuffix = restore }()

	first, err := store.CreateBoard(context.Background(), "Sprint")
	if err != nil {
		t.Fatalf("create board: %v", err)
	}
	if first.Slug != "sprint-deadbeef" {
		t.Fatalf("unexpected slug %q", first.Slug)
	}

	// The second create draws the same suffix, collides, and must succeed on
	// the retry with a fresh one.
	second, err := store.CreateBoard(context.Background(), "Sprint")
	if err != nil {
		t.Fatalf("create board after collision: %v", err)
	}
	if second.Slug != "sprint-0badf00d" {
		t.Fatalf("expected regenerated slug, got %q", second.Slug)
	}

	boards, err := store.ListBoards(context.Background(), true)
	if err != nil {
		t.Fatalf("list boards: %v", err)
	}
	if len(boards) != 2 {
		t.Fatalf("expected both boards persisted, got %d", len(boards))
	}

	// When the retry collides too, the duplicate surfaces.
	randomSuffix = func() (string, error) { return "deadbeef", nil }
	if _, err := store.CreateBoard(context.Background(), "Sprint"); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey after exhausted retry, got %v", err)
	}
}

func TestGetBoardMissingIsNotFound(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	if _, err := store.GetBoard(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMutateIsAtomic(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	created, err := store.CreateBoard(context.Background(), "Sprint")
	if err != nil {
		t.Fatalf("create board: %v", err)
	}

	boom := errors.New("boom")
	_, err = store.Mutate(context.Background(), created.Slug, func(b *model.Board) error {
		if _, err := board.AddItem(b, "container-1", "half done", model.DefaultColor); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected transform error to propagate, got %v", err)
	}

	loaded, err := store.GetBoard(context.Background(), created.Slug)
	if err != nil {
		t.Fatalf("get board: %v", err)
	}
	if len(loaded.Items) != 1 {
		t.Fatalf("failed transform leaked a partial write: %d items", len(loaded.Items))
	}
}

func TestMutateRejectsInvariantViolations(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	created, err := store.CreateBoard(context.Background(), "Sprint")
	if err != nil {
		t.Fatalf("create board: %v", err)
	}

	_, err = store.Mutate(context.Background(), created.Slug, func(b *model.Board) error {
		// Orphan the only item: mapping keeps referencing it.
		delete(b.Items, "item-1")
		return nil
	})
	if err == nil {
		t.Fatalf("expected invariant check to reject the transform")
	}

	loaded, err := store.GetBoard(context.Background(), created.Slug)
	if err != nil {
		t.Fatalf("get board: %v", err)
	}
	if len(loaded.Items) != 1 {
		t.Fatalf("rejected transform was committed")
	}
}

func TestMutateMissingBoardIsHardFailure(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	_, err := store.Mutate(context.Background(), "ghost", func(b *model.Board) error { return nil })
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMutateRefreshesUpdatedAt(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	created, err := store.CreateBoard(context.Background(), "Sprint")
	if err != nil {
		t.Fatalf("create board: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	mutated, err := store.Mutate(context.Background(), created.Slug, func(b *model.Board) error {
		_, err := board.AddItem(b, "container-1", "bump", model.DefaultColor)
		return err
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if !mutated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("expected UpdatedAt to move forward: %v -> %v", created.UpdatedAt, mutated.UpdatedAt)
	}
}

func TestListAndRecentBoardsOrderByUpdateTime(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	var slugs []string
	for _, title := range []string{"Alpha", "Beta", "Gamma"} {
		b, err := store.CreateBoard(context.Background(), title)
		if err != nil {
			t.Fatalf("create board: %v", err)
		}
		slugs = append(slugs, b.Slug)
		time.Sleep(5 * time.Millisecond)
	}

	// Touch Alpha so it becomes the most recent.
	if _, err := store.Mutate(context.Background(), slugs[0], func(b *model.Board) error {
		_, err := board.AddItem(b, "container-1", "touch", model.DefaultColor)
		return err
	}); err != nil {
		t.Fatalf("mutate: %v", err)
	}

	recent, err := store.RecentBoards(context.Background(), 2)
	if err != nil {
		t.Fatalf("recent boards: %v", err)
	}
	if len(recent) != 2 || recent[0].Slug != slugs[0] || recent[1].Slug != slugs[2] {
		t.Fatalf("unexpected recency order: %v", boardSlugs(recent))
	}

	all, err := store.ListBoards(context.Background(), true)
	if err != nil {
		t.Fatalf("list boards: %v", err)
	}
	want := []string{slugs[0], slugs[2], slugs[1]}
	if !reflect.DeepEqual(boardSlugs(all), want) {
		t.Fatalf("expected order %v, got %v", want, boardSlugs(all))
	}
}

func TestDeleteBoardIsIdempotent(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	created, err := store.CreateBoard(context.Background(), "Sprint")
	if err != nil {
		t.Fatalf("create board: %v", err)
	}

	if err := store.DeleteBoard(context.Background(), created.Slug); err != nil {
		t.Fatalf("delete board: %v", err)
	}
	if err := store.DeleteBoard(context.Background(), created.Slug); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}

	all, err := store.ListBoards(context.Background(), true)
	if err != nil {
		t.Fatalf("list boards: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty store, got %d boards", len(all))
	}
}

func TestResetAllClearsEveryTable(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	for _, title := range []string{"One", "Two"} {
		if _, err := store.CreateBoard(context.Background(), title); err != nil {
			t.Fatalf("create board: %v", err)
		}
	}
	if err := store.ResetAll(context.Background()); err != nil {
		t.Fatalf("reset all: %v", err)
	}
	all, err := store.ListBoards(context.Background(), true)
	if err != nil {
		t.Fatalf("list boards: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty store after reset, got %d", len(all))
	}
}

func TestTagIndexLookup(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	created, err := store.CreateBoard(context.Background(), "Sprint")
	if err != nil {
		t.Fatalf("create board: %v", err)
	}
	if _, err := store.Mutate(context.Background(), created.Slug, func(b *model.Board) error {
		board.SetTags(b, []model.BoardTag{{Text: "work"}})
		return nil
	}); err != nil {
		t.Fatalf("mutate: %v", err)
	}

	tagged, err := store.ListBoardsByTag(context.Background(), "work")
	if err != nil {
		t.Fatalf("list by tag: %v", err)
	}
	if len(tagged) != 1 || tagged[0].Slug != created.Slug {
		t.Fatalf("expected tag lookup to find %s, got %v", created.Slug, boardSlugs(tagged))
	}
	none, err := store.ListBoardsByTag(context.Background(), "home")
	if err != nil {
		t.Fatalf("list by tag: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no boards for unused tag, got %d", len(none))
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	var got []string
	unsubscribe := store.Subscribe(func(slug string) {
		got = append(got, slug)
	})

	created, err := store.CreateBoard(context.Background(), "Sprint")
	if err != nil {
		t.Fatalf("create board: %v", err)
	}
	if len(got) != 1 || got[0] != created.Slug {
		t.Fatalf("expected notification for %s, got %v", created.Slug, got)
	}

	unsubscribe()
	if _, err := store.Mutate(context.Background(), created.Slug, func(b *model.Board) error {
		_, err := board.AddItem(b, "container-1", "quiet", model.DefaultColor)
		return err
	}); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected no notification after unsubscribe, got %v", got)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	created, err := store.CreateBoard(context.Background(), "Sprint")
	if err != nil {
		t.Fatalf("create board: %v", err)
	}
	snap, err := store.ExportAll(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(snap.Boards) != 1 {
		t.Fatalf("expected 1 board in snapshot, got %d", len(snap.Boards))
	}

	if err := store.ResetAll(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := store.ImportAll(context.Background(), snap, true); err != nil {
		t.Fatalf("import: %v", err)
	}

	restored, err := store.GetBoard(context.Background(), created.Slug)
	if err != nil {
		t.Fatalf("get board after import: %v", err)
	}
	if !reflect.DeepEqual(restored.ContainerItemMapping, created.ContainerItemMapping) {
		t.Fatalf("mapping not restored: %v", restored.ContainerItemMapping)
	}
}

func TestEndToEndBoardLifecycle(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	engine := board.NewEngine(store)

	created, err := store.CreateBoard(context.Background(), "Sprint")
	if err != nil {
		t.Fatalf("create board: %v", err)
	}

	var newItemID string
	mutated, err := store.Mutate(context.Background(), created.Slug, func(b *model.Board) error {
		id, err := board.AddItem(b, "container-1", "Write spec", model.DefaultColor)
		newItemID = id
		return err
	})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if len(mutated.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(mutated.Items))
	}
	seq := mutated.ContainerItemMapping["container-1"]
	if seq[len(seq)-1] != newItemID {
		t.Fatalf("expected new item appended at tail, got %v", seq)
	}

	dragged, err := engine.Drop(context.Background(), created.Slug, board.Gesture{
		Kind:            board.GestureItem,
		FromContainerID: "container-1",
		FromIndex:       1,
		ToContainerID:   "container-1",
		ToIndex:         0,
	})
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	want := []string{newItemID, "item-1"}
	if !reflect.DeepEqual(dragged.ContainerItemMapping["container-1"], want) {
		t.Fatalf("expected %v, got %v", want, dragged.ContainerItemMapping["container-1"])
	}

	if err := store.DeleteBoard(context.Background(), created.Slug); err != nil {
		t.Fatalf("delete board: %v", err)
	}
	all, err := store.ListBoards(context.Background(), true)
	if err != nil {
		t.Fatalf("list boards: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("deleted board still listed")
	}
}

func boardSlugs(boards []model.Board) []string {
	slugs := make([]string, 0, len(boards))
	for _, b := range boards {
		slugs = append(slugs, b.Slug)
	}
	return slugs
}
