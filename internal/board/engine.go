package board

import (
	"context"

	"kanbo/internal/model"
)

// Committer is the slice of the document store the engine needs: a single
// atomic load-transform-write per board. *db.Store satisfies it.
type Committer interface {
	Mutate(ctx context.Context, slug string, fn func(*model.Board) error) (*model.Board, error)
}

// Engine turns drag gestures into committed board mutations.
type Engine struct {
	store Committer
}

func NewEngine(store Committer) *Engine {
	return &Engine{store: store}
}

// Drop applies one gesture as a single atomic mutation. An in-place drop
// short-circuits without touching the store and returns a nil board.
func (e *Engine) Drop(ctx context.Context, slug string, g Gesture) (*model.Board, error) {
	if g.Noop() {
		return nil, nil
	}
	return e.store.Mutate(ctx, slug, func(b *model.Board) error {
		return Apply(b, g)
	})
}
