package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"kanbo/internal/board"
	"kanbo/internal/model"
)

// Store is the board document store: one denormalized JSON document per board,
// keyed by slug, with indexed lookups by tag and update time.
type Store struct {
	DB *sqlx.DB

	mu      sync.Mutex
	subs    map[int]func(slug string)
	nextSub int
}

type boardRow struct {
	Slug      string    `db:"slug"`
	Title     string    `db:"title"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	Data      []byte    `db:"data"`
}

func NewStore(conn *sqlx.DB) *Store {
	return &Store{DB: conn, subs: make(map[int]func(string))}
}

// Subscribe registers a callback invoked with the affected slug after every
// committed write ("" for store-wide operations). The returned func removes
// the subscription; callers must run it on disposal.
func (s *Store) Subscribe(fn func(slug string)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(slug string) {
	s.mu.Lock()
	fns := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(slug)
	}
}

// CreateBoard builds the initial one-container/one-item document and inserts
// it under a fresh slug. A slug collision is retried once with a new random
// suffix before surfacing ErrDuplicateKey.
func (s *Store) CreateBoard(ctx context.Context, title string) (*model.Board, error) {
	for attempt := 0; attempt < 2; attempt++ {
		slug, err := newSlug(title)
		if err != nil {
			return nil, err
		}
		b := board.New(title, slug)
		if err := s.insertBoard(ctx, b); err != nil {
			if errors.Is(err, ErrDuplicateKey) {
				logrus.WithField("slug", slug).Warn("slug collision, regenerating suffix")
				continue
			}
			return nil, err
		}
		s.notify(slug)
		return b, nil
	}
	return nil, ErrDuplicateKey
}

func (s *Store) insertBoard(ctx context.Context, b *model.Board) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO boards (slug, title, created_at, updated_at, data) VALUES (?, ?, ?, ?, ?)`,
		b.Slug, b.Title, b.CreatedAt, b.UpdatedAt, data,
	); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, b.Slug)
		}
		return err
	}
	if err := replaceTags(ctx, tx, b); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetBoard(ctx context.Context, slug string) (*model.Board, error) {
	var row boardRow
	err := s.DB.GetContext(ctx, &row, `SELECT slug, title, created_at, updated_at, data FROM boards WHERE slug = ?`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	if err != nil {
		return nil, err
	}
	return decodeBoard(row)
}

// ListBoards returns every board ordered by update time, most recent first
// when reverseChronological is set.
func (s *Store) ListBoards(ctx context.Context, reverseChronological bool) ([]model.Board, error) {
	order := "ASC"
	if reverseChronological {
		order = "DESC"
	}
	var rows []boardRow
	if err := s.DB.SelectContext(ctx, &rows, `SELECT slug, title, created_at, updated_at, data FROM boards ORDER BY updated_at `+order); err != nil {
		return nil, err
	}
	return decodeBoards(rows)
}

// RecentBoards returns the n most recently updated boards.
func (s *Store) RecentBoards(ctx context.Context, n int) ([]model.Board, error) {
	var rows []boardRow
	if err := s.DB.SelectContext(ctx, &rows, `SELECT slug, title, created_at, updated_at, data FROM boards ORDER BY updated_at DESC LIMIT ?`, n); err != nil {
		return nil, err
	}
	return decodeBoards(rows)
}

// ListBoardsByTag looks boards up through the denormalized tag index.
func (s *Store) ListBoardsByTag(ctx context.Context, tag string) ([]model.Board, error) {
	var rows []boardRow
	if err := s.DB.SelectContext(ctx, &rows,
		`SELECT b.slug, b.title, b.created_at, b.updated_at, b.data
		 FROM boards b JOIN board_tags t ON t.slug = b.slug
		 WHERE t.tag = ? ORDER BY b.updated_at DESC`, tag); err != nil {
		return nil, err
	}
	return decodeBoards(rows)
}

// DeleteBoard removes the document and its tag index rows. Deleting an absent
// slug is a silent no-op.
func (s *Store) DeleteBoard(ctx context.Context, slug string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM boards WHERE slug = ?`, slug)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected > 0 {
		s.notify(slug)
	}
	return nil
}

// ResetAll clears every table. Only the explicit user-triggered reset flow
// calls this.
func (s *Store) ResetAll(ctx context.Context) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"board_tags", "boards"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.notify("")
	return nil
}

// Mutate loads the board, applies fn, and writes the result back inside one
// transaction. Readers never observe a partially applied transform: if fn or
// the invariant check fails, the transaction rolls back and the document is
// untouched. UpdatedAt is refreshed on every successful commit.
func (s *Store) Mutate(ctx context.Context, slug string, fn func(*model.Board) error) (*model.Board, error) {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var row boardRow
	err = tx.GetContext(ctx, &row, `SELECT slug, title, created_at, updated_at, data FROM boards WHERE slug = ?`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	if err != nil {
		return nil, err
	}

	b, err := decodeBoard(row)
	if err != nil {
		return nil, err
	}
	if err := fn(b); err != nil {
		return nil, err
	}
	b.Slug = slug
	b.UpdatedAt = time.Now().UTC()
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("rejecting mutation: %w", err)
	}

	data, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE boards SET title = ?, updated_at = ?, data = ? WHERE slug = ?`,
		b.Title, b.UpdatedAt, data, slug,
	); err != nil {
		return nil, err
	}
	if err := replaceTags(ctx, tx, b); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.notify(slug)
	return b, nil
}

func replaceTags(ctx context.Context, tx *sqlx.Tx, b *model.Board) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM board_tags WHERE slug = ?`, b.Slug); err != nil {
		return err
	}
	for _, tag := range b.Tags {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO board_tags (slug, tag) VALUES (?, ?)`, b.Slug, tag.Text); err != nil {
			return err
		}
	}
	return nil
}

func decodeBoard(row boardRow) (*model.Board, error) {
	var b model.Board
	if err := json.Unmarshal(row.Data, &b); err != nil {
		return nil, fmt.Errorf("decode board %s: %w", row.Slug, err)
	}
	return &b, nil
}

func decodeBoards(rows []boardRow) ([]model.Board, error) {
	boards := make([]model.Board, 0, len(rows))
	for _, row := range rows {
		b, err := decodeBoard(row)
		if err != nil {
			return nil, err
		}
		boards = append(boards, *b)
	}
	return boards, nil
}
