package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kanbo/internal/model"
)

// Snapshot is the full-store bundle produced for export and accepted on
// import.
type Snapshot struct {
	ExportedAt time.Time     `json:"exportedAt"`
	Boards     []model.Board `json:"boards"`
}

// ExportAll captures every board as one serializable bundle.
func (s *Store) ExportAll(ctx context.Context) (Snapshot, error) {
	boards, err := s.ListBoards(ctx, true)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{ExportedAt: time.Now().UTC(), Boards: boards}, nil
}

// ImportAll restores a snapshot. With replace set the existing store is
// cleared first; otherwise snapshot boards merge in, overwriting same-slug
// documents. The whole import is one transaction.
func (s *Store) ImportAll(ctx context.Context, snap Snapshot, replace bool) error {
	for i := range snap.Boards {
		if err := snap.Boards[i].Validate(); err != nil {
			return fmt.Errorf("refusing import: %w", err)
		}
	}

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if replace {
		for _, table := range []string{"board_tags", "boards"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return err
			}
		}
	}

	for i := range snap.Boards {
		b := &snap.Boards[i]
		data, err := json.Marshal(b)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO boards (slug, title, created_at, updated_at, data) VALUES (?, ?, ?, ?, ?)`,
			b.Slug, b.Title, b.CreatedAt, b.UpdatedAt, data,
		); err != nil {
			return err
		}
		if err := replaceTags(ctx, tx, b); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.notify("")
	return nil
}
