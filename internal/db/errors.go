package db

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a mutate or lookup targets a slug absent
	// from the store. Deletes treat absence as a no-op instead.
	ErrNotFound = errors.New("board not found")

	// ErrDuplicateKey is a slug collision on insert.
	ErrDuplicateKey = errors.New("board slug already exists")

	// ErrStorageUnavailable wraps any failure to reach the underlying database.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY constraint failed")
}
