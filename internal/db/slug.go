package db

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"unicode"
)

// Slugify lowercases the title and collapses every non-alphanumeric run into a
// single dash.
func Slugify(title string) string {
	var sb strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			sb.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.Trim(sb.String(), "-")
	if slug == "" {
		slug = "board"
	}
	return slug
}

// randomSuffix produces the 8-hex-char slug suffix. A variable so tests can
// force collisions.
var randomSuffix = func() (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

// newSlug appends a random suffix. Collisions are improbable but the
// primary-key constraint is the real guard; CreateBoard retries once on a
// duplicate with a fresh suffix.
func newSlug(title string) (string, error) {
	suffix, err := randomSuffix()
	if err != nil {
		return "", err
	}
	return Slugify(title) + "-" + suffix, nil
}
