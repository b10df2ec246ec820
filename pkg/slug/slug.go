// Package slug turns human-written hashtags and search terms into keys that
// are safe to use as file names and checkpoint map keys.
package slug

import (
	"errors"
	"regexp"
	"strings"
)

// Fallback is the key used when a term normalizes to nothing.
const Fallback = "term"

// ErrEmptyKey is returned by Tag when no usable characters remain.
var ErrEmptyKey = errors.New("slug: term has no usable characters")

var (
	whitespace = regexp.MustCompile(`\s+`)
	unsafe     = regexp.MustCompile(`[^a-z0-9_]+`)
)

// Key lowercases term, collapses whitespace runs to "_" and drops every
// character outside [a-z0-9_]. Distinct terms may share a key; they are then
// the same category.
//
//	Key("#Free Gaza!") == Key("free gaza") == "free_gaza"
func Key(term string) string {
	k := strings.ToLower(strings.TrimSpace(term))
	k = strings.ReplaceAll(k, `"`, "")
	k = whitespace.ReplaceAllString(k, "_")
	k = unsafe.ReplaceAllString(k, "")
	if k == "" {
		return Fallback
	}
	return k
}

// Tag returns the hashtag name as used in TikTok tag URLs: the leading '#'
// and anything that is not an ASCII letter or digit removed, case kept.
func Tag(raw string) (string, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "#"))
	var b strings.Builder
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyKey
	}
	return b.String(), nil
}
