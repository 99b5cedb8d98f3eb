package domain

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// slugEncoding is a lowercase base32 alphabet without padding, chosen so
// slugs are URL-safe and case-insensitive.
var slugEncoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").
	WithPadding(base32.NoPadding)

// slugBytes gives 12 encoded characters, enough entropy that collisions are
// handled by the unique index on quizzes.slug rather than retried here.
const slugBytes = 8

// NewSlug returns a short random identifier used in public quiz URLs and
// generation events. It is not the quiz's primary key.
func NewSlug() string {
	b := make([]byte, slugBytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// fixed marker rather than returning an empty slug.
		return "slug-rand-err"
	}
	return strings.ToLower(slugEncoding.EncodeToString(b))
}
