package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a ULID string. ULIDs sort by creation time, which makes them
// usable both as DynamoDB keys and as freshness tokens.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// WithPrefix returns prefix followed by a new ULID.
func WithPrefix(prefix string) string {
	return prefix + New()
}
