package common

import "github.com/oklog/ulid/v2"

// NewULID returns a 26-char lexicographically sortable id.
// Used for server-generated session ids.
func NewULID() string {
	return ulid.Make().String()
}
