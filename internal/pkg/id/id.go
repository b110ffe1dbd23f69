package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New generates a ULID for the current wall-clock time.
func New() string {
	return NewAt(time.Now())
}

// NewAt generates a ULID whose time component is t. Ids minted in the same
// millisecond still sort in creation order.
func NewAt(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
