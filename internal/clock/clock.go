// Package clock provides the time and identity sources used by every write.
//
// Domain operations never call time.Now or uuid.New directly; they receive a
// Clock and an IDGenerator so tests can run with deterministic timestamps and
// identifiers (see internal/testutil).
package clock

import (
	"time"

	"github.com/google/uuid"
)

// Clock returns the current wall time.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces row identifiers.
type IDGenerator interface {
	NewID() string
}

// System is the production clock. Times are always UTC.
type System struct{}

// Now returns the current UTC time.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// UUIDv7 generates time-ordered UUIDv7 identifiers.
// Thread-safe: uuid.NewV7 is safe for concurrent use.
type UUIDv7 struct{}

// NewID returns a new UUIDv7 string.
// Falls back to a random UUIDv4 if the v7 generator fails.
func (UUIDv7) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
