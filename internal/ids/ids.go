// Package ids mints time-ordered identifiers for turns and message parts.
package ids

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator produces ULIDs whose string form sorts in the order they were
// minted. It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
	lastMS  uint64
}

// New returns a Generator backed by the wall clock.
func New() *Generator {
	return newWithClock(time.Now)
}

func newWithClock(now func() time.Time) *Generator {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Generator{
		entropy: ulid.Monotonic(src, 0),
		now:     now,
	}
}

// Next returns the next identifier. Within one Generator every value is
// strictly greater than the one before it, even when several are minted in
// the same millisecond or the clock steps backwards.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := ulid.Timestamp(g.now())
	if ms < g.lastMS {
		ms = g.lastMS
	}

	id, err := ulid.New(ms, g.entropy)
	if err != nil {
		// Monotonic entropy exhausted for this millisecond.
		ms++
		id = ulid.MustNew(ms, g.entropy)
	}
	g.lastMS = ms
	return id.String()
}

// Valid reports whether s is a well-formed ULID.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}

// Time returns the millisecond timestamp embedded in id.
func Time(id string) (time.Time, error) {
	u, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
