package engine

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"fmcgsim/pkg/domain"
)

// Allocator hands out surrogate identifiers per entity type. It is an explicit
// object rather than package state so tests can run independent instances.
//
// Within one process lifetime no two Next calls for the same entity type
// return the same value. Across restarts the counters reset; collision
// avoidance at the storage layer is the load guard's job (the hashed form
// mixes in a per-process session salt to make cross-run collisions unlikely,
// but the guard's existing-id filter remains the backstop).
type Allocator struct {
	mu       sync.Mutex
	counters map[domain.EntityType]int64
	session  string
	base     int64
}

// NewAllocator constructs an empty allocator with a fresh session salt.
func NewAllocator() *Allocator {
	return &Allocator{
		counters: make(map[domain.EntityType]int64),
		session:  uuid.NewString()[:8],
		base:     time.Now().UnixMilli(),
	}
}

// Next returns the next monotonically increasing counter for the entity type,
// starting at 1.
func (a *Allocator) Next(entity domain.EntityType) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters[entity]++
	return a.counters[entity]
}

// SetFloor raises the counter for the entity type so subsequent Next calls
// start above floor. Used to continue a key sequence from a warehouse maximum.
func (a *Allocator) SetFloor(entity domain.EntityType, floor int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.counters[entity] < floor {
		a.counters[entity] = floor
	}
}

// NextFormatted returns a readable identifier: prefix plus the zero-padded
// per-entity counter, e.g. P00042.
func (a *Allocator) NextFormatted(prefix string, entity domain.EntityType, pad int) string {
	return fmt.Sprintf("%s%0*d", prefix, pad, a.Next(entity))
}

// NextHashed derives a collision-resistant integer key from the session salt,
// the entity type, the timestamp base, and the sequence, bounded to a signed
// 64-bit range. Distinctness within a process still comes from the sequence.
func (a *Allocator) NextHashed(entity domain.EntityType) int64 {
	a.mu.Lock()
	a.counters[entity]++
	seq := a.counters[entity]
	a.mu.Unlock()

	sum := md5.Sum([]byte(fmt.Sprintf("%s%s%d%d", a.session, entity, a.base+seq, seq)))
	digest := hex.EncodeToString(sum[:])
	// 12 hex digits keep the value well inside int64 before the bound below.
	v, err := strconv.ParseUint(digest[:12], 16, 64)
	if err != nil {
		// Unreachable for hex input of this length; fall back to the sequence.
		return seq
	}
	id := int64(v % uint64(math.MaxInt64))
	if id == 0 {
		id = seq
	}
	return id
}

// Counters returns a copy of the live per-entity sequence counters.
func (a *Allocator) Counters() map[domain.EntityType]int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[domain.EntityType]int64, len(a.counters))
	for k, v := range a.counters {
		out[k] = v
	}
	return out
}
