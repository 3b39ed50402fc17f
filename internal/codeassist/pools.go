package codeassist

import (
	"strings"
	"time"
)

// Pool is a logical quota bucket shared by one or more model variants. Each
// pool has its own rolling window, so one minimal request against the
// representative model warms the whole pool.
type Pool struct {
	ID             string
	Representative string
	match          func(modelID string) bool
}

// Matches reports whether the raw model id belongs to this pool.
func (p Pool) Matches(modelID string) bool {
	return p.match != nil && p.match(modelID)
}

// pools is the canonical pool list. Order matters twice: classification
// evaluates matchers first-match-wins, and results are always reported in
// this order regardless of catalog discovery order.
var pools = []Pool{
	{
		ID:             "claude",
		Representative: "claude-sonnet-4-5",
		match: func(id string) bool {
			return strings.HasPrefix(id, "claude")
		},
	},
	{
		ID:             "gemini-pro",
		Representative: "gemini-3-pro-preview",
		match: func(id string) bool {
			return strings.Contains(id, "gemini") && strings.Contains(id, "-pro")
		},
	},
	{
		ID:             "gemini-flash",
		Representative: "gemini-3-flash-preview",
		match: func(id string) bool {
			return strings.Contains(id, "flash")
		},
	},
}

// Pools returns the canonical pool list in order.
func Pools() []Pool {
	return append([]Pool(nil), pools...)
}

// PoolByID looks up a canonical pool.
func PoolByID(id string) (Pool, bool) {
	for _, p := range pools {
		if p.ID == id {
			return p, true
		}
	}
	return Pool{}, false
}

// excluded drops raw catalog entries that are never chargeable against a
// generation pool, before any matcher runs.
func excluded(modelID string) bool {
	return strings.HasPrefix(modelID, "chat_") ||
		strings.Contains(modelID, "embedding") ||
		strings.Contains(modelID, "imagen")
}

// classify maps a raw model id to its pool. The second return is false for
// excluded and unmatched ids; both are valid non-error outcomes.
func classify(modelID string) (Pool, bool) {
	if excluded(modelID) {
		return Pool{}, false
	}
	for _, p := range pools {
		if p.Matches(modelID) {
			return p, true
		}
	}
	return Pool{}, false
}

// QuotaPool is the classified quota state of one pool.
type QuotaPool struct {
	Pool Pool
	// Remaining is the raw 0..1 fraction used for all decisions; rendering it
	// as a percentage is purely a display transform.
	Remaining    float64
	HasRemaining bool
	// ResetTime is nil when the catalog omits it; unknown reset never blocks
	// triggering.
	ResetTime *time.Time
}
