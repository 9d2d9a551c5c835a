// Package perf keeps a small in-memory ring of recent request timings.
// It exists purely for observability: nothing in the authorization or
// audit path ever consults it.
package perf

import (
	"sync"
	"time"
)

// DefaultCapacity is the number of samples kept before eviction.
const DefaultCapacity = 256

// Sample is one recorded request timing.
type Sample struct {
	Route    string        `json:"route"`
	Method   string        `json:"method"`
	Status   int           `json:"status"`
	Duration time.Duration `json:"duration"`
	At       time.Time     `json:"at"`
}

// Ring is a fixed-capacity ring buffer of samples, oldest evicted first.
// Safe for concurrent use.
type Ring struct {
	mu      sync.Mutex
	samples []Sample
	next    int
	full    bool
}

// NewRing creates a ring with the given capacity. A capacity below 1
// falls back to DefaultCapacity.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = DefaultCapacity
	}

	return &Ring{samples: make([]Sample, capacity)}
}

// Record appends a sample, evicting the oldest one when full.
func (r *Ring) Record(s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples[r.next] = s
	r.next++

	if r.next == len(r.samples) {
		r.next = 0
		r.full = true
	}
}

// Snapshot returns the recorded samples in oldest-first order.
func (r *Ring) Snapshot() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]Sample, r.next)
		copy(out, r.samples[:r.next])

		return out
	}

	out := make([]Sample, 0, len(r.samples))
	out = append(out, r.samples[r.next:]...)
	out = append(out, r.samples[:r.next]...)

	return out
}

// Len reports how many samples are currently held.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.full {
		return len(r.samples)
	}

	return r.next
}
