// Package trail records a bounded, chronological position history per body
// for orbit rendering.
package trail

import (
	"fmt"
	"iter"
	"sync"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

// ring is a fixed-capacity FIFO of positions. Entries grow by append until
// the capacity is reached, then the oldest slot is overwritten.
type ring struct {
	data  []dynamo.Vec3
	start int
}

func (r *ring) push(p dynamo.Vec3, capacity int) {
	if len(r.data) < capacity {
		r.data = append(r.data, p)
		return
	}
	r.data[r.start] = p
	r.start = (r.start + 1) % len(r.data)
}

// ordered returns a chronological copy.
func (r *ring) ordered() []dynamo.Vec3 {
	out := make([]dynamo.Vec3, 0, len(r.data))
	out = append(out, r.data[r.start:]...)
	out = append(out, r.data[:r.start]...)
	return out
}

// truncate keeps the newest n entries.
func (r *ring) truncate(n int) {
	if len(r.data) <= n {
		if r.start != 0 {
			r.data, r.start = r.ordered(), 0
		}
		return
	}
	all := r.ordered()
	kept := make([]dynamo.Vec3, n)
	copy(kept, all[len(all)-n:])
	r.data, r.start = kept, 0
}

// History holds one ring per body. Readers always receive copies, so a
// snapshot is never half-written by a concurrent Record.
type History struct {
	mu      sync.RWMutex
	maxLen  int
	buffers map[dynamo.BodyID]*ring
}

func NewHistory(maxLen int) (*History, error) {
	if maxLen < 1 {
		return nil, fmt.Errorf("%w: trail length must be at least 1, got %d", dynamo.ErrInvalidConfig, maxLen)
	}
	return &History{
		maxLen:  maxLen,
		buffers: make(map[dynamo.BodyID]*ring),
	}, nil
}

// Record appends pos to the trail of id, evicting the oldest entry when full.
func (h *History) Record(id dynamo.BodyID, pos dynamo.Vec3) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.buffers[id]
	if !ok {
		r = &ring{}
		h.buffers[id] = r
	}
	r.push(pos, h.maxLen)
}

// SetMaxLength changes the capacity. Shrinking drops the oldest entries of
// every trail immediately.
func (h *History) SetMaxLength(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: trail length must be at least 1, got %d", dynamo.ErrInvalidConfig, n)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.maxLen = n
	for _, r := range h.buffers {
		r.truncate(n)
	}
	return nil
}

func (h *History) MaxLength() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.maxLen
}

func (h *History) Len(id dynamo.BodyID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if r, ok := h.buffers[id]; ok {
		return len(r.data)
	}
	return 0
}

func (h *History) Clear(id dynamo.BodyID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.buffers, id)
}

func (h *History) ClearAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.buffers)
}

// Snapshot returns a chronological copy of the trail of id, oldest first.
func (h *History) Snapshot(id dynamo.BodyID) []dynamo.Vec3 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if r, ok := h.buffers[id]; ok {
		return r.ordered()
	}
	return nil
}

// Trail returns a restartable sequence over the trail of id. Each range
// over the sequence reads a fresh snapshot.
func (h *History) Trail(id dynamo.BodyID) iter.Seq[dynamo.Vec3] {
	return func(yield func(dynamo.Vec3) bool) {
		for _, p := range h.Snapshot(id) {
			if !yield(p) {
				return
			}
		}
	}
}
