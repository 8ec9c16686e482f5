package usecase

import "github.com/pavel13595/Baranchik-Inventory/internal/domain/entity"

// historyRing is a fixed-capacity circular buffer of history entries.
// Push overwrites the oldest entry once full.
type historyRing struct {
	buf   []entity.HistoryEntry
	start int // index of the oldest entry
	size  int
}

func newHistoryRing(capacity int) *historyRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &historyRing{buf: make([]entity.HistoryEntry, capacity)}
}

// newHistoryRingFrom loads a newest-first slice, keeping the newest entries.
func newHistoryRingFrom(capacity int, newestFirst []entity.HistoryEntry) *historyRing {
	r := newHistoryRing(capacity)
	n := len(newestFirst)
	if n > len(r.buf) {
		n = len(r.buf)
	}
	for i := n - 1; i >= 0; i-- {
		r.Push(newestFirst[i])
	}
	return r
}

func (r *historyRing) Push(e entity.HistoryEntry) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = e
		r.size++
		return
	}
	r.buf[r.start] = e
	r.start = (r.start + 1) % len(r.buf)
}

func (r *historyRing) Len() int { return r.size }

// Snapshot returns a copy ordered newest-first.
func (r *historyRing) Snapshot() []entity.HistoryEntry {
	out := make([]entity.HistoryEntry, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+r.size-1-i)%len(r.buf)]
	}
	return out
}
