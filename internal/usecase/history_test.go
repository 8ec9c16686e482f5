package usecase

import (
	"testing"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/entity"
)

func TestHistoryRingEvictsOldest(t *testing.T) {
	r := newHistoryRing(3)
	for i := int64(1); i <= 5; i++ {
		r.Push(entity.HistoryEntry{Timestamp: i})
	}
	if r.Len() != 3 {
		t.Fatalf("Len = %d, want 3", r.Len())
	}
	snap := r.Snapshot()
	for i, want := range []int64{5, 4, 3} {
		if snap[i].Timestamp != want {
			t.Fatalf("snapshot[%d] = %d, want %d (%v)", i, snap[i].Timestamp, want, snap)
		}
	}
}

func TestHistoryRingFromNewestFirst(t *testing.T) {
	in := []entity.HistoryEntry{{Timestamp: 9}, {Timestamp: 8}, {Timestamp: 7}, {Timestamp: 6}}
	r := newHistoryRingFrom(2, in)
	snap := r.Snapshot()
	if len(snap) != 2 || snap[0].Timestamp != 9 || snap[1].Timestamp != 8 {
		t.Fatalf("snapshot = %v", snap)
	}
	r.Push(entity.HistoryEntry{Timestamp: 10})
	snap = r.Snapshot()
	if snap[0].Timestamp != 10 || snap[1].Timestamp != 9 {
		t.Fatalf("after push = %v", snap)
	}
}

func TestHistoryRingEmptySnapshot(t *testing.T) {
	snap := newHistoryRing(5).Snapshot()
	if snap == nil || len(snap) != 0 {
		t.Fatalf("empty snapshot = %#v", snap)
	}
}
