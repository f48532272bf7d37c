package core

import (
	"strconv"
	"testing"

	"github.com/koyo/danmu/internal/domain"
)

func TestBacklogKeepsOrderBelowCap(t *testing.T) {
	b := newBacklog(10)
	for i := 0; i < 5; i++ {
		b.push(domain.Message{ID: strconv.Itoa(i)})
	}
	snap := b.snapshot()
	if len(snap) != 5 {
		t.Fatalf("len = %d, want 5", len(snap))
	}
	for i, m := range snap {
		if m.ID != strconv.Itoa(i) {
			t.Errorf("snap[%d].ID = %s, want %d", i, m.ID, i)
		}
	}
}

func TestBacklogEvictsOldestAtCap(t *testing.T) {
	b := newBacklog(3)
	for i := 0; i < 7; i++ {
		b.push(domain.Message{ID: strconv.Itoa(i)})
	}
	snap := b.snapshot()
	if len(snap) != 3 {
		t.Fatalf("len = %d, want 3", len(snap))
	}
	want := []string{"4", "5", "6"}
	for i, m := range snap {
		if m.ID != want[i] {
			t.Errorf("snap[%d].ID = %s, want %s", i, m.ID, want[i])
		}
	}
}

func TestBacklogSnapshotIsACopy(t *testing.T) {
	b := newBacklog(4)
	b.push(domain.Message{ID: "a"})
	snap := b.snapshot()
	b.push(domain.Message{ID: "b"})
	if len(snap) != 1 || snap[0].ID != "a" {
		t.Errorf("snapshot mutated by later push: %v", snap)
	}
}
