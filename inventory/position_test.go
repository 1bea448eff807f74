package inventory

import "testing"

func TestTrackerUpdate(t *testing.T) {
	tr := NewTracker()
	steps := []struct {
		qty     int64
		flipped bool
		dir     int
	}{
		{qty: 1, flipped: true, dir: 1},   // flat -> long
		{qty: 3, flipped: false, dir: 1},  // add to long
		{qty: -2, flipped: true, dir: -1}, // long -> short
		{qty: -2, flipped: false, dir: -1},
		{qty: 0, flipped: false, dir: -1}, // hold
		{qty: 5, flipped: true, dir: 1},
	}
	for i, s := range steps {
		if got := tr.Update("eth", s.qty); got != s.flipped {
			t.Fatalf("step %d: flipped=%v want %v", i, got, s.flipped)
		}
		if tr.Direction("eth") != s.dir {
			t.Fatalf("step %d: dir=%d want %d", i, tr.Direction("eth"), s.dir)
		}
	}
	if tr.FlipCount("eth") != 3 {
		t.Fatalf("expected 3 flips, got %d", tr.FlipCount("eth"))
	}
}

func TestTrackerFlatToShortCounts(t *testing.T) {
	tr := NewTracker()
	tr.Update("btc", -1)
	if tr.FlipCount("btc") != 1 || tr.Direction("btc") != -1 {
		t.Fatalf("flat -> short should count as a flip")
	}
}

func TestTrackerFlipsSnapshot(t *testing.T) {
	tr := NewTracker()
	tr.Touch("idle")
	tr.Update("eth", 1)
	tr.Touch("eth")

	snap := tr.Flips()
	if len(snap) != 2 || snap["idle"] != 0 || snap["eth"] != 1 {
		t.Fatalf("unexpected snapshot %v", snap)
	}
	snap["eth"] = 99
	if tr.FlipCount("eth") != 1 {
		t.Fatalf("snapshot must be a copy")
	}
}
