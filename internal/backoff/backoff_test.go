package backoff

import (
	"testing"
	"time"
)

func TestNextGrowsToCeiling(t *testing.T) {
	b := New(20*time.Millisecond, 250*time.Millisecond, 2)

	want := []time.Duration{
		20 * time.Millisecond,
		40 * time.Millisecond,
		80 * time.Millisecond,
		160 * time.Millisecond,
		250 * time.Millisecond,
		250 * time.Millisecond,
	}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Fatalf("step %d: got %s want %s", i, got, w)
		}
	}
}

func TestNextIsMonotonic(t *testing.T) {
	b := New(3*time.Millisecond, 100*time.Millisecond, 3)
	prev := time.Duration(0)
	for i := 0; i < 20; i++ {
		d := b.Next()
		if d < prev {
			t.Fatalf("delay shrank at step %d: %s < %s", i, d, prev)
		}
		if d > 100*time.Millisecond {
			t.Fatalf("delay exceeded ceiling: %s", d)
		}
		prev = d
	}
}

func TestDegenerateInputsClamped(t *testing.T) {
	b := New(0, -1, 0)
	first := b.Next()
	if first <= 0 {
		t.Fatalf("expected positive delay, got %s", first)
	}
	if second := b.Next(); second != first {
		t.Fatalf("factor 1 should hold steady: %s then %s", first, second)
	}
}
