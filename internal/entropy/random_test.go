package entropy

import "testing"

func TestIntBetween_Bounds(t *testing.T) {
	src := NewSource(7)
	for i := 0; i < 1000; i++ {
		v := src.IntBetween(1, 26)
		if v < 1 || v > 26 {
			t.Fatalf("draw %d out of [1,26]: %d", i, v)
		}
	}
}

func TestIntBetween_SingleValueRange(t *testing.T) {
	src := NewSource(7)
	for i := 0; i < 10; i++ {
		if v := src.IntBetween(5, 5); v != 5 {
			t.Fatalf("expected 5, got %d", v)
		}
	}
}

func TestSource_SameSeedSameStream(t *testing.T) {
	a := NewSource(42)
	b := NewSource(42)
	for i := 0; i < 100; i++ {
		av, bv := a.IntBetween(1, 50), b.IntBetween(1, 50)
		if av != bv {
			t.Fatalf("draw %d diverged: %d vs %d", i, av, bv)
		}
	}
}
