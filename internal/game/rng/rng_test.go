package rng

import "testing"

func seedOf(b byte) [32]byte {
	var s [32]byte
	s[0] = b
	return s
}

func TestSameSeedSameSequence(t *testing.T) {
	a := New(seedOf(7))
	b := New(seedOf(7))
	for i := 0; i < 10000; i++ {
		x := a.Intn(1 + i%997)
		y := b.Intn(1 + i%997)
		if x != y {
			t.Fatalf("sequence diverged at draw %d: %d vs %d", i, x, y)
		}
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := New(seedOf(1))
	b := New(seedOf(2))
	same := 0
	for i := 0; i < 1000; i++ {
		if a.Intn(1000) == b.Intn(1000) {
			same++
		}
	}
	if same > 100 {
		t.Fatalf("seeds 1 and 2 produced %d/1000 equal draws", same)
	}
}

func TestBounds(t *testing.T) {
	g := New(seedOf(3))
	for i := 0; i < 100000; i++ {
		n := 1 + i%53
		v := g.Intn(n)
		if v < 0 || v >= n {
			t.Fatalf("Intn(%d) = %d out of range", n, v)
		}
	}
	for i := 0; i < 10000; i++ {
		v := g.IntRange(5, 9)
		if v < 5 || v > 9 {
			t.Fatalf("IntRange(5,9) = %d out of range", v)
		}
	}
}

func TestRoughUniformity(t *testing.T) {
	g := New(seedOf(4))
	var buckets [8]int
	const draws = 80000
	for i := 0; i < draws; i++ {
		buckets[g.Intn(8)]++
	}
	for i, c := range buckets {
		if c < draws/8-draws/80 || c > draws/8+draws/80 {
			t.Fatalf("bucket %d has %d draws, expected ~%d", i, c, draws/8)
		}
	}
}
