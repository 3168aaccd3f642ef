package entropy

import "testing"

func TestSameSeedSameSequence(t *testing.T) {
	a := NewSource(42)
	b := NewSource(42)
	for i := 0; i < 100; i++ {
		if x, y := a.Uniform(0, 100), b.Uniform(0, 100); x != y {
			t.Fatalf("draw %d diverged: %v vs %v", i, x, y)
		}
	}
}

func TestForkDeterministic(t *testing.T) {
	a := NewSource(7)
	b := NewSource(7)

	ca := a.Fork()
	cb := b.Fork()
	for i := 0; i < 50; i++ {
		if x, y := ca.UnitRandom(), cb.UnitRandom(); x != y {
			t.Fatalf("forked stream diverged at draw %d", i)
		}
	}

	// The parent advanced by exactly one draw; the next parent values must
	// still agree with a fresh source that skipped one draw.
	ref := NewSource(7)
	ref.Fork()
	if x, y := a.UnitRandom(), ref.UnitRandom(); x != y {
		t.Fatalf("parent stream advanced inconsistently: %v vs %v", x, y)
	}
	_ = cb
	_ = b
}

func TestForkIndependentOfChildConsumption(t *testing.T) {
	a := NewSource(99)
	b := NewSource(99)

	ca := a.Fork()
	for i := 0; i < 1000; i++ {
		ca.UnitRandom() // burn the child stream
	}
	b.Fork() // discard child entirely

	if x, y := a.UnitRandom(), b.UnitRandom(); x != y {
		t.Fatalf("child consumption leaked into parent: %v vs %v", x, y)
	}
}

func TestIntInBounds(t *testing.T) {
	s := NewSource(1)
	for i := 0; i < 1000; i++ {
		v := s.IntIn(3, 10)
		if v < 3 || v > 10 {
			t.Fatalf("IntIn out of range: %d", v)
		}
	}
}

func TestChoiceAndShuffleDeterministic(t *testing.T) {
	seq := []string{"a", "b", "c", "d"}

	s1 := NewSource(5)
	s2 := NewSource(5)
	for i := 0; i < 20; i++ {
		if Choice(s1, seq) != Choice(s2, seq) {
			t.Fatalf("choice diverged at draw %d", i)
		}
	}

	p1 := []int{0, 1, 2, 3, 4, 5}
	p2 := []int{0, 1, 2, 3, 4, 5}
	s1.Shuffle(len(p1), func(i, j int) { p1[i], p1[j] = p1[j], p1[i] })
	s2.Shuffle(len(p2), func(i, j int) { p2[i], p2[j] = p2[j], p2[i] })
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatalf("shuffle diverged: %v vs %v", p1, p2)
		}
	}
}
