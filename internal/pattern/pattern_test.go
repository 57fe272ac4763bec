package pattern

import "testing"

func TestIncrementWrapsAtTop(t *testing.T) {
	p := Increment{Step: 1}

	if got := p.Next(0); got != 1 {
		t.Fatalf("Next(0) = %d, want 1", got)
	}
	if got := p.Next(65535); got != 0 {
		t.Fatalf("Next(65535) = %d, want 0", got)
	}
}

func TestIncrementDefaultStep(t *testing.T) {
	p := Increment{}
	if got := p.Next(10); got != 11 {
		t.Fatalf("Next(10) = %d, want 11", got)
	}
}

func TestIncrementLargeStepWraps(t *testing.T) {
	p := Increment{Step: 1000}
	if got := p.Next(65000); got != 464 {
		t.Fatalf("Next(65000) = %d, want 464", got)
	}
}

func TestDecrementWrapsAtBottom(t *testing.T) {
	p := Decrement{Step: 1}

	if got := p.Next(1); got != 0 {
		t.Fatalf("Next(1) = %d, want 0", got)
	}
	if got := p.Next(0); got != 65535 {
		t.Fatalf("Next(0) = %d, want 65535", got)
	}
}

func TestDecrementLargeStepWraps(t *testing.T) {
	p := Decrement{Step: 1000}
	if got := p.Next(500); got != 65036 {
		t.Fatalf("Next(500) = %d, want 65036", got)
	}
}

func TestRampSweepsAndRestarts(t *testing.T) {
	p := Ramp{Min: 10, Max: 14, Step: 2}

	if got := p.Next(10); got != 12 {
		t.Fatalf("Next(10) = %d, want 12", got)
	}
	if got := p.Next(12); got != 14 {
		t.Fatalf("Next(12) = %d, want 14", got)
	}
	// At Max the sweep restarts.
	if got := p.Next(14); got != 10 {
		t.Fatalf("Next(14) = %d, want 10", got)
	}
}

func TestRampClampsToMax(t *testing.T) {
	p := Ramp{Min: 0, Max: 5, Step: 3}
	if got := p.Next(4); got != 5 {
		t.Fatalf("Next(4) = %d, want 5", got)
	}
}

func TestRampSnapsOutOfRangeToMin(t *testing.T) {
	p := Ramp{Min: 100, Max: 200, Step: 10}

	if got := p.Next(5); got != 100 {
		t.Fatalf("Next(5) = %d, want 100", got)
	}
	if got := p.Next(999); got != 100 {
		t.Fatalf("Next(999) = %d, want 100", got)
	}
}

func TestRandomStaysInRange(t *testing.T) {
	p := Random{Min: 40, Max: 45}

	for i := 0; i < 200; i++ {
		got := p.Next(0)
		if got < 40 || got > 45 {
			t.Fatalf("Next returned %d, want value in [40, 45]", got)
		}
	}
}

func TestRandomDegenerateRange(t *testing.T) {
	p := Random{Min: 7, Max: 7}
	if got := p.Next(0); got != 7 {
		t.Fatalf("Next = %d, want 7", got)
	}
}
