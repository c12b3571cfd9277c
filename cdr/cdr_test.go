package cdr

import "testing"

func TestLog2Monotonic(t *testing.T) {
	var prev uint16
	for x := 1; x <= 0xffff; x++ {
		v := log2(uint16(x))
		if v < prev {
			t.Fatalf("log2(%d) = %d, not monotonic after %d", x, v, prev)
		}
		prev = v
	}
}

func TestLog2Zero(t *testing.T) {
	if got := log2(0); got != 0 {
		t.Fatalf("log2(0) = %d, want 0", got)
	}
}

func TestMedian3(t *testing.T) {
	cases := []struct{ a, b, c, want uint16 }{
		{1, 2, 3, 2},
		{3, 2, 1, 2},
		{2, 2, 2, 2},
		{5, 1, 3, 3},
		{0, 0, 1, 0},
	}
	for _, c := range cases {
		if got := median3(c.a, c.b, c.c); got != c.want {
			t.Errorf("median3(%d,%d,%d) = %d, want %d", c.a, c.b, c.c, got, c.want)
		}
	}
}

func TestSignalDetectNeedsSustainedAmplitude(t *testing.T) {
	c := New()
	for i := 0; i < lockTicks+AvePeriod*2; i++ {
		s := uint16(1000)
		if i%SamplesPerBit < SamplesPerBit/2 {
			s = 3000
		}
		out := c.Update(s)
		if i < lockTicks && out.SignalDetected {
			t.Fatalf("tick %d: signal detected too early", i)
		}
	}
	if !c.SignalDetected() {
		t.Fatal("signal not detected after sustained toggling input")
	}
}

func TestSignalDropsWithoutAmplitude(t *testing.T) {
	c := New()
	for i := 0; i < lockTicks+AvePeriod*2; i++ {
		s := uint16(1000)
		if i%SamplesPerBit < SamplesPerBit/2 {
			s = 3000
		}
		c.Update(s)
	}
	if !c.SignalDetected() {
		t.Fatal("precondition failed: signal should be detected")
	}
	for i := 0; i < AvePeriod*2; i++ {
		c.Update(1000)
	}
	if c.SignalDetected() {
		t.Fatal("signal still detected after amplitude collapsed to a flat level")
	}
}
