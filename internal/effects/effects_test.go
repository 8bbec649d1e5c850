package effects

import (
	"math"
	"testing"
)

func TestBusEchoAppearsAfterDelayTime(t *testing.T) {
	b := NewBus(44100, 0.1, 1, 0.5, 0.4)
	b.Process(1.0, 1.0)
	for i := 0; i < 4409; i++ {
		b.Process(0, 0)
	}
	l, r := b.Process(0, 0)
	if math.Abs(float64(l)) < 0.01 || math.Abs(float64(r)) < 0.01 {
		t.Errorf("expected an echo after the delay time, got l=%f r=%f", l, r)
	}
}

func TestBusDryPathIsImmediate(t *testing.T) {
	b := NewBus(44100, 0.5, 0.8, 0.3, 0.4)
	l, _ := b.Process(1.0, 1.0)
	if math.Abs(float64(l)-0.8) > 1e-6 {
		t.Errorf("dry sample through master gain = %f, want 0.8", l)
	}
}

func TestBusEchoesDecay(t *testing.T) {
	rate := 8000
	b := NewBus(rate, 0.05, 1, 1, 0.5)
	b.Process(1.0, 1.0)
	period := int(0.05 * float64(rate))
	var prev float64 = 2
	for echo := 0; echo < 4; echo++ {
		var peak float64
		for i := 0; i < period; i++ {
			l, _ := b.Process(0, 0)
			if math.Abs(float64(l)) > peak {
				peak = math.Abs(float64(l))
			}
		}
		if peak >= prev {
			t.Fatalf("echo %d peak %f did not decay below %f", echo, peak, prev)
		}
		prev = peak
	}
}

func TestBusFeedbackClampedBelowUnity(t *testing.T) {
	b := NewBus(44100, 0.01, 1, 1, 2.0)
	if b.feedback >= 1 {
		t.Fatalf("feedback %f must stay below 1", b.feedback)
	}
}

func TestDelaySecondsIsHalfABeat(t *testing.T) {
	if got := DelaySeconds(120); got != 0.25 {
		t.Fatalf("DelaySeconds(120) = %v, want 0.25", got)
	}
	if got := DelaySeconds(60); got != 0.5 {
		t.Fatalf("DelaySeconds(60) = %v, want 0.5", got)
	}
}

func TestBusResetClearsTail(t *testing.T) {
	b := NewBus(8000, 0.05, 1, 1, 0.5)
	b.Process(1.0, 1.0)
	b.Reset()
	for i := 0; i < 1000; i++ {
		l, r := b.Process(0, 0)
		if l != 0 || r != 0 {
			t.Fatalf("expected silence after reset, got l=%f r=%f at frame %d", l, r, i)
		}
	}
}
