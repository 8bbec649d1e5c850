package voice

import (
	"math"
	"testing"

	"github.com/kallaste/stepbox-go/internal/trackdef"
)

const testRate = 44100

func melodic(freq float64) trackdef.Sound { return trackdef.Sound{Freq: freq} }

func drum(d trackdef.Drum) trackdef.Sound { return trackdef.Sound{Drum: d, Percussive: true} }

func drain(t *testing.T, v Voice, limit int) int {
	t.Helper()
	for i := 0; i < limit; i++ {
		if _, alive := v.Render(); !alive {
			return i
		}
	}
	t.Fatalf("voice still alive after %d frames", limit)
	return 0
}

func TestMelodicVoicesRespectDuration(t *testing.T) {
	spec := Spec{SampleRate: testRate, Amplitude: 0.8, DurationFrames: 2000, Seed: 7}
	for _, inst := range []trackdef.Instrument{
		trackdef.InstrumentSynth,
		trackdef.InstrumentPiano,
		trackdef.InstrumentGuitar,
		trackdef.InstrumentEightBit,
		trackdef.InstrumentSixteenBit,
	} {
		v, ok := New(inst, melodic(440), spec)
		if !ok {
			t.Fatalf("%v: expected a voice", inst)
		}
		if got := drain(t, v, 3000); got != spec.DurationFrames {
			t.Fatalf("%v: died after %d frames, want %d", inst, got, spec.DurationFrames)
		}
	}
}

func TestDrumDurationsIgnoreCallerDuration(t *testing.T) {
	cases := []struct {
		drum    trackdef.Drum
		seconds float64
	}{
		{trackdef.DrumKick, kickSeconds},
		{trackdef.DrumSnare, snareSeconds},
		{trackdef.DrumHiHat, hihatSeconds},
	}
	for _, tc := range cases {
		spec := Spec{SampleRate: testRate, Amplitude: 1, DurationFrames: 10, Seed: 3}
		v, ok := New(trackdef.InstrumentDrums, drum(tc.drum), spec)
		if !ok {
			t.Fatalf("drum %v: expected a voice", tc.drum)
		}
		want := int(tc.seconds * testRate)
		if got := drain(t, v, want*2); got != want {
			t.Fatalf("drum %v: died after %d frames, want %d", tc.drum, got, want)
		}
	}
}

func TestDecayReachesSilenceFloor(t *testing.T) {
	spec := Spec{SampleRate: testRate, Amplitude: 1, DurationFrames: 4000, Seed: 11}
	v, _ := New(trackdef.InstrumentPiano, melodic(440), spec)
	var last float64
	for {
		s, alive := v.Render()
		if !alive {
			break
		}
		last = s
	}
	if math.Abs(last) > 0.01 {
		t.Fatalf("final sample %v, want near silence", last)
	}
}

func TestDecayEnvNeverTargetsZero(t *testing.T) {
	env := newDecayEnv(100)
	for i := 0; i < 100; i++ {
		if env.next() <= 0 {
			t.Fatalf("envelope hit zero at frame %d", i)
		}
	}
}

func TestSeededVoicesAreDeterministic(t *testing.T) {
	spec := Spec{SampleRate: testRate, Amplitude: 1, DurationFrames: 500, Seed: 42}
	for _, inst := range []trackdef.Instrument{trackdef.InstrumentGuitar} {
		a, _ := New(inst, melodic(220), spec)
		b, _ := New(inst, melodic(220), spec)
		for i := 0; i < 500; i++ {
			sa, oka := a.Render()
			sb, okb := b.Render()
			if sa != sb || oka != okb {
				t.Fatalf("%v: diverged at frame %d", inst, i)
			}
		}
	}
	a, _ := New(trackdef.InstrumentDrums, drum(trackdef.DrumSnare), spec)
	b, _ := New(trackdef.InstrumentDrums, drum(trackdef.DrumSnare), spec)
	for i := 0; i < 500; i++ {
		sa, _ := a.Render()
		sb, _ := b.Render()
		if sa != sb {
			t.Fatalf("snare diverged at frame %d", i)
		}
	}
}

func TestMismatchedSoundsProduceNoVoice(t *testing.T) {
	spec := Spec{SampleRate: testRate, Amplitude: 1, DurationFrames: 100}
	if _, ok := New(trackdef.InstrumentSynth, drum(trackdef.DrumKick), spec); ok {
		t.Fatal("percussion token on a melodic instrument should be silent")
	}
	if _, ok := New(trackdef.InstrumentDrums, melodic(440), spec); ok {
		t.Fatal("pitch token on the drum kit should be silent")
	}
	if _, ok := New(trackdef.InstrumentSynth, melodic(440), Spec{SampleRate: testRate, DurationFrames: 100}); ok {
		t.Fatal("zero amplitude should be silent")
	}
}

func TestSineVoiceFlatGain(t *testing.T) {
	spec := Spec{SampleRate: testRate, Amplitude: 0.5, DurationFrames: testRate / 10}
	v, _ := New(trackdef.InstrumentSynth, melodic(440), spec)
	var peak float64
	for {
		s, alive := v.Render()
		if !alive {
			break
		}
		if math.Abs(s) > peak {
			peak = math.Abs(s)
		}
	}
	if math.Abs(peak-0.5) > 0.01 {
		t.Fatalf("peak %v, want ~0.5 (flat gain)", peak)
	}
}
