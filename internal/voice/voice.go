// Package voice implements the per-instrument synthesis algorithms. A voice
// is created for one sounding step, renders mono samples frame by frame, and
// reports itself dead once its envelope has decayed.
package voice

import (
	"math"

	"github.com/kallaste/stepbox-go/internal/trackdef"
)

// ampFloor is the target of every exponential ramp. Exponential curves can
// never reach zero, so they aim at a level indistinguishable from silence.
const ampFloor = 1e-4

const (
	kickSeconds  = 0.3
	snareSeconds = 0.1
	hihatSeconds = 0.05

	kickStartHz = 150
	kickEndHz   = 40
	snareLPHz   = 4000
	hihatHPHz   = 7000
)

// Voice renders one time-bounded sound. Render returns the next mono sample
// and false once the voice has fully decayed; dead voices are discarded and
// never reused.
type Voice interface {
	Render() (float64, bool)
}

// Spec carries the per-note parameters shared by all instruments.
type Spec struct {
	SampleRate     int
	Amplitude      float64
	DurationFrames int
	// Seed drives the noise-based voices (guitar, snare, hihat). Seeding
	// per voice keeps offline renders byte-reproducible.
	Seed uint64
}

// New builds the voice for one resolved sound on the given instrument. The
// second return is false for combinations that produce no sound: percussion
// tokens on melodic instruments and pitch tokens on the drum kit.
func New(inst trackdef.Instrument, sound trackdef.Sound, spec Spec) (Voice, bool) {
	if spec.SampleRate <= 0 || spec.Amplitude <= 0 {
		return nil, false
	}
	if inst == trackdef.InstrumentDrums {
		if !sound.Percussive {
			return nil, false
		}
		return newDrum(sound.Drum, spec), true
	}
	if sound.Percussive || sound.Freq <= 0 {
		return nil, false
	}
	switch inst {
	case trackdef.InstrumentSynth:
		return newSine(sound.Freq, spec), true
	case trackdef.InstrumentPiano:
		return newPiano(sound.Freq, spec), true
	case trackdef.InstrumentGuitar:
		return newGuitar(sound.Freq, spec), true
	case trackdef.InstrumentEightBit:
		return newSquare(sound.Freq, spec), true
	case trackdef.InstrumentSixteenBit:
		return newTriangle(sound.Freq, spec), true
	default:
		return nil, false
	}
}

func newDrum(drum trackdef.Drum, spec Spec) Voice {
	switch drum {
	case trackdef.DrumKick:
		return newKick(spec)
	case trackdef.DrumSnare:
		return newSnare(spec)
	default:
		return newHiHat(spec)
	}
}

// decayEnv is a per-frame exponential decay from 1 to ampFloor over a fixed
// frame count.
type decayEnv struct {
	level float64
	k     float64
}

func newDecayEnv(frames int) decayEnv {
	if frames < 1 {
		frames = 1
	}
	return decayEnv{
		level: 1,
		k:     math.Pow(ampFloor, 1/float64(frames)),
	}
}

func (e *decayEnv) next() float64 {
	e.level *= e.k
	return e.level
}

// noiseGen is a deterministic linear congruential white-noise source.
type noiseGen struct {
	state uint64
}

func newNoise(seed uint64) noiseGen {
	return noiseGen{state: seed | 1}
}

func (n *noiseGen) next() float64 {
	n.state = (n.state*1103515245 + 12345) & 0x7fffffff
	return float64(n.state)/float64(0x7fffffff)*2 - 1
}

// sineVoice is the plain synth: sine oscillator, flat gain, instantaneous
// on/off.
type sineVoice struct {
	phase, inc float64
	amp        float64
	frame, end int
}

func newSine(freq float64, spec Spec) *sineVoice {
	return &sineVoice{
		inc: freq / float64(spec.SampleRate),
		amp: spec.Amplitude,
		end: spec.DurationFrames,
	}
}

func (v *sineVoice) Render() (float64, bool) {
	if v.frame >= v.end {
		return 0, false
	}
	v.frame++
	s := math.Sin(2 * math.Pi * v.phase)
	v.phase += v.inc
	if v.phase >= 1 {
		v.phase -= 1
	}
	return s * v.amp, true
}

// pianoVoice: sine with a short linear attack and an exponential decay that
// reaches the silence floor by the end of the note.
type pianoVoice struct {
	phase, inc   float64
	amp          float64
	frame, end   int
	attackFrames int
	env          decayEnv
}

func newPiano(freq float64, spec Spec) *pianoVoice {
	attack := spec.SampleRate / 100 // ~10 ms
	if attack < 1 {
		attack = 1
	}
	decay := spec.DurationFrames - attack
	if decay < 1 {
		decay = 1
	}
	return &pianoVoice{
		inc:          freq / float64(spec.SampleRate),
		amp:          spec.Amplitude,
		end:          spec.DurationFrames,
		attackFrames: attack,
		env:          newDecayEnv(decay),
	}
}

func (v *pianoVoice) Render() (float64, bool) {
	if v.frame >= v.end {
		return 0, false
	}
	var level float64
	if v.frame < v.attackFrames {
		level = float64(v.frame+1) / float64(v.attackFrames)
	} else {
		level = v.env.next()
	}
	v.frame++
	s := math.Sin(2 * math.Pi * v.phase)
	v.phase += v.inc
	if v.phase >= 1 {
		v.phase -= 1
	}
	return s * level * v.amp, true
}

// guitarVoice is a plucked-string approximation: a noise burst circulating in
// a delay loop with an averaging low-pass, resonating at 1/freq.
type guitarVoice struct {
	buf        []float64
	pos        int
	amp        float64
	frame, end int
	env        decayEnv
}

const guitarDamp = 0.996

func newGuitar(freq float64, spec Spec) *guitarVoice {
	n := int(math.Round(float64(spec.SampleRate) / freq))
	if n < 2 {
		n = 2
	}
	noise := newNoise(spec.Seed)
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = noise.next()
	}
	return &guitarVoice{
		buf: buf,
		amp: spec.Amplitude,
		end: spec.DurationFrames,
		env: newDecayEnv(spec.DurationFrames),
	}
}

func (v *guitarVoice) Render() (float64, bool) {
	if v.frame >= v.end {
		return 0, false
	}
	v.frame++
	out := v.buf[v.pos]
	next := (v.pos + 1) % len(v.buf)
	v.buf[v.pos] = (out + v.buf[next]) * 0.5 * guitarDamp
	v.pos = next
	return out * v.env.next() * v.amp, true
}

// squareVoice is the 8-bit timbre: square oscillator with exponential decay.
type squareVoice struct {
	phase, inc float64
	amp        float64
	frame, end int
	env        decayEnv
}

func newSquare(freq float64, spec Spec) *squareVoice {
	return &squareVoice{
		inc: freq / float64(spec.SampleRate),
		amp: spec.Amplitude,
		end: spec.DurationFrames,
		env: newDecayEnv(spec.DurationFrames),
	}
}

func (v *squareVoice) Render() (float64, bool) {
	if v.frame >= v.end {
		return 0, false
	}
	v.frame++
	s := 1.0
	if v.phase >= 0.5 {
		s = -1
	}
	v.phase += v.inc
	if v.phase >= 1 {
		v.phase -= 1
	}
	return s * v.env.next() * v.amp, true
}

// triangleVoice is the 16-bit timbre: triangle oscillator with exponential
// decay.
type triangleVoice struct {
	phase, inc float64
	amp        float64
	frame, end int
	env        decayEnv
}

func newTriangle(freq float64, spec Spec) *triangleVoice {
	return &triangleVoice{
		inc: freq / float64(spec.SampleRate),
		amp: spec.Amplitude,
		end: spec.DurationFrames,
		env: newDecayEnv(spec.DurationFrames),
	}
}

func (v *triangleVoice) Render() (float64, bool) {
	if v.frame >= v.end {
		return 0, false
	}
	v.frame++
	s := 2*math.Abs(2*v.phase-1) - 1
	v.phase += v.inc
	if v.phase >= 1 {
		v.phase -= 1
	}
	return s * v.env.next() * v.amp, true
}

// kickVoice: sine sweeping exponentially downward from kickStartHz while the
// amplitude decays. Duration is fixed, independent of the step length.
type kickVoice struct {
	phase      float64
	freq       float64
	sweep      float64
	sampleRate float64
	amp        float64
	frame, end int
	env        decayEnv
}

func newKick(spec Spec) *kickVoice {
	frames := int(kickSeconds * float64(spec.SampleRate))
	if frames < 1 {
		frames = 1
	}
	return &kickVoice{
		freq:       kickStartHz,
		sweep:      math.Pow(kickEndHz/kickStartHz, 1/float64(frames)),
		sampleRate: float64(spec.SampleRate),
		amp:        spec.Amplitude,
		end:        frames,
		env:        newDecayEnv(frames),
	}
}

func (v *kickVoice) Render() (float64, bool) {
	if v.frame >= v.end {
		return 0, false
	}
	v.frame++
	s := math.Sin(2 * math.Pi * v.phase)
	v.phase += v.freq / v.sampleRate
	if v.phase >= 1 {
		v.phase -= 1
	}
	v.freq *= v.sweep
	return s * v.env.next() * v.amp, true
}

// snareVoice: low-passed white noise with a short decay.
type snareVoice struct {
	noise      noiseGen
	lp         float64
	alpha      float64
	amp        float64
	frame, end int
	env        decayEnv
}

func newSnare(spec Spec) *snareVoice {
	frames := int(snareSeconds * float64(spec.SampleRate))
	if frames < 1 {
		frames = 1
	}
	return &snareVoice{
		noise: newNoise(spec.Seed),
		alpha: onePoleAlpha(snareLPHz, spec.SampleRate),
		amp:   spec.Amplitude,
		end:   frames,
		env:   newDecayEnv(frames),
	}
}

func (v *snareVoice) Render() (float64, bool) {
	if v.frame >= v.end {
		return 0, false
	}
	v.frame++
	v.lp += v.alpha * (v.noise.next() - v.lp)
	return v.lp * v.env.next() * v.amp, true
}

// hihatVoice: high-passed looping white noise with a very short decay.
type hihatVoice struct {
	noise      noiseGen
	lp         float64
	alpha      float64
	amp        float64
	frame, end int
	env        decayEnv
}

func newHiHat(spec Spec) *hihatVoice {
	frames := int(hihatSeconds * float64(spec.SampleRate))
	if frames < 1 {
		frames = 1
	}
	return &hihatVoice{
		noise: newNoise(spec.Seed),
		alpha: onePoleAlpha(hihatHPHz, spec.SampleRate),
		amp:   spec.Amplitude,
		end:   frames,
		env:   newDecayEnv(frames),
	}
}

func (v *hihatVoice) Render() (float64, bool) {
	if v.frame >= v.end {
		return 0, false
	}
	v.frame++
	n := v.noise.next()
	v.lp += v.alpha * (n - v.lp)
	return (n - v.lp) * v.env.next() * v.amp, true
}

func onePoleAlpha(cutoffHz float64, sampleRate int) float64 {
	rc := 1 / (2 * math.Pi * cutoffHz)
	dt := 1 / float64(sampleRate)
	return dt / (rc + dt)
}
