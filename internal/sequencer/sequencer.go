// Package sequencer advances the step grid and turns step tokens into voices.
// It is sample-driven: the audio backend (or the offline renderer) pulls
// frames through Process, and steps fire on exact frame boundaries. Live and
// offline playback therefore share one resolution path, ticks are strictly
// serialized, and onset times are monotonically non-decreasing.
package sequencer

import (
	"sync/atomic"
	"time"

	"github.com/kallaste/stepbox-go/internal/effects"
	"github.com/kallaste/stepbox-go/internal/trackdef"
	"github.com/kallaste/stepbox-go/internal/voice"
)

// MinSequenceLength is the grid minimum: short definitions still loop over a
// full 16-step bar.
const MinSequenceLength = 16

// noteGate is the sounding fraction of a step; the remaining 10% keeps
// consecutive notes from smearing together.
const noteGate = 0.9

// StepDuration is the sixteenth-note tick period for a tempo: 60000/bpm/4 ms.
func StepDuration(bpm int) time.Duration {
	if bpm <= 0 {
		return 0
	}
	return time.Minute / time.Duration(bpm) / 4
}

// SequenceLength is the loop length in steps: the longest track, floored at
// the grid minimum.
func SequenceLength(tracks []trackdef.TrackDefinition) int {
	n := MinSequenceLength
	for _, tr := range tracks {
		if len(tr.Steps) > n {
			n = len(tr.Steps)
		}
	}
	return n
}

// Sequencer owns one playback session's timeline. It is not safe for
// concurrent use; the audio backend serializes Process calls.
type Sequencer struct {
	tracks        []trackdef.TrackDefinition
	bus           effects.Effector
	sampleRate    int
	framesPerStep int
	noteFrames    int
	frameInStep   int
	stepIndex     int
	seqLen        int
	voices        []voice.Voice
	halted        atomic.Bool
	drained       atomic.Bool
}

func New(tracks []trackdef.TrackDefinition, bpm, sampleRate int, bus effects.Effector) *Sequencer {
	framesPerStep := int(StepDuration(bpm).Seconds() * float64(sampleRate))
	if framesPerStep < 1 {
		framesPerStep = 1
	}
	return &Sequencer{
		tracks:        tracks,
		bus:           bus,
		sampleRate:    sampleRate,
		framesPerStep: framesPerStep,
		noteFrames:    int(noteGate * float64(framesPerStep)),
		seqLen:        SequenceLength(tracks),
	}
}

func (s *Sequencer) StepIndex() int { return s.stepIndex }

func (s *Sequencer) SequenceLen() int { return s.seqLen }

func (s *Sequencer) FramesPerStep() int { return s.framesPerStep }

// LoopFrames is the frame count of one full pass over the grid.
func (s *Sequencer) LoopFrames() int { return s.seqLen * s.framesPerStep }

// Process renders interleaved stereo frames into dst, firing steps as their
// frame boundaries are crossed and summing all live voices through the bus.
func (s *Sequencer) Process(dst []float32) {
	halted := s.halted.Load()
	for i := 0; i+1 < len(dst); i += 2 {
		if s.frameInStep == 0 && !halted {
			s.fireStep()
		}
		var sum float64
		alive := s.voices[:0]
		for _, v := range s.voices {
			sample, ok := v.Render()
			if !ok {
				continue
			}
			sum += sample
			alive = append(alive, v)
		}
		s.voices = alive
		l, r := s.bus.Process(float32(sum), float32(sum))
		dst[i] = l
		dst[i+1] = r
		s.frameInStep++
		if s.frameInStep >= s.framesPerStep {
			s.frameInStep = 0
			s.stepIndex = (s.stepIndex + 1) % s.seqLen
		}
	}
	if halted && len(s.voices) == 0 {
		s.drained.Store(true)
	}
}

// Halt stops future steps from firing. Voices already instantiated keep
// rendering to completion: silencing an in-flight note would itself produce
// an audible click. Safe to call from any goroutine.
func (s *Sequencer) Halt() {
	s.halted.Store(true)
}

// Done reports whether a halted sequencer has rendered out its last voice.
// It satisfies the output stream's end-of-playback check, so a stopping
// session drains naturally instead of being cut mid-decay.
func (s *Sequencer) Done() bool {
	return s.drained.Load()
}

// fireStep resolves each track's token at the current step and instantiates
// one voice per resolved note. Tracks shorter than the sequence length wrap
// modulo their own step count rather than padding with silence.
func (s *Sequencer) fireStep() {
	for ti, tr := range s.tracks {
		if len(tr.Steps) == 0 {
			continue
		}
		step := tr.Steps[s.stepIndex%len(tr.Steps)]
		if step.Kind == trackdef.StepRest || step.Kind == trackdef.StepInvalid {
			continue
		}
		for ni, sound := range step.Sounds {
			v, ok := voice.New(tr.Instrument, sound, voice.Spec{
				SampleRate:     s.sampleRate,
				Amplitude:      tr.Volume,
				DurationFrames: s.noteFrames,
				Seed:           voiceSeed(ti, s.stepIndex, ni),
			})
			if !ok {
				continue
			}
			s.voices = append(s.voices, v)
		}
	}
}

// voiceSeed derives a deterministic noise seed from the voice's position in
// the grid, so repeated renders of the same definition are bit-identical.
func voiceSeed(track, step, note int) uint64 {
	return uint64(track+1)*0x9E3779B97F4A7C15 + uint64(step)*40503 + uint64(note) + 1
}

// ActiveVoices reports how many voices are still sounding.
func (s *Sequencer) ActiveVoices() int { return len(s.voices) }
