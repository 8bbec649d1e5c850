package trackdef

import (
	"math"
	"strconv"
)

// solfège name -> semitone offset from C
var solfege = map[string]int{
	"do": 0, "re": 2, "mi": 4, "fa": 5, "sol": 7, "la": 9, "si": 11,
}

var drumNames = map[string]Drum{
	"kick":  DrumKick,
	"snare": DrumSnare,
	"hihat": DrumHiHat,
}

// Table maps symbolic note tokens to frequencies and drum tokens to
// percussion ids. It is built once and shared by reference; lookups on
// unmapped tokens fail soft.
type Table struct {
	sounds map[string]Sound
}

const (
	defaultOctave = 4
	minOctave     = 1
	maxOctave     = 7
)

// DefaultTable builds the standard note vocabulary: plain solfège names at
// octave 4, octave-qualified variants do1..si7, and the percussion names.
func DefaultTable() *Table {
	t := &Table{sounds: make(map[string]Sound)}
	for name, offset := range solfege {
		t.sounds[name] = Sound{Freq: noteFreq(offset, defaultOctave)}
		for oct := minOctave; oct <= maxOctave; oct++ {
			t.sounds[name+strconv.Itoa(oct)] = Sound{Freq: noteFreq(offset, oct)}
		}
	}
	for name, drum := range drumNames {
		t.sounds[name] = Sound{Drum: drum, Percussive: true}
	}
	return t
}

// NewTable builds a table over a caller-supplied vocabulary. The map is used
// as-is; keys should be lowercase to match parser normalization.
func NewTable(sounds map[string]Sound) *Table {
	if sounds == nil {
		sounds = make(map[string]Sound)
	}
	return &Table{sounds: sounds}
}

// Lookup resolves a lowercased token. The second return is false for tokens
// outside the vocabulary.
func (t *Table) Lookup(name string) (Sound, bool) {
	s, ok := t.sounds[name]
	return s, ok
}

// noteFreq converts a semitone offset within an octave to Hz using equal
// temperament (A4 = 440 Hz, MIDI 69).
func noteFreq(offset, octave int) float64 {
	midi := 12*(octave+1) + offset
	return 440 * math.Pow(2, float64(midi-69)/12)
}
