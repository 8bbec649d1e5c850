package trackdef

// Instrument identifies which synthesis algorithm a track uses.
type Instrument int

const (
	InstrumentSynth Instrument = iota
	InstrumentPiano
	InstrumentGuitar
	InstrumentEightBit
	InstrumentSixteenBit
	InstrumentDrums
)

func (i Instrument) String() string {
	switch i {
	case InstrumentSynth:
		return "synth"
	case InstrumentPiano:
		return "piano"
	case InstrumentGuitar:
		return "guitar"
	case InstrumentEightBit:
		return "8bit"
	case InstrumentSixteenBit:
		return "16bit"
	case InstrumentDrums:
		return "drums"
	default:
		return "unknown"
	}
}

// Drum identifies one of the fixed percussion generators.
type Drum int

const (
	DrumKick Drum = iota
	DrumSnare
	DrumHiHat
)

// Sound is a resolved note token: either a pitch in Hz or a percussion id.
type Sound struct {
	Freq       float64
	Drum       Drum
	Percussive bool
}

type StepKind int

const (
	StepRest StepKind = iota
	StepNote
	StepChord
	// StepInvalid is an unrecognized token. It plays as a rest but is
	// reported as a diagnostic at parse time.
	StepInvalid
)

// Step is one slot in a track's sequence. Notes and chords carry one or more
// resolved sounds; rests and invalid tokens carry none.
type Step struct {
	Kind   StepKind
	Sounds []Sound
	Raw    string
}

// TrackDefinition is one parsed track clause. Immutable once parsed; the
// player re-parses the source string on every start.
type TrackDefinition struct {
	Volume     float64
	Instrument Instrument
	Steps      []Step
}

// Diagnostic reports a non-fatal parse problem (unknown token, bad volume).
type Diagnostic struct {
	Clause int
	Token  string
	Msg    string
}
