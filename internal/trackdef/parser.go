package trackdef

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	defaultVolume  = 0.5
	chordSeparator = "+"
)

// A clause needs both the volume assignment and the bracketed step list; a
// bare `v=8` (or a stray v= inside prose) is malformed and skipped.
var clauseRe = regexp.MustCompile(`v\s*=\s*([^\s\[,]*)\s*\[\s*([a-z0-9]*)\s*=\s*([^\]]*)\]`)

var instrumentNames = map[string]Instrument{
	"synth":  InstrumentSynth,
	"piano":  InstrumentPiano,
	"guitar": InstrumentGuitar,
	"8bit":   InstrumentEightBit,
	"16bit":  InstrumentSixteenBit,
	"drums":  InstrumentDrums,
}

// Parse turns one configuration string into track definitions. It never
// fails: malformed clauses are skipped, unknown instruments default to synth,
// unrecognized tokens become invalid steps. Problems are reported as
// diagnostics. Track order follows clause order in the input.
func Parse(input string, table *Table) ([]TrackDefinition, []Diagnostic) {
	input = strings.ToLower(input)
	var tracks []TrackDefinition
	var diags []Diagnostic
	for i, m := range clauseRe.FindAllStringSubmatch(input, -1) {
		volume, ok := parseVolume(m[1])
		if !ok {
			diags = append(diags, Diagnostic{Clause: i, Token: m[1], Msg: "malformed volume, using default"})
		}
		instrument, ok := instrumentNames[strings.TrimSpace(m[2])]
		if !ok {
			if name := strings.TrimSpace(m[2]); name != "" {
				diags = append(diags, Diagnostic{Clause: i, Token: name, Msg: "unknown instrument, using synth"})
			}
			instrument = InstrumentSynth
		}
		steps, stepDiags := parseSteps(i, m[3], table)
		diags = append(diags, stepDiags...)
		tracks = append(tracks, TrackDefinition{
			Volume:     volume,
			Instrument: instrument,
			Steps:      steps,
		})
	}
	return tracks, diags
}

func parseVolume(raw string) (float64, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 0 || v > 10 {
		return defaultVolume, false
	}
	return float64(v) / 10, true
}

func parseSteps(clause int, raw string, table *Table) ([]Step, []Diagnostic) {
	tokens := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	steps := make([]Step, 0, len(tokens))
	var diags []Diagnostic
	for _, tok := range tokens {
		if tok == "-" {
			steps = append(steps, Step{Kind: StepRest, Raw: tok})
			continue
		}
		if strings.Contains(tok, chordSeparator) {
			step, chordDiags := parseChord(clause, tok, table)
			steps = append(steps, step)
			diags = append(diags, chordDiags...)
			continue
		}
		sound, ok := table.Lookup(tok)
		if !ok {
			steps = append(steps, Step{Kind: StepInvalid, Raw: tok})
			diags = append(diags, Diagnostic{Clause: clause, Token: tok, Msg: "unrecognized note token"})
			continue
		}
		steps = append(steps, Step{Kind: StepNote, Sounds: []Sound{sound}, Raw: tok})
	}
	return steps, diags
}

func parseChord(clause int, tok string, table *Table) (Step, []Diagnostic) {
	var sounds []Sound
	var diags []Diagnostic
	for _, name := range strings.Split(tok, chordSeparator) {
		if name == "" {
			continue
		}
		sound, ok := table.Lookup(name)
		if !ok {
			diags = append(diags, Diagnostic{Clause: clause, Token: name, Msg: "unrecognized note token in chord"})
			continue
		}
		sounds = append(sounds, sound)
	}
	if len(sounds) == 0 {
		return Step{Kind: StepInvalid, Raw: tok}, diags
	}
	kind := StepChord
	if len(sounds) == 1 {
		kind = StepNote
	}
	return Step{Kind: kind, Sounds: sounds, Raw: tok}, diags
}
