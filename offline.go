package stepbox

import (
	"fmt"
	"strings"

	intfx "github.com/kallaste/stepbox-go/internal/effects"
	intseq "github.com/kallaste/stepbox-go/internal/sequencer"
	inttd "github.com/kallaste/stepbox-go/internal/trackdef"
	intwav "github.com/kallaste/stepbox-go/internal/wav"
)

// DefaultProjectName names exports when no project identifier is supplied.
const DefaultProjectName = "untitled"

// Render runs one full pass over the grid in batch mode, with no wall-clock
// timer, through the same sequencer, voices, and bus as live playback. The
// result is an interleaved stereo buffer of sequenceLength steps. Renders are
// deterministic: the same definition and tempo produce identical buffers.
// A definition with no recognizable track clauses returns ErrNoTracks rather
// than a silent buffer, matching Player.Start.
func Render(defs string, bpm, sampleRate int, opts ...Option) ([]float32, error) {
	if bpm <= 0 {
		return nil, fmt.Errorf("bpm must be positive, got %d", bpm)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sampleRate must be positive, got %d", sampleRate)
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	tracks, diags := inttd.Parse(defs, cfg.table)
	if cfg.onDiagnostic != nil {
		for _, d := range diags {
			cfg.onDiagnostic(d)
		}
	}
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}
	bus := intfx.NewBus(sampleRate, intfx.DelaySeconds(bpm), cfg.masterGain, cfg.delaySend, cfg.delayFeedback)
	seq := intseq.New(tracks, bpm, sampleRate, bus)
	out := make([]float32, seq.LoopFrames()*2)
	seq.Process(out)
	return out, nil
}

// ExportWAV renders the definition and encodes it as a 16-bit PCM WAV file
// named after the project identifier (or DefaultProjectName when absent).
// Failures are fatal to the export only; they never disturb live playback.
func ExportWAV(defs string, bpm, sampleRate int, project string, opts ...Option) (string, []byte, error) {
	samples, err := Render(defs, bpm, sampleRate, opts...)
	if err != nil {
		return "", nil, fmt.Errorf("render: %w", err)
	}
	name := strings.TrimSpace(project)
	if name == "" {
		name = DefaultProjectName
	}
	return name + ".wav", intwav.Encode(samples, sampleRate, 2), nil
}
