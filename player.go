// Package stepbox is a step-sequencer music engine. It parses a compact
// textual track description into a 16th-note grid, synthesizes one voice per
// sounding step, mixes everything through a shared delay bus, and plays the
// result live or renders it offline to WAV bytes.
package stepbox

import (
	"errors"
	"fmt"
	"sync"
	"time"

	intaudio "github.com/kallaste/stepbox-go/internal/audio"
	intfx "github.com/kallaste/stepbox-go/internal/effects"
	intseq "github.com/kallaste/stepbox-go/internal/sequencer"
	inttd "github.com/kallaste/stepbox-go/internal/trackdef"
)

// ErrNoTracks is returned by Start when the definition string contains no
// recognizable track clauses; nothing is played.
var ErrNoTracks = errors.New("no playable tracks in definition")

type Option func(*config)

type config struct {
	masterGain    float32
	delaySend     float32
	delayFeedback float32
	table         *inttd.Table
	onDiagnostic  func(inttd.Diagnostic)
}

func defaultConfig() config {
	return config{
		masterGain:    0.8,
		delaySend:     0.3,
		delayFeedback: 0.4,
		table:         inttd.DefaultTable(),
	}
}

// WithMasterGain sets the bus output gain.
func WithMasterGain(gain float32) Option {
	return func(cfg *config) {
		if gain < 0 {
			gain = 0
		}
		cfg.masterGain = gain
	}
}

// WithDelaySend sets the proportion of the voice sum fed into the delay line.
func WithDelaySend(send float32) Option {
	return func(cfg *config) {
		cfg.delaySend = send
	}
}

// WithDelayFeedback sets the delay self-feedback (clamped below 1).
func WithDelayFeedback(feedback float32) Option {
	return func(cfg *config) {
		cfg.delayFeedback = feedback
	}
}

// WithNoteTable substitutes the note lookup table, mainly for tests.
func WithNoteTable(table *inttd.Table) Option {
	return func(cfg *config) {
		if table != nil {
			cfg.table = table
		}
	}
}

// WithDiagnostics installs a callback for non-fatal parse problems (unknown
// tokens, malformed volumes). Diagnostics are reported once per parse, which
// happens on every Start and Render.
func WithDiagnostics(fn func(inttd.Diagnostic)) Option {
	return func(cfg *config) {
		cfg.onDiagnostic = fn
	}
}

// Player drives live playback. One session is active at a time: Start
// replaces any running session wholesale, Stop tears it down and resets the
// step position.
type Player struct {
	mu         sync.Mutex
	sampleRate int
	cfg        config
	out        *intaudio.Output
	seq        *intseq.Sequencer
}

func NewPlayer(sampleRate int, opts ...Option) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Player{sampleRate: sampleRate, cfg: cfg}, nil
}

// Compile parses a track definition string without playing it. Options that
// affect parsing (WithNoteTable, WithDiagnostics) are honored; audio options
// are accepted and ignored.
func Compile(defs string, opts ...Option) ([]inttd.TrackDefinition, []inttd.Diagnostic) {
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
	return tracks, diags
}

// Start parses the definition string fresh and begins looping playback at the
// given tempo. A running session is stopped first, so Start doubles as
// restart. Starting the stream activates the output device if the platform
// had it suspended.
func (p *Player) Start(defs string, bpm int) error {
	if bpm <= 0 {
		return fmt.Errorf("bpm must be positive, got %d", bpm)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	tracks, diags := inttd.Parse(defs, p.cfg.table)
	p.report(diags)
	if len(tracks) == 0 {
		return ErrNoTracks
	}

	bus := intfx.NewBus(p.sampleRate, intfx.DelaySeconds(bpm), p.cfg.masterGain, p.cfg.delaySend, p.cfg.delayFeedback)
	seq := intseq.New(tracks, bpm, p.sampleRate, bus)
	out, err := intaudio.NewOutput(p.sampleRate, seq)
	if err != nil {
		return fmt.Errorf("open audio output: %w", err)
	}
	p.seq = seq
	p.out = out
	out.Start()
	return nil
}

// Stop ends the current session. No further steps fire, but voices already
// sounding decay to completion before the output closes; the step position
// resets to zero. Calling Stop when nothing is playing is a no-op.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

// drainPoll and drainMax bound the background wait for in-flight voices to
// finish after a stop. The longest voices are well under a second, so two
// seconds of grace is ample; after that the output closes regardless.
const (
	drainPoll = 10 * time.Millisecond
	drainMax  = 2 * time.Second
)

func (p *Player) stopLocked() error {
	if p.out == nil {
		return nil
	}
	out, seq := p.out, p.seq
	p.out = nil
	p.seq = nil
	seq.Halt()
	go func() {
		deadline := time.Now().Add(drainMax)
		for !seq.Done() && time.Now().Before(deadline) {
			time.Sleep(drainPoll)
		}
		out.Close()
	}()
	return nil
}

func (p *Player) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out != nil
}

// StepIndex reports the current position on the grid, or 0 when stopped.
func (p *Player) StepIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seq == nil {
		return 0
	}
	return p.seq.StepIndex()
}

func (p *Player) report(diags []inttd.Diagnostic) {
	if p.cfg.onDiagnostic == nil {
		return
	}
	for _, d := range diags {
		p.cfg.onDiagnostic(d)
	}
}
