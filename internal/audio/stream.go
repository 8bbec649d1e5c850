// Package audio adapts a sample-pulling source to the platform audio device.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// Source produces interleaved stereo float32 frames on demand.
type Source interface {
	Process(dst []float32)
}

// Finisher is a Source with a natural end. When Done reports true the stream
// returns io.EOF and the device player drains what was already queued.
type Finisher interface {
	Source
	Done() bool
}

// streamReader exposes a Source as the little-endian float32 byte stream the
// device player consumes.
type streamReader struct {
	mu     sync.Mutex
	source Source
	buf    []float32
}

func (r *streamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i := 0; i < need; i++ {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(r.buf[i]))
	}
	if f, ok := r.source.(Finisher); ok && f.Done() {
		return frames * 8, io.EOF
	}
	return frames * 8, nil
}

func (r *streamReader) Close() error { return nil }

// The platform allows a single audio context per process, created lazily at
// the first requested sample rate.
var (
	contextOnce sync.Once
	context     *ebitaudio.Context
	contextRate int
)

func sharedContext(sampleRate int) (*ebitaudio.Context, error) {
	contextOnce.Do(func() {
		contextRate = sampleRate
		context = ebitaudio.NewContext(sampleRate)
	})
	if contextRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", contextRate, sampleRate)
	}
	return context, nil
}

// Output streams one Source to the audio device.
type Output struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

func NewOutput(sampleRate int, source Source) (*Output, error) {
	ctx, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := &streamReader{source: source}
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &Output{player: pl, reader: reader}, nil
}

// Start begins streaming. This also activates the device: a suspended
// platform context is resumed before the first buffer is pulled.
func (o *Output) Start() { o.player.Play() }

func (o *Output) Pause() { o.player.Pause() }

func (o *Output) IsPlaying() bool { return o.player.IsPlaying() }

func (o *Output) Close() error {
	o.player.Pause()
	o.player.Close()
	return o.reader.Close()
}
