// Package clip loads externally supplied audio files for simple trimmed
// auditioning. This path is independent of the sequencer and the effects bus:
// a clip decodes into a plain sample buffer and streams straight to the
// output device.
package clip

import (
	"fmt"
	"os"
	"time"

	"github.com/gopxl/beep/wav"
)

// Clip is a decoded stereo sample buffer. Immutable after loading; Trim
// returns views, not copies.
type Clip struct {
	samples    []float32 // interleaved stereo
	sampleRate int
}

// Load decodes a WAV file into memory.
func Load(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open clip: %w", err)
	}
	defer f.Close()

	streamer, format, err := wav.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode clip %q: %w", path, err)
	}
	defer streamer.Close()

	var samples []float32
	chunk := make([][2]float64, 1024)
	for {
		n, ok := streamer.Stream(chunk)
		for i := 0; i < n; i++ {
			samples = append(samples, float32(chunk[i][0]), float32(chunk[i][1]))
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("read clip %q: %w", path, err)
	}
	return &Clip{samples: samples, sampleRate: int(format.SampleRate)}, nil
}

func (c *Clip) SampleRate() int { return c.sampleRate }

func (c *Clip) Frames() int { return len(c.samples) / 2 }

func (c *Clip) Duration() time.Duration {
	if c.sampleRate == 0 {
		return 0
	}
	return time.Duration(float64(c.Frames()) / float64(c.sampleRate) * float64(time.Second))
}

// Trim returns the window [start, start+length) of the clip, clamped to its
// bounds. A zero length means "to the end".
func (c *Clip) Trim(start, length time.Duration) *Clip {
	from := c.frameAt(start)
	to := c.Frames()
	if length > 0 {
		if end := c.frameAt(start + length); end < to {
			to = end
		}
	}
	if from > to {
		from = to
	}
	return &Clip{samples: c.samples[from*2 : to*2], sampleRate: c.sampleRate}
}

func (c *Clip) frameAt(d time.Duration) int {
	frame := int(d.Seconds() * float64(c.sampleRate))
	if frame < 0 {
		frame = 0
	}
	if frame > c.Frames() {
		frame = c.Frames()
	}
	return frame
}

// Source returns a one-shot stream over the clip for the audio output.
func (c *Clip) Source() *Source {
	return &Source{clip: c}
}

// Source streams a clip once and then reports itself done.
type Source struct {
	clip *Clip
	pos  int
}

func (s *Source) Process(dst []float32) {
	n := copy(dst, s.clip.samples[s.pos:])
	s.pos += n
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

func (s *Source) Done() bool {
	return s.pos >= len(s.clip.samples)
}
