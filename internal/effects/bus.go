package effects

// Bus is the shared master path every voice is summed into: a master gain
// plus one delay line with feedback. The input feeds the output directly and
// a fixed-proportion send feeds the delay; the delay output feeds back into
// itself and joins the master output, producing repeating echoes.
//
// The bus belongs to exactly one playback session. Its parameters are set
// when the session starts and never change concurrently with synthesis, so no
// locking is needed.
type Bus struct {
	bufL, bufR []float32
	pos        int
	master     float32
	send       float32
	feedback   float32
}

// DelaySeconds derives the session delay time from the tempo: half a beat.
func DelaySeconds(bpm int) float64 {
	return 60.0 / float64(bpm) / 2
}

// NewBus creates the effects bus for one session.
// delaySeconds: delay line length
// master: output gain
// send: proportion of the dry sum fed into the delay
// feedback: delay self-feedback, clamped below 1 so echoes always decay
func NewBus(sampleRate int, delaySeconds float64, master, send, feedback float32) *Bus {
	samples := int(delaySeconds * float64(sampleRate))
	if samples < 1 {
		samples = 1
	}
	return &Bus{
		bufL:     make([]float32, samples),
		bufR:     make([]float32, samples),
		master:   master,
		send:     clamp(send, 0, 1),
		feedback: clamp(feedback, 0, 0.95),
	}
}

func (b *Bus) Process(l, r float32) (float32, float32) {
	delL := b.bufL[b.pos]
	delR := b.bufR[b.pos]
	b.bufL[b.pos] = l*b.send + delL*b.feedback
	b.bufR[b.pos] = r*b.send + delR*b.feedback
	b.pos++
	if b.pos >= len(b.bufL) {
		b.pos = 0
	}
	return (l + delL) * b.master, (r + delR) * b.master
}

func (b *Bus) Reset() {
	for i := range b.bufL {
		b.bufL[i] = 0
		b.bufR[i] = 0
	}
	b.pos = 0
}
