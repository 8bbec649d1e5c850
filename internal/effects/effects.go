package effects

// Effector processes stereo audio one frame at a time.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
