// Package wav serializes float sample buffers to canonical 16-bit PCM WAV
// bytes.
package wav

import "encoding/binary"

const headerSize = 44

// Encode produces a complete WAV file: 44-byte RIFF header, PCM format 1,
// 16-bit little-endian signed samples, channel-interleaved. Each float sample
// is clamped to [-1, 1] and scaled asymmetrically: negative values by 32768,
// non-negative by 32767. The asymmetry matches the 16-bit integer range and
// must be preserved for compatibility.
func Encode(samples []float32, sampleRate, channels int) []byte {
	dataSize := len(samples) * 2
	byteRate := sampleRate * channels * 2
	blockAlign := channels * 2
	out := make([]byte, headerSize+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 16)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[headerSize+i*2:], uint16(pcm16(s)))
	}
	return out
}

func pcm16(s float32) int16 {
	if s < -1 {
		s = -1
	}
	if s > 1 {
		s = 1
	}
	if s < 0 {
		return int16(s * 32768)
	}
	return int16(s * 32767)
}
