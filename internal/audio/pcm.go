package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// SampleRate is the only input sample rate the ingest pipeline accepts.
const SampleRate = 16000

// FrameSamples is the number of int16 samples in one 20 ms frame at SampleRate.
const FrameSamples = 320

// FrameBytes is the wire size in bytes of one 20 ms frame (16-bit mono).
const FrameBytes = FrameSamples * 2

// ErrBadFrameSize is returned when a binary WebSocket frame is not an exact
// multiple of FrameBytes.
var ErrBadFrameSize = fmt.Errorf("audio: frame size must be a multiple of %d bytes (%d samples)", FrameBytes, FrameSamples)

// SplitFrames validates that data is a whole multiple of one or more 20 ms
// PCM frames and returns each frame as a slice of int16 samples.
// Per spec.md §3 the server rejects any other frame size outright.
func SplitFrames(data []byte) ([][]int16, error) {
	if len(data) == 0 || len(data)%FrameBytes != 0 {
		return nil, ErrBadFrameSize
	}
	n := len(data) / FrameBytes
	frames := make([][]int16, n)
	for i := range n {
		frames[i] = decodeInt16(data[i*FrameBytes : (i+1)*FrameBytes])
	}
	return frames, nil
}

func decodeInt16(data []byte) []int16 {
	n := len(data) / 2
	out := make([]int16, n)
	for i := range n {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out
}

// ToFloat32 normalizes signed 16-bit PCM samples to [-1, 1].
func ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / math.MaxInt16
	}
	return out
}

// EncodeInt16LE serializes signed 16-bit PCM samples to little-endian bytes.
func EncodeInt16LE(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
