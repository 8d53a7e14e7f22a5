package audio

import (
	"bytes"
	"testing"
)

func TestSplitFramesRejectsBadSize(t *testing.T) {
	_, err := SplitFrames(make([]byte, FrameBytes+1))
	if err == nil {
		t.Fatal("expected error for non-multiple frame size")
	}

	_, err = SplitFrames(nil)
	if err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestSplitFramesDecodesSamples(t *testing.T) {
	raw := make([]byte, FrameBytes*2)
	raw[0], raw[1] = 0x01, 0x00 // sample 0 of frame 0 == 1
	frames, err := SplitFrames(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if len(frames[0]) != FrameSamples {
		t.Fatalf("expected %d samples, got %d", FrameSamples, len(frames[0]))
	}
	if frames[0][0] != 1 {
		t.Errorf("expected first sample 1, got %d", frames[0][0])
	}
}

func TestEncodeInt16LERoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768}
	enc := EncodeInt16LE(samples)
	frames, err := SplitFrames(append(enc, make([]byte, FrameBytes-len(enc))...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := frames[0][:len(samples)]
	for i, s := range samples {
		if got[i] != s {
			t.Errorf("sample %d: want %d, got %d", i, s, got[i])
		}
	}
}

func TestToFloat32Range(t *testing.T) {
	out := ToFloat32([]int16{32767, -32768, 0})
	if out[2] != 0 {
		t.Errorf("expected 0 sample to map to 0.0, got %f", out[2])
	}
	if out[0] <= 0.99 || out[0] > 1.0 {
		t.Errorf("expected max sample near 1.0, got %f", out[0])
	}
	if out[1] >= -0.99 {
		t.Errorf("expected min sample near -1.0, got %f", out[1])
	}
}

func TestEncodeInt16LEZeroLen(t *testing.T) {
	if out := EncodeInt16LE(nil); !bytes.Equal(out, []byte{}) {
		t.Errorf("expected empty output, got %v", out)
	}
}
