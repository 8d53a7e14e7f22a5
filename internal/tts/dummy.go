package tts

import (
	"bytes"
	"context"
	"io"

	"github.com/bgcoach/speech-coach/internal/audio"
)

// Dummy synthesizes an in-process square-wave tone and needs no external
// synthesizer. cmd/coachd does not select it; it always uses
// HTTPSynthesizer.
type Dummy struct{}

// Synthesize returns a WAV tone lasting 0.2 s plus 0.2 s for every full
// 10 bytes of text, so longer input yields longer audio.
func (Dummy) Synthesize(ctx context.Context, text string) (Result, error) {
	samples := make([]int16, audio.SampleRate/5*max(1, len(text)/10+1))
	for i := range samples {
		if i%40 < 20 {
			samples[i] = 8000
		} else {
			samples[i] = -8000
		}
	}
	wav, err := audio.EncodeWAV(samples, audio.SampleRate)
	if err != nil {
		return Result{}, err
	}
	return Result{Audio: io.NopCloser(bytes.NewReader(wav)), ContentType: "audio/wav"}, nil
}
