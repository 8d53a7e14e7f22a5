// Package tts implements the TTS Adapter (C8): a thin client over an
// external synthesizer that streams audio back without buffering the
// full response, so the HTTP surface can begin writing bytes as soon as
// the synthesizer produces them.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bgcoach/speech-coach/internal/httpclient"
	"github.com/bgcoach/speech-coach/internal/metrics"
)

// Result is a synthesizer's streamed output: the caller must Close Audio
// once done reading it.
type Result struct {
	Audio       io.ReadCloser
	ContentType string
}

// Synthesizer is the TTS Adapter contract.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (Result, error)
}

// HTTPSynthesizer calls an external Piper-compatible synthesis server and
// passes its response body through unread, so bytes start flowing to the
// client as soon as the synthesizer produces them (spec §4.8).
type HTTPSynthesizer struct {
	url    string
	voice  string
	client *http.Client
}

// NewHTTPSynthesizer creates a synthesizer client for the given server URL.
func NewHTTPSynthesizer(url, voice string, poolSize int) *HTTPSynthesizer {
	if voice == "" {
		voice = "bg_BG-standard-medium"
	}
	return &HTTPSynthesizer{
		url:   url,
		voice: voice,
		// No response timeout: the handler streams as bytes arrive and
		// may legitimately take longer than a fixed deadline for long text.
		client: httpclient.NewPooled(poolSize, 0),
	}
}

type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// Synthesize streams synthesized audio for text. Callers must Close the
// returned Result.Audio.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text string) (Result, error) {
	start := time.Now()

	body, err := json.Marshal(synthesizeRequest{Text: text, Voice: s.voice})
	if err != nil {
		return Result{}, fmt.Errorf("marshal tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+"/synthesize", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("tts", "http").Inc()
		return Result{}, fmt.Errorf("tts request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		metrics.Errors.WithLabelValues("tts", "status").Inc()
		return Result{}, fmt.Errorf("tts status %d", resp.StatusCode)
	}

	metrics.StageDuration.WithLabelValues("tts_first_byte").Observe(time.Since(start).Seconds())

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/wav"
	}
	return Result{Audio: resp.Body, ContentType: contentType}, nil
}

