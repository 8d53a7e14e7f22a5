package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/bgcoach/speech-coach/internal/audio"
	"github.com/bgcoach/speech-coach/internal/httpclient"
	"github.com/bgcoach/speech-coach/internal/metrics"
)

// HTTPEngine talks to a whisper.cpp-compatible inference server over
// multipart-form POST, mirroring the teacher's ASRClient wire contract.
type HTTPEngine struct {
	url    string
	client *http.Client
}

// NewHTTPEngine creates an Engine pointed at a whisper.cpp-compatible
// server's /inference endpoint.
func NewHTTPEngine(url string, poolSize int) *HTTPEngine {
	return &HTTPEngine{
		url:    url,
		client: httpclient.NewPooled(poolSize, 30*time.Second),
	}
}

// WarmUp runs a throwaway decode on one second of silence.
func (e *HTTPEngine) WarmUp(ctx context.Context) error {
	silence := make([]int16, audio.SampleRate)
	_, err := e.decode(ctx, silence, FinalOptions())
	return err
}

// DecodePartial runs a low-beam decode on the accumulated audio so far.
func (e *HTTPEngine) DecodePartial(ctx context.Context, samples []int16, opts DecodeOptions) (string, error) {
	text, err := e.decodeWithRetry(ctx, samples, opts)
	if err != nil {
		return "", err
	}
	return text.Text, nil
}

// DecodeFinal runs the authoritative decode at utterance end.
func (e *HTTPEngine) DecodeFinal(ctx context.Context, samples []int16, opts DecodeOptions) (FinalResult, error) {
	return e.decodeWithRetry(ctx, samples, opts)
}

// decodeWithRetry retries once with a reduced beam on a transient failure,
// per spec §4.3/§7.
func (e *HTTPEngine) decodeWithRetry(ctx context.Context, samples []int16, opts DecodeOptions) (FinalResult, error) {
	res, err := e.decode(ctx, samples, opts)
	if err == nil {
		return res, nil
	}
	if !isTransient(err) {
		return FinalResult{}, err
	}

	reduced := opts
	if reduced.BeamSize > 1 {
		reduced.BeamSize = 1
	}
	res, err = e.decode(ctx, samples, reduced)
	if err != nil {
		return FinalResult{}, err
	}
	return res, nil
}

func isTransient(err error) bool {
	var e *Error
	if as, ok := err.(*Error); ok {
		e = as
	}
	return e != nil && e.Kind == Transient
}

type decodeResponse struct {
	Text          string  `json:"text"`
	NoSpeechProb  float64 `json:"no_speech_prob"`
}

func (e *HTTPEngine) decode(ctx context.Context, samples []int16, opts DecodeOptions) (FinalResult, error) {
	start := time.Now()

	body, contentType, err := buildMultipartAudio(samples, opts)
	if err != nil {
		return FinalResult{}, fatalErr(fmt.Errorf("build request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url+"/inference", body)
	if err != nil {
		return FinalResult{}, fatalErr(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := e.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("asr", "http").Inc()
		return FinalResult{}, transientErr(fmt.Errorf("asr request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		metrics.Errors.WithLabelValues("asr", "status").Inc()
		if resp.StatusCode >= 500 {
			return FinalResult{}, transientErr(fmt.Errorf("asr status %d: %s", resp.StatusCode, respBody))
		}
		return FinalResult{}, fatalErr(fmt.Errorf("asr status %d: %s", resp.StatusCode, respBody))
	}

	var out decodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return FinalResult{}, fatalErr(fmt.Errorf("decode asr response: %w", err))
	}

	latency := time.Since(start)
	metrics.StageDuration.WithLabelValues("asr").Observe(latency.Seconds())
	metrics.ASRNoSpeechProb.Observe(out.NoSpeechProb)

	return FinalResult{
		Text:         out.Text,
		DurationMs:   float64(latency.Milliseconds()),
		NoSpeechProb: out.NoSpeechProb,
	}, nil
}

func buildMultipartAudio(samples []int16, opts DecodeOptions) (*bytes.Buffer, string, error) {
	wavData, err := audio.EncodeWAV(samples, audio.SampleRate)
	if err != nil {
		return nil, "", fmt.Errorf("encode wav: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return nil, "", fmt.Errorf("write wav data: %w", err)
	}

	_ = writer.WriteField("beam_size", fmt.Sprintf("%d", opts.BeamSize))
	_ = writer.WriteField("temperature", fmt.Sprintf("%g", opts.Temperature))
	_ = writer.WriteField("no_speech_threshold", fmt.Sprintf("%g", opts.NoSpeechThreshold))

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close writer: %w", err)
	}

	return &body, writer.FormDataContentType(), nil
}
