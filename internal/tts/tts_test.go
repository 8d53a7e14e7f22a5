package tts

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bgcoach/speech-coach/internal/audio"
)

func TestDummySynthesizeProducesValidWAV(t *testing.T) {
	res, err := Dummy{}.Synthesize(context.Background(), "здравей")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer res.Audio.Close()

	data, err := io.ReadAll(res.Audio)
	if err != nil {
		t.Fatalf("reading audio: %v", err)
	}
	samples, rate, err := audio.DecodeWAV(data)
	if err != nil {
		t.Fatalf("decoding wav: %v", err)
	}
	if rate != audio.SampleRate {
		t.Errorf("expected sample rate %d, got %d", audio.SampleRate, rate)
	}
	if len(samples) == 0 {
		t.Error("expected non-empty audio")
	}
}

func TestDummySynthesizeScalesWithTextLength(t *testing.T) {
	short, err := Dummy{}.Synthesize(context.Background(), "хей")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer short.Audio.Close()
	shortData, _ := io.ReadAll(short.Audio)

	long, err := Dummy{}.Synthesize(context.Background(), strings.Repeat("здравей приятелю ", 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer long.Audio.Close()
	longData, _ := io.ReadAll(long.Audio)

	if len(longData) <= len(shortData) {
		t.Errorf("expected longer text to produce more audio bytes: short=%d long=%d", len(shortData), len(longData))
	}
}

type fakeSynth struct {
	chunks [][]byte
	err    error
}

type multiReadCloser struct {
	chunks [][]byte
	idx    int
}

func (m *multiReadCloser) Read(p []byte) (int, error) {
	if m.idx >= len(m.chunks) {
		return 0, io.EOF
	}
	n := copy(p, m.chunks[m.idx])
	m.idx++
	return n, nil
}

func (m *multiReadCloser) Close() error { return nil }

func (f fakeSynth) Synthesize(ctx context.Context, text string) (Result, error) {
	if f.err != nil {
		return Result{}, f.err
	}
	return Result{Audio: &multiReadCloser{chunks: f.chunks}, ContentType: "audio/wav"}, nil
}

func TestHandlerStreamsChunks(t *testing.T) {
	synth := fakeSynth{chunks: [][]byte{[]byte("abc"), []byte("def")}}
	h := Handler(synth)

	req := httptest.NewRequest(http.MethodGet, "/tts?text=%D0%B7%D0%B4%D1%80%D0%B0%D0%B2%D0%B5%D0%B9", nil)
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "abcdef" {
		t.Errorf("expected streamed body %q, got %q", "abcdef", rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "audio/wav" {
		t.Errorf("unexpected content type: %s", rec.Header().Get("Content-Type"))
	}
}

func TestHandlerRejectsEmptyText(t *testing.T) {
	h := Handler(fakeSynth{})
	req := httptest.NewRequest(http.MethodGet, "/tts", nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty text, got %d", rec.Code)
	}
}

func TestHandlerRejectsOverlongText(t *testing.T) {
	h := Handler(fakeSynth{})
	req := httptest.NewRequest(http.MethodGet, "/tts?text="+strings.Repeat("a", MaxTextLen+1), nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for overlong text, got %d", rec.Code)
	}
}

func TestHTTPSynthesizerStreamsWithoutBuffering(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/wav")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("chunk-one"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		w.Write([]byte("chunk-two"))
	}))
	defer server.Close()

	s := NewHTTPSynthesizer(server.URL, "", 2)
	res, err := s.Synthesize(context.Background(), "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer res.Audio.Close()

	data, err := io.ReadAll(res.Audio)
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	if !bytes.Equal(data, []byte("chunk-onechunk-two")) {
		t.Errorf("unexpected streamed body: %q", data)
	}
}

func TestHTTPSynthesizerReturnsErrorOnNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := NewHTTPSynthesizer(server.URL, "", 1)
	_, err := s.Synthesize(context.Background(), "test")
	if err == nil {
		t.Error("expected error on non-200 response")
	}
}
