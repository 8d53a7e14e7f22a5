package tts

import (
	"io"
	"net/http"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/bgcoach/speech-coach/internal/metrics"
)

// MaxTextLen is the maximum accepted length of ?text= (spec §4.8).
const MaxTextLen = 500

// Handler serves GET /tts?text=…, validating and normalizing the query
// text, then streaming the synthesizer's output as soon as bytes are
// available rather than buffering the full response.
func Handler(synth Synthesizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		text := norm.NFC.String(r.URL.Query().Get("text"))
		if text == "" || len([]rune(text)) > MaxTextLen {
			http.Error(w, "text must be 1..500 characters", http.StatusBadRequest)
			return
		}

		start := time.Now()
		res, err := synth.Synthesize(r.Context(), text)
		if err != nil {
			metrics.Errors.WithLabelValues("tts", "synthesize").Inc()
			http.Error(w, "synthesis failed: "+err.Error(), http.StatusBadGateway)
			return
		}
		defer res.Audio.Close()

		w.Header().Set("Content-Type", res.ContentType)
		w.Header().Set("Transfer-Encoding", "chunked")
		w.WriteHeader(http.StatusOK)

		flusher, canFlush := w.(http.Flusher)
		buf := make([]byte, 4096)
		for {
			n, readErr := res.Audio.Read(buf)
			if n > 0 {
				if _, writeErr := w.Write(buf[:n]); writeErr != nil {
					return
				}
				if canFlush {
					flusher.Flush()
				}
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				return
			}
		}
		metrics.StageDuration.WithLabelValues("tts").Observe(time.Since(start).Seconds())
	}
}
