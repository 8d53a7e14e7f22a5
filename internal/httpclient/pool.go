// Package httpclient builds tuned, pooled http.Client instances for the
// gateway's outbound calls to the ASR decoder, chat providers, and the TTS
// synthesizer.
package httpclient

import (
	"net/http"
	"time"
)

// NewPooled creates an http.Client with connection pooling and tuned transport.
func NewPooled(poolSize int, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:          poolSize,
			MaxIdleConnsPerHost:   poolSize,
			IdleConnTimeout:       90 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			ForceAttemptHTTP2:     true,
		},
	}
}
