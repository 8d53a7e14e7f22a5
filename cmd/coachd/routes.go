package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bgcoach/speech-coach/internal/content"
	"github.com/bgcoach/speech-coach/internal/session"
	"github.com/bgcoach/speech-coach/internal/tts"
)

// serverState is what the HTTP surface (C11) needs beyond session.Deps:
// the Content Store for the read-only content endpoints and the
// readiness flags reported by /health.
type serverState struct {
	store     *content.Store
	synth     tts.Synthesizer
	sessDeps  session.Deps
	asrReady  bool
	ttsReady  bool
}

func newMux(s serverState) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /content/grammar/{id}", s.handleGrammarByID)
	mux.HandleFunc("GET /content/scenarios", s.handleScenarios)
	mux.HandleFunc("GET /content/drills/{id}", s.handleDrillsFor)
	mux.HandleFunc("GET /tts", tts.Handler(s.synth))
	mux.HandleFunc("GET /ws/asr", session.Handler(s.sessDeps))
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

type healthResponse struct {
	Status    string `json:"status"`
	ASRReady  bool   `json:"asr_ready"`
	TTSReady  bool   `json:"tts_ready"`
	ContentOK bool   `json:"content_ok"`
}

func (s serverState) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !s.asrReady || !s.ttsReady {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    status,
		ASRReady:  s.asrReady,
		TTSReady:  s.ttsReady,
		ContentOK: s.store != nil,
	})
}

func (s serverState) handleGrammarByID(w http.ResponseWriter, r *http.Request) {
	item, err := s.store.GrammarByID(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s serverState) handleScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Scenarios())
}

// handleDrillsFor returns every drill attached to a grammar item,
// unfiltered by level — the per-correction level cap in the Coach
// Orchestrator (spec §4.7 step 3) doesn't apply to this read-only browse
// endpoint.
func (s serverState) handleDrillsFor(w http.ResponseWriter, r *http.Request) {
	drills := s.store.DrillsFor(r.PathValue("id"), 99, 999)
	writeJSON(w, http.StatusOK, drills)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
