package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bgcoach/speech-coach/internal/content"
)

func testServerState(t *testing.T) serverState {
	t.Helper()
	store, err := content.Load("../../content")
	if err != nil {
		t.Fatalf("loading content fixtures: %v", err)
	}
	return serverState{store: store, asrReady: true, ttsReady: true}
}

func TestHandleHealthOK(t *testing.T) {
	s := testServerState(t)
	mux := newMux(s)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandleHealthDegradedWhenASRNotReady(t *testing.T) {
	s := testServerState(t)
	s.asrReady = false
	mux := newMux(s)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"degraded"`) {
		t.Errorf("expected degraded status, got %s", body)
	}
}

func TestHandleGrammarByIDNotFound(t *testing.T) {
	s := testServerState(t)
	mux := newMux(s)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/content/grammar/does-not-exist", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleGrammarByIDFound(t *testing.T) {
	s := testServerState(t)
	mux := newMux(s)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/content/grammar/no-infinitive-01", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandleScenarios(t *testing.T) {
	s := testServerState(t)
	mux := newMux(s)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/content/scenarios", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body == "" || body == "null" {
		t.Errorf("expected non-empty scenario list, got %q", body)
	}
}

func TestHandleDrillsForUnfilteredByLevel(t *testing.T) {
	s := testServerState(t)
	mux := newMux(s)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/content/drills/no-infinitive-01", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var drills []content.Drill
	if err := json.Unmarshal(rec.Body.Bytes(), &drills); err != nil {
		t.Fatalf("decoding drills: %v", err)
	}
	if len(drills) != 2 {
		t.Errorf("expected both the level-1 and level-2 drills, got %d", len(drills))
	}
}
