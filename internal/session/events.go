// Package session implements the Session Protocol (C9): a duplex
// WebSocket at /ws/asr wiring the Frame Ring, VAD Segmenter, ASR
// Scheduler, Grammar Analyzer, and Coach Orchestrator into one ordered
// per-turn event stream, with heartbeat and backpressure handling.
package session

import "github.com/bgcoach/speech-coach/internal/coach"

// Event types, matching the server->client wire vocabulary in spec §4.9.
const (
	eventReady   = "ready"
	eventVAD     = "vad"
	eventPartial = "partial"
	eventFinal   = "final"
	eventCoach   = "coach"
	eventError   = "error"
)

// ServerEvent is the single envelope for every server->client JSON text
// frame, grounded on the teacher's ws/handler.go flexible Event{Type, ...}
// struct marshaled with omitempty rather than one Go type per wire shape.
type ServerEvent struct {
	Type       string        `json:"type"`
	Speaking   *bool         `json:"speaking,omitempty"`
	TurnSeq    *uint64       `json:"turn_seq,omitempty"`
	Text       string        `json:"text,omitempty"`
	DurationMs float64       `json:"duration_ms,omitempty"`
	Truncated  bool          `json:"truncated,omitempty"`
	Payload    *coachPayload `json:"payload,omitempty"`
	Kind       string        `json:"kind,omitempty"`
	Message    string        `json:"message,omitempty"`
	Fatal      bool          `json:"fatal,omitempty"`
}

// coachPayload mirrors coach.Result over the wire.
type coachPayload struct {
	ReplyBG     string           `json:"reply_bg"`
	Corrections []wireCorrection `json:"corrections"`
	Drills      []wireDrill      `json:"drills"`
}

type wireCorrection struct {
	Type     string    `json:"type"`
	Before   string    `json:"before"`
	After    string    `json:"after"`
	Note     string    `json:"note,omitempty"`
	ErrorTag string    `json:"error_tag"`
	Severity string    `json:"severity"`
	Span     *wireSpan `json:"span,omitempty"`
}

type wireSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// correctionTypeByCategory maps the analyzer's internal rule categories
// onto spec §3's closed Correction.type set.
var correctionTypeByCategory = map[string]string{
	"no-infinitive":    "no_infinitive",
	"definite-article": "definite_article",
	"future-shte":      "future_shte",
	"clitic-position":  "clitic_position",
	"vocab-spelling":   "vocab",
}

func correctionType(category string) string {
	if t, ok := correctionTypeByCategory[category]; ok {
		return t
	}
	return category
}

type wireDrill struct {
	ID       string `json:"id"`
	Prompt   string `json:"prompt"`
	Expected string `json:"expected"`
}

func readyEvent() ServerEvent { return ServerEvent{Type: eventReady} }

func vadEvent(turnSeq uint64, speaking bool, truncated bool) ServerEvent {
	return ServerEvent{Type: eventVAD, Speaking: &speaking, TurnSeq: &turnSeq, Truncated: truncated}
}

func partialEvent(turnSeq uint64, text string) ServerEvent {
	return ServerEvent{Type: eventPartial, TurnSeq: &turnSeq, Text: text}
}

func finalEvent(turnSeq uint64, text string, durationMs float64) ServerEvent {
	return ServerEvent{Type: eventFinal, TurnSeq: &turnSeq, Text: text, DurationMs: durationMs}
}

func coachEvent(turnSeq uint64, res coach.Result) ServerEvent {
	corrections := make([]wireCorrection, len(res.Corrections))
	for i, c := range res.Corrections {
		var span *wireSpan
		if c.Span != nil {
			span = &wireSpan{Start: c.Span.Start, End: c.Span.End}
		}
		note := c.L1Note
		if note == "" {
			note = c.Explanation
		}
		corrections[i] = wireCorrection{
			Type:     correctionType(c.Category),
			Before:   c.Before,
			After:    c.Suggested,
			Note:     note,
			ErrorTag: c.RuleID,
			Severity: c.Severity.String(),
			Span:     span,
		}
	}
	drills := make([]wireDrill, len(res.Drills))
	for i, d := range res.Drills {
		drills[i] = wireDrill{ID: d.ID, Prompt: d.Prompt, Expected: d.Expected}
	}
	return ServerEvent{Type: eventCoach, TurnSeq: &turnSeq, Payload: &coachPayload{
		ReplyBG:     res.ReplyBG,
		Corrections: corrections,
		Drills:      drills,
	}}
}

func errorEvent(kind, message string, fatal bool) ServerEvent {
	return ServerEvent{Type: eventError, Kind: kind, Message: message, Fatal: fatal}
}
