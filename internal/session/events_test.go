package session

import (
	"encoding/json"
	"testing"

	"github.com/bgcoach/speech-coach/internal/coach"
	"github.com/bgcoach/speech-coach/internal/content"
	"github.com/bgcoach/speech-coach/internal/grammar"
)

// TestServerEventRoundTrip covers spec §8's "serialize→parse of every
// server event yields an equal value" invariant.
func TestServerEventRoundTrip(t *testing.T) {
	events := []ServerEvent{
		readyEvent(),
		vadEvent(1, true, false),
		vadEvent(1, false, true),
		partialEvent(2, "Здравей"),
		finalEvent(2, "Здравей, как си?", 1200.5),
		coachEvent(2, coach.Result{
			ReplyBG: "Добре дошъл",
			Corrections: []grammar.Correction{
				{RuleID: "no-infinitive", Category: "no-infinitive", Suggested: "да чакам", Severity: grammar.SeverityModerate},
			},
			Drills: []content.Drill{{ID: "d1", Prompt: "...", Expected: "..."}},
		}),
		errorEvent("backpressure", "client too slow", true),
	}

	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var back ServerEvent
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		data2, err := json.Marshal(back)
		if err != nil {
			t.Fatalf("re-marshal: %v", err)
		}
		if string(data) != string(data2) {
			t.Errorf("round trip mismatch:\n  original: %s\n  after:    %s", data, data2)
		}
	}
}

func TestVADEventWireShape(t *testing.T) {
	data, _ := json.Marshal(vadEvent(3, true, false))
	var m map[string]interface{}
	json.Unmarshal(data, &m)
	if m["type"] != "vad" || m["speaking"] != true || m["turn_seq"].(float64) != 3 {
		t.Errorf("unexpected wire shape: %s", data)
	}
}

func TestCoachEventOmitsNilSpan(t *testing.T) {
	ev := coachEvent(1, coach.Result{
		Corrections: []grammar.Correction{{RuleID: "x", Category: "x", Before: "a", Suggested: "b", Severity: grammar.SeverityLow}},
	})
	c := ev.Payload.Corrections[0]
	if c.Before != "a" || c.After != "b" {
		t.Errorf("expected before/after to survive regardless of span, got before=%q after=%q", c.Before, c.After)
	}
	if c.Span != nil {
		t.Errorf("expected nil span when Correction.Span is nil, got %+v", c.Span)
	}
}

func TestCoachEventWireFieldSet(t *testing.T) {
	span := grammar.Span{Start: 0, End: 14}
	ev := coachEvent(2, coach.Result{
		Corrections: []grammar.Correction{{
			RuleID:      "no-infinitive",
			Category:    "no-infinitive",
			Span:        &span,
			Before:      "искам поръчвам",
			Suggested:   "искам да поръчам",
			Explanation: "Bulgarian has no infinitive.",
			Severity:    grammar.SeverityModerate,
		}},
	})
	c := ev.Payload.Corrections[0]
	if c.Type != "no_infinitive" {
		t.Errorf("expected type no_infinitive, got %q", c.Type)
	}
	if c.Before != "искам поръчвам" || c.After != "искам да поръчам" {
		t.Errorf("unexpected before/after: %q / %q", c.Before, c.After)
	}
	if c.ErrorTag != "no-infinitive" {
		t.Errorf("expected error_tag to carry the rule id, got %q", c.ErrorTag)
	}
	if c.Severity != "moderate" {
		t.Errorf("expected severity moderate, got %q", c.Severity)
	}
	if c.Span == nil || c.Span.Start != 0 || c.Span.End != 14 {
		t.Errorf("expected span {0,14}, got %+v", c.Span)
	}
}
