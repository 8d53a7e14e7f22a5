package coach

import (
	"context"
	"errors"
	"testing"

	"github.com/bgcoach/speech-coach/internal/chat"
	"github.com/bgcoach/speech-coach/internal/content"
	"github.com/bgcoach/speech-coach/internal/grammar"
)

type fakeRouter struct {
	provider chat.Provider
	err      error
}

func (f fakeRouter) Route(string) (chat.Provider, error) {
	return f.provider, f.err
}

type fakeProvider struct {
	reply string
	err   error
}

func (f fakeProvider) Complete(ctx context.Context, messages []chat.Message, systemPrompt string, maxTokens int) (string, error) {
	return f.reply, f.err
}

func loadStore(t *testing.T) *content.Store {
	t.Helper()
	store, err := content.Load("../../content")
	if err != nil {
		t.Fatalf("unexpected error loading content: %v", err)
	}
	return store
}

func TestComposeFreeConversationWhenNoCorrections(t *testing.T) {
	store := loadStore(t)
	o := New(fakeRouter{provider: fakeProvider{reply: "Здравей!"}}, store)
	res := o.Compose(context.Background(), "Здравей", nil, Prefs{L1: grammar.PL, Level: 2})
	if res.ReplyBG != "Здравей!" {
		t.Errorf("expected chat reply, got %q", res.ReplyBG)
	}
	if len(res.Drills) != 0 {
		t.Errorf("expected no drills without corrections, got %v", res.Drills)
	}
}

func TestComposeAttachesDrillsForTopCorrection(t *testing.T) {
	store := loadStore(t)
	o := New(fakeRouter{provider: fakeProvider{reply: "Добре, нека пробваме пак."}}, store)

	corrections := []grammar.Correction{
		{RuleID: "no-infinitive", Category: "no-infinitive", Severity: grammar.SeverityModerate, Suggested: "Искам да чакам"},
	}
	res := o.Compose(context.Background(), "Искам чакам", corrections, Prefs{L1: grammar.PL, Level: 2})

	if res.ReplyBG == "" {
		t.Error("expected a non-empty reply")
	}
	if len(res.Drills) == 0 {
		t.Error("expected at least one drill attached")
	}
	if len(res.Drills) > 2 {
		t.Errorf("expected at most 2 drills, got %d", len(res.Drills))
	}
}

func TestComposeFallsBackOnChatFailure(t *testing.T) {
	store := loadStore(t)
	o := New(fakeRouter{provider: fakeProvider{err: errors.New("boom")}}, store)

	corrections := []grammar.Correction{
		{RuleID: "no-infinitive", Category: "no-infinitive", Severity: grammar.SeverityModerate, Suggested: "Искам да чакам"},
	}
	res := o.Compose(context.Background(), "Искам чакам", corrections, Prefs{L1: grammar.PL, Level: 2})

	if res.ReplyBG != fallbackReply {
		t.Errorf("expected fallback reply, got %q", res.ReplyBG)
	}
	if len(res.Corrections) != 1 {
		t.Error("expected corrections to still be attached on fallback")
	}
}

func TestComposeOmitsDrillsForUnknownCategory(t *testing.T) {
	store := loadStore(t)
	o := New(fakeRouter{provider: fakeProvider{reply: "ok"}}, store)

	corrections := []grammar.Correction{
		{RuleID: "vocab-spelling", Category: "vocab-spelling", Severity: grammar.SeverityLow, Suggested: "x"},
	}
	res := o.Compose(context.Background(), "text", corrections, Prefs{L1: grammar.PL, Level: 5})
	if len(res.Drills) != 0 {
		t.Errorf("expected no drills for an unmapped category, got %v", res.Drills)
	}
}
