package chat

import (
	"context"
	"strings"
	"testing"
)

func TestDummyCompleteEchoesLastUserMessage(t *testing.T) {
	var d Dummy
	text, err := d.Complete(context.Background(), []Message{
		{Role: "user", Content: "Искам да купя хляб"},
	}, "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "Искам да купя хляб") {
		t.Errorf("expected reply to echo the last user message, got %q", text)
	}
}

func TestDummyCompleteHandlesEmptyHistory(t *testing.T) {
	var d Dummy
	text, err := d.Complete(context.Background(), nil, "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text == "" {
		t.Error("expected a fallback reply on empty history")
	}
}

func TestBuildAutoFallsBackToDummyWithNoCredentials(t *testing.T) {
	router := Build(Config{Provider: "auto"})
	p, err := router.Route("auto")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(Dummy); !ok {
		t.Errorf("expected dummy provider with no credentials, got %T", p)
	}
}

func TestBuildAutoPrefersOpenAIWhenCredentialsPresent(t *testing.T) {
	router := Build(Config{Provider: "auto", OpenAIAPIKey: "sk-test"})
	p, err := router.Route("auto")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*OpenAI); !ok {
		t.Errorf("expected openai provider, got %T", p)
	}
}

func TestBuildExplicitProviderSelection(t *testing.T) {
	router := Build(Config{Provider: "dummy", OpenAIAPIKey: "sk-test"})
	p, err := router.Route("dummy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(Dummy); !ok {
		t.Errorf("expected explicit dummy selection to win, got %T", p)
	}
}
