// Package coach implements the Coach Orchestrator (C7): it turns a final
// transcript plus grammar corrections into a single natural-language
// Bulgarian reply and up to two attached drills.
package coach

import (
	"context"
	"fmt"
	"sort"

	"github.com/bgcoach/speech-coach/internal/chat"
	"github.com/bgcoach/speech-coach/internal/content"
	"github.com/bgcoach/speech-coach/internal/grammar"
)

// fallbackReply is sent when the chat provider fails fatally, per spec §4.7.
const fallbackReply = "Разбрах. Нека опитаме отново."

// Prefs carries the per-session settings that shape a reply.
type Prefs struct {
	L1       grammar.L1
	Level    int
	Provider string // "auto" | "dummy" | "openai" | "claude"
}

// Result is the payload attached to the Coach event emitted over C9.
type Result struct {
	ReplyBG     string
	Corrections []grammar.Correction
	Drills      []content.Drill
}

// Orchestrator wires the Chat Provider router and the Content Store
// together to answer Compose calls.
type Orchestrator struct {
	chatRouter interface {
		Route(string) (chat.Provider, error)
	}
	store *content.Store
}

// New creates an Orchestrator bound to a chat router and Content Store.
func New(chatRouter interface {
	Route(string) (chat.Provider, error)
}, store *content.Store) *Orchestrator {
	return &Orchestrator{chatRouter: chatRouter, store: store}
}

// Compose implements spec §4.7 steps 1-4 and always returns a Result —
// chat failures degrade to the fallback reply rather than propagating.
func (o *Orchestrator) Compose(ctx context.Context, finalText string, corrections []grammar.Correction, prefs Prefs) Result {
	provider, err := o.chatRouter.Route(prefs.Provider)
	if err != nil {
		return Result{ReplyBG: fallbackReply, Corrections: corrections}
	}

	if len(corrections) == 0 {
		reply, err := provider.Complete(ctx, []chat.Message{{Role: "user", Content: finalText}}, freeConversationPrompt, 300)
		if err != nil {
			return Result{ReplyBG: fallbackReply}
		}
		return Result{ReplyBG: reply}
	}

	top := topCorrection(corrections)
	var item content.GrammarItem
	var drills []content.Drill
	if grammarID := grammarIDFor(top.Category); grammarID != "" {
		if gi, err := o.store.GrammarByID(grammarID); err == nil {
			item = gi
			drills = o.store.DrillsFor(grammarID, prefs.Level, 2)
		}
	}

	prompt := composePrompt(finalText, top, item, prefs.L1)
	reply, err := provider.Complete(ctx, []chat.Message{{Role: "user", Content: prompt}}, correctionSystemPrompt, 300)
	if err != nil {
		return Result{ReplyBG: fallbackReply, Corrections: corrections, Drills: drills}
	}
	return Result{ReplyBG: reply, Corrections: corrections, Drills: drills}
}

const freeConversationPrompt = "Ти си приятелски учител по български език. Отговори кратко и естествено на български, продължавайки разговора."

const correctionSystemPrompt = "Ти си учител по български език. Отговори кратко на български: първо по съдържанието на изречението, после спомени граматическата поправка."

// topCorrection picks the highest-severity correction, breaking ties by
// rule id (spec §4.7 step 2 reuses the analyzer's own ordering).
func topCorrection(corrections []grammar.Correction) grammar.Correction {
	sorted := append([]grammar.Correction(nil), corrections...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Severity != sorted[j].Severity {
			return sorted[i].Severity > sorted[j].Severity
		}
		return sorted[i].RuleID < sorted[j].RuleID
	})
	return sorted[0]
}

// grammarIDFor maps a grammar analyzer rule category to this process's
// bundled Content Store ids. A category with no matching item omits
// drills per spec §7 ContentMissing.
func grammarIDFor(category string) string {
	switch category {
	case "no-infinitive":
		return "no-infinitive-01"
	case "definite-article":
		return "definite-article-01"
	case "future-shte":
		return "future-shte-01"
	case "clitic-position":
		return "clitic-position-01"
	default:
		return ""
	}
}

func composePrompt(finalText string, top grammar.Correction, item content.GrammarItem, l1 grammar.L1) string {
	prompt := fmt.Sprintf("Ученикът каза: %q\nПоправена форма: %q", finalText, top.Suggested)
	if item.MicroExplanation != "" {
		prompt += fmt.Sprintf("\nОбяснение: %s", item.MicroExplanation)
	}
	if top.L1Note != "" {
		prompt += fmt.Sprintf("\nЗабележка (%s): %s", l1, top.L1Note)
	}
	return prompt
}
