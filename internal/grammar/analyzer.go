package grammar

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ruleFuncs lists every rule in a fixed order. Analyze returns
// corrections in this order: conflict resolution replaces a displaced
// correction in place and does not re-sort.
var ruleFuncs = []func([]token) []Correction{
	ruleNoInfinitive,
	ruleDefiniteArticle,
	ruleFutureShte,
	ruleCliticPosition,
	ruleVocabSpelling,
}

// normalizeText is the single normalization step every Span, Before, and
// Suggested value is computed against: NFC followed by case folding.
// Lowercasing here (rather than per-rule) is what lets spec.md §3's
// "before ≠ after" and span-validity invariants hold uniformly, since
// rule output no longer has to special-case a sentence-initial capital.
// Bulgarian Cyrillic letters are 2 bytes in both cases and fold 1:1, so
// rune-offset Spans computed against this lowercased copy land on the
// same character positions as the original text.
func normalizeText(text string) string {
	return strings.ToLower(norm.NFC.String(text))
}

// Analyze is the pure function described in spec.md §4.5: it never
// performs I/O, never consults wall-clock time or randomness, and always
// produces the same Correction set for the same (text, l1) pair.
func Analyze(text string, l1 L1) []Correction {
	normalized := normalizeText(text)
	toks := tokenize(normalized)

	var all []Correction
	for _, rule := range ruleFuncs {
		all = append(all, rule(toks)...)
	}

	resolved := resolveConflicts(all)
	for i := range resolved {
		resolved[i].L1Note = l1Note(resolved[i].Category, l1)
	}
	return resolved
}

// resolveConflicts keeps, among corrections whose spans overlap, the one
// with the higher severity, breaking ties by rule id (spec.md §4.5).
func resolveConflicts(corrections []Correction) []Correction {
	kept := make([]Correction, 0, len(corrections))
	for _, c := range corrections {
		displaced := -1
		dropSelf := false
		for i, k := range kept {
			if !spansOverlap(c.Span, k.Span) {
				continue
			}
			if winsOver(c, k) {
				displaced = i
			} else {
				dropSelf = true
			}
			break
		}
		if dropSelf {
			continue
		}
		if displaced >= 0 {
			kept[displaced] = c
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// winsOver reports whether a should replace b under a span conflict:
// higher severity wins, ties broken by lexicographically smaller rule id.
func winsOver(a, b Correction) bool {
	if a.Severity != b.Severity {
		return a.Severity > b.Severity
	}
	return a.RuleID < b.RuleID
}

func spansOverlap(a, b *Span) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Start < b.End && b.Start < a.End
}
