package grammar

import "strings"

// modalVerbs are finite modal/aspectual forms that grammatically require
// a following да + present-tense clause rather than a bare infinitive-like
// second verb (spec.md §4.5 rule 1).
var modalVerbs = map[string]bool{
	"искам": true, "искаш": true, "иска": true, "искаме": true, "искате": true, "искат": true,
	"мога": true, "можеш": true, "може": true, "можем": true, "можете": true, "могат": true,
	"трябва": true,
	"обичам": true, "обичаш": true, "обича": true, "обичаме": true, "обичате": true, "обичат": true,
}

// finiteVerbSuffixes is a coarse heuristic for "looks like a finite verb
// form" used where a real morphological analyzer would normally decide.
var finiteVerbSuffixes = []string{"ам", "ям", "аш", "иш", "ите", "ете", "ат", "ят", "ва", "им", "ем"}

func looksLikeFiniteVerb(w string) bool {
	lw := strings.ToLower(w)
	for _, suf := range finiteVerbSuffixes {
		if strings.HasSuffix(lw, suf) {
			return true
		}
	}
	return false
}

// daFormOverrides is a small curated table of imperfective verb forms whose
// да-clause (present-tense, typically perfective) complement differs from
// the bare form a learner tends to substitute — e.g. "поръчвам" (to be
// ordering) takes "поръчам" (to order) after да, not itself (spec.md §4.5
// rule 1, scenario 2). Verbs absent from this table are assumed unchanged.
var daFormOverrides = map[string]string{
	"поръчвам": "поръчам",
	"купувам":  "купя",
	"отварям":  "отворя",
	"затварям": "затворя",
	"плащам":   "платя",
}

// daForm returns the present-tense form a verb takes in a да-clause.
func daForm(verb string) string {
	if f, ok := daFormOverrides[strings.ToLower(verb)]; ok {
		return f
	}
	return verb
}

// ruleNoInfinitive flags a modal verb directly followed by another finite
// verb with no intervening "да".
func ruleNoInfinitive(toks []token) []Correction {
	var out []Correction
	for i := 0; i < len(toks)-1; i++ {
		if !modalVerbs[strings.ToLower(toks[i].Text)] {
			continue
		}
		next := toks[i+1]
		if strings.EqualFold(next.Text, "да") {
			continue
		}
		if !looksLikeFiniteVerb(next.Text) {
			continue
		}
		span := Span{Start: toks[i].Start, End: next.End}
		before := toks[i].Text + " " + next.Text
		after := toks[i].Text + " да " + daForm(next.Text)
		out = append(out, Correction{
			RuleID:      "no-infinitive",
			Category:    "no-infinitive",
			Span:        &span,
			Before:      before,
			Suggested:   after,
			Explanation: "Bulgarian has no infinitive: a modal verb takes да + a present-tense clause.",
			Severity:    SeverityModerate,
		})
	}
	return out
}

// definiteNounHeads is a small curated set of common nouns used to flag
// the postposed-definite-article error; a production analyzer would use
// full morphological tagging instead of a fixed list.
var definiteNounHeads = map[string]bool{
	"човек": true, "жена": true, "дете": true, "град": true, "къща": true,
	"учител": true, "ученик": true, "книга": true, "маса": true, "прозорец": true,
}

// ruleDefiniteArticle flags a bare noun in sentence-initial subject
// position immediately followed by a finite verb — the classic L2 gap of
// omitting the postposed definite article.
func ruleDefiniteArticle(toks []token) []Correction {
	var out []Correction
	for i, tok := range toks {
		if !tok.SentenceInitial {
			continue
		}
		lw := strings.ToLower(tok.Text)
		if !definiteNounHeads[lw] {
			continue
		}
		if i+1 >= len(toks) || !looksLikeFiniteVerb(toks[i+1].Text) {
			continue
		}
		span := Span{Start: tok.Start, End: tok.End}
		suffix := definiteSuffixFor(lw)
		out = append(out, Correction{
			RuleID:      "definite-article",
			Category:    "definite-article",
			Span:        &span,
			Before:      tok.Text,
			Suggested:   tok.Text + suffix,
			Explanation: "The definite article is a suffix in Bulgarian; a bare noun in subject position needs it.",
			Severity:    SeveritySerious,
		})
	}
	return out
}

// definiteSuffixFor guesses the postposed article by the noun's final
// letter: consonant -> -ът/-ят, -а/-я -> -та, -о/-е -> -то.
func definiteSuffixFor(noun string) string {
	r := []rune(noun)
	if len(r) == 0 {
		return ""
	}
	last := r[len(r)-1]
	switch last {
	case 'а', 'я':
		return "та"
	case 'о', 'е':
		return "то"
	case 'и':
		return "те"
	default:
		if last == 'й' {
			return "ят"
		}
		return "ът"
	}
}

// futureAdverbials are time adverbials whose presence, with a bare
// present-tense verb elsewhere in the sentence, signals a missing "ще".
var futureAdverbials = map[string]bool{
	"утре": true, "довечера": true, "следобед": true, "скоро": true,
}

// ruleFutureShte flags a bare present-tense verb co-occurring with a
// future adverbial and suggests prepending "ще".
func ruleFutureShte(toks []token) []Correction {
	hasFuture := false
	for _, t := range toks {
		if futureAdverbials[strings.ToLower(t.Text)] {
			hasFuture = true
			break
		}
		if strings.ToLower(t.Text) == "след" {
			hasFuture = true
			break
		}
	}
	if !hasFuture {
		return nil
	}

	var out []Correction
	for i, tok := range toks {
		if strings.EqualFold(tok.Text, "ще") {
			return nil // already has ще somewhere in this sentence-ish window; skip flagging
		}
		if i > 0 && strings.EqualFold(toks[i-1].Text, "ще") {
			continue
		}
		if !looksLikeFiniteVerb(tok.Text) || futureAdverbials[strings.ToLower(tok.Text)] {
			continue
		}
		span := Span{Start: tok.Start, End: tok.End}
		out = append(out, Correction{
			RuleID:      "future-shte",
			Category:    "future-shte",
			Span:        &span,
			Before:      tok.Text,
			Suggested:   "ще " + tok.Text,
			Explanation: "A future time adverbial requires the particle ще before the verb.",
			Severity:    SeverityModerate,
		})
		break // one flag per sentence is enough signal; avoids noisy duplicate hits
	}
	return out
}

// cliticPronouns are short object/reflexive clitics that must attach to
// the verb, never open a clause on their own.
var cliticPronouns = map[string]bool{
	"се": true, "си": true, "ми": true, "ти": true, "му": true,
	"го": true, "я": true, "ни": true, "ви": true, "ги": true,
}

// ruleCliticPosition flags a clitic pronoun opening a sentence, the
// textbook word-order error for L2 Bulgarian speakers, and suggests the
// repositioned clitic+verb order (grounded on content/bg_grammar_pack.json's
// drill-clitic-01: "Го виждам..." -> "Виждам го...").
func ruleCliticPosition(toks []token) []Correction {
	var out []Correction
	for i, tok := range toks {
		if !tok.SentenceInitial {
			continue
		}
		if !cliticPronouns[strings.ToLower(tok.Text)] {
			continue
		}
		if i+1 >= len(toks) {
			continue
		}
		verb := toks[i+1]
		span := Span{Start: tok.Start, End: verb.End}
		before := tok.Text + " " + verb.Text
		after := verb.Text + " " + tok.Text
		out = append(out, Correction{
			RuleID:      "clitic-position",
			Category:    "clitic-position",
			Span:        &span,
			Before:      before,
			Suggested:   after,
			Explanation: "Clitic pronouns cannot open a clause; they attach immediately after the finite verb (or after не in a negated clause).",
			Severity:    SeverityModerate,
		})
	}
	return out
}

// vocabConfusions is a small curated list of common L2 spelling/vocabulary
// slips, producing low-severity suggestions (spec.md §4.5 rule 5).
var vocabConfusions = map[string]string{
	"магазина": "магазинът",
	"учитела":  "учителят",
	"града":    "градът",
}

func ruleVocabSpelling(toks []token) []Correction {
	var out []Correction
	for _, tok := range toks {
		correct, ok := vocabConfusions[strings.ToLower(tok.Text)]
		if !ok || correct == tok.Text {
			continue
		}
		span := Span{Start: tok.Start, End: tok.End}
		out = append(out, Correction{
			RuleID:      "vocab-spelling",
			Category:    "vocab-spelling",
			Span:        &span,
			Before:      tok.Text,
			Suggested:   correct,
			Explanation: "Common spelling slip for this word's definite form.",
			Severity:    SeverityLow,
		})
	}
	return out
}
