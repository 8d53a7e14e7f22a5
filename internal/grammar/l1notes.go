package grammar

// l1Notes gives a short contrast remark per rule category and L1
// background, used only to annotate a Correction — it never changes
// which corrections are produced (spec.md §4.5).
var l1Notes = map[string]map[L1]string{
	"no-infinitive": {
		PL: "Polish uiżywa bezokolicznika po czasownikach modalnych; bułgarski wymaga да + czas teraźniejszy.",
		RU: "В русском после модального глагола идёт инфinitiv; в болгарском — да + настоящее время.",
		UK: "В українській після модального дієслова — інфінітив; у болгарській — да + теперішній час.",
		SR: "Srpski koristi infinitiv posle modalnog glagola; bugarski zahteva da + prezent.",
	},
	"definite-article": {
		PL: "Polski nie ma rodzajnika; bułgarski dokleja go jako końcówkę rzeczownika.",
		RU: "В русском артиклей нет; в болгарском определённый артикль — суффикс существительного.",
		UK: "В українській немає артиклів; у болгарській означений артикль — суфікс іменника.",
		SR: "Srpski nema član; bugarski ga dodaje kao sufiks imenice.",
	},
	"future-shte": {
		PL: "Polski tworzy czas przyszły inaczej; bułgarski używa niezmiennej cząstki ще przed czasownikiem.",
		RU: "В русском будущее время образуется иначе; в болгарском — неизменяемая частица ще перед глаголом.",
		UK: "В українській майбутній час інший; у болгарській — незмінна частка ще перед дієсловом.",
		SR: "Srpski gradi futur drugačije; bugarski koristi nepromenljivu česticu ще ispred glagola.",
	},
	"clitic-position": {
		PL: "Polski nie ma klityk czasownikowych w tej pozycji; w bułgarskim klityka musi stać przy czasowniku.",
		RU: "В русском нет клитик в этой позиции; в болгарском клитика должна стоять при глаголе.",
		UK: "В українській немає клітик у цій позиції; у болгарській клітика має стояти біля дієслова.",
		SR: "Srpski klitike se ponašaju drugačije; u bugarskom klitika mora stajati uz glagol.",
	},
}

func l1Note(category string, l1 L1) string {
	if byL1, ok := l1Notes[category]; ok {
		return byL1[l1]
	}
	return ""
}
