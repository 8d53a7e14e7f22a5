// Package content loads the Content Store (C10): grammar items, drills,
// and scenarios read once from JSON at startup and shared read-only
// across every session for the life of the process.
package content

import (
	"encoding/json"
	"fmt"
	"os"
)

// GrammarItem is one addressable grammar point the Coach Orchestrator can
// attach to a correction.
type GrammarItem struct {
	ID              string   `json:"id"`
	Category        string   `json:"category"`
	Title           string   `json:"title"`
	MicroExplanation string  `json:"micro_explanation"`
	Level           int      `json:"level"`
	DrillIDs        []string `json:"drill_ids"`
}

// Drill is a short practice exercise tied to a GrammarItem.
type Drill struct {
	ID       string `json:"id"`
	Level    int    `json:"level"`
	Prompt   string `json:"prompt"`
	Expected string `json:"expected"`
}

// Scenario is a coaching conversation scaffold referencing grammar items
// relevant to it.
type Scenario struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	GrammarIDs  []string `json:"grammar_ids"`
}

type grammarPack struct {
	Items []GrammarItem `json:"items"`
}

type scenarioPack struct {
	Scenarios []Scenario `json:"scenarios"`
}

// ErrNotFound is returned by lookups for an unknown id (spec §7 ContentMissing).
var ErrNotFound = fmt.Errorf("content: not found")

// Store is the immutable, process-lifetime Content Store. It is built
// once at startup and never mutated afterward, so concurrent reads from
// any session require no locking (spec §5 Shared-resource policy).
type Store struct {
	grammar   map[string]GrammarItem
	drills    map[string]Drill
	scenarios []Scenario
}

// Load reads bg_grammar_pack.json and bg_scenarios_with_grammar.json from
// dir and builds an immutable Store. A missing or invalid file is a
// configuration error (spec §6, exit code 2).
func Load(dir string) (*Store, error) {
	gp, err := loadGrammarPack(dir + "/bg_grammar_pack.json")
	if err != nil {
		return nil, fmt.Errorf("load grammar pack: %w", err)
	}
	sp, err := loadScenarioPack(dir + "/bg_scenarios_with_grammar.json")
	if err != nil {
		return nil, fmt.Errorf("load scenario pack: %w", err)
	}

	s := &Store{
		grammar: make(map[string]GrammarItem, len(gp.Items)),
		drills:  make(map[string]Drill),
	}
	for _, item := range gp.Items {
		s.grammar[item.ID] = item
	}
	// Drills are embedded per grammar item in the on-disk schema only as
	// ids; the companion prompts live alongside them in the same file
	// under a parallel "drills" key loaded here for lookup by id.
	drills, err := loadDrills(dir + "/bg_grammar_pack.json")
	if err != nil {
		return nil, fmt.Errorf("load drills: %w", err)
	}
	for _, d := range drills {
		s.drills[d.ID] = d
	}
	s.scenarios = sp.Scenarios
	return s, nil
}

func loadGrammarPack(path string) (grammarPack, error) {
	var gp grammarPack
	data, err := os.ReadFile(path)
	if err != nil {
		return gp, err
	}
	if err := json.Unmarshal(data, &gp); err != nil {
		return gp, fmt.Errorf("parse %s: %w", path, err)
	}
	return gp, nil
}

func loadScenarioPack(path string) (scenarioPack, error) {
	var sp scenarioPack
	data, err := os.ReadFile(path)
	if err != nil {
		return sp, err
	}
	if err := json.Unmarshal(data, &sp); err != nil {
		return sp, fmt.Errorf("parse %s: %w", path, err)
	}
	return sp, nil
}

type drillsFile struct {
	Drills []Drill `json:"drills"`
}

func loadDrills(path string) ([]Drill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var df drillsFile
	if err := json.Unmarshal(data, &df); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return df.Drills, nil
}

// GrammarByID looks up a grammar item by id.
func (s *Store) GrammarByID(id string) (GrammarItem, error) {
	item, ok := s.grammar[id]
	if !ok {
		return GrammarItem{}, ErrNotFound
	}
	return item, nil
}

// Scenarios returns the full scenario index.
func (s *Store) Scenarios() []Scenario {
	return s.scenarios
}

// DrillsFor returns up to max drills for a grammar item, filtered to
// level <= maxLevel, highest level first (spec §4.7 step 3).
func (s *Store) DrillsFor(grammarID string, maxLevel, max int) []Drill {
	item, ok := s.grammar[grammarID]
	if !ok {
		return nil
	}
	var candidates []Drill
	for _, id := range item.DrillIDs {
		d, ok := s.drills[id]
		if !ok || d.Level > maxLevel {
			continue
		}
		candidates = append(candidates, d)
	}
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if candidates[j].Level > candidates[i].Level {
				candidates[i], candidates[j] = candidates[j], candidates[i]
			}
		}
	}
	if len(candidates) > max {
		candidates = candidates[:max]
	}
	return candidates
}
