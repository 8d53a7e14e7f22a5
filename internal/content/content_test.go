package content

import "testing"

func TestLoadAndLookup(t *testing.T) {
	store, err := Load("../../content")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	item, err := store.GrammarByID("no-infinitive-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Title == "" {
		t.Error("expected a non-empty title")
	}

	if _, err := store.GrammarByID("does-not-exist"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if len(store.Scenarios()) == 0 {
		t.Error("expected at least one scenario")
	}
}

func TestDrillsForFiltersByLevelAndCaps(t *testing.T) {
	store, err := Load("../../content")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	drills := store.DrillsFor("no-infinitive-01", 1, 2)
	if len(drills) != 1 {
		t.Fatalf("expected 1 drill at level<=1, got %d", len(drills))
	}
	for _, d := range drills {
		if d.Level > 1 {
			t.Errorf("expected only level<=1 drills, got level %d", d.Level)
		}
	}

	if got := store.DrillsFor("unknown-id", 5, 2); got != nil {
		t.Errorf("expected nil drills for unknown grammar id, got %v", got)
	}
}
