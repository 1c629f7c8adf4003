package cards

import (
	"testing"
	"time"
)

func TestRules_Multiplier(t *testing.T) {
	rules := DefaultRules()

	cases := []struct {
		streak int
		want   float64
	}{
		{0, 1.0},
		{1, 1.0},
		{2, 1.2},
		{3, 1.4},
		{5, 1.8},
		{6, 2.0},
		{7, 2.0},
		{100, 2.0},
	}
	for _, tc := range cases {
		got := rules.Multiplier(tc.streak)
		if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Multiplier(%d) = %v, want %v", tc.streak, got, tc.want)
		}
	}
}

func TestRules_Score(t *testing.T) {
	rules := DefaultRules()

	if got := rules.Score(10, 1); got != 10 {
		t.Errorf("Score(10, 1) = %d, want 10", got)
	}
	if got := rules.Score(15, 2); got != 18 {
		t.Errorf("Score(15, 2) = %d, want 18", got)
	}
	if got := rules.Score(25, 4); got != 40 {
		t.Errorf("Score(25, 4) = %d, want 40", got)
	}
	if got := rules.Score(55, 50); got != 110 {
		t.Errorf("Score(55, 50) = %d, want 110", got)
	}
}

func TestDefaultRules_Valid(t *testing.T) {
	rules := DefaultRules()
	if err := rules.Validate(); err != nil {
		t.Fatalf("default rules invalid: %v", err)
	}
	if rules.Catalog.Len() != 74 {
		t.Errorf("expected 74 catalog cards, got %d", rules.Catalog.Len())
	}
	if rules.InitialPoints != 30 {
		t.Errorf("expected initial points 30, got %d", rules.InitialPoints)
	}
	if rules.CooldownWindow != 5*time.Minute {
		t.Errorf("expected 5m cooldown, got %s", rules.CooldownWindow)
	}

	card, ok := rules.Catalog.Lookup("kelvin_helmholtz")
	if !ok {
		t.Fatal("kelvin_helmholtz missing from catalog")
	}
	if card.Rarity != RarityMythic || card.BaseScore != 55 {
		t.Errorf("unexpected kelvin_helmholtz entry: %+v", card)
	}
	if cost, _ := rules.UnlockCost(card.Rarity); cost != 300 {
		t.Errorf("mythic unlock cost = %d, want 300", cost)
	}
}

func TestRules_ValidateRejectsUnpricedTier(t *testing.T) {
	rules := DefaultRules()
	rules.UnlockCosts = map[Rarity]int{RarityCommon: 10}
	if err := rules.Validate(); err == nil {
		t.Fatal("expected validation error for missing unlock costs")
	}
}

func TestRules_Stars(t *testing.T) {
	rules := DefaultRules()
	for litCount, want := range map[int]int{0: 0, 1: 1, 5: 5, 9: 5} {
		if got := rules.Stars(litCount); got != want {
			t.Errorf("Stars(%d) = %d, want %d", litCount, got, want)
		}
	}
}

func TestNewCatalog_Validation(t *testing.T) {
	if _, err := NewCatalog([]Card{{ID: "a", BaseScore: 10, Rarity: RarityCommon}, {ID: "a", BaseScore: 5, Rarity: RarityRare}}); err == nil {
		t.Error("expected duplicate id error")
	}
	if _, err := NewCatalog([]Card{{ID: "a", BaseScore: 0, Rarity: RarityCommon}}); err == nil {
		t.Error("expected non-positive score error")
	}
	if _, err := NewCatalog([]Card{{ID: "a", BaseScore: 10, Rarity: "shiny"}}); err == nil {
		t.Error("expected unknown rarity error")
	}
}

func TestParseRarity(t *testing.T) {
	cases := []struct {
		in     string
		want   Rarity
		wantOK bool
	}{
		{"common", RarityCommon, true},
		{"Legendary", RarityLegendary, true},
		{"较少见", RarityUncommon, true},
		{"极罕见", RarityMythic, true},
		{"", "", false},
		{"sparkly", "sparkly", false},
	}
	for _, tc := range cases {
		got, ok := ParseRarity(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("ParseRarity(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}
