package pipeline

import (
	"strings"
	"testing"
)

func TestAggro(t *testing.T) {
	tests := []struct {
		name string
		plan *StrategyPlan
		want bool
	}{
		{"nil plan", nil, false},
		{"empty plan", &StrategyPlan{}, false},
		{
			"aggro in name",
			&StrategyPlan{Strategies: []Strategy{{Name: "Krenko Aggro"}}},
			true,
		},
		{
			"aggro archetype",
			&StrategyPlan{Strategies: []Strategy{{Name: "Goblin Swarm", Archetypes: []string{"Aggro", "tokens"}}}},
			true,
		},
		{
			"midrange",
			&StrategyPlan{Strategies: []Strategy{{Name: "Value Town", Archetypes: []string{"midrange"}}}},
			false,
		},
		{
			"aggro only in second strategy",
			&StrategyPlan{Strategies: []Strategy{
				{Name: "Control", Archetypes: []string{"control"}},
				{Name: "Aggro", Archetypes: []string{"aggro"}},
			}},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.plan.aggro(); got != tt.want {
				t.Errorf("aggro() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFallbackPlan(t *testing.T) {
	plan := fallbackPlan("Krenko, Mob Boss")
	if len(plan.Strategies) != 3 {
		t.Fatalf("strategies = %d, want 3", len(plan.Strategies))
	}
	for i, s := range plan.Strategies {
		if !strings.HasPrefix(s.Name, "Krenko, Mob Boss") {
			t.Errorf("strategy %d name = %q, missing commander prefix", i, s.Name)
		}
		if s.Description == "" || len(s.WinConditions) == 0 || len(s.KeyThemes) == 0 {
			t.Errorf("strategy %d is missing fields: %+v", i, s)
		}
	}
	if plan.aggro() {
		t.Error("fallback primary strategy should not read as aggro")
	}
	if plan.Primary().Name != "Krenko, Mob Boss Value Engine" {
		t.Errorf("primary = %q", plan.Primary().Name)
	}
}
