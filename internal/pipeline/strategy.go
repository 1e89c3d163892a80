package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ramonehamilton/commander-forge/internal/events"
	"github.com/ramonehamilton/commander-forge/internal/oracle"
)

// Strategy is one ranked approach to building the commander.
type Strategy struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	WinConditions []string `json:"winConditions"`
	Archetypes    []string `json:"archetypes"`
	KeyThemes     []string `json:"keyThemes"`
}

// StrategyPlan is the strategy stage's result: exactly three
// strategies, strongest first.
type StrategyPlan struct {
	Strategies []Strategy `json:"strategies"`
}

// Primary is the top-ranked strategy.
func (p *StrategyPlan) Primary() Strategy {
	if p == nil || len(p.Strategies) == 0 {
		return Strategy{}
	}
	return p.Strategies[0]
}

// aggro reports whether the primary strategy is an aggressive
// archetype. Land and creature targets key off this.
func (p *StrategyPlan) aggro() bool {
	primary := p.Primary()
	if strings.Contains(strings.ToLower(primary.Name), "aggro") {
		return true
	}
	for _, a := range primary.Archetypes {
		if strings.Contains(strings.ToLower(a), "aggro") {
			return true
		}
	}
	return false
}

func (b *Builder) runStrategy(ctx context.Context, bb *build) error {
	if !bb.sink.Publish(events.StageStarted(StageStrategy, "Analyzing commander and picking a strategy")) {
		return ErrAbandoned
	}

	plan, err := b.askStrategy(ctx, bb)
	if err != nil {
		b.log.Warn("strategy call failed, using fallback plan",
			zap.String("commander", bb.commander.Name), zap.Error(err))
		plan = fallbackPlan(bb.commander.Name)
	}
	bb.plan = plan

	msg := fmt.Sprintf("Strategy: %s", plan.Primary().Name)
	if !bb.sink.Publish(events.StageFinished(StageStrategy, msg, plan)) {
		return ErrAbandoned
	}
	return nil
}

func (b *Builder) askStrategy(ctx context.Context, bb *build) (*StrategyPlan, error) {
	text, err := bb.oracle.Complete(ctx, strategyPrompt(bb.commander, len(bb.pool), bb.opts))
	if err != nil {
		return nil, err
	}
	raw, err := oracle.ExtractObject(text)
	if err != nil {
		return nil, err
	}
	var plan StrategyPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, fmt.Errorf("decoding strategy response: %w", err)
	}
	if len(plan.Strategies) != 3 {
		return nil, fmt.Errorf("want 3 ranked strategies, got %d", len(plan.Strategies))
	}
	return &plan, nil
}

// fallbackPlan is the deterministic plan used when the oracle cannot
// produce one.
func fallbackPlan(commander string) *StrategyPlan {
	return &StrategyPlan{Strategies: []Strategy{
		{
			Name:          commander + " Value Engine",
			Description:   "Grind out incremental advantage, trade resources efficiently, and take over the long game through accumulated value.",
			WinConditions: []string{"combat damage after stabilizing", "out-valuing opponents late"},
			Archetypes:    []string{"midrange", "value"},
			KeyThemes:     []string{"card advantage", "recursion", "flexible removal"},
		},
		{
			Name:          commander + " Aggro",
			Description:   "Deploy threats early and pressure life totals before opponents can set up.",
			WinConditions: []string{"combat damage"},
			Archetypes:    []string{"aggro"},
			KeyThemes:     []string{"low curve", "haste", "combat tricks"},
		},
		{
			Name:          commander + " Control",
			Description:   "Answer threats efficiently, keep the board clear, and close with a resilient finisher.",
			WinConditions: []string{"late-game finisher", "commander damage"},
			Archetypes:    []string{"control"},
			KeyThemes:     []string{"counterspells", "board wipes", "card draw"},
		},
	}}
}
