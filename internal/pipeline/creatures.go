package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ramonehamilton/commander-forge/internal/deck"
	"github.com/ramonehamilton/commander-forge/internal/events"
	"github.com/ramonehamilton/commander-forge/internal/match"
	"github.com/ramonehamilton/commander-forge/internal/oracle"
	"github.com/ramonehamilton/commander-forge/internal/reduce"
)

// CreatureSelection is the creature stage's structured result.
type CreatureSelection struct {
	Creatures      []deck.Card    `json:"creatures"`
	TotalCreatures int            `json:"totalCreatures"`
	CategoryCounts map[string]int `json:"categoryCounts"`
}

func (b *Builder) runCreatures(ctx context.Context, bb *build) error {
	if !bb.sink.Publish(events.StageStarted(StageCreatures, "Selecting creatures")) {
		return ErrAbandoned
	}

	candidates := bb.reducer.Reduce(ctx, filterCreatures(bb.pool), reduce.Config{
		BatchSize:      b.config.CreatureBatchSize,
		SelectFraction: b.config.CreatureRetention,
		Context:        bb.strategic() + " These candidates are creatures.",
		Concurrency:    b.config.BatchConcurrency,
		OnProgress:     bb.progressRange(StageCreatures, 0, 70),
	})

	bb.sink.Publish(events.Progress(StageCreatures, 85, "Choosing the final creature suite"))

	creatures, categories := b.pickCreatures(ctx, bb, candidates, b.creatureTarget(bb.plan))
	bb.creatures = creatures

	sel := CreatureSelection{Creatures: creatures, TotalCreatures: len(creatures), CategoryCounts: categories}
	msg := fmt.Sprintf("%d creatures selected", len(creatures))
	if !bb.sink.Publish(events.StageFinished(StageCreatures, msg, sel)) {
		return ErrAbandoned
	}
	return nil
}

func (b *Builder) creatureTarget(plan *StrategyPlan) int {
	if plan.aggro() {
		return b.config.AggroCreatures
	}
	return b.config.DefaultCreatures
}

// filterCreatures keeps non-land creatures; creature lands belong to
// the land stage.
func filterCreatures(pool []deck.Card) []deck.Card {
	var out []deck.Card
	for _, c := range pool {
		if c.IsCreature() {
			out = append(out, c)
		}
	}
	return out
}

type creaturePick struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type creatureResponse struct {
	Creatures []creaturePick `json:"creatures"`
}

func (b *Builder) pickCreatures(ctx context.Context, bb *build, candidates []deck.Card, want int) ([]deck.Card, map[string]int) {
	if len(candidates) == 0 {
		return nil, map[string]int{}
	}
	if want > len(candidates) {
		want = len(candidates)
	}

	creatures, categories, err := b.askCreatures(ctx, bb, candidates, want)
	if err != nil {
		b.log.Warn("creature selection failed, keeping leading candidates",
			zap.Int("kept", want), zap.Error(err))
		fb := candidates[:want]
		return fb, classifyAll(fb)
	}
	return creatures, categories
}

func (b *Builder) askCreatures(ctx context.Context, bb *build, candidates []deck.Card, want int) ([]deck.Card, map[string]int, error) {
	text, err := bb.oracle.Complete(ctx, creatureFinalPrompt(bb, candidates, want))
	if err != nil {
		return nil, nil, err
	}
	raw, err := oracle.ExtractObject(text)
	if err != nil {
		return nil, nil, err
	}
	var resp creatureResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, nil, fmt.Errorf("decoding creature response: %w", err)
	}

	// Every reconciled pick is kept even when the oracle returns more
	// than asked; the cut stage owns the final count.
	names := cardNames(candidates)
	used := make(map[int]bool)
	var out []deck.Card
	categories := make(map[string]int)
	for _, pick := range resp.Creatures {
		idx, ok := match.Find(pick.Name, names)
		if !ok || used[idx] {
			continue
		}
		used[idx] = true
		out = append(out, candidates[idx])

		cat := strings.ToLower(strings.TrimSpace(pick.Category))
		if cat == "" {
			cat = classifyRole(candidates[idx])
		}
		categories[cat]++
	}
	if len(out) == 0 {
		return nil, nil, fmt.Errorf("no creature selections reconciled")
	}
	return out, categories, nil
}

// classifyRole buckets a card by its rules text.
func classifyRole(c deck.Card) string {
	text := strings.ToLower(c.OracleText)
	switch {
	case strings.Contains(text, "add {"),
		strings.Contains(text, "search your library for a basic land"),
		strings.Contains(text, "search your library for a land"):
		return "ramp"
	case strings.Contains(text, "destroy target"),
		strings.Contains(text, "exile target"),
		strings.Contains(text, "deals damage to target"):
		return "removal"
	case strings.Contains(text, "draw a card"),
		strings.Contains(text, "draw two cards"),
		strings.Contains(text, "draw three cards"):
		return "draw"
	default:
		return "other"
	}
}

func classifyAll(items []deck.Card) map[string]int {
	cats := make(map[string]int)
	for _, c := range items {
		cats[classifyRole(c)]++
	}
	return cats
}
