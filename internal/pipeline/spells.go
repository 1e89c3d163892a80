package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/ramonehamilton/commander-forge/internal/deck"
	"github.com/ramonehamilton/commander-forge/internal/events"
	"github.com/ramonehamilton/commander-forge/internal/match"
	"github.com/ramonehamilton/commander-forge/internal/oracle"
	"github.com/ramonehamilton/commander-forge/internal/reduce"
)

// SpellSelection is the spell stage's structured result.
type SpellSelection struct {
	Spells         []deck.Card    `json:"spells"`
	TotalSpells    int            `json:"totalSpells"`
	CategoryCounts map[string]int `json:"categoryCounts"`
}

func (b *Builder) runSpells(ctx context.Context, bb *build) error {
	if !bb.sink.Publish(events.StageStarted(StageSpells, "Selecting spells and support")) {
		return ErrAbandoned
	}

	// Spells close the gap to the full deck, whatever the earlier
	// stages actually produced.
	target := deckTarget - len(bb.lands) - len(bb.creatures)
	if target < 0 {
		target = 0
	}

	candidates := bb.reducer.Reduce(ctx, filterSpells(bb.pool), reduce.Config{
		BatchSize:      b.config.SpellBatchSize,
		SelectFraction: b.config.SpellRetention,
		Context:        bb.strategic() + " These candidates are noncreature spells.",
		Concurrency:    b.config.BatchConcurrency,
		OnProgress:     bb.progressRange(StageSpells, 0, 70),
	})

	bb.sink.Publish(events.Progress(StageSpells, 85, "Choosing the final spell suite"))

	spells := b.pickSpells(ctx, bb, candidates, target)
	bb.spells = spells

	sel := SpellSelection{Spells: spells, TotalSpells: len(spells), CategoryCounts: classifyAll(spells)}
	msg := fmt.Sprintf("%d spells selected toward a target of %d", len(spells), target)
	if !bb.sink.Publish(events.StageFinished(StageSpells, msg, sel)) {
		return ErrAbandoned
	}
	return nil
}

// filterSpells keeps cards that are neither lands nor creatures.
func filterSpells(pool []deck.Card) []deck.Card {
	var out []deck.Card
	for _, c := range pool {
		if c.IsSpell() {
			out = append(out, c)
		}
	}
	return out
}

type spellResponse struct {
	Spells []namedPick `json:"spells"`
}

func (b *Builder) pickSpells(ctx context.Context, bb *build, candidates []deck.Card, want int) []deck.Card {
	if want == 0 || len(candidates) == 0 {
		return nil
	}
	if want > len(candidates) {
		want = len(candidates)
	}

	spells, err := b.askSpells(ctx, bb, candidates, want)
	if err != nil {
		b.log.Warn("spell selection failed, keeping leading candidates",
			zap.Int("kept", want), zap.Error(err))
		return candidates[:want]
	}
	return spells
}

func (b *Builder) askSpells(ctx context.Context, bb *build, candidates []deck.Card, want int) ([]deck.Card, error) {
	text, err := bb.oracle.Complete(ctx, spellFinalPrompt(bb, candidates, want))
	if err != nil {
		return nil, err
	}
	raw, err := oracle.ExtractObject(text)
	if err != nil {
		return nil, err
	}
	var resp spellResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("decoding spell response: %w", err)
	}

	// Reconciled picks beyond the requested count stay in; the cut
	// stage owns the final count.
	names := cardNames(candidates)
	used := make(map[int]bool)
	var out []deck.Card
	for _, pick := range resp.Spells {
		idx, ok := match.Find(pick.Name, names)
		if !ok || used[idx] {
			continue
		}
		used[idx] = true
		out = append(out, candidates[idx])
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no spell selections reconciled")
	}
	return out, nil
}
