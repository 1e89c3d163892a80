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
)

// CutSummary is the optimization stage's event payload.
type CutSummary struct {
	Excess         int `json:"excess"`
	NamedCuts      int `json:"namedCuts"`
	MechanicalCuts int `json:"mechanicalCuts"`
	Total          int `json:"total"`
}

// runOptimize enforces the hundred-card invariant and assembles the
// final deck. This is the only stage that can fail after pool
// resolution: a selection total that cannot reach exactly 99
// non-commander cards aborts the build.
func (b *Builder) runOptimize(ctx context.Context, bb *build) (*deck.FinalDeck, error) {
	if !bb.sink.Publish(events.StageStarted(StageOptimize, "Trimming to one hundred cards")) {
		return nil, ErrAbandoned
	}

	total := len(bb.lands) + len(bb.creatures) + len(bb.spells)
	if total < deckTarget {
		return nil, fmt.Errorf("selections total %d cards, need %d: card pool too small for the stage targets", total, deckTarget)
	}

	excess := total - deckTarget
	named := 0
	if excess > 0 {
		named = b.applyNamedCuts(ctx, bb, excess)
		trimDeck(bb, excess-named)
	}

	if got := len(bb.lands) + len(bb.creatures) + len(bb.spells); got != deckTarget {
		return nil, fmt.Errorf("cut stage left %d cards, need exactly %d", got, deckTarget)
	}

	final := deck.Assemble(bb.commander, bb.lands, bb.creatures, bb.spells)

	summary := CutSummary{
		Excess:         excess,
		NamedCuts:      named,
		MechanicalCuts: excess - named,
		Total:          final.TotalCards,
	}
	msg := fmt.Sprintf("Cut %d cards, deck assembled at %d", excess, final.TotalCards)
	if !bb.sink.Publish(events.StageFinished(StageOptimize, msg, summary)) {
		return nil, ErrAbandoned
	}
	return final, nil
}

type cutPick struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type cutResponse struct {
	Cuts []cutPick `json:"cuts"`
}

// applyNamedCuts asks the oracle which cards to cut and removes every
// cut it can reconcile, up to excess. Each cut reconciles only against
// the list its tag names; a mis-tagged or unmatched cut is skipped.
// Returns the number of cards removed.
func (b *Builder) applyNamedCuts(ctx context.Context, bb *build, excess int) int {
	text, err := bb.oracle.Complete(ctx, cutPrompt(bb, excess))
	if err != nil {
		b.log.Warn("cut call failed, trimming mechanically", zap.Error(err))
		return 0
	}
	raw, err := oracle.ExtractObject(text)
	if err != nil {
		b.log.Warn("cut response held no JSON, trimming mechanically", zap.Error(err))
		return 0
	}
	var resp cutResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		b.log.Warn("cut response unparseable, trimming mechanically", zap.Error(err))
		return 0
	}

	lists := map[string][]deck.Card{
		"land":     bb.lands,
		"creature": bb.creatures,
		"spell":    bb.spells,
	}
	removed := map[string]map[int]bool{
		"land":     {},
		"creature": {},
		"spell":    {},
	}

	applied := 0
	for _, cut := range resp.Cuts {
		if applied >= excess {
			break
		}
		typ := strings.ToLower(strings.TrimSpace(cut.Type))
		list, ok := lists[typ]
		if !ok {
			continue
		}
		idx, ok := match.Find(cut.Name, cardNames(list))
		if !ok {
			continue
		}
		if removed[typ][idx] {
			// Duplicate names (basics) cut the next copy.
			idx = nextCopy(list, idx, removed[typ])
			if idx < 0 {
				continue
			}
		}
		removed[typ][idx] = true
		applied++
	}

	bb.lands = without(bb.lands, removed["land"])
	bb.creatures = without(bb.creatures, removed["creature"])
	bb.spells = without(bb.spells, removed["spell"])
	return applied
}

// nextCopy finds a later card with the same name that is not yet
// removed.
func nextCopy(list []deck.Card, first int, removed map[int]bool) int {
	for i := first + 1; i < len(list); i++ {
		if list[i].Name == list[first].Name && !removed[i] {
			return i
		}
	}
	return -1
}

// without rebuilds list skipping the removed indices.
func without(list []deck.Card, removed map[int]bool) []deck.Card {
	if len(removed) == 0 {
		return list
	}
	out := make([]deck.Card, 0, len(list)-len(removed))
	for i, c := range list {
		if !removed[i] {
			out = append(out, c)
		}
	}
	return out
}

// trimDeck removes n cards mechanically: spells from the end, then
// creatures, then lands.
func trimDeck(bb *build, n int) {
	if n <= 0 {
		return
	}
	take := min(n, len(bb.spells))
	bb.spells = bb.spells[:len(bb.spells)-take]
	n -= take

	take = min(n, len(bb.creatures))
	bb.creatures = bb.creatures[:len(bb.creatures)-take]
	n -= take

	take = min(n, len(bb.lands))
	bb.lands = bb.lands[:len(bb.lands)-take]
}
