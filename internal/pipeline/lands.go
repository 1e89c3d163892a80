package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/ramonehamilton/commander-forge/internal/deck"
	"github.com/ramonehamilton/commander-forge/internal/events"
	"github.com/ramonehamilton/commander-forge/internal/match"
	"github.com/ramonehamilton/commander-forge/internal/oracle"
	"github.com/ramonehamilton/commander-forge/internal/reduce"
)

// Land totals the merge call may produce.
const (
	minLandTotal = 35
	maxLandTotal = 37
)

// LandSelection is the land stage's structured result: the chosen mana
// base split into basics and non-basics. TotalLands always equals
// len(Basics)+len(NonBasics).
type LandSelection struct {
	Basics          []deck.Card    `json:"basics"`
	NonBasics       []deck.Card    `json:"nonBasics"`
	TotalLands      int            `json:"totalLands"`
	ManaBaseByColor map[string]int `json:"manaBaseByColor"`
}

func (b *Builder) runLands(ctx context.Context, bb *build) error {
	if !bb.sink.Publish(events.StageStarted(StageLands, "Building the mana base")) {
		return ErrAbandoned
	}

	basics, nonBasics := partitionLands(bb.pool)
	strategic := bb.strategic()

	basicCands := bb.reducer.Reduce(ctx, basics, reduce.Config{
		BatchSize:      b.config.BasicBatchSize,
		SelectFraction: b.config.BasicRetention,
		Context:        strategic + " These candidates are basic lands.",
		Concurrency:    b.config.BatchConcurrency,
		OnProgress:     bb.progressRange(StageLands, 0, 40),
	})
	nonBasicCands := bb.reducer.Reduce(ctx, nonBasics, reduce.Config{
		BatchSize:      b.config.NonBasicBatchSize,
		SelectFraction: b.config.NonBasicRetention,
		Context:        strategic + " These candidates are non-basic lands.",
		Concurrency:    b.config.BatchConcurrency,
		OnProgress:     bb.progressRange(StageLands, 40, 80),
	})

	bb.sink.Publish(events.Progress(StageLands, 90, "Merging land selections"))

	lands, err := b.mergeLands(ctx, bb, basicCands, nonBasicCands)
	if err != nil {
		b.log.Warn("land merge failed, using deterministic split", zap.Error(err))
		lands = fallbackLands(basicCands, nonBasicCands, b.landTarget(bb.plan), b.config.BasicShare)
	}
	bb.lands = lands

	sel := selectLands(lands)
	msg := fmt.Sprintf("%d lands: %d basics, %d non-basics",
		sel.TotalLands, len(sel.Basics), len(sel.NonBasics))
	if !bb.sink.Publish(events.StageFinished(StageLands, msg, sel)) {
		return ErrAbandoned
	}
	return nil
}

func (b *Builder) landTarget(plan *StrategyPlan) int {
	if plan.aggro() {
		return b.config.AggroLandTarget
	}
	return b.config.DefaultLandTarget
}

// partitionLands splits the pool's lands into basics and non-basics.
// Everything that is not a land is ignored here.
func partitionLands(pool []deck.Card) (basics, nonBasics []deck.Card) {
	for _, c := range pool {
		switch {
		case c.IsBasicLand():
			basics = append(basics, c)
		case c.IsLand():
			nonBasics = append(nonBasics, c)
		}
	}
	return basics, nonBasics
}

type basicPick struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type namedPick struct {
	Name string `json:"name"`
}

type landMergeResponse struct {
	Basics    []basicPick `json:"basics"`
	NonBasics []namedPick `json:"nonBasics"`
}

// mergeLands asks the oracle to shape the reduced land candidates into
// a 35-37 card mana base. Any failure surfaces as an error so the
// caller can fall back.
func (b *Builder) mergeLands(ctx context.Context, bb *build, basicCands, nonBasicCands []deck.Card) ([]deck.Card, error) {
	text, err := bb.oracle.Complete(ctx, landMergePrompt(bb, basicCands, nonBasicCands))
	if err != nil {
		return nil, err
	}
	raw, err := oracle.ExtractObject(text)
	if err != nil {
		return nil, err
	}
	var resp landMergeResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("decoding land merge response: %w", err)
	}

	basicNames := cardNames(basicCands)
	usedBasics := make(map[int]bool)
	var basicsOut []deck.Card
	for _, pick := range resp.Basics {
		idx, ok := match.Find(pick.Name, basicNames)
		if !ok || usedBasics[idx] {
			continue
		}
		usedBasics[idx] = true
		count := pick.Count
		if count < 1 {
			continue
		}
		if count > maxLandTotal {
			count = maxLandTotal
		}
		for i := 0; i < count; i++ {
			basicsOut = append(basicsOut, basicCands[idx])
		}
	}

	nonBasicNames := cardNames(nonBasicCands)
	usedNonBasics := make(map[int]bool)
	var nonBasicsOut []deck.Card
	for _, pick := range resp.NonBasics {
		idx, ok := match.Find(pick.Name, nonBasicNames)
		if !ok || usedNonBasics[idx] {
			continue
		}
		usedNonBasics[idx] = true
		nonBasicsOut = append(nonBasicsOut, nonBasicCands[idx])
	}

	if len(basicsOut)+len(nonBasicsOut) == 0 {
		return nil, fmt.Errorf("no land selections reconciled")
	}
	return clampLands(nonBasicsOut, basicsOut, basicCands), nil
}

// clampLands forces the merge result into the 35-37 window: trim
// non-basics then basics from the end when over, fill with extra
// basics when under.
func clampLands(nonBasics, basics, basicCands []deck.Card) []deck.Card {
	total := len(nonBasics) + len(basics)
	for total > maxLandTotal && len(nonBasics) > 0 {
		nonBasics = nonBasics[:len(nonBasics)-1]
		total--
	}
	for total > maxLandTotal && len(basics) > 0 {
		basics = basics[:len(basics)-1]
		total--
	}
	if total < minLandTotal {
		basics = append(basics, cycleBasics(basicCands, minLandTotal-total)...)
	}

	out := make([]deck.Card, 0, len(nonBasics)+len(basics))
	out = append(out, nonBasics...)
	return append(out, basics...)
}

// fallbackLands is the deterministic mana base: basicShare of the
// target as basics, the rest from the strongest non-basic candidates,
// with any non-basic shortfall converted into extra basics.
func fallbackLands(basicCands, nonBasicCands []deck.Card, target int, basicShare float64) []deck.Card {
	basicsWant := int(math.Round(float64(target) * basicShare))
	nonWant := target - basicsWant

	nonOut := nonBasicCands[:min(nonWant, len(nonBasicCands))]
	basicsWant += nonWant - len(nonOut)

	out := make([]deck.Card, 0, target)
	out = append(out, nonOut...)
	return append(out, cycleBasics(basicCands, basicsWant)...)
}

// cycleBasics repeats the basic candidates until n lands are drawn.
// Basics are exempt from the singleton rule.
func cycleBasics(cands []deck.Card, n int) []deck.Card {
	if len(cands) == 0 || n <= 0 {
		return nil
	}
	out := make([]deck.Card, 0, n)
	for i := 0; len(out) < n; i++ {
		out = append(out, cands[i%len(cands)])
	}
	return out
}

var basicLandColors = map[string]string{
	"Plains":   "W",
	"Island":   "U",
	"Swamp":    "B",
	"Mountain": "R",
	"Forest":   "G",
	"Wastes":   "C",
}

// manaBaseByColor tallies which colors the mana base produces: basics
// by name, non-basics by the mana symbols in their "Add" text.
func manaBaseByColor(lands []deck.Card) map[string]int {
	base := make(map[string]int)
	for _, land := range lands {
		matched := false
		for name, color := range basicLandColors {
			if strings.Contains(land.Name, name) {
				base[color]++
				matched = true
				break
			}
		}
		if matched || !strings.Contains(land.OracleText, "Add") {
			continue
		}
		for _, color := range []string{"W", "U", "B", "R", "G", "C"} {
			if strings.Contains(land.OracleText, "{"+color+"}") {
				base[color]++
			}
		}
	}
	return base
}

// selectLands splits a merged land list back into the basic/non-basic
// partition the event protocol reports.
func selectLands(lands []deck.Card) LandSelection {
	sel := LandSelection{TotalLands: len(lands), ManaBaseByColor: manaBaseByColor(lands)}
	for _, c := range lands {
		if c.IsBasicLand() {
			sel.Basics = append(sel.Basics, c)
		} else {
			sel.NonBasics = append(sel.NonBasics, c)
		}
	}
	return sel
}
