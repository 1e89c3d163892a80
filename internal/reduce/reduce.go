// Package reduce shortlists large candidate pools through batched
// oracle calls. Batching exists because a full pool never fits in one
// model context; each batch is shortlisted independently and the
// shortlists are concatenated in batch order.
package reduce

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ramonehamilton/commander-forge/internal/deck"
	"github.com/ramonehamilton/commander-forge/internal/match"
	"github.com/ramonehamilton/commander-forge/internal/oracle"
)

const systemPrompt = "You are an expert Magic: The Gathering deck builder specializing " +
	"in the Commander format. You respond with strictly valid JSON matching the " +
	"requested shape, and nothing else."

// Config shapes one reduction pass.
type Config struct {
	// BatchSize is the number of cards per oracle call.
	BatchSize int

	// SelectFraction is the share of each batch the oracle is asked to
	// keep, in (0, 1].
	SelectFraction float64

	// Context is the strategic framing included in every batch prompt.
	Context string

	// Concurrency bounds parallel batch calls. Zero or one means
	// sequential.
	Concurrency int

	// OnProgress receives completed and total batch counts. May be nil.
	OnProgress func(done, total int)
}

// Reducer runs reduction passes against one oracle.
type Reducer struct {
	oracle oracle.Oracle
	log    *zap.Logger
}

// New creates a reducer.
func New(o oracle.Oracle, log *zap.Logger) *Reducer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reducer{oracle: o, log: log}
}

// Reduce splits items into fixed batches in input order, asks the
// oracle to shortlist each, and concatenates the accepted candidates
// in batch order. A batch whose call fails, times out, or comes back
// unparseable falls back to its leading cards, so reduction always
// contributes candidates and never fails.
func (r *Reducer) Reduce(ctx context.Context, items []deck.Card, cfg Config) []deck.Card {
	if len(items) == 0 || cfg.BatchSize <= 0 || cfg.SelectFraction <= 0 {
		return nil
	}

	batches := splitBatches(items, cfg.BatchSize)
	results := make([][]deck.Card, len(batches))

	limit := cfg.Concurrency
	if limit < 1 {
		limit = 1
	}

	// Progress callbacks run under the lock so reported counts stay
	// ordered.
	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, batch := range batches {
		g.Go(func() error {
			results[i] = r.reduceBatch(gctx, i, batch, cfg)
			if cfg.OnProgress != nil {
				mu.Lock()
				done++
				cfg.OnProgress(done, len(batches))
				mu.Unlock()
			}
			return nil
		})
	}
	// Workers never return errors; fallbacks absorb every failure.
	_ = g.Wait()

	var out []deck.Card
	for _, res := range results {
		out = append(out, res...)
	}
	return out
}

func (r *Reducer) reduceBatch(ctx context.Context, index int, batch []deck.Card, cfg Config) []deck.Card {
	want := keepCount(len(batch), cfg.SelectFraction)

	text, err := r.oracle.Complete(ctx, batchPrompt(batch, cfg.Context, want))
	if err != nil {
		r.log.Warn("batch call failed, keeping leading cards",
			zap.Int("batch", index), zap.Int("kept", want), zap.Error(err))
		return batch[:want]
	}

	names, err := parseSelections(text)
	if err != nil {
		r.log.Warn("batch response unparseable, keeping leading cards",
			zap.Int("batch", index), zap.Int("kept", want), zap.Error(err))
		return batch[:want]
	}

	selected := reconcile(names, batch, want)
	if len(selected) == 0 {
		r.log.Warn("no batch selections reconciled, keeping leading cards",
			zap.Int("batch", index), zap.Int("kept", want))
		return batch[:want]
	}
	return selected
}

// keepCount rounds the fraction up and clamps to the batch.
func keepCount(n int, fraction float64) int {
	want := int(math.Ceil(float64(n) * fraction))
	if want < 1 {
		want = 1
	}
	if want > n {
		want = n
	}
	return want
}

func splitBatches(items []deck.Card, size int) [][]deck.Card {
	var batches [][]deck.Card
	for start := 0; start < len(items); start += size {
		batches = append(batches, items[start:min(start+size, len(items))])
	}
	return batches
}

type selection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type selectionResponse struct {
	Selected []selection `json:"selected"`
}

func parseSelections(text string) ([]string, error) {
	raw, err := oracle.ExtractObject(text)
	if err != nil {
		return nil, err
	}
	var resp selectionResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("decoding selection response: %w", err)
	}
	if len(resp.Selected) == 0 {
		return nil, fmt.Errorf("selection response named no cards")
	}
	names := make([]string, 0, len(resp.Selected))
	for _, s := range resp.Selected {
		if s.Name != "" {
			names = append(names, s.Name)
		}
	}
	return names, nil
}

// reconcile maps returned names onto real batch cards. Each name takes
// the first card it matches, a card is taken at most once, and the
// result is capped at want so an over-eager response cannot inflate
// the shortlist.
func reconcile(names []string, batch []deck.Card, want int) []deck.Card {
	candidates := make([]string, len(batch))
	for i, c := range batch {
		candidates[i] = c.Name
	}

	var out []deck.Card
	used := make(map[int]bool)
	for _, name := range names {
		if len(out) >= want {
			break
		}
		idx, ok := match.Find(name, candidates)
		if !ok || used[idx] {
			continue
		}
		used[idx] = true
		out = append(out, batch[idx])
	}
	return out
}

func batchPrompt(batch []deck.Card, strategic string, want int) []oracle.Message {
	var b strings.Builder
	if strategic != "" {
		b.WriteString(strategic)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "From the %d cards below, select the %d best fits for this deck.\n", len(batch), want)
	b.WriteString(`Respond with only a JSON object shaped like {"selected":[{"name":"Card Name","reason":"one short sentence"}]}.`)
	b.WriteString("\n\nCards:\n")
	for _, c := range batch {
		b.WriteString("- ")
		b.WriteString(c.Name)
		if c.ManaCost != "" {
			b.WriteString(" ")
			b.WriteString(c.ManaCost)
		}
		b.WriteString(" | ")
		b.WriteString(c.TypeLine)
		if c.OracleText != "" {
			b.WriteString(" | ")
			b.WriteString(strings.ReplaceAll(c.OracleText, "\n", " "))
		}
		b.WriteString("\n")
	}

	return []oracle.Message{
		{Role: oracle.RoleSystem, Content: systemPrompt},
		{Role: oracle.RoleUser, Content: b.String()},
	}
}
