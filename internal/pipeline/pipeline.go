// Package pipeline runs the five-stage deck build: strategy, lands,
// creatures, spells, optimization. Stages are ordered and none may be
// skipped. Oracle failures inside a stage always resolve to a
// deterministic fallback, so a build that gets past pool resolution
// produces a deck unless the final card count cannot be met.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ramonehamilton/commander-forge/internal/deck"
	"github.com/ramonehamilton/commander-forge/internal/events"
	"github.com/ramonehamilton/commander-forge/internal/oracle"
	"github.com/ramonehamilton/commander-forge/internal/pool"
	"github.com/ramonehamilton/commander-forge/internal/reduce"
	"github.com/ramonehamilton/commander-forge/internal/scryfall"
)

// Stage names on the wire.
const (
	StageStrategy  = "strategy"
	StageLands     = "lands"
	StageCreatures = "creatures"
	StageSpells    = "spells"
	StageOptimize  = "optimization"
)

// deckTarget is the non-commander card count of a finished deck.
const deckTarget = 99

// ErrAbandoned is returned when the event consumer disconnects before
// the build finishes. No terminal event is emitted and the result is
// discarded.
var ErrAbandoned = errors.New("build abandoned by consumer")

// PoolResolver is the pool dependency of the builder.
type PoolResolver interface {
	Resolve(ctx context.Context, commanderID string) (*pool.Result, error)
}

// Builder runs deck builds.
type Builder struct {
	pool      PoolResolver
	providers oracle.Providers
	config    *Config
	log       *zap.Logger
}

// NewBuilder creates a builder. A nil config uses DefaultConfig.
func NewBuilder(resolver PoolResolver, providers oracle.Providers, config *Config, log *zap.Logger) *Builder {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{pool: resolver, providers: providers, config: config, log: log}
}

// build is the per-run state threaded through the stages.
type build struct {
	opts      Options
	commander scryfall.Card
	pool      []deck.Card
	oracle    oracle.Oracle
	reducer   *reduce.Reducer
	sink      events.Sink

	plan      *StrategyPlan
	lands     []deck.Card
	creatures []deck.Card
	spells    []deck.Card
}

// Build runs one deck build, emitting progress on sink and returning
// the finished deck. Provider selection and pool resolution abort
// with a single error event when they fail; after that, only an
// unreachable final card count aborts. A consumer disconnect surfaces
// as ErrAbandoned with no terminal event.
func (b *Builder) Build(ctx context.Context, req Request, sink events.Sink) (*deck.FinalDeck, error) {
	if !sink.Publish(events.Connected("connected to build stream")) {
		return nil, ErrAbandoned
	}

	sel, err := b.providers.Pick(ctx, req.Model)
	if err != nil {
		return nil, b.fail(sink, fmt.Errorf("selecting oracle provider: %w", err))
	}
	if sel.Notice != "" {
		sink.Publish(events.Connected(sel.Notice))
	}

	res, err := b.pool.Resolve(ctx, req.CommanderID)
	if err != nil {
		return nil, b.fail(sink, fmt.Errorf("resolving card pool: %w", err))
	}

	b.log.Info("starting build",
		zap.String("commander", res.Commander.Name),
		zap.String("provider", sel.Name),
		zap.Int("pool", len(res.Items)))

	bb := &build{
		opts:      req.Options,
		commander: res.Commander,
		pool:      res.Items,
		oracle:    sel.Oracle,
		reducer:   reduce.New(sel.Oracle, b.log),
		sink:      sink,
	}

	if err := b.runStrategy(ctx, bb); err != nil {
		return nil, err
	}
	if err := b.runLands(ctx, bb); err != nil {
		return nil, err
	}
	if err := b.runCreatures(ctx, bb); err != nil {
		return nil, err
	}
	if err := b.runSpells(ctx, bb); err != nil {
		return nil, err
	}

	final, err := b.runOptimize(ctx, bb)
	if err != nil {
		if errors.Is(err, ErrAbandoned) {
			return nil, err
		}
		return nil, b.fail(sink, err)
	}

	if !sink.Publish(events.Complete(final)) {
		return nil, ErrAbandoned
	}
	b.log.Info("build complete",
		zap.String("commander", res.Commander.Name),
		zap.Int("totalCards", final.TotalCards))
	return final, nil
}

// fail emits the error terminal and hands err back to the caller.
func (b *Builder) fail(sink events.Sink, err error) error {
	b.log.Error("build failed", zap.Error(err))
	sink.Publish(events.Failure(err.Error()))
	return err
}

// progressRange maps reduce batch completion onto a slice of the
// stage's progress band. Percentages stay monotonic within the stage.
func (bb *build) progressRange(stage string, lo, hi int) func(done, total int) {
	return func(done, total int) {
		if total <= 0 {
			return
		}
		pct := lo + (hi-lo)*done/total
		bb.sink.Publish(events.Progress(stage, pct, fmt.Sprintf("Evaluated batch %d of %d", done, total)))
	}
}

func (bb *build) strategic() string {
	return strategicContext(bb.commander, bb.plan, bb.opts)
}

func cardNames(items []deck.Card) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.Name
	}
	return out
}
