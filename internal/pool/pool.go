// Package pool resolves the legal card pool for a commander from the
// card database, with per-commander caching.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ramonehamilton/commander-forge/internal/deck"
	"github.com/ramonehamilton/commander-forge/internal/scryfall"
)

const (
	// MaxPoolSize aborts resolution when pagination accumulates more
	// cards than the pipeline can meaningfully reduce.
	MaxPoolSize = 20000

	// cacheTTL bounds staleness of a resolved pool.
	cacheTTL = 10 * time.Minute
)

// Config tunes the resolver. Zero values use the package defaults.
type Config struct {
	// MaxPoolSize is the pagination ceiling. Default MaxPoolSize.
	MaxPoolSize int

	// CacheTTL bounds staleness of a cached pool. Default 10 minutes.
	CacheTTL time.Duration
}

// ErrPoolTooLarge is returned when a commander's pool exceeds MaxPoolSize.
var ErrPoolTooLarge = errors.New("card pool exceeds maximum size")

// UpstreamError marks a card-database failure. Pool resolution is the
// one place where an upstream failure aborts the whole build, so
// callers need to tell it apart from recoverable errors.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("card database error: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Client is the card-database surface the resolver depends on.
type Client interface {
	Card(ctx context.Context, id string) (*scryfall.Card, error)
	SearchPage(ctx context.Context, query string, page int) (*scryfall.SearchResult, error)
}

// Result is a resolved pool: the commander itself plus every other
// card legal in its deck, sorted most popular first. Items are shared
// with the cache and must be treated as read-only.
type Result struct {
	Commander scryfall.Card
	Items     []deck.Card
}

type cacheEntry struct {
	commander scryfall.Card
	items     []deck.Card
	expires   time.Time
}

// Resolver fetches and caches commander pools. Safe for concurrent
// use; concurrent misses for the same commander may both fetch, the
// cache keeps whichever finishes last.
type Resolver struct {
	client   Client
	log      *zap.Logger
	now      func() time.Time
	maxItems int
	ttl      time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewResolver creates a resolver on top of the given card-database
// client. A nil config uses the defaults.
func NewResolver(client Client, config *Config, log *zap.Logger) *Resolver {
	if config == nil {
		config = &Config{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := &Resolver{
		client:   client,
		log:      log,
		now:      time.Now,
		maxItems: config.MaxPoolSize,
		ttl:      config.CacheTTL,
		cache:    make(map[string]cacheEntry),
	}
	if r.maxItems <= 0 {
		r.maxItems = MaxPoolSize
	}
	if r.ttl <= 0 {
		r.ttl = cacheTTL
	}
	return r
}

// Resolve returns the commander and its legal pool. A commander id the
// database does not know passes through as a not-found error; every
// other database failure is wrapped in *UpstreamError.
func (r *Resolver) Resolve(ctx context.Context, commanderID string) (*Result, error) {
	if cached, ok := r.lookup(commanderID); ok {
		return cached, nil
	}

	commander, err := r.client.Card(ctx, commanderID)
	if err != nil {
		if scryfall.IsNotFound(err) {
			return nil, err
		}
		return nil, &UpstreamError{Err: err}
	}

	items, pages, err := r.fetchPool(ctx, commander)
	if err != nil {
		return nil, err
	}

	r.log.Info("resolved card pool",
		zap.String("commander", commander.Name),
		zap.Int("cards", len(items)),
		zap.Int("pages", pages))

	res := &Result{Commander: *commander, Items: items}
	r.store(commanderID, res)
	return res, nil
}

func (r *Resolver) fetchPool(ctx context.Context, commander *scryfall.Card) ([]deck.Card, int, error) {
	query := scryfall.PoolQuery(commander.ColorIdentity)

	var items []deck.Card
	page := 1
	for ; ; page++ {
		result, err := r.client.SearchPage(ctx, query, page)
		if err != nil {
			if scryfall.IsNotFound(err) {
				// The database 404s an empty result set instead of
				// returning zero rows.
				break
			}
			return nil, page, &UpstreamError{Err: err}
		}

		for _, c := range result.Data {
			if c.ID == commander.ID || c.Name == commander.Name {
				continue
			}
			items = append(items, deck.FromScryfall(c))
		}
		if len(items) > r.maxItems {
			return nil, page, fmt.Errorf("%w: %d cards for query %q", ErrPoolTooLarge, len(items), query)
		}
		if !result.HasMore {
			break
		}
	}

	if len(items) == 0 {
		return nil, page, &UpstreamError{Err: fmt.Errorf("no cards found for query %q", query)}
	}

	sortByPopularity(items)
	return items, page, nil
}

// sortByPopularity orders most popular first. Cards without a rank go
// last; ties keep the database's name ordering.
func sortByPopularity(items []deck.Card) {
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := items[i].PopularityRank, items[j].PopularityRank
		if ri == 0 {
			return false
		}
		if rj == 0 {
			return true
		}
		return ri < rj
	})
}

func (r *Resolver) lookup(id string) (*Result, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[id]
	if !ok || r.now().After(entry.expires) {
		return nil, false
	}
	return &Result{Commander: entry.commander, Items: entry.items}, true
}

func (r *Resolver) store(id string, res *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[id] = cacheEntry{
		commander: res.Commander,
		items:     res.Items,
		expires:   r.now().Add(r.ttl),
	}
}
