// Package benchmarks exercises the allocation-heavy paths of a deck
// build: pool projection, deck assembly, decklist export and the
// per-event JSON encoding on the build stream.
//
// To run:
//
//	go test -bench=. -benchmem ./benchmarks/...
//
// To compare two runs:
//
//	go install golang.org/x/perf/cmd/benchstat@latest
//	go test -bench=. -benchmem -count=5 ./benchmarks/... > before.txt
//	go test -bench=. -benchmem -count=5 ./benchmarks/... > after.txt
//	benchstat before.txt after.txt
package benchmarks

import (
	"encoding/json"
	"fmt"
	"runtime"
	"testing"

	"github.com/ramonehamilton/commander-forge/internal/deck"
	"github.com/ramonehamilton/commander-forge/internal/events"
	"github.com/ramonehamilton/commander-forge/internal/oracle"
	"github.com/ramonehamilton/commander-forge/internal/scryfall"
)

func makePoolCard(id int) scryfall.Card {
	usd := "3.49"
	return scryfall.Card{
		ID:            fmt.Sprintf("00000000-0000-4000-8000-%012d", id),
		Name:          "Benchmark Card With A Reasonably Long Name",
		ManaCost:      "{2}{U}{R}",
		CMC:           4,
		TypeLine:      "Legendary Creature - Human Wizard",
		OracleText:    "When this creature enters, draw two cards. Whenever you cast an instant or sorcery spell, this creature deals 1 damage to each opponent.",
		Colors:        []string{"U", "R"},
		ColorIdentity: []string{"U", "R"},
		Keywords:      []string{"Flying", "Prowess"},
		Power:         "3",
		Toughness:     "4",
		Rarity:        "rare",
		EDHRecRank:    1200 + id,
		Legalities:    scryfall.Legalities{Commander: "legal"},
		Prices:        scryfall.Prices{USD: &usd},
	}
}

func makePool(size int) []scryfall.Card {
	pool := make([]scryfall.Card, size)
	for i := range pool {
		pool[i] = makePoolCard(i)
	}
	return pool
}

// makeFinalDeck builds a legal-sized deck: 37 lands, 30 creatures and
// 32 spells plus the commander.
func makeFinalDeck() *deck.FinalDeck {
	commander := scryfall.Card{
		ID:            "7e7c0e2a-81ba-4a6b-8c02-20f9a9f5b4b9",
		Name:          "Benchmark Commander, Arbiter of Curves",
		ManaCost:      "{1}{U}{R}",
		TypeLine:      "Legendary Creature - Human Wizard",
		ColorIdentity: []string{"U", "R"},
	}

	lands := make([]deck.Card, 37)
	for i := range lands {
		if i%2 == 0 {
			lands[i] = deck.Card{Name: "Island", TypeLine: "Basic Land - Island"}
		} else {
			lands[i] = deck.Card{Name: "Mountain", TypeLine: "Basic Land - Mountain"}
		}
	}

	creatures := make([]deck.Card, 30)
	for i := range creatures {
		creatures[i] = deck.Card{
			Name:     fmt.Sprintf("Benchmark Creature %d", i),
			ManaCost: fmt.Sprintf("{%d}{U}", i%5),
			TypeLine: "Creature - Wizard",
		}
	}

	spells := make([]deck.Card, 32)
	for i := range spells {
		spells[i] = deck.Card{
			Name:     fmt.Sprintf("Benchmark Spell %d", i),
			ManaCost: fmt.Sprintf("{%d}{R}", i%6),
			TypeLine: "Instant",
		}
	}

	return deck.Assemble(commander, lands, creatures, spells)
}

// BenchmarkPoolProjection flattens Scryfall records into pipeline cards,
// the per-card cost of resolving a commander's pool.
func BenchmarkPoolProjection(b *testing.B) {
	sizes := []int{1000, 5000, 10000}

	for _, size := range sizes {
		pool := makePool(size)
		b.Run(sizeName(size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				cards := make([]deck.Card, len(pool))
				for j := range pool {
					cards[j] = deck.FromScryfall(pool[j])
				}
				runtime.KeepAlive(cards)
			}
		})
	}
}

// BenchmarkDeckAssembly measures building the final deck with its mana
// curve and color distribution.
func BenchmarkDeckAssembly(b *testing.B) {
	template := makeFinalDeck()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d := deck.Assemble(template.Commander, template.Lands, template.Creatures, template.Spells)
		runtime.KeepAlive(d)
	}
}

// BenchmarkDecklistExport renders the text decklist for a full deck.
func BenchmarkDecklistExport(b *testing.B) {
	d := makeFinalDeck()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		text := deck.ExportText(d)
		runtime.KeepAlive(text)
	}
}

// BenchmarkEventEncoding measures the JSON encoding done once per
// stream event. Progress events dominate a build; the complete event
// carries the whole deck.
func BenchmarkEventEncoding(b *testing.B) {
	progress := events.Progress("creatures", 40, "selected 12 of 30 creatures")
	complete := events.Complete(makeFinalDeck())

	b.Run("Progress", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			data, _ := json.Marshal(progress)
			runtime.KeepAlive(data)
		}
	})

	b.Run("Complete", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			data, _ := json.Marshal(complete)
			runtime.KeepAlive(data)
		}
	})
}

// BenchmarkOracleExtract scans model output for its JSON payload. Real
// responses arrive bare, fenced or buried in prose.
func BenchmarkOracleExtract(b *testing.B) {
	object := `{"selections": [{"name": "Benchmark Spell", "reason": "curve filler with upside"}, {"name": "Another Benchmark Spell", "reason": "interacts with the \"storm\" plan"}]}`
	inputs := map[string]string{
		"Bare":   object,
		"Fenced": "```json\n" + object + "\n```",
		"Prose":  "Here are my picks for this batch.\n\n" + object + "\n\nLet me know if you want different ones.",
	}

	for name, input := range inputs {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				out, err := oracle.ExtractObject(input)
				if err != nil {
					b.Fatal(err)
				}
				runtime.KeepAlive(out)
			}
		})
	}
}

// BenchmarkConcurrentProjection runs pool projection across goroutines
// the way the batch reducer fans out stage work.
func BenchmarkConcurrentProjection(b *testing.B) {
	parallelismLevels := []int{1, 2, 4}
	batch := makePool(500)

	for _, p := range parallelismLevels {
		b.Run(fmt.Sprintf("parallelism%dx", p), func(b *testing.B) {
			b.ReportAllocs()
			b.SetParallelism(p)
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					cards := make([]deck.Card, len(batch))
					for j := range batch {
						cards[j] = deck.FromScryfall(batch[j])
					}
					runtime.KeepAlive(cards)
				}
			})
		})
	}
}

func sizeName(n int) string {
	if n >= 1000 {
		return fmt.Sprintf("%dk", n/1000)
	}
	return fmt.Sprintf("%d", n)
}
