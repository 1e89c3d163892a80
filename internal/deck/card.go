// Package deck holds the card projection, the finished deck model and
// its statistics.
package deck

import (
	"strings"

	"github.com/ramonehamilton/commander-forge/internal/scryfall"
)

// Card is the flattened projection of a canonical card record used by
// the build pipeline. Immutable once derived during pool resolution.
type Card struct {
	Name           string `json:"name"`
	ManaCost       string `json:"mana_cost,omitempty"`
	OracleText     string `json:"oracle_text,omitempty"`
	TypeLine       string `json:"type_line"`
	Power          string `json:"power,omitempty"`
	Toughness      string `json:"toughness,omitempty"`
	USDPrice       string `json:"usd_price,omitempty"`
	PopularityRank int    `json:"popularity_rank,omitempty"`
}

// FromScryfall flattens a canonical record into a Card. Multi-faced
// cards with an empty top-level cost or text fall back to the front
// face.
func FromScryfall(c scryfall.Card) Card {
	card := Card{
		Name:           c.Name,
		ManaCost:       c.ManaCost,
		OracleText:     c.OracleText,
		TypeLine:       c.TypeLine,
		Power:          c.Power,
		Toughness:      c.Toughness,
		PopularityRank: c.EDHRecRank,
	}
	if len(c.CardFaces) > 0 {
		front := c.CardFaces[0]
		if card.ManaCost == "" {
			card.ManaCost = front.ManaCost
		}
		if card.OracleText == "" {
			card.OracleText = front.OracleText
		}
		if card.TypeLine == "" {
			card.TypeLine = front.TypeLine
		}
		if card.Power == "" {
			card.Power = front.Power
		}
		if card.Toughness == "" {
			card.Toughness = front.Toughness
		}
	}
	if c.Prices.USD != nil {
		card.USDPrice = *c.Prices.USD
	}
	return card
}

// IsLand reports whether the card's type line names a land.
func (c Card) IsLand() bool {
	return typeLineContains(c.TypeLine, "land")
}

// IsBasicLand reports whether the card is a basic land.
func (c Card) IsBasicLand() bool {
	return c.IsLand() && typeLineContains(c.TypeLine, "basic")
}

// IsCreature reports whether the card's type line names a creature.
// Land-creatures count as lands, not creatures, so the two deck
// categories stay disjoint.
func (c Card) IsCreature() bool {
	return typeLineContains(c.TypeLine, "creature") && !c.IsLand()
}

// IsSpell reports whether the card belongs to the spell category:
// anything that is neither a land nor a creature.
func (c Card) IsSpell() bool {
	return !c.IsLand() && !c.IsCreature()
}

func typeLineContains(typeLine, want string) bool {
	return strings.Contains(strings.ToLower(typeLine), want)
}
