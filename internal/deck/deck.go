package deck

import "github.com/ramonehamilton/commander-forge/internal/scryfall"

// FinalDeck is a finished Commander deck. After the optimization stage
// TotalCards is always exactly 100 (99 cards plus the commander).
type FinalDeck struct {
	Commander         scryfall.Card  `json:"commander"`
	Lands             []Card         `json:"lands"`
	Creatures         []Card         `json:"creatures"`
	Spells            []Card         `json:"spells"`
	TotalCards        int            `json:"totalCards"`
	ManaCurve         map[int]int    `json:"manaCurve"`
	ColorDistribution map[string]int `json:"colorDistribution"`
}

// Assemble builds the final deck and computes its statistics. The mana
// curve counts each creature and spell once at its mana value, so curve
// values always sum to len(creatures)+len(spells); the color
// distribution counts colored pips in the same cards. Lands contribute
// to neither map.
func Assemble(commander scryfall.Card, lands, creatures, spells []Card) *FinalDeck {
	curve := make(map[int]int)
	colors := make(map[string]int)
	for _, list := range [][]Card{creatures, spells} {
		for _, c := range list {
			curve[ManaValue(c.ManaCost)]++
			for color, n := range ColorPips(c.ManaCost) {
				colors[color] += n
			}
		}
	}

	return &FinalDeck{
		Commander:         commander,
		Lands:             lands,
		Creatures:         creatures,
		Spells:            spells,
		TotalCards:        len(lands) + len(creatures) + len(spells) + 1,
		ManaCurve:         curve,
		ColorDistribution: colors,
	}
}
