package deck

import (
	"strings"
	"testing"

	"github.com/ramonehamilton/commander-forge/internal/scryfall"
)

func TestAssemble(t *testing.T) {
	commander := scryfall.Card{Name: "Edgar Markov", ManaCost: "{3}{R}{W}{B}"}
	lands := []Card{
		{Name: "Plains", TypeLine: "Basic Land — Plains"},
		{Name: "Plains", TypeLine: "Basic Land — Plains"},
		{Name: "Command Tower", TypeLine: "Land"},
	}
	creatures := []Card{
		{Name: "Vampire Nighthawk", ManaCost: "{1}{B}{B}", TypeLine: "Creature — Vampire Shaman"},
		{Name: "Stromkirk Noble", ManaCost: "{R}", TypeLine: "Creature — Vampire"},
	}
	spells := []Card{
		{Name: "Swords to Plowshares", ManaCost: "{W}", TypeLine: "Instant"},
		{Name: "Sol Ring", ManaCost: "{1}", TypeLine: "Artifact"},
	}

	d := Assemble(commander, lands, creatures, spells)

	if d.TotalCards != 8 {
		t.Errorf("TotalCards = %d, want 8", d.TotalCards)
	}

	sum := 0
	for _, n := range d.ManaCurve {
		sum += n
	}
	if want := len(creatures) + len(spells); sum != want {
		t.Errorf("mana curve sums to %d, want %d", sum, want)
	}

	if d.ManaCurve[3] != 1 {
		t.Errorf("curve[3] = %d, want 1 (Vampire Nighthawk)", d.ManaCurve[3])
	}
	if d.ManaCurve[1] != 3 {
		t.Errorf("curve[1] = %d, want 3", d.ManaCurve[1])
	}

	// Lands never contribute pips; {1}{B}{B} + {R} + {W} = 2B 1R 1W.
	if d.ColorDistribution["B"] != 2 || d.ColorDistribution["R"] != 1 || d.ColorDistribution["W"] != 1 {
		t.Errorf("color distribution = %v", d.ColorDistribution)
	}
	if _, ok := d.ColorDistribution["G"]; ok {
		t.Error("unexpected green pips")
	}
}

func TestAssembleEmptyLists(t *testing.T) {
	d := Assemble(scryfall.Card{Name: "Karn, Legacy Reforged"}, nil, nil, nil)
	if d.TotalCards != 1 {
		t.Errorf("TotalCards = %d, want 1 (commander only)", d.TotalCards)
	}
	if len(d.ManaCurve) != 0 {
		t.Errorf("ManaCurve = %v, want empty", d.ManaCurve)
	}
}

func TestExportText(t *testing.T) {
	d := Assemble(
		scryfall.Card{Name: "Edgar Markov"},
		[]Card{
			{Name: "Plains", TypeLine: "Basic Land — Plains"},
			{Name: "Plains", TypeLine: "Basic Land — Plains"},
			{Name: "Plains", TypeLine: "Basic Land — Plains"},
			{Name: "Command Tower", TypeLine: "Land"},
		},
		[]Card{{Name: "Stromkirk Noble", ManaCost: "{R}", TypeLine: "Creature — Vampire"}},
		[]Card{{Name: "Sol Ring", ManaCost: "{1}", TypeLine: "Artifact"}},
	)

	text := ExportText(d)

	for _, want := range []string{
		"Commander\n1 Edgar Markov",
		"Lands (4)",
		"3 Plains",
		"1 Command Tower",
		"Creatures (1)",
		"1 Stromkirk Noble",
		"Spells (1)",
		"1 Sol Ring",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("export missing %q in:\n%s", want, text)
		}
	}

	// Repeated basics collapse into one line.
	if strings.Count(text, "Plains") != 1 {
		t.Errorf("Plains should appear once, got:\n%s", text)
	}
}
