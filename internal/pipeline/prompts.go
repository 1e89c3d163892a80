package pipeline

import (
	"fmt"
	"strings"

	"github.com/ramonehamilton/commander-forge/internal/deck"
	"github.com/ramonehamilton/commander-forge/internal/oracle"
	"github.com/ramonehamilton/commander-forge/internal/scryfall"
)

const systemPrompt = "You are an expert Magic: The Gathering deck builder specializing " +
	"in the Commander format. You respond with strictly valid JSON matching the " +
	"requested shape, and nothing else."

func messages(user string) []oracle.Message {
	return []oracle.Message{
		{Role: oracle.RoleSystem, Content: systemPrompt},
		{Role: oracle.RoleUser, Content: user},
	}
}

// strategicContext is the framing paragraph shared by the reduction
// and final-selection prompts.
func strategicContext(commander scryfall.Card, plan *StrategyPlan, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Commander: %s (%s).", commander.Name, commander.TypeLine)
	if p := plan.Primary(); p.Name != "" {
		fmt.Fprintf(&b, " Deck strategy: %s. %s", p.Name, p.Description)
		if len(p.KeyThemes) > 0 {
			fmt.Fprintf(&b, " Key themes: %s.", strings.Join(p.KeyThemes, ", "))
		}
	}
	fmt.Fprintf(&b, " Target power level: %d of 10.", opts.powerLevel())
	if opts.Budget > 0 {
		fmt.Fprintf(&b, " Keep the total budget near $%.0f and prefer cheaper functional equivalents.", opts.Budget)
	}
	if opts.FocusTheme != "" {
		fmt.Fprintf(&b, " Emphasize the %q theme.", opts.FocusTheme)
	}
	if !opts.includeCombo() {
		b.WriteString(" Avoid infinite combos and two-card win loops.")
	}
	return b.String()
}

func strategyPrompt(commander scryfall.Card, poolSize int, opts Options) []oracle.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Commander: %s\nType: %s\nColor identity: %s\n",
		commander.Name, commander.TypeLine, strings.Join(commander.ColorIdentity, ""))
	if commander.ManaCost != "" {
		fmt.Fprintf(&b, "Mana cost: %s\n", commander.ManaCost)
	}
	if commander.OracleText != "" {
		fmt.Fprintf(&b, "Rules text: %s\n", strings.ReplaceAll(commander.OracleText, "\n", " "))
	}
	fmt.Fprintf(&b, "\nThe legal card pool holds %d cards.\n", poolSize)
	fmt.Fprintf(&b, "Target power level: %d of 10.\n", opts.powerLevel())
	if opts.FocusTheme != "" {
		fmt.Fprintf(&b, "Requested theme: %s.\n", opts.FocusTheme)
	}
	if opts.Budget > 0 {
		fmt.Fprintf(&b, "Budget: roughly $%.0f total.\n", opts.Budget)
	}
	if !opts.includeCombo() {
		b.WriteString("Do not build around infinite combos.\n")
	}
	b.WriteString("\nPropose exactly 3 ranked strategies for this commander, strongest first. ")
	b.WriteString(`Respond with only a JSON object shaped like {"strategies":[{"name":"...","description":"...","winConditions":["..."],"archetypes":["..."],"keyThemes":["..."]}]}.`)
	return messages(b.String())
}

func landMergePrompt(bb *build, basicCands, nonBasicCands []deck.Card) []oracle.Message {
	var b strings.Builder
	b.WriteString(bb.strategic())
	b.WriteString("\n\nAssemble the mana base: pick between 35 and 37 lands total from the candidates below. ")
	b.WriteString("Give each chosen basic land a count; non-basic lands appear once each. ")
	b.WriteString(`Respond with only a JSON object shaped like {"basics":[{"name":"Mountain","count":18}],"nonBasics":[{"name":"Command Tower"}]}.`)
	b.WriteString("\n\nBasic land candidates:\n")
	writeCardLines(&b, basicCands)
	b.WriteString("\nNon-basic land candidates:\n")
	writeCardLines(&b, nonBasicCands)
	return messages(b.String())
}

func creatureFinalPrompt(bb *build, candidates []deck.Card, want int) []oracle.Message {
	var b strings.Builder
	b.WriteString(bb.strategic())
	fmt.Fprintf(&b, "\n\nChoose exactly %d creatures from the candidates below. ", want)
	b.WriteString("Tag each with a category: ramp, removal, draw, synergy, wincon, or other. ")
	b.WriteString(`Respond with only a JSON object shaped like {"creatures":[{"name":"...","category":"..."}]}.`)
	b.WriteString("\n\nCandidates:\n")
	writeCardLines(&b, candidates)
	return messages(b.String())
}

func spellFinalPrompt(bb *build, candidates []deck.Card, want int) []oracle.Message {
	var b strings.Builder
	b.WriteString(bb.strategic())
	fmt.Fprintf(&b, "\n\nChoose exactly %d noncreature spells from the candidates below to round out the deck. ", want)
	b.WriteString("Cover ramp, card draw, targeted removal, and board wipes before luxuries. ")
	b.WriteString(`Respond with only a JSON object shaped like {"spells":[{"name":"..."}]}.`)
	b.WriteString("\n\nCandidates:\n")
	writeCardLines(&b, candidates)
	return messages(b.String())
}

func cutPrompt(bb *build, excess int) []oracle.Message {
	var b strings.Builder
	b.WriteString(bb.strategic())
	fmt.Fprintf(&b, "\n\nThe deck currently holds %d lands, %d creatures and %d other spells, which is %d cards over the limit. ",
		len(bb.lands), len(bb.creatures), len(bb.spells), excess)
	fmt.Fprintf(&b, "Name exactly %d cards to cut, weakest fits first. ", excess)
	b.WriteString(`Tag each cut with its list: "land", "creature" or "spell". `)
	b.WriteString(`Respond with only a JSON object shaped like {"cuts":[{"name":"...","type":"spell","reason":"..."}]}.`)
	b.WriteString("\n\nLands:\n")
	writeCountedLines(&b, bb.lands)
	b.WriteString("\nCreatures:\n")
	writeCountedLines(&b, bb.creatures)
	b.WriteString("\nSpells:\n")
	writeCountedLines(&b, bb.spells)
	return messages(b.String())
}

func writeCardLines(b *strings.Builder, items []deck.Card) {
	for _, c := range items {
		b.WriteString("- ")
		b.WriteString(c.Name)
		if c.TypeLine != "" {
			b.WriteString(" | ")
			b.WriteString(c.TypeLine)
		}
		if c.OracleText != "" {
			b.WriteString(" | ")
			b.WriteString(strings.ReplaceAll(c.OracleText, "\n", " "))
		}
		b.WriteString("\n")
	}
}

// writeCountedLines collapses duplicate names so repeated basics do
// not balloon the prompt.
func writeCountedLines(b *strings.Builder, items []deck.Card) {
	counts := make(map[string]int)
	var order []string
	for _, c := range items {
		if counts[c.Name] == 0 {
			order = append(order, c.Name)
		}
		counts[c.Name]++
	}
	for _, name := range order {
		if counts[name] > 1 {
			fmt.Fprintf(b, "- %dx %s\n", counts[name], name)
		} else {
			fmt.Fprintf(b, "- %s\n", name)
		}
	}
}
