package deck

import (
	"fmt"
	"strings"
)

// ExportText renders the deck as a plain text list, one section per
// category with "N Card Name" lines. Repeated cards (basic lands)
// collapse into a single counted line at their first occurrence.
func ExportText(d *FinalDeck) string {
	var sb strings.Builder
	sb.WriteString("Commander\n")
	fmt.Fprintf(&sb, "1 %s\n", d.Commander.Name)
	writeSection(&sb, "Lands", d.Lands)
	writeSection(&sb, "Creatures", d.Creatures)
	writeSection(&sb, "Spells", d.Spells)
	return sb.String()
}

func writeSection(sb *strings.Builder, title string, cards []Card) {
	sb.WriteString("\n")
	fmt.Fprintf(sb, "%s (%d)\n", title, len(cards))

	counts := make(map[string]int)
	var order []string
	for _, c := range cards {
		if counts[c.Name] == 0 {
			order = append(order, c.Name)
		}
		counts[c.Name]++
	}
	for _, name := range order {
		fmt.Fprintf(sb, "%d %s\n", counts[name], name)
	}
}
