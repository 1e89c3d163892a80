package scryfall

import (
	"fmt"
	"strings"
)

// Query helpers for the Scryfall search grammar:
// name:"X" type:Y colors:Z legal:commander ci<=COLORS

// wubrgOrder fixes the symbol order used in generated queries.
var wubrgOrder = []string{"W", "U", "B", "R", "G"}

// PoolQuery builds the deck-pool query for a commander's color identity:
// every commander-legal card whose identity is a subset of the given
// colors. An empty identity restricts the pool to colorless cards.
func PoolQuery(colorIdentity []string) string {
	ci := "C"
	if len(colorIdentity) > 0 {
		have := make(map[string]bool, len(colorIdentity))
		for _, c := range colorIdentity {
			have[strings.ToUpper(c)] = true
		}
		var b strings.Builder
		for _, c := range wubrgOrder {
			if have[c] {
				b.WriteString(c)
			}
		}
		if b.Len() > 0 {
			ci = b.String()
		}
	}
	return fmt.Sprintf("legal:commander ci<=%s", ci)
}

// CommanderQuery matches any commander-eligible card.
func CommanderQuery() string {
	return "type:legendary type:creature legal:commander"
}

// CommanderSearchQuery matches commander-eligible cards by name.
func CommanderSearchQuery(name string) string {
	return fmt.Sprintf("name:%q type:legendary legal:commander", name)
}
