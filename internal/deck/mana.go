package deck

import (
	"strconv"
	"strings"
)

// ManaValue derives the numeric mana value from printed cost text,
// e.g. "{2}{W}{W}" -> 4. Numerals add their value, X/Y/Z add zero,
// mono-hybrid symbols like {2/W} add their numeral, every other symbol
// (colored, hybrid, phyrexian, snow, colorless) adds one.
func ManaValue(cost string) int {
	total := 0
	for _, sym := range symbols(cost) {
		total += symbolValue(sym)
	}
	return total
}

// ColorPips counts colored mana symbols in cost text, one count per
// W/U/B/R/G letter found inside a symbol. Hybrid symbols contribute to
// both of their colors.
func ColorPips(cost string) map[string]int {
	pips := make(map[string]int)
	for _, sym := range symbols(cost) {
		for _, part := range strings.Split(sym, "/") {
			switch part {
			case "W", "U", "B", "R", "G":
				pips[part]++
			}
		}
	}
	return pips
}

// symbols splits cost text into its brace-delimited symbols, e.g.
// "{2}{W/U}" -> ["2", "W/U"]. Text outside braces is ignored.
func symbols(cost string) []string {
	var out []string
	for {
		open := strings.IndexByte(cost, '{')
		if open < 0 {
			return out
		}
		close := strings.IndexByte(cost[open:], '}')
		if close < 0 {
			return out
		}
		out = append(out, cost[open+1:open+close])
		cost = cost[open+close+1:]
	}
}

func symbolValue(sym string) int {
	if n, err := strconv.Atoi(sym); err == nil {
		return n
	}
	switch sym {
	case "X", "Y", "Z":
		return 0
	}
	if head, _, ok := strings.Cut(sym, "/"); ok {
		if n, err := strconv.Atoi(head); err == nil {
			return n
		}
	}
	return 1
}
