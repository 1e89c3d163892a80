package oracle

import (
	"errors"
	"strings"
)

// ErrNoJSON is returned when no JSON object can be found in model text.
var ErrNoJSON = errors.New("no JSON object found in model output")

// ExtractObject returns the first balanced JSON object in text. Model
// output regularly wraps JSON in code fences or surrounding prose; both
// are ignored. Brace tracking is string-aware so braces inside JSON
// string values do not end the object early.
func ExtractObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", ErrNoJSON
}
