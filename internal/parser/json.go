package parser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONObject locates the outermost balanced {...} span in a completion
// and returns it as raw JSON. Models occasionally wrap output in code fences
// or prefix it with prose; both are tolerated. An unbalanced span usually
// means the completion was truncated.
func ExtractJSONObject(text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	if start == -1 {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedOutput)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				span := text[start : i+1]
				if !json.Valid([]byte(span)) {
					return nil, fmt.Errorf("%w: span is not valid JSON", ErrMalformedOutput)
				}
				return json.RawMessage(span), nil
			}
		}
	}

	return nil, fmt.Errorf("%w: unbalanced JSON object (likely truncated)", ErrMalformedOutput)
}
