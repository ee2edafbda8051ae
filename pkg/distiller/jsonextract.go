package distiller

import (
	"encoding/json"
	"strings"
)

// decodeFirst decodes into v the first balanced JSON value in text that opens
// with open ('[' or '{') and parses. Models often wrap their answer in prose
// or code fences, so every opening bracket is tried in turn before the whole
// text. It reports whether anything decoded.
func decodeFirst(text string, open byte, v any) bool {
	closer := byte(']')
	if open == '{' {
		closer = '}'
	}

	for i := 0; i < len(text); i++ {
		if text[i] != open {
			continue
		}
		candidate, ok := balanced(text[i:], open, closer)
		if !ok {
			continue
		}
		if json.Unmarshal([]byte(candidate), v) == nil {
			return true
		}
	}
	return json.Unmarshal([]byte(strings.TrimSpace(text)), v) == nil
}

// balanced returns the prefix of s up to the bracket closing s[0], skipping
// brackets inside JSON strings
func balanced(s string, open, closer byte) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}
