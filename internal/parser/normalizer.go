// Package parser turns raw language model replies into transaction candidates.
package parser

import (
	"encoding/json"
	"strings"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"
)

const fence = "```"

// Normalize converts raw model text into a ParseResult. It never panics and
// performs no field validation: any well-formed JSON object is a success.
//
// The payload is the greedy span from the first '{' to the last '}'.
func Normalize(raw string) domain.ParseResult {
	return normalize(raw, greedySpan)
}

// NormalizeStrict behaves like Normalize but extracts the first complete
// top-level object using a balanced-brace scan that ignores braces inside
// JSON strings.
func NormalizeStrict(raw string) domain.ParseResult {
	return normalize(raw, balancedSpan)
}

// spanFunc locates the JSON payload. found is false when no object start or
// end exists; complete is false when an object was opened but never closed.
type spanFunc func(s string) (payload string, found, complete bool)

func normalize(raw string, span spanFunc) domain.ParseResult {
	if strings.TrimSpace(raw) == "" {
		return domain.Failure(domain.FailureEmptyResponse, "")
	}

	s := stripFence(raw)

	payload, found, complete := span(s)
	if !found {
		return domain.Failure(domain.FailureNoJSONFound, "")
	}
	if !complete {
		return domain.Failure(domain.FailureJSONParseError, "unbalanced braces: object never closed")
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		return domain.Failure(domain.FailureJSONParseError, err.Error())
	}
	return domain.Success(domain.Candidate(obj))
}

// stripFence removes a surrounding markdown code fence, with or without a
// language tag.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, fence) {
		return s
	}

	s = strings.TrimPrefix(s, fence)
	if idx := strings.Index(s, "\n"); idx != -1 {
		// Drop the rest of the opening line (```json).
		s = s[idx+1:]
	} else {
		// Single line: ```json{"a":1}```
		s = strings.TrimLeftFunc(s, isTagRune)
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

func isTagRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_'
}

func greedySpan(s string) (string, bool, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false, false
	}
	end := strings.LastIndex(s, "}")
	if end < start {
		return "", false, false
	}
	return s[start : end+1], true, true
}

func balancedSpan(s string) (string, bool, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false, false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
				return s[start : i+1], true, true
			}
		}
	}
	return "", true, false
}
