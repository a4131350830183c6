package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeJSON parses a structured model reply into out. Models sometimes wrap
// JSON in code fences or surround it with prose, so both are tolerated.
func decodeJSON(raw string, out any) error {
	js := stripCodeFences(raw)
	if js == "" {
		return fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}
	err := json.Unmarshal([]byte(js), out)
	if err == nil {
		return nil
	}
	s := findFirstJSON(js)
	if s == "" {
		return fmt.Errorf("%w: no JSON found: %v", ErrMalformedResponse, err)
	}
	if err2 := json.Unmarshal([]byte(s), out); err2 != nil {
		return fmt.Errorf("%w: %v (original error: %v)", ErrMalformedResponse, err2, err)
	}
	return nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

// findFirstJSON returns the first balanced array or object in s, skipping
// brackets inside string literals.
func findFirstJSON(s string) string {
	start := strings.IndexAny(s, "[{")
	if start == -1 {
		return ""
	}
	var stack []byte
	inString, escaped := false, false
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
		case '[', '{':
			stack = append(stack, c)
		case ']', '}':
			if len(stack) == 0 {
				return ""
			}
			open := stack[len(stack)-1]
			if (open == '[' && c != ']') || (open == '{' && c != '}') {
				return ""
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
