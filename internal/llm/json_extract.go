package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fencePattern matches markdown code fences with optional language tag.
var fencePattern = regexp.MustCompile("(?s)```(\\w*)\\s*\\n(.+?)\\n```")

// ExtractJSON extracts a JSON document from a model response that may be
// wrapped in markdown. Priority:
//  1. JSON inside ```json ... ``` or untagged ``` ... ``` fences
//  2. the first raw {...} object or [...] array in the response
func ExtractJSON(response string) (string, error) {
	if doc, ok := extractFromFence(response); ok {
		return doc, nil
	}

	if doc, ok := extractRaw(response); ok {
		return doc, nil
	}

	return "", NewParseError("no valid JSON found in model response", nil)
}

// extractFromFence finds JSON inside markdown code fences.
func extractFromFence(response string) (string, bool) {
	for _, match := range fencePattern.FindAllStringSubmatch(response, -1) {
		lang := strings.ToLower(match[1])
		content := strings.TrimSpace(match[2])

		// Skip fences explicitly tagged as another language.
		if lang != "" && lang != "json" {
			continue
		}

		if (strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[")) && json.Valid([]byte(content)) {
			return content, true
		}
	}

	return "", false
}

// extractRaw finds the first balanced JSON object or array in free text.
func extractRaw(response string) (string, bool) {
	start := -1
	var open, closer byte
	for i := 0; i < len(response); i++ {
		if response[i] == '{' || response[i] == '[' {
			start = i
			open = response[i]
			if open == '{' {
				closer = '}'
			} else {
				closer = ']'
			}
			break
		}
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		c := response[i]

		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == closer:
			depth--
			if depth == 0 {
				candidate := response[start : i+1]
				if json.Valid([]byte(candidate)) {
					return candidate, true
				}
				return "", false
			}
		}
	}

	return "", false
}
