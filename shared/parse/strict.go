// Package parse turns raw generative-model output into validated analysis
// records. StrictParse is the happy path; Extract (fallback.go) is the
// heuristic recovery path used when strict decoding fails.
package parse

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"tubeinsight/internal/models"
	"tubeinsight/shared/schema"
)

// ErrMalformedOutput is returned when none of the strict decode stages can
// interpret the model output. Callers route the raw text to Extract instead
// of escalating.
var ErrMalformedOutput = errors.New("no decodable structured data in model output")

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// StrictParse tries, in order: decoding the entire text as JSON, decoding the
// contents of a fenced code block, and decoding the first balanced brace span
// found anywhere in the text. The first stage that yields a mapping wins; the
// result goes through the schema contract. If everything fails the error is
// ErrMalformedOutput.
func StrictParse(raw string, video *models.Video) (*models.Analysis, []schema.FieldIssue, error) {
	candidate, ok := decodeCandidate(raw)
	if !ok {
		return nil, nil, ErrMalformedOutput
	}
	analysis, issues := schema.ValidateAndCoerce(candidate, video)
	return analysis, issues, nil
}

func decodeCandidate(raw string) (map[string]any, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, false
	}

	// Stage 1: the whole text is the document.
	if m, ok := unmarshalMapping(trimmed); ok {
		return m, true
	}

	// Stage 2: a fenced code block labelled as structured data.
	if groups := fencedBlockRe.FindStringSubmatch(trimmed); groups != nil {
		if m, ok := unmarshalMapping(strings.TrimSpace(groups[1])); ok {
			return m, true
		}
	}

	// Stage 3: the first balanced brace-delimited span anywhere in the text.
	if span := balancedBraceSpan(trimmed); span != "" {
		if m, ok := unmarshalMapping(span); ok {
			return m, true
		}
	}
	return nil, false
}

// unmarshalMapping decodes text into a JSON object, retrying once with quote
// sanitization for the near-JSON that models sometimes emit.
func unmarshalMapping(text string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(text), &m); err == nil && m != nil {
		return m, true
	}
	if err := json.Unmarshal([]byte(sanitizeJSON(text)), &m); err == nil && m != nil {
		return m, true
	}
	return nil, false
}

// balancedBraceSpan returns the first substring running from an opening brace
// to its matching close, or "" when the braces never balance.
func balancedBraceSpan(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	return ""
}

// sanitizeJSON repairs the most common malformation in model JSON: unescaped
// double quotes inside string values. It walks line by line, re-escaping
// quotes between the first and last quote of each string-valued line.
func sanitizeJSON(jsonStr string) string {
	lines := strings.Split(jsonStr, "\n")
	var sanitized []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.Contains(line, ":") && strings.Contains(line, "\"") {
			colonIdx := strings.Index(line, ":")
			beforeColon := line[:colonIdx+1]
			afterColon := strings.TrimSpace(line[colonIdx+1:])

			if strings.HasPrefix(afterColon, "\"") {
				lastQuoteIdx := strings.LastIndex(afterColon, "\"")
				if lastQuoteIdx > 0 {
					content := afterColon[1:lastQuoteIdx]
					content = strings.ReplaceAll(content, "\\\"", "\"")
					content = strings.ReplaceAll(content, "\"", "\\\"")
					remainder := afterColon[lastQuoteIdx+1:]
					line = beforeColon + " \"" + content + "\"" + remainder
				}
			}
		}
		sanitized = append(sanitized, line)
	}

	return strings.Join(sanitized, "\n")
}
