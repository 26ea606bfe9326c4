package vision

import (
	"encoding/json"
	"strings"

	"happyshaa/internal/models"
)

type rawVerdict struct {
	Emergency   *bool       `json:"emergency"`
	Confidence  json.Number `json:"confidence"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
}

// ParseVerdict reads a model reply into a Verdict. Replies wrapped in
// markdown fences or surrounded by prose are accepted as long as they
// contain a JSON object. Anything else yields NoEmergency.
func ParseVerdict(text string) *Verdict {
	obj, ok := extractJSONObject(stripFences(text))
	if !ok {
		return NoEmergency()
	}

	dec := json.NewDecoder(strings.NewReader(obj))
	dec.UseNumber()

	var raw rawVerdict
	if err := dec.Decode(&raw); err != nil || raw.Emergency == nil {
		return NoEmergency()
	}

	confidence := 0
	if f, err := raw.Confidence.Float64(); err == nil {
		// some models answer on a 0-1 scale
		if f > 0 && f <= 1 && strings.Contains(raw.Confidence.String(), ".") {
			f *= 100
		}
		confidence = clamp(int(f+0.5), 0, 100)
	}

	return &Verdict{
		Emergency:   *raw.Emergency,
		Confidence:  confidence,
		Type:        models.ParseDetectionType(raw.Type),
		Description: strings.TrimSpace(raw.Description),
	}
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// extractJSONObject returns the first balanced {...} in s, skipping braces
// inside string literals.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
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
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
