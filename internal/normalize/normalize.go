// Package normalize recovers structured JSON from LLM free text. Model
// output is routinely wrapped in markdown fences, prefixed with commentary
// or followed by explanatory prose; none of that may fail the pipeline.
package normalize

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/LIANENGUANG/AI-Education/internal/model"
)

// ErrMalformedResponse is returned when no valid JSON object can be
// recovered from the raw text.
var ErrMalformedResponse = errors.New("no valid JSON object in response")

// Object extracts the first well-formed JSON object from raw LLM output.
// It tries, in order: direct parse of the fence-stripped text, the first
// brace-balanced substring, and one final parse of the whole cleaned text.
func Object(raw string) (map[string]any, error) {
	cleaned := StripFences(raw)

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err == nil {
		return obj, nil
	}

	if candidate, ok := balancedObject(cleaned); ok {
		if err := json.Unmarshal([]byte(candidate), &obj); err == nil {
			return obj, nil
		}
	}

	// Last resort: the cleaned text again, in case the scanner clipped a
	// fragment that unmarshal would have tolerated.
	if err := json.Unmarshal([]byte(cleaned), &obj); err == nil {
		return obj, nil
	}
	return nil, ErrMalformedResponse
}

// StripFences removes markdown code-fence markers, with or without a
// language tag, and trims surrounding whitespace.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type scanState int

const (
	scanSeeking scanState = iota // before the first '{'
	scanObject                   // inside the object, tracking depth
	scanString                   // inside a JSON string literal
)

// balancedObject returns the substring from the first '{' to the brace
// that returns the depth to zero. Braces inside string literals are
// ignored; backslash escapes inside strings are honored.
func balancedObject(s string) (string, bool) {
	state := scanSeeking
	start, depth := 0, 0
	escaped := false

	for i, r := range s {
		switch state {
		case scanSeeking:
			if r == '{' {
				state = scanObject
				start = i
				depth = 1
			}
		case scanObject:
			switch r {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			case '"':
				state = scanString
			}
		case scanString:
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				state = scanObject
			}
		}
	}
	return "", false
}

// IntKeyedAnswers converts a loosely-typed answer map into canonical
// question-number keys. Keys that are not numeric strings and values that
// are not strings are silently dropped; the model occasionally emits
// non-numeric annotations alongside the answers.
func IntKeyedAnswers(m map[string]any) map[int]string {
	out := make(map[int]string, len(m))
	for k, v := range m {
		num, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			continue
		}
		letter, ok := v.(string)
		if !ok {
			continue
		}
		out[num] = letter
	}
	return out
}

// DecodeExam recovers a structured exam from raw LLM output.
func DecodeExam(raw string) (*model.StructuredExam, error) {
	obj, err := Object(raw)
	if err != nil {
		return nil, err
	}
	buf, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var exam model.StructuredExam
	if err := json.Unmarshal(buf, &exam); err != nil {
		return nil, ErrMalformedResponse
	}
	return &exam, nil
}

// DecodeStudentSheets recovers the per-student answer list from raw LLM
// output, coercing answer keys to question numbers.
func DecodeStudentSheets(raw string) ([]model.StudentSheet, error) {
	obj, err := Object(raw)
	if err != nil {
		return nil, err
	}
	buf, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Students []struct {
			Name    string         `json:"name"`
			Answers map[string]any `json:"answers"`
		} `json:"students"`
	}
	if err := json.Unmarshal(buf, &parsed); err != nil {
		return nil, ErrMalformedResponse
	}

	sheets := make([]model.StudentSheet, 0, len(parsed.Students))
	for _, s := range parsed.Students {
		sheets = append(sheets, model.StudentSheet{
			Name:    s.Name,
			Answers: IntKeyedAnswers(s.Answers),
		})
	}
	return sheets, nil
}
