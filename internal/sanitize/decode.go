package sanitize

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNoJSON is returned when the text holds no JSON value of the expected shape.
var ErrNoJSON = errors.New("no JSON found in output")

// StripFences removes markdown code fences (``` or ```json) surrounding a payload.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// Drop the opening fence line, including any language tag.
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// values returns every complete JSON value in s that starts at an open byte,
// in order of appearance. Bytes after each value are ignored.
func values(s string, open byte) []json.RawMessage {
	var out []json.RawMessage
	for i := 0; i < len(s); i++ {
		if s[i] != open {
			continue
		}
		var v json.RawMessage
		if err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&v); err != nil {
			continue
		}
		out = append(out, v)
		// Values nested inside this one are not candidates of their own.
		i += len(v) - 1
	}
	return out
}

// ExtractJSON returns the first complete JSON value delimited by open,
// skipping any prose the model wrapped around it. When no value decodes, it
// returns the span from the first open to the last close for repair.
func ExtractJSON(raw string, open, close byte) (string, bool) {
	s := StripFences(raw)
	if vs := values(s, open); len(vs) > 0 {
		return string(vs[0]), true
	}
	return span(s, open, close)
}

func span(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(s, close)
	if end < start {
		// Unterminated payloads are left for the repair pass.
		return s[start:], true
	}
	return s[start : end+1], true
}

// Decode parses untrusted model output into T.
// Slices and arrays are looked up as JSON arrays, everything else as objects.
// The first complete value that fits T wins. When none does, the widest span
// is repaired and decoded once more.
func Decode[T any](raw string) (T, error) {
	var result T

	open, close := byte('{'), byte('}')
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Slice, reflect.Array:
		open, close = '[', ']'
	}

	s := StripFences(raw)
	for _, v := range values(s, open) {
		var out T
		if err := json.Unmarshal(v, &out); err == nil {
			return out, nil
		}
	}

	content, ok := span(s, open, close)
	if !ok {
		return result, ErrNoJSON
	}

	err := json.Unmarshal([]byte(content), &result)
	if err == nil {
		return result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(content)
	if repairErr != nil {
		return result, fmt.Errorf("failed to unmarshal %T and failed to repair JSON: unmarshal error: %w, repair error: %v", result, err, repairErr)
	}

	var retry T
	if err := json.Unmarshal([]byte(repaired), &retry); err != nil {
		return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w", result, err)
	}
	return retry, nil
}

// Preview shortens text for log lines.
func Preview(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	// Avoid splitting a multi-byte rune.
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut] + "…"
}
