// Package extract recovers a JSON object from free-form model output.
//
// Models wrap the requested object in prose, markdown fences or both.
// Extract looks inside a fence first and falls back to the span between
// the first '{' and the last '}'. The fallback is lossy when the reply
// holds more than one brace block; that is accepted.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bobmcallan/macro-alpha/internal/models"
)

// ErrNoRecord is returned when no JSON object can be recovered.
var ErrNoRecord = errors.New("no record in model response")

const (
	fence     = "```"
	jsonFence = "```json"
)

// Extract returns the JSON object embedded in raw. It never returns a
// partial or empty record: any failure yields an error wrapping ErrNoRecord.
func Extract(raw string) (models.Record, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrNoRecord)
	}

	var fenceErr error
	if candidate, ok := fenced(text); ok {
		rec, err := parseObject(candidate)
		if err == nil {
			return rec, nil
		}
		fenceErr = err
	}

	candidate, ok := braceSpan(text)
	if !ok {
		if fenceErr != nil {
			return nil, fmt.Errorf("%w: fenced block: %v", ErrNoRecord, fenceErr)
		}
		return nil, fmt.Errorf("%w: no object braces found", ErrNoRecord)
	}

	rec, err := parseObject(candidate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoRecord, err)
	}
	return rec, nil
}

// fenced returns the body of the first ```json block, or of the first
// untagged fence pair. An unterminated ```json block runs to the end.
func fenced(text string) (string, bool) {
	if !strings.Contains(text, fence) {
		return "", false
	}

	if i := strings.Index(text, jsonFence); i >= 0 {
		body := text[i+len(jsonFence):]
		if end := strings.Index(body, fence); end >= 0 {
			body = body[:end]
		}
		return body, true
	}

	parts := strings.SplitN(text, fence, 3)
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}

// braceSpan returns text from the first '{' to the last '}' inclusive.
// An unmatched '{' after the last '}' lies outside the span and is
// ignored, so `{"a":1} {` still yields {"a":1}. Unbalanced braces inside
// the span fail in parseObject.
func braceSpan(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// parseObject accepts exactly one JSON object with nothing after it.
func parseObject(candidate string) (models.Record, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return nil, errors.New("empty candidate")
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(candidate), &rec); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if rec == nil {
		return nil, errors.New("decoded value is not an object")
	}
	return models.Record(rec), nil
}
