// Package models defines the records exchanged between the wizard stages.
package models

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Record is a structured mapping parsed from model output. Numbers are
// float64, nested objects are map[string]any and arrays are []any.
type Record map[string]any

// String returns the value at key rendered as text. Numbers are printed
// without a trailing ".0" and booleans as true/false. Missing or
// structured values yield "".
func (r Record) String(key string) string {
	return scalarString(r[key])
}

// First returns the first non-empty String among keys.
func (r Record) First(keys ...string) string {
	for _, k := range keys {
		if v := r.String(k); v != "" {
			return v
		}
	}
	return ""
}

// Strings returns a list value as text. A single string is split on
// commas so "XLE, USO" and ["XLE","USO"] read the same.
func (r Record) Strings(key string) []string {
	switch v := r[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		if s := scalarString(v); s != "" {
			return []string{s}
		}
		return nil
	}
}

// Records returns the elements of a list value that are objects.
func (r Record) Records(key string) []Record {
	list, ok := r[key].([]any)
	if !ok {
		return nil
	}
	out := make([]Record, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Record(m))
		}
	}
	return out
}

// JSON renders the record with sorted keys. encoding/json sorts map
// keys, so the output is stable for equal records.
func (r Record) JSON() string {
	b, err := json.Marshal(map[string]any(r))
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Keys returns the record's top-level keys in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
