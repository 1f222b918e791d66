// Package codec encodes and decodes the JSON blobs embedded in table rows.
//
// Decoding never fails: a blank, malformed or wrongly shaped blob decodes to
// an empty value so that one corrupt historical row cannot break a listing or
// a report.
package codec

import (
	"encoding/json"
	"strings"
)

// Encode serializes v to its JSON text.
func Encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EncodeText is Encode except that strings are stored verbatim, matching
// clients that sometimes send blobs already serialized.
func EncodeText(v any) (string, error) {
	switch typed := v.(type) {
	case nil:
		return "", nil
	case string:
		return typed, nil
	case []byte:
		return string(typed), nil
	case json.RawMessage:
		return string(typed), nil
	}
	return Encode(v)
}

// Decode parses s into a generic value. ok is false for blank or malformed
// input.
func Decode(s string) (value any, ok bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	if err := json.Unmarshal([]byte(s), &value); err != nil {
		return nil, false
	}
	return value, true
}

// DecodeObject parses s as a JSON object.
func DecodeObject(s string) map[string]any {
	value, ok := Decode(s)
	if !ok {
		return map[string]any{}
	}
	obj, isObj := value.(map[string]any)
	if !isObj {
		return map[string]any{}
	}
	return obj
}

// DecodeArray parses s as a JSON array.
func DecodeArray(s string) []any {
	value, ok := Decode(s)
	if !ok {
		return []any{}
	}
	arr, isArr := value.([]any)
	if !isArr {
		return []any{}
	}
	return arr
}

// DecodeStrings parses s as a JSON array of strings; non-string elements are
// skipped.
func DecodeStrings(s string) []string {
	arr := DecodeArray(s)
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	return out
}
