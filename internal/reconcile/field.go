package reconcile

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Row is one legacy row keyed by column name.
type Row map[string]any

// Coerce converts a raw legacy value to the type a field is stored as. ok is
// false when the value cannot be converted; the field is then left
// unresolved.
type Coerce func(v any) (out any, ok bool)

// Field maps one destination field to the legacy columns that may hold it.
// Aliases are tried in order; the first one present with a non-NULL,
// non-blank value wins.
type Field struct {
	Dest    string
	Aliases []string
	Coerce  Coerce
}

// Record holds the resolved fields of a row. Fields that did not resolve are
// absent, never zero-valued.
type Record map[string]any

func present(v any) bool {
	switch typed := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(typed) != ""
	case []byte:
		return strings.TrimSpace(string(typed)) != ""
	}
	return true
}

// Resolve applies fields to row.
func Resolve(row Row, fields []Field) Record {
	rec := make(Record, len(fields))
	for _, field := range fields {
		coerce := field.Coerce
		if coerce == nil {
			coerce = AsString
		}

		for _, alias := range field.Aliases {
			raw, found := row[alias]
			if !found || !present(raw) {
				continue
			}
			if value, ok := coerce(raw); ok {
				rec[field.Dest] = value
				break
			}
		}
	}
	return rec
}

func (r Record) Has(dest string) bool {
	_, ok := r[dest]
	return ok
}

func (r Record) String(dest string) string {
	s, _ := r[dest].(string)
	return s
}

func (r Record) Int(dest string) int {
	n, _ := r[dest].(int)
	return n
}

// IntPtr returns nil when dest did not resolve.
func (r Record) IntPtr(dest string) *int {
	n, ok := r[dest].(int)
	if !ok {
		return nil
	}
	return &n
}

func (r Record) Float(dest string) float64 {
	f, _ := r[dest].(float64)
	return f
}

func (r Record) Bool(dest string) bool {
	b, _ := r[dest].(bool)
	return b
}

// StringPtr, FloatPtr and BoolPtr return nil when dest did not resolve.
func (r Record) StringPtr(dest string) *string {
	s, ok := r[dest].(string)
	if !ok {
		return nil
	}
	return &s
}

func (r Record) FloatPtr(dest string) *float64 {
	f, ok := r[dest].(float64)
	if !ok {
		return nil
	}
	return &f
}

func (r Record) BoolPtr(dest string) *bool {
	b, ok := r[dest].(bool)
	if !ok {
		return nil
	}
	return &b
}

// AsString renders scalars as text.
func AsString(v any) (any, bool) {
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed), true
	case []byte:
		return strings.TrimSpace(string(typed)), true
	case int64:
		return strconv.FormatInt(typed, 10), true
	case int:
		return strconv.Itoa(typed), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(typed), true
	case time.Time:
		return typed.UTC().Format("2006-01-02T15:04:05.000Z07:00"), true
	}
	return nil, false
}

// AsInt accepts integers, integral floats and numeric text.
func AsInt(v any) (any, bool) {
	switch typed := v.(type) {
	case int64:
		return int(typed), true
	case int:
		return typed, true
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			return nil, false
		}
		return int(typed), true
	case bool:
		if typed {
			return 1, true
		}
		return 0, true
	case string, []byte:
		s, _ := AsString(typed)
		if n, err := strconv.Atoi(s.(string)); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s.(string), 64); err == nil {
			return int(f), true
		}
	}
	return nil, false
}

// AsFloat accepts numbers and numeric text. A decimal comma is accepted.
func AsFloat(v any) (any, bool) {
	switch typed := v.(type) {
	case float64:
		return typed, true
	case int64:
		return float64(typed), true
	case int:
		return float64(typed), true
	case string, []byte:
		s, _ := AsString(typed)
		text := strings.Replace(s.(string), ",", ".", 1)
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f, true
		}
	}
	return nil, false
}

// AsBool treats 1, true, "1" and "true" as true and every other readable
// value as false.
func AsBool(v any) (any, bool) {
	switch typed := v.(type) {
	case bool:
		return typed, true
	case int64:
		return typed == 1, true
	case int:
		return typed == 1, true
	case float64:
		return typed == 1, true
	case string, []byte:
		s, _ := AsString(typed)
		text := strings.ToLower(s.(string))
		return text == "1" || text == "true", true
	}
	return nil, false
}

// AsJSONText keeps text as is and serializes anything else.
func AsJSONText(v any) (any, bool) {
	switch typed := v.(type) {
	case string:
		return typed, true
	case []byte:
		return string(typed), true
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	return string(b), true
}
