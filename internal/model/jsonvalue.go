// Package model holds the shared data types for feedback, items, identifiers,
// scorecards, and the analytic results derived from them.
package model

import "encoding/json"

// JSONValue is a tagged variant for fields the remote service may return
// either as an already-parsed object or as a serialized JSON string
// (metadata and cost both arrive in either shape depending on the writer).
type JSONValue struct {
	Raw    string         // non-empty when the source value was a string
	Object map[string]any // non-nil when the source value was an object
	Null   bool
}

// NewJSONValueFromAny builds a JSONValue from a decoded any (as produced by
// encoding/json when unmarshaling into interface{}).
func NewJSONValueFromAny(v any) JSONValue {
	switch t := v.(type) {
	case nil:
		return JSONValue{Null: true}
	case string:
		return JSONValue{Raw: t}
	case map[string]any:
		return JSONValue{Object: t}
	default:
		// Numbers, bools, arrays: preserve via round-trip marshal so AsObject
		// at least has a chance if the caller re-parses it as an array element.
		b, err := json.Marshal(t)
		if err != nil {
			return JSONValue{Null: true}
		}
		return JSONValue{Raw: string(b)}
	}
}

// AsObject normalizes the value to a map, parsing Raw as JSON when needed.
// Returns (nil, false) for Null values or values that cannot be parsed as
// a JSON object.
func (v JSONValue) AsObject() (map[string]any, bool) {
	if v.Object != nil {
		return v.Object, true
	}
	if v.Null || v.Raw == "" {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(v.Raw), &m); err != nil {
		return nil, false
	}
	return m, true
}

// IsEmpty reports whether the value carries no usable data.
func (v JSONValue) IsEmpty() bool {
	if v.Null {
		return true
	}
	if v.Object != nil {
		return len(v.Object) == 0
	}
	return v.Raw == ""
}
