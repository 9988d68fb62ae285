package common

import "math"

// ValueKind tags which field of Value is meaningful. Sensor readings are
// runtime-typed (int, float, or string depending on the sensor), so we
// model them as an explicit sum type rather than an `any` that callers
// have to type-switch on ad hoc.
type ValueKind int

const (
	// KindFloat marks a converted engineering-unit reading (full sensors).
	KindFloat ValueKind = iota
	// KindInt marks a raw reading (compact sensors).
	KindInt
	// KindString marks FRU/inventory text and device IDs.
	KindString
)

// Value is a scalar sensor or FRU reading.
type Value struct {
	Kind ValueKind
	F    float64
	I    int64
	S    string
}

// Float constructs a float-kind Value.
func Float(f float64) Value { return Value{Kind: KindFloat, F: f} }

// Int constructs an int-kind Value.
func Int(i int64) Value { return Value{Kind: KindInt, I: i} }

// String constructs a string-kind Value.
func String(s string) Value { return Value{Kind: KindString, S: s} }

// Rounded returns the value with its float component rounded to 2 decimal
// places. Int and string values are returned unchanged; only the
// Query Interface's value-read path rounds.
func (v Value) Rounded() Value {
	if v.Kind != KindFloat {
		return v
	}
	return Float(math.Round(v.F*100) / 100)
}
