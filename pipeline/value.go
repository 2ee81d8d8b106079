package pipeline

import (
	"math"
	"strconv"
)

// Value is a survey measurement that is either present or missing.
// Missing is an explicit state, never zero: only the aggregation and
// bar-snapshot boundaries may substitute zero for it.
type Value struct {
	present bool
	v       float64
}

// Present wraps a measured number. NaN normalizes to Missing so that no
// consumer has to reason about float poisoning downstream.
func Present(v float64) Value {
	if math.IsNaN(v) {
		return Value{}
	}
	return Value{present: true, v: v}
}

// Missing is the explicit no-data marker.
func Missing() Value {
	return Value{}
}

// FromPtr converts a nullable database value.
func FromPtr(p *float64) Value {
	if p == nil {
		return Value{}
	}
	return Present(*p)
}

// IsPresent reports whether the value holds a number.
func (val Value) IsPresent() bool {
	return val.present
}

// Float64 returns the number and whether it is present.
func (val Value) Float64() (float64, bool) {
	return val.v, val.present
}

// Or returns the number, or fallback when missing.
func (val Value) Or(fallback float64) float64 {
	if !val.present {
		return fallback
	}
	return val.v
}

// MarshalJSON renders a present value as a number and a missing one as null.
func (val Value) MarshalJSON() ([]byte, error) {
	if !val.present {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(val.v, 'f', -1, 64)), nil
}
