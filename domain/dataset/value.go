package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Kind tags the content of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
)

// Value is a single nullable cell. The zero Value is null.
type Value struct {
	kind Kind
	num  float64
	text string
}

// Null returns the missing value.
func Null() Value {
	return Value{}
}

// Number wraps a float. NaN is stored as null.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// Text wraps a string value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// missingTokens are cell spellings treated as missing when parsing raw input.
var missingTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"NULL": true,
}

// ParseValue converts a raw cell into a Value: missing tokens become null,
// numeric strings become numbers, everything else is kept as text.
func ParseValue(raw string) Value {
	s := strings.TrimSpace(raw)
	if missingTokens[s] {
		return Null()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(f)
	}
	return Text(s)
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Float applies the float64 cast: numbers as-is, text parsed as a float.
// The second result is false when the value is null or not castable.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// String renders the value for export; null renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	}
	return ""
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.num == o.num && v.text == o.text
}
