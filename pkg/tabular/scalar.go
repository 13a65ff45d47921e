// Package tabular holds the in-memory model for rectangular query results
// and the pure view engine that computes searched, filtered, sorted, and
// paginated windows over them. Results arrive from an external datasource
// with unknown column count and untyped cells; everything downstream
// (search, filters, sort, export) shares the single string coercion rule
// defined on Scalar.
package tabular

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the closed set of cell value types.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
)

// Scalar is one cell of a result row: string, number, bool, or null.
type Scalar struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// Null returns the null scalar.
func Null() Scalar { return Scalar{kind: KindNull} }

// String returns a string scalar.
func String(s string) Scalar { return Scalar{kind: KindString, str: s} }

// Number returns a numeric scalar.
func Number(f float64) Scalar { return Scalar{kind: KindNumber, num: f} }

// Bool returns a boolean scalar.
func Bool(b bool) Scalar { return Scalar{kind: KindBool, b: b} }

// FromAny coerces a value as produced by database drivers or decoded JSON
// into a Scalar. Unknown types fall back to their fmt string form; FromAny
// never fails.
func FromAny(v any) Scalar {
	switch x := v.(type) {
	case nil:
		return Null()
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case []byte:
		return String(string(x))
	default:
		return String(fmt.Sprint(x))
	}
}

// Kind returns the scalar's kind.
func (s Scalar) Kind() Kind { return s.kind }

// IsNull reports whether the cell holds no value.
func (s Scalar) IsNull() bool { return s.kind == KindNull }

// DisplayString is the one coercion rule shared by search, filtering,
// sorting, and export. Null renders as the empty string; numbers render
// without a trailing ".0" for integral values.
func (s Scalar) DisplayString() string {
	switch s.kind {
	case KindNull:
		return ""
	case KindString:
		return s.str
	case KindNumber:
		return strconv.FormatFloat(s.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(s.b)
	}
	return ""
}

// Numeric returns the cell's numeric value when the cell is a number or a
// string that parses as one.
func (s Scalar) Numeric() (float64, bool) {
	switch s.kind {
	case KindNumber:
		return s.num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(s.str), 64)
		return f, err == nil
	}
	return 0, false
}
