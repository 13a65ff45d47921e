package datasource

import (
	"fmt"
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/vantagedesk/vantage-console/pkg/sqlcheck"
)

// Filter operators accepted from dashboard controls and the API.
const (
	OpEq   = "eq"
	OpNe   = "ne"
	OpGt   = "gt"
	OpLt   = "lt"
	OpGte  = "gte"
	OpLte  = "lte"
	OpLike = "like"
	OpIn   = "in"
)

// Condition is one column comparison.
type Condition struct {
	Column   string `json:"column"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// FilterSet combines conditions. Only AND logic is supported; the zero
// Logic means AND.
type FilterSet struct {
	Logic      string      `json:"logic,omitempty"`
	Conditions []Condition `json:"conditions"`
}

// Empty reports whether the set applies no conditions.
func (f *FilterSet) Empty() bool {
	return f == nil || len(f.Conditions) == 0
}

// identPattern restricts filter columns to plain identifiers. Column names
// come from untrusted dashboard markup, so anything else is rejected
// outright rather than quoted.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// buildFiltered wraps baseSQL as a subquery and renders the filter set as a
// parameterized WHERE clause in the given placeholder format.
func buildFiltered(baseSQL string, filters *FilterSet, format sq.PlaceholderFormat) (string, []any, error) {
	wrapped := fmt.Sprintf("(%s) AS _filtered", baseSQL)
	builder := sq.Select("*").From(wrapped).PlaceholderFormat(format)

	if !filters.Empty() {
		if logic := strings.ToUpper(strings.TrimSpace(filters.Logic)); logic != "" && logic != "AND" {
			return "", nil, fmt.Errorf("unsupported filter logic %q", filters.Logic)
		}
		conj := make(sq.And, 0, len(filters.Conditions))
		for _, cond := range filters.Conditions {
			pred, err := predicate(cond)
			if err != nil {
				return "", nil, err
			}
			conj = append(conj, pred)
		}
		builder = builder.Where(conj)
	}

	return builder.ToSql()
}

func predicate(cond Condition) (sq.Sqlizer, error) {
	col := strings.TrimSpace(cond.Column)
	if !identPattern.MatchString(col) {
		return nil, fmt.Errorf("invalid filter column %q", cond.Column)
	}
	if err := screenValue(cond.Value); err != nil {
		return nil, fmt.Errorf("filter value for column %q rejected: %w", col, err)
	}

	switch strings.ToLower(strings.TrimSpace(cond.Operator)) {
	case OpEq, "":
		return sq.Eq{col: cond.Value}, nil
	case OpNe:
		return sq.NotEq{col: cond.Value}, nil
	case OpGt:
		return sq.Gt{col: cond.Value}, nil
	case OpLt:
		return sq.Lt{col: cond.Value}, nil
	case OpGte:
		return sq.GtOrEq{col: cond.Value}, nil
	case OpLte:
		return sq.LtOrEq{col: cond.Value}, nil
	case OpLike:
		return sq.Like{col: fmt.Sprintf("%%%v%%", cond.Value)}, nil
	case OpIn:
		values, ok := toSlice(cond.Value)
		if !ok {
			return nil, fmt.Errorf("operator %q needs a list value for column %q", OpIn, col)
		}
		for _, v := range values {
			if err := screenValue(v); err != nil {
				return nil, fmt.Errorf("filter value for column %q rejected: %w", col, err)
			}
		}
		return sq.Eq{col: values}, nil
	default:
		return nil, fmt.Errorf("unsupported filter operator %q", cond.Operator)
	}
}

// screenValue runs string values through injection screening. Values are
// always bound as parameters; the screen catches payloads aimed at the
// reporting database's own functions.
func screenValue(v any) error {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return sqlcheck.CheckValue(s)
}

func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, len(s) > 0
	case []string:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, len(out) > 0
	case []int:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, len(out) > 0
	case []float64:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, len(out) > 0
	default:
		return nil, false
	}
}
