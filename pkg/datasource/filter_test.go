package datasource

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFilteredNoConditions(t *testing.T) {
	sqlStr, args, err := buildFiltered("SELECT id, name FROM accounts", nil, sq.Dollar)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM (SELECT id, name FROM accounts) AS _filtered", sqlStr)
	assert.Empty(t, args)
}

func TestBuildFilteredConjunction(t *testing.T) {
	filters := &FilterSet{
		Logic: "AND",
		Conditions: []Condition{
			{Column: "region", Operator: OpEq, Value: "EMEA"},
			{Column: "amount", Operator: OpGte, Value: 100},
		},
	}

	sqlStr, args, err := buildFiltered("SELECT * FROM sales", filters, sq.Dollar)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT * FROM (SELECT * FROM sales) AS _filtered WHERE (region = $1 AND amount >= $2)",
		sqlStr)
	assert.Equal(t, []any{"EMEA", 100}, args)
}

func TestBuildFilteredOperators(t *testing.T) {
	tests := []struct {
		name     string
		cond     Condition
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "default operator is eq",
			cond:     Condition{Column: "status", Value: "open"},
			wantSQL:  "WHERE (status = $1)",
			wantArgs: []any{"open"},
		},
		{
			name:     "ne",
			cond:     Condition{Column: "status", Operator: OpNe, Value: "closed"},
			wantSQL:  "WHERE (status <> $1)",
			wantArgs: []any{"closed"},
		},
		{
			name:     "like wraps with wildcards",
			cond:     Condition{Column: "name", Operator: OpLike, Value: "al"},
			wantSQL:  "WHERE (name LIKE $1)",
			wantArgs: []any{"%al%"},
		},
		{
			name:     "in expands a list",
			cond:     Condition{Column: "region", Operator: OpIn, Value: []string{"EMEA", "APAC"}},
			wantSQL:  "WHERE (region IN ($1,$2))",
			wantArgs: []any{"EMEA", "APAC"},
		},
		{
			name:     "lt",
			cond:     Condition{Column: "amount", Operator: OpLt, Value: 50},
			wantSQL:  "WHERE (amount < $1)",
			wantArgs: []any{50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sqlStr, args, err := buildFiltered("SELECT * FROM t", &FilterSet{Conditions: []Condition{tt.cond}}, sq.Dollar)
			require.NoError(t, err)
			assert.Contains(t, sqlStr, tt.wantSQL)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBuildFilteredSQLServerPlaceholders(t *testing.T) {
	filters := &FilterSet{Conditions: []Condition{
		{Column: "region", Operator: OpEq, Value: "EMEA"},
	}}

	sqlStr, args, err := buildFiltered("SELECT * FROM sales", filters, sq.AtP)
	require.NoError(t, err)
	assert.Contains(t, sqlStr, "region = @p1")
	assert.Equal(t, []any{"EMEA"}, args)
}

func TestBuildFilteredRejectsBadColumn(t *testing.T) {
	for _, col := range []string{"", "region; DROP TABLE x", "a b", "1col", `"quoted"`} {
		filters := &FilterSet{Conditions: []Condition{
			{Column: col, Operator: OpEq, Value: "v"},
		}}
		_, _, err := buildFiltered("SELECT * FROM t", filters, sq.Dollar)
		assert.Error(t, err, "column %q should be rejected", col)
	}
}

func TestBuildFilteredRejectsUnknownOperator(t *testing.T) {
	filters := &FilterSet{Conditions: []Condition{
		{Column: "region", Operator: "between", Value: "x"},
	}}
	_, _, err := buildFiltered("SELECT * FROM t", filters, sq.Dollar)
	assert.ErrorContains(t, err, "unsupported filter operator")
}

func TestBuildFilteredRejectsOrLogic(t *testing.T) {
	filters := &FilterSet{
		Logic:      "OR",
		Conditions: []Condition{{Column: "region", Operator: OpEq, Value: "EMEA"}},
	}
	_, _, err := buildFiltered("SELECT * FROM t", filters, sq.Dollar)
	assert.ErrorContains(t, err, "unsupported filter logic")
}

func TestBuildFilteredScreensInjectionPayloads(t *testing.T) {
	filters := &FilterSet{Conditions: []Condition{
		{Column: "name", Operator: OpEq, Value: "' OR 1=1 --"},
	}}
	_, _, err := buildFiltered("SELECT * FROM t", filters, sq.Dollar)
	assert.ErrorContains(t, err, "rejected")
}

func TestBuildFilteredRejectsEmptyInList(t *testing.T) {
	filters := &FilterSet{Conditions: []Condition{
		{Column: "region", Operator: OpIn, Value: []string{}},
	}}
	_, _, err := buildFiltered("SELECT * FROM t", filters, sq.Dollar)
	assert.Error(t, err)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, MaxQueryLimit, clampLimit(0))
	assert.Equal(t, MaxQueryLimit, clampLimit(-5))
	assert.Equal(t, MaxQueryLimit, clampLimit(MaxQueryLimit+1))
	assert.Equal(t, 50, clampLimit(50))
}
