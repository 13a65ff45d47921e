// Package sqlcheck validates SQL submitted to the reporting executor. Saved
// queries and ad hoc SQL must be single read-only SELECT statements; filter
// values supplied by clients are additionally screened for injection
// patterns before they reach the datasource.
package sqlcheck

import (
	"errors"
	"fmt"
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"
)

var (
	// ErrEmptyQuery indicates a blank SQL statement.
	ErrEmptyQuery = errors.New("SQL query is empty")
	// ErrNotReadOnly indicates a statement that is not a SELECT.
	ErrNotReadOnly = errors.New("only SELECT statements are allowed")
	// ErrMultipleStatements indicates more than one statement in the query.
	ErrMultipleStatements = errors.New("multiple SQL statements are not allowed")
)

// Validate checks that the statement is a single read-only SELECT and
// returns its normalized form: trimmed, trailing semicolon stripped.
// Trailing semicolons break subquery wrapping downstream, so normalization
// happens before the multiple-statement check.
func Validate(sqlQuery string) (string, error) {
	normalized := stripTrailingSemicolon(strings.TrimSpace(sqlQuery))
	if normalized == "" {
		return "", ErrEmptyQuery
	}

	upper := strings.ToUpper(normalized)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return "", ErrNotReadOnly
	}

	if hasSemicolonOutsideStrings(normalized) {
		return "", ErrMultipleStatements
	}

	return normalized, nil
}

// CheckValue screens one client-supplied literal (a filter value) for SQL
// injection patterns. Non-string values cannot carry injection and are
// accepted as-is by the caller.
func CheckValue(value string) error {
	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if isSQLi {
		return fmt.Errorf("value rejected by injection screening (fingerprint %s)", string(fingerprint))
	}
	return nil
}

// hasSemicolonOutsideStrings reports whether the SQL contains a semicolon
// outside single- or double-quoted literals. The trailing semicolon has
// already been stripped, so any hit means multiple statements.
func hasSemicolonOutsideStrings(sqlQuery string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	prev := rune(0)
	for _, char := range sqlQuery {
		switch state {
		case stateNormal:
			switch char {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			if char == '\'' && prev != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' && prev != '\\' {
				state = stateNormal
			}
		}
		prev = char
	}
	return false
}

func stripTrailingSemicolon(sqlQuery string) string {
	sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	if strings.HasSuffix(sqlQuery, ";") {
		sqlQuery = strings.TrimRight(strings.TrimSuffix(sqlQuery, ";"), " \t\n\r")
	}
	return sqlQuery
}
