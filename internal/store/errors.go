package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// ConstraintKind identifies which schema rule rejected a write.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "UNIQUE"
	ConstraintForeignKey ConstraintKind = "FOREIGN_KEY"
	ConstraintCheck      ConstraintKind = "CHECK"
	ConstraintNotNull    ConstraintKind = "NOT_NULL"
	ConstraintTrigger    ConstraintKind = "TRIGGER"
)

// ConstraintError is returned when SQLite rejects a write.
//
// Table and Columns are parsed from the driver message when SQLite reports
// them ("UNIQUE constraint failed: users.email") or from the
// "table.column: reason" prefix used by the schema triggers. Foreign key
// failures carry neither: SQLite does not say which reference dangled.
type ConstraintError struct {
	Kind    ConstraintKind
	Table   string
	Columns []string
	Index   string
	Detail  string
	Err     error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s constraint failed: %s", e.Kind, e.Detail)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// AsConstraint extracts a *ConstraintError from err.
func AsConstraint(err error) (*ConstraintError, bool) {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// classify converts SQLite constraint failures to *ConstraintError and
// returns any other error unchanged.
func classify(err error) error {
	var se sqlite3.Error
	if !errors.As(err, &se) || se.Code != sqlite3.ErrConstraint {
		return err
	}

	msg := se.Error()
	ce := &ConstraintError{Detail: msg, Err: err}

	switch se.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		ce.Kind = ConstraintUnique
		parseFailedColumns(ce, msg)
	case sqlite3.ErrConstraintForeignKey:
		ce.Kind = ConstraintForeignKey
	case sqlite3.ErrConstraintCheck:
		ce.Kind = ConstraintCheck
		parseCheckExpression(ce, msg)
	case sqlite3.ErrConstraintNotNull:
		ce.Kind = ConstraintNotNull
		parseFailedColumns(ce, msg)
	case sqlite3.ErrConstraintTrigger:
		ce.Kind = ConstraintTrigger
		parseTriggerMessage(ce, msg)
	default:
		ce.Kind = ConstraintCheck
	}
	return ce
}

// parseFailedColumns handles "UNIQUE constraint failed: t.a, t.b" and
// "UNIQUE constraint failed: index 'name'".
func parseFailedColumns(ce *ConstraintError, msg string) {
	_, rest, ok := strings.Cut(msg, "failed: ")
	if !ok {
		return
	}
	if name, ok := strings.CutPrefix(rest, "index "); ok {
		ce.Index = strings.Trim(name, "'")
		return
	}
	for _, part := range strings.Split(rest, ",") {
		table, column, ok := strings.Cut(strings.TrimSpace(part), ".")
		if !ok {
			continue
		}
		ce.Table = table
		ce.Columns = append(ce.Columns, column)
	}
}

// parseTriggerMessage handles the "table.column: reason" messages raised by
// the schema triggers.
func parseTriggerMessage(ce *ConstraintError, msg string) {
	qualified, reason, ok := strings.Cut(msg, ": ")
	if !ok {
		return
	}
	table, column, ok := strings.Cut(qualified, ".")
	if !ok {
		return
	}
	ce.Table = table
	ce.Columns = []string{column}
	ce.Detail = reason
}

// checkKeywords are the non-column identifiers used in schema CHECK expressions.
var checkKeywords = map[string]bool{
	"length": true, "min": true, "max": true, "and": true, "or": true,
	"between": true, "in": true, "not": true, "null": true, "is": true,
}

// parseCheckExpression takes the first column named in a
// "CHECK constraint failed: expr" message. SQLite does not report the table.
func parseCheckExpression(ce *ConstraintError, msg string) {
	_, expr, ok := strings.Cut(msg, "failed: ")
	if !ok {
		return
	}
	for _, tok := range strings.FieldsFunc(expr, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if checkKeywords[tok] || tok[0] >= '0' && tok[0] <= '9' {
			continue
		}
		ce.Columns = []string{tok}
		return
	}
}
