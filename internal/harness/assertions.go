package harness

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// validIdentifier matches valid SQL identifiers (table/column names).
// Only allows alphanumeric and underscore, must start with letter or underscore.
// This prevents SQL injection via identifier interpolation.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(ctx context.Context, h *Harness, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertRowCount:
			err = assertRowCount(ctx, h, a)
		case AssertDelivered:
			err = assertDelivered(h, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

// assertRowCount counts the rows of a table matching the where clause.
func assertRowCount(ctx context.Context, h *Harness, a Assertion) error {
	if !validIdentifier.MatchString(a.Table) {
		return fmt.Errorf("invalid table name %q: must match pattern %s", a.Table, validIdentifier.String())
	}

	whereSQL, whereArgs, err := buildWhereClause(h, a.Where)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", a.Table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	var n int
	if err := h.store.DB().QueryRowContext(ctx, query, whereArgs...).Scan(&n); err != nil {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("query table %s", a.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows in %s where %s", a.Count, a.Table, formatWhereClause(a.Where)),
			Actual:   fmt.Sprintf("%d rows", n),
		}
	}
	return nil
}

// assertDelivered counts notifications handed to the dispatcher for a user,
// optionally of one type.
func assertDelivered(h *Harness, a Assertion) error {
	user := h.ref(a.User)
	n := 0
	for _, d := range h.outbox.since(0) {
		if d.UserID != user {
			continue
		}
		if a.Notification != "" && string(d.Type) != a.Notification {
			continue
		}
		n++
	}
	if n != a.Count {
		kind := a.Notification
		if kind == "" {
			kind = "any"
		}
		return &AssertionError{
			Type:     AssertDelivered,
			Expected: fmt.Sprintf("%d %s notifications delivered to %s", a.Count, kind, a.User),
			Actual:   fmt.Sprintf("%d", n),
		}
	}
	return nil
}

// buildWhereClause builds "col = ?" conditions joined by AND, with keys
// sorted for deterministic SQL. "$alias" values are resolved to ids.
func buildWhereClause(h *Harness, where map[string]any) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", key))
		args = append(args, toSQLValue(h, where[key]))
	}
	return strings.Join(clauses, " AND "), args, nil
}

func toSQLValue(h *Harness, v any) any {
	switch val := v.(type) {
	case string:
		return h.ref(val)
	case int, int64, bool, float64:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatWhereClause renders a where clause for error messages.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}
