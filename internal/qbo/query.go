package qbo

import (
	"fmt"
	"strings"
)

// SelectBuilder assembles QBO structured queries. String literals are escaped
// in one place so call sites never concatenate raw input into a query.
type SelectBuilder struct {
	fields  []string
	entity  string
	clauses []string
	start   int
	max     int
}

// Select starts a query for the given entity with the listed fields.
func Select(entity string, fields ...string) *SelectBuilder {
	return &SelectBuilder{entity: entity, fields: fields}
}

// WhereEq adds an equality clause against a string literal.
func (b *SelectBuilder) WhereEq(field, value string) *SelectBuilder {
	b.clauses = append(b.clauses, fmt.Sprintf("%s = '%s'", field, EscapeLiteral(value)))
	return b
}

// WhereLike adds a contains-style LIKE clause.
func (b *SelectBuilder) WhereLike(field, value string) *SelectBuilder {
	b.clauses = append(b.clauses, fmt.Sprintf("%s LIKE '%%%s%%'", field, EscapeLiteral(value)))
	return b
}

// WhereAmount adds an equality clause against a monetary amount, formatted
// with two decimal places.
func (b *SelectBuilder) WhereAmount(field string, amount float64) *SelectBuilder {
	b.clauses = append(b.clauses, fmt.Sprintf("%s = %.2f", field, amount))
	return b
}

// WhereDateRange bounds a date field inclusively. Dates are YYYY-MM-DD.
func (b *SelectBuilder) WhereDateRange(field, from, to string) *SelectBuilder {
	b.clauses = append(b.clauses,
		fmt.Sprintf("%s >= '%s'", field, EscapeLiteral(from)),
		fmt.Sprintf("%s <= '%s'", field, EscapeLiteral(to)))
	return b
}

// Limit sets STARTPOSITION and MAXRESULTS.
func (b *SelectBuilder) Limit(start, max int) *SelectBuilder {
	b.start = start
	b.max = max
	return b
}

// Build renders the query string.
func (b *SelectBuilder) Build() string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if len(b.fields) == 0 {
		sb.WriteString("*")
	} else {
		sb.WriteString(strings.Join(b.fields, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(b.entity)
	if len(b.clauses) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.clauses, " AND "))
	}
	if b.start > 0 {
		fmt.Fprintf(&sb, " STARTPOSITION %d", b.start)
	}
	if b.max > 0 {
		fmt.Fprintf(&sb, " MAXRESULTS %d", b.max)
	}
	return sb.String()
}

// EscapeLiteral doubles single quotes for safe embedding in a query literal.
func EscapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
