// File: internal/core/builder.go
package core

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// Querier is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Dialect selects the bind parameter style of the target driver.
type Dialect int

const (
	// Question binds with "?" (mysql, sqlite).
	Question Dialect = iota
	// Dollar binds with "$1", "$2", ... (postgres, pgx).
	Dollar
)

// DialectFor maps a database/sql driver name to its placeholder style.
func DialectFor(driver string) Dialect {
	switch driver {
	case "postgres", "pgx":
		return Dollar
	default:
		return Question
	}
}

// QueryBuilder is a fluent SELECT builder
type QueryBuilder struct {
	dialect     Dialect
	table       string
	selectCols  []string
	whereOps    []string
	args        []interface{}
	joinClauses []string
	orderBy     string
}

func NewQueryBuilder(d Dialect) *QueryBuilder {
	return &QueryBuilder{dialect: d}
}

func (qb *QueryBuilder) From(table string) *QueryBuilder {
	qb.table = table
	return qb
}

func (qb *QueryBuilder) Select(cols ...string) *QueryBuilder {
	qb.selectCols = cols
	return qb
}

// Where adds a condition; use "?" for every bound value regardless of dialect.
func (qb *QueryBuilder) Where(cond string, vals ...interface{}) *QueryBuilder {
	qb.whereOps = append(qb.whereOps, cond)
	qb.args = append(qb.args, vals...)
	return qb
}

// Join adds a JOIN clause (e.g. "JOIN other_table ON ...")
func (qb *QueryBuilder) Join(clause string) *QueryBuilder {
	qb.joinClauses = append(qb.joinClauses, clause)
	return qb
}

// OrderBy sets the ORDER BY clause
func (qb *QueryBuilder) OrderBy(order string) *QueryBuilder {
	qb.orderBy = order
	return qb
}

// Build assembles the SQL query string and returns it with args
func (qb *QueryBuilder) Build() (string, []interface{}) {
	return qb.build(qb.selectCols)
}

func (qb *QueryBuilder) build(cols []string) (string, []interface{}) {
	parts := []string{"SELECT"}
	if len(cols) > 0 {
		parts = append(parts, strings.Join(cols, ", "))
	} else {
		parts = append(parts, "*")
	}
	parts = append(parts, "FROM", qb.table)
	if len(qb.joinClauses) > 0 {
		parts = append(parts, strings.Join(qb.joinClauses, " "))
	}
	if len(qb.whereOps) > 0 {
		parts = append(parts, "WHERE", strings.Join(qb.whereOps, " AND "))
	}
	if qb.orderBy != "" {
		parts = append(parts, "ORDER BY", qb.orderBy)
	}
	query := strings.Join(parts, " ")
	if qb.dialect == Dollar {
		query = Rebind(query)
	}
	return query, qb.args
}

// Rebind rewrites "?" markers outside of quoted literals to "$n".
func Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	var quote rune
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Rows executes the built query. The caller closes the returned rows.
func (qb *QueryBuilder) Rows(ctx context.Context, q Querier) (*sql.Rows, error) {
	query, args := qb.Build()
	return q.QueryContext(ctx, query, args...)
}

// Count returns the count of matching records
func (qb *QueryBuilder) Count(ctx context.Context, q Querier) (int64, error) {
	// ORDER BY doesn't change the count
	orderBy := qb.orderBy
	qb.orderBy = ""
	query, args := qb.build([]string{"COUNT(*)"})
	qb.orderBy = orderBy

	row := q.QueryRowContext(ctx, query, args...)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
