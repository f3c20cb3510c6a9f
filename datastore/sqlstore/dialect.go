/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/query"
)

// Dialect adapts statements to one relational engine. It renders filter
// expressions through query.Dialect and adds identifier quoting and row
// limiting.
type Dialect interface {
	query.Dialect
	// Name is the dialect name used in configuration.
	Name() string
	// DriverName is the database/sql driver the dialect is used with.
	DriverName() string
	// Quote quotes one identifier.
	Quote(ident string) string
	// Limit renders the row-limiting clause that follows ORDER BY.
	Limit(b *query.Binder, offset, limit int) string
}

// DialectFor returns the dialect registered under name. Driver names are
// accepted as aliases.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlserver", "mssql":
		return SQLServer{}, nil
	case "postgres", "postgresql":
		return Postgres{}, nil
	case "mysql":
		return MySQL{}, nil
	}
	return nil, errors.NewConfigurationError("dialect", fmt.Sprintf("unsupported dialect %q", name))
}

// likeEscape is the escape character of generated LIKE patterns.
const likeEscape = "!"

var likeReplacer = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_", "[", "![")

// ansi holds the rendering shared by all dialects.
type ansi struct{}

func (ansi) Operator(op query.Op) string {
	if op == query.OpNe {
		return "<>"
	}
	return string(op)
}

func (ansi) Function(b *query.Binder, fn query.Func, field, arg string) string {
	switch fn {
	case query.FuncExists:
		return field + " IS NOT NULL"
	case query.FuncStartsWith:
		return field + " LIKE " + b.Bind(likeReplacer.Replace(arg)+"%") + " ESCAPE '" + likeEscape + "'"
	default:
		return field + " LIKE " + b.Bind("%"+likeReplacer.Replace(arg)+"%") + " ESCAPE '" + likeEscape + "'"
	}
}

func (ansi) Const(_ *query.Binder, v bool) string {
	if v {
		return "1 = 1"
	}
	return "1 = 0"
}

func quotePath(d Dialect, path string) string {
	segs := strings.Split(path, ".")
	for i, s := range segs {
		segs[i] = d.Quote(s)
	}
	return strings.Join(segs, ".")
}

// SQLServer renders T-SQL with @pN parameters for go-mssqldb.
type SQLServer struct{ ansi }

func (SQLServer) Name() string       { return "sqlserver" }
func (SQLServer) DriverName() string { return "sqlserver" }

func (SQLServer) Quote(ident string) string {
	return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
}

func (d SQLServer) Field(_ *query.Binder, path string) string { return quotePath(d, path) }

func (SQLServer) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }

// Limit uses OFFSET/FETCH, which requires an ORDER BY clause.
func (SQLServer) Limit(b *query.Binder, offset, limit int) string {
	return "OFFSET " + b.Bind(offset) + " ROWS FETCH NEXT " + b.Bind(limit) + " ROWS ONLY"
}

// Postgres renders PostgreSQL with $N parameters for lib/pq.
type Postgres struct{ ansi }

func (Postgres) Name() string       { return "postgres" }
func (Postgres) DriverName() string { return "postgres" }

func (Postgres) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (d Postgres) Field(_ *query.Binder, path string) string { return quotePath(d, path) }

func (Postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (Postgres) Limit(b *query.Binder, offset, limit int) string {
	return "LIMIT " + b.Bind(limit) + " OFFSET " + b.Bind(offset)
}

// MySQL renders MySQL with ? parameters for go-sql-driver/mysql.
type MySQL struct{ ansi }

func (MySQL) Name() string       { return "mysql" }
func (MySQL) DriverName() string { return "mysql" }

func (MySQL) Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (d MySQL) Field(_ *query.Binder, path string) string { return quotePath(d, path) }

func (MySQL) Placeholder(int) string { return "?" }

func (MySQL) Limit(b *query.Binder, offset, limit int) string {
	return "LIMIT " + b.Bind(limit) + " OFFSET " + b.Bind(offset)
}

// columns maps filter paths onto column names before quoting.
type columns struct {
	Dialect
	names query.NameMapper
}

func (c columns) Field(b *query.Binder, path string) string {
	return c.Dialect.Field(b, c.names(path))
}

// orderBy renders sort with mapped, quoted columns.
func (c columns) orderBy(sort *query.SortBuilder) (string, error) {
	return sort.ToSQLOrderBy(func(path string) string {
		return quotePath(c.Dialect, c.names(path))
	}, "")
}
