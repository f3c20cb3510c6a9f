/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"strconv"
)

// Parameter is a named query parameter.
type Parameter struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Dialect turns expression nodes into backend query text. Implementations
// live with their backends: Cosmos DB SQL, DynamoDB filter expressions and
// the relational dialects.
type Dialect interface {
	// Field renders a reference to a dotted document path.
	Field(b *Binder, path string) string
	// Placeholder names the n-th bound parameter, starting at 1.
	Placeholder(n int) string
	// Operator renders a comparison operator.
	Operator(op Op) string
	// Function renders a built-in function applied to a rendered field.
	Function(b *Binder, fn Func, field string, arg string) string
	// Const renders a constant predicate.
	Const(b *Binder, v bool) string
}

// Binder accumulates parameters and attribute names while one or more
// expressions are rendered into a single statement.
type Binder struct {
	dialect Dialect
	offset  int
	params  []Parameter
	names   map[string]string
}

// NewBinder returns a binder whose first placeholder is offset+1.
func NewBinder(d Dialect, offset int) *Binder {
	return &Binder{dialect: d, offset: offset}
}

// Bind records v and returns its placeholder.
func (b *Binder) Bind(v any) string {
	name := b.dialect.Placeholder(b.offset + len(b.params) + 1)
	b.params = append(b.params, Parameter{Name: name, Value: v})
	return name
}

// Alias returns a stable alias for an attribute name, assigning one on
// first use. Dialects that cannot reference attributes directly use it.
func (b *Binder) Alias(prefix, name string) string {
	if b.names == nil {
		b.names = make(map[string]string)
	}
	for alias, n := range b.names {
		if n == name {
			return alias
		}
	}
	alias := prefix + strconv.Itoa(len(b.names)+1)
	b.names[alias] = name
	return alias
}

// Render renders e. A constant true expression renders as "".
func (b *Binder) Render(e Expr) string {
	if IsTrue(e) {
		return ""
	}
	return b.render(e)
}

func (b *Binder) render(e Expr) string { return e.render(b) }

// Params returns the parameters bound so far.
func (b *Binder) Params() []Parameter {
	out := make([]Parameter, len(b.params))
	copy(out, b.params)
	return out
}

// Names returns the attribute aliases assigned so far.
func (b *Binder) Names() map[string]string {
	out := make(map[string]string, len(b.names))
	for k, v := range b.names {
		out[k] = v
	}
	return out
}

// Rendered is an expression rendered for one dialect.
type Rendered struct {
	Text   string
	Params []Parameter
	Names  map[string]string
}

// Empty reports whether there is no predicate to apply.
func (r Rendered) Empty() bool { return r.Text == "" }

// Render renders e for dialect d with placeholders numbered from 1.
func Render(e Expr, d Dialect) Rendered {
	b := NewBinder(d, 0)
	text := b.Render(e)
	return Rendered{Text: text, Params: b.Params(), Names: b.Names()}
}
