/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

// FilterBuilder accumulates a predicate with AND and OR. An empty builder
// matches every document.
//
//	filter := query.NewFilter().
//	    And(query.Gt(query.Data("price"), 100)).
//	    AndIf(category != "", query.Eq(query.Data("category"), category))
type FilterBuilder struct {
	expr Expr
}

// NewFilter returns an empty builder.
func NewFilter() *FilterBuilder {
	return &FilterBuilder{}
}

// And combines the accumulated predicate with e using AND.
func (f *FilterBuilder) And(e Expr) *FilterBuilder {
	return f.AndIf(true, e)
}

// AndIf is And when cond holds and a no-op otherwise. Adding True is
// always a no-op.
func (f *FilterBuilder) AndIf(cond bool, e Expr) *FilterBuilder {
	if !cond || IsTrue(e) {
		return f
	}
	if f.expr == nil {
		f.expr = e
	} else {
		f.expr = AllOf(f.expr, e)
	}
	return f
}

// Or combines the accumulated predicate with e using OR. On an empty
// builder it behaves like And.
func (f *FilterBuilder) Or(e Expr) *FilterBuilder {
	return f.OrIf(true, e)
}

// OrIf is Or when cond holds and a no-op otherwise. Or with True on a
// non-empty builder widens it to match every document.
func (f *FilterBuilder) OrIf(cond bool, e Expr) *FilterBuilder {
	if !cond || e == nil {
		return f
	}
	if f.expr == nil {
		return f.AndIf(true, e)
	}
	f.expr = AnyOf(f.expr, e)
	return f
}

// HasFilters reports whether the accumulated predicate restricts anything.
func (f *FilterBuilder) HasFilters() bool {
	return f != nil && !IsTrue(f.expr)
}

// Build returns the accumulated predicate, or True when none was added.
func (f *FilterBuilder) Build() Expr {
	if f == nil || f.expr == nil {
		return trueExpr
	}
	return f.expr
}
