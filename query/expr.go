/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Op is a binary comparison operator.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "!="
	OpGt Op = ">"
	OpGe Op = ">="
	OpLt Op = "<"
	OpLe Op = "<="
)

// Func is a built-in predicate function.
type Func string

const (
	FuncStartsWith Func = "startsWith"
	FuncContains   Func = "contains"
	FuncExists     Func = "exists"
)

// Path addresses a field of a stored document using dot notation,
// e.g. "entityType" or "data.price".
type Path string

// Field addresses a top-level envelope field or any dotted path.
func Field(path string) Path { return Path(path) }

// Data addresses a field of the envelope payload.
func Data(name string) Path { return Path("data." + name) }

func (p Path) String() string { return string(p) }

// Expr is a boolean predicate over a stored document.
//
// Expressions are immutable trees. They carry no bound placeholders, so
// expressions built independently can be combined freely; placeholders are
// assigned when the tree is rendered for a backend.
type Expr interface {
	// Eval evaluates the predicate against a decoded JSON document.
	Eval(doc map[string]any) bool
	// String renders a stable, dialect independent form for logging and
	// query-shape fingerprints.
	String() string

	render(b *Binder) string
}

type constExpr struct{ v bool }

var (
	trueExpr  Expr = constExpr{v: true}
	falseExpr Expr = constExpr{v: false}
)

// True matches every document.
func True() Expr { return trueExpr }

// False matches no document.
func False() Expr { return falseExpr }

// IsTrue reports whether e is nil or the constant true predicate.
func IsTrue(e Expr) bool {
	if e == nil {
		return true
	}
	c, ok := e.(constExpr)
	return ok && c.v
}

// IsFalse reports whether e is the constant false predicate.
func IsFalse(e Expr) bool {
	c, ok := e.(constExpr)
	return ok && !c.v
}

func (c constExpr) Eval(map[string]any) bool { return c.v }

func (c constExpr) String() string {
	if c.v {
		return "true"
	}
	return "false"
}

func (c constExpr) render(b *Binder) string {
	if c.v {
		return b.dialect.Const(b, true)
	}
	return b.dialect.Const(b, false)
}

type compareExpr struct {
	path  Path
	op    Op
	value any
	norm  any
}

func compare(p Path, op Op, v any) Expr {
	return compareExpr{path: p, op: op, value: v, norm: normalize(v)}
}

// Eq matches documents whose field equals v.
func Eq(p Path, v any) Expr { return compare(p, OpEq, v) }

// Ne matches documents whose field is present and differs from v.
func Ne(p Path, v any) Expr { return compare(p, OpNe, v) }

// Gt matches documents whose field is greater than v.
func Gt(p Path, v any) Expr { return compare(p, OpGt, v) }

// Ge matches documents whose field is greater than or equal to v.
func Ge(p Path, v any) Expr { return compare(p, OpGe, v) }

// Lt matches documents whose field is less than v.
func Lt(p Path, v any) Expr { return compare(p, OpLt, v) }

// Le matches documents whose field is less than or equal to v.
func Le(p Path, v any) Expr { return compare(p, OpLe, v) }

func (c compareExpr) Eval(doc map[string]any) bool {
	got, ok := Lookup(doc, string(c.path))
	if !ok {
		return false
	}
	switch c.op {
	case OpEq:
		return equal(got, c.norm)
	case OpNe:
		// values of different kinds are not comparable at all
		return sameKind(got, c.norm) && !equal(got, c.norm)
	}
	n, ok := orderable(got, c.norm)
	if !ok {
		return false
	}
	switch c.op {
	case OpGt:
		return n > 0
	case OpGe:
		return n >= 0
	case OpLt:
		return n < 0
	case OpLe:
		return n <= 0
	}
	return false
}

func (c compareExpr) String() string {
	return fmt.Sprintf("%s %s %s", c.path, c.op, literal(c.norm))
}

func (c compareExpr) render(b *Binder) string {
	return fmt.Sprintf("%s %s %s", b.dialect.Field(b, string(c.path)), b.dialect.Operator(c.op), b.Bind(c.value))
}

type inExpr struct {
	path   Path
	values []any
	norm   []any
}

// In matches documents whose field equals one of values. An empty list
// matches nothing.
func In(p Path, values ...any) Expr {
	if len(values) == 0 {
		return falseExpr
	}
	vals := make([]any, len(values))
	norm := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
		norm[i] = normalize(v)
	}
	return inExpr{path: p, values: vals, norm: norm}
}

func (e inExpr) Eval(doc map[string]any) bool {
	got, ok := Lookup(doc, string(e.path))
	if !ok {
		return false
	}
	for _, v := range e.norm {
		if equal(got, v) {
			return true
		}
	}
	return false
}

func (e inExpr) String() string {
	parts := make([]string, len(e.norm))
	for i, v := range e.norm {
		parts[i] = literal(v)
	}
	return fmt.Sprintf("%s IN (%s)", e.path, strings.Join(parts, ", "))
}

func (e inExpr) render(b *Binder) string {
	parts := make([]string, len(e.values))
	for i, v := range e.values {
		parts[i] = b.Bind(v)
	}
	return fmt.Sprintf("%s IN (%s)", b.dialect.Field(b, string(e.path)), strings.Join(parts, ", "))
}

type funcExpr struct {
	fn   Func
	path Path
	arg  string
}

// StartsWith matches string fields beginning with prefix.
func StartsWith(p Path, prefix string) Expr {
	return funcExpr{fn: FuncStartsWith, path: p, arg: prefix}
}

// Contains matches string fields containing substr.
func Contains(p Path, substr string) Expr {
	return funcExpr{fn: FuncContains, path: p, arg: substr}
}

// Exists matches documents where the field is defined, including null.
func Exists(p Path) Expr {
	return funcExpr{fn: FuncExists, path: p}
}

func (f funcExpr) Eval(doc map[string]any) bool {
	got, ok := Lookup(doc, string(f.path))
	if !ok {
		return false
	}
	if f.fn == FuncExists {
		return true
	}
	s, isString := got.(string)
	if !isString {
		return false
	}
	if f.fn == FuncStartsWith {
		return strings.HasPrefix(s, f.arg)
	}
	return strings.Contains(s, f.arg)
}

func (f funcExpr) String() string {
	if f.fn == FuncExists {
		return fmt.Sprintf("%s(%s)", f.fn, f.path)
	}
	return fmt.Sprintf("%s(%s, %q)", f.fn, f.path, f.arg)
}

func (f funcExpr) render(b *Binder) string {
	return b.dialect.Function(b, f.fn, b.dialect.Field(b, string(f.path)), f.arg)
}

type andExpr struct{ terms []Expr }

type orExpr struct{ terms []Expr }

type notExpr struct{ inner Expr }

// AllOf combines exprs with AND. Constant terms are folded, so the result
// is either a constant or a tree free of constants. AllOf() is True.
func AllOf(exprs ...Expr) Expr {
	terms := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		switch {
		case IsTrue(e):
			continue
		case IsFalse(e):
			return falseExpr
		}
		if a, ok := e.(andExpr); ok {
			terms = append(terms, a.terms...)
			continue
		}
		terms = append(terms, e)
	}
	switch len(terms) {
	case 0:
		return trueExpr
	case 1:
		return terms[0]
	}
	return andExpr{terms: terms}
}

// AnyOf combines exprs with OR. AnyOf() is False.
func AnyOf(exprs ...Expr) Expr {
	terms := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if e == nil || IsFalse(e) {
			continue
		}
		if IsTrue(e) {
			return trueExpr
		}
		if o, ok := e.(orExpr); ok {
			terms = append(terms, o.terms...)
			continue
		}
		terms = append(terms, e)
	}
	switch len(terms) {
	case 0:
		return falseExpr
	case 1:
		return terms[0]
	}
	return orExpr{terms: terms}
}

// Not negates e.
func Not(e Expr) Expr {
	switch {
	case IsTrue(e):
		return falseExpr
	case IsFalse(e):
		return trueExpr
	}
	if n, ok := e.(notExpr); ok {
		return n.inner
	}
	return notExpr{inner: e}
}

func (a andExpr) Eval(doc map[string]any) bool {
	for _, t := range a.terms {
		if !t.Eval(doc) {
			return false
		}
	}
	return true
}

func (a andExpr) String() string { return joinTerms(a.terms, " AND ", Expr.String) }

func (a andExpr) render(b *Binder) string {
	return joinTerms(a.terms, " AND ", b.render)
}

func (o orExpr) Eval(doc map[string]any) bool {
	for _, t := range o.terms {
		if t.Eval(doc) {
			return true
		}
	}
	return false
}

func (o orExpr) String() string { return joinTerms(o.terms, " OR ", Expr.String) }

func (o orExpr) render(b *Binder) string {
	return joinTerms(o.terms, " OR ", b.render)
}

func (n notExpr) Eval(doc map[string]any) bool { return !n.inner.Eval(doc) }

func (n notExpr) String() string { return "NOT (" + n.inner.String() + ")" }

func (n notExpr) render(b *Binder) string { return "NOT (" + b.render(n.inner) + ")" }

func joinTerms(terms []Expr, sep string, f func(Expr) string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = f(t)
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Lookup resolves a dotted path in a decoded JSON document.
func Lookup(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// normalize converts v into the shape encoding/json produces when decoding,
// so constants compare against decoded documents consistently.
func normalize(v any) any {
	switch tv := v.(type) {
	case nil, string, bool, float64:
		return tv
	case int:
		return float64(tv)
	case int32:
		return float64(tv)
	case int64:
		return float64(tv)
	case uint:
		return float64(tv)
	case float32:
		return float64(tv)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func equal(a, b any) bool {
	return reflect.DeepEqual(normalize(a), b)
}

func sameKind(a, b any) bool {
	return reflect.TypeOf(a) == reflect.TypeOf(b)
}

// orderable compares two scalars of the same JSON kind.
func orderable(a, b any) (int, bool) {
	a = normalize(a)
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func literal(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}
