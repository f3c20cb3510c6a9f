/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// sqlDialect renders in the Cosmos DB flavour used by these tests.
type sqlDialect struct{}

func (sqlDialect) Field(_ *Binder, path string) string { return "c." + path }
func (sqlDialect) Placeholder(n int) string            { return "@p" + strconv.Itoa(n) }
func (sqlDialect) Operator(op Op) string               { return string(op) }
func (sqlDialect) Function(b *Binder, fn Func, field, arg string) string {
	if fn == FuncExists {
		return "IS_DEFINED(" + field + ")"
	}
	return strings.ToUpper(string(fn)) + "(" + field + ", " + b.Bind(arg) + ")"
}
func (sqlDialect) Const(_ *Binder, v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func product(name string, price float64, category string) map[string]any {
	return map[string]any{
		"id":         name,
		"entityType": "Product",
		"data": map[string]any{
			"name":     name,
			"price":    price,
			"category": category,
			"tags":     nil,
		},
	}
}

func TestEval(t *testing.T) {
	doc := product("widget", 150, "tools")

	tests := []struct {
		name string
		expr Expr
		want bool
	}{
		{"eq int against float", Eq(Data("price"), 150), true},
		{"eq string", Eq(Field("entityType"), "Product"), true},
		{"eq wrong kind", Eq(Data("price"), "150"), false},
		{"ne", Ne(Data("category"), "garden"), true},
		{"ne missing field", Ne(Data("color"), "red"), false},
		{"ne wrong kind", Ne(Data("price"), "x"), false},
		{"gt", Gt(Data("price"), 100), true},
		{"ge boundary", Ge(Data("price"), 150.0), true},
		{"lt", Lt(Data("price"), 100), false},
		{"le", Le(Data("price"), int64(150)), true},
		{"string order", Lt(Data("name"), "zebra"), true},
		{"in", In(Data("category"), "garden", "tools"), true},
		{"in empty", In(Data("category")), false},
		{"starts with", StartsWith(Data("name"), "wid"), true},
		{"contains", Contains(Data("name"), "dge"), true},
		{"contains non string", Contains(Data("price"), "1"), false},
		{"exists null", Exists(Data("tags")), true},
		{"exists missing", Exists(Data("color")), false},
		{"not", Not(Eq(Data("category"), "tools")), false},
		{"all of", AllOf(Gt(Data("price"), 100), Eq(Data("category"), "tools")), true},
		{"any of", AnyOf(Gt(Data("price"), 1000), Eq(Data("category"), "tools")), true},
		{"path through scalar", Eq(Field("id.name"), "x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.Eval(doc); got != tt.want {
				t.Errorf("%s: Eval() = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestConstantFolding(t *testing.T) {
	p := Gt(Data("price"), 1)

	if AllOf() != True() || AnyOf() != False() {
		t.Error("empty AllOf is true and empty AnyOf is false")
	}
	if AllOf(True(), p) != p {
		t.Error("true terms are dropped from AllOf")
	}
	if !IsFalse(AllOf(p, False())) {
		t.Error("a false term makes AllOf false")
	}
	if !IsTrue(AnyOf(p, True())) {
		t.Error("a true term makes AnyOf true")
	}
	if Not(Not(p)) != p {
		t.Error("double negation is removed")
	}
}

func TestFilterBuilder(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		f := NewFilter()
		if f.HasFilters() {
			t.Error("new builder has no filters")
		}
		if !IsTrue(f.Build()) {
			t.Errorf("empty builder should build true, got %s", f.Build())
		}
	})

	t.Run("ConditionalNoOp", func(t *testing.T) {
		f := NewFilter().
			AndIf(false, Eq(Data("category"), "tools")).
			OrIf(false, Eq(Data("category"), "garden"))
		if f.HasFilters() {
			t.Error("false conditions must not add filters")
		}
	})

	t.Run("TrueIsNoFilter", func(t *testing.T) {
		f := NewFilter().And(True()).AndIf(true, True()).OrIf(true, True())
		if f.HasFilters() {
			t.Error("true predicates must not count as filters")
		}
		if !IsTrue(f.Build()) {
			t.Errorf("got %s, want true", f.Build())
		}

		f = NewFilter().And(True()).Or(Eq(Data("category"), "garden"))
		if !f.HasFilters() {
			t.Error("Or after a true predicate still filters")
		}
		if f.Build().Eval(product("a", 1, "tools")) {
			t.Error("Or after And(True()) must behave like And on an empty builder")
		}

		f = NewFilter().And(Eq(Data("category"), "garden")).Or(True())
		if f.HasFilters() {
			t.Error("Or with true matches every document")
		}
		if !f.Build().Eval(product("a", 1, "tools")) {
			t.Error("Or with true must match every document")
		}
	})

	t.Run("OrOnEmpty", func(t *testing.T) {
		f := NewFilter().Or(Eq(Data("category"), "garden"))
		if f.Build().Eval(product("a", 1, "tools")) {
			t.Error("Or on an empty builder must not match everything")
		}
	})

	t.Run("Combination", func(t *testing.T) {
		f := NewFilter().
			And(Gt(Data("price"), 100)).
			Or(Eq(Data("category"), "garden"))

		docs := []map[string]any{
			product("a", 50, "tools"),
			product("b", 150, "tools"),
			product("c", 50, "garden"),
		}
		var matched []string
		for _, d := range docs {
			if f.Build().Eval(d) {
				matched = append(matched, d["id"].(string))
			}
		}
		if !reflect.DeepEqual(matched, []string{"b", "c"}) {
			t.Errorf("matched %v", matched)
		}
	})
}

func TestRender(t *testing.T) {
	t.Run("True", func(t *testing.T) {
		r := Render(NewFilter().Build(), sqlDialect{})
		if !r.Empty() || len(r.Params) != 0 {
			t.Errorf("true renders empty, got %+v", r)
		}
	})

	t.Run("Placeholders", func(t *testing.T) {
		expr := NewFilter().
			And(Gt(Data("price"), 100)).
			And(In(Data("category"), "tools", "garden")).
			Build()

		r := Render(expr, sqlDialect{})
		want := "(c.data.price > @p1 AND c.data.category IN (@p2, @p3))"
		if r.Text != want {
			t.Errorf("Text = %s, want %s", r.Text, want)
		}
		wantParams := []Parameter{{"@p1", 100}, {"@p2", "tools"}, {"@p3", "garden"}}
		if !reflect.DeepEqual(r.Params, wantParams) {
			t.Errorf("Params = %+v", r.Params)
		}
	})

	t.Run("IndependentlyBuilt", func(t *testing.T) {
		byPrice := func() Expr { return NewFilter().And(Gt(Data("price"), 10)).Build() }
		byName := func() Expr { return NewFilter().And(StartsWith(Data("name"), "w")).Build() }

		expr := AnyOf(AllOf(byPrice(), byName()), Not(Exists(Data("tags"))))
		r := Render(expr, sqlDialect{})
		want := "((c.data.price > @p1 AND STARTSWITH(c.data.name, @p2)) OR NOT (IS_DEFINED(c.data.tags)))"
		if r.Text != want {
			t.Errorf("Text = %s, want %s", r.Text, want)
		}
		if len(r.Params) != 2 {
			t.Errorf("expected 2 params, got %d", len(r.Params))
		}
	})

	t.Run("Offset", func(t *testing.T) {
		b := NewBinder(sqlDialect{}, 2)
		if got := b.Render(Eq(Field("id"), "x")); got != "c.id = @p3" {
			t.Errorf("got %s", got)
		}
	})

	t.Run("False", func(t *testing.T) {
		if r := Render(In(Data("x")), sqlDialect{}); r.Text != "false" {
			t.Errorf("got %s", r.Text)
		}
	})
}

func genDoc() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(-5, 5), gen.IntRange(-5, 5), gen.IntRange(-5, 5),
	).Map(func(vals []interface{}) map[string]any {
		return map[string]any{"data": map[string]any{
			"a": float64(vals[0].(int)),
			"b": float64(vals[1].(int)),
			"c": float64(vals[2].(int)),
		}}
	})
}

func TestProperty_FilterComposition(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("empty filter matches every document", prop.ForAll(
		func(doc map[string]any, name string) bool {
			doc["name"] = name
			return NewFilter().Build().Eval(doc)
		},
		genDoc(), gen.AnyString(),
	))

	properties.Property("AND composition is associative", prop.ForAll(
		func(doc map[string]any, x, y, z int) bool {
			p, q, r := Gt(Data("a"), x), Lt(Data("b"), y), Ge(Data("c"), z)
			left := NewFilter().And(NewFilter().And(p).And(q).Build()).And(r).Build()
			right := NewFilter().And(p).And(NewFilter().And(q).And(r).Build()).Build()
			return left.Eval(doc) == right.Eval(doc)
		},
		genDoc(), gen.IntRange(-5, 5), gen.IntRange(-5, 5), gen.IntRange(-5, 5),
	))

	properties.Property("OR composition is associative", prop.ForAll(
		func(doc map[string]any, x, y, z int) bool {
			p, q, r := Eq(Data("a"), x), Le(Data("b"), y), Ne(Data("c"), z)
			left := AnyOf(AnyOf(p, q), r)
			right := NewFilter().Or(p).Or(NewFilter().Or(q).Or(r).Build()).Build()
			return left.Eval(doc) == right.Eval(doc)
		},
		genDoc(), gen.IntRange(-5, 5), gen.IntRange(-5, 5), gen.IntRange(-5, 5),
	))

	properties.Property("Not inverts Eval", prop.ForAll(
		func(doc map[string]any, x int) bool {
			p := Gt(Data("a"), x)
			return Not(p).Eval(doc) == !p.Eval(doc)
		},
		genDoc(), gen.IntRange(-5, 5),
	))

	properties.TestingRun(t)
}
