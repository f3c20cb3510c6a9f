/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/suparena/cleardata/errors"
)

func ids(docs []map[string]any) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d["id"].(string)
	}
	return out
}

func TestSortApplyTo(t *testing.T) {
	docs := []map[string]any{
		product("a", 30, "tools"),
		product("b", 10, "garden"),
		product("c", 20, "tools"),
		product("d", 10, "tools"),
		product("e", 10, "garden"),
	}

	t.Run("Ascending", func(t *testing.T) {
		got := ids(NewSort().ThenBy(DataKey("price")).ApplyTo(docs))
		want := []string{"b", "d", "e", "c", "a"}
		assertOrder(t, got, want)
	})

	t.Run("MultiKey", func(t *testing.T) {
		s := NewSort().ThenBy(DataKey("category")).ThenByDescending(DataKey("price"))
		got := ids(s.ApplyTo(docs))
		want := []string{"b", "e", "a", "c", "d"}
		assertOrder(t, got, want)
	})

	t.Run("Computed", func(t *testing.T) {
		byReverseID := Computed("reverseId", func(doc map[string]any) any {
			return -int(doc["id"].(string)[0])
		})
		got := ids(NewSort().ThenBy(byReverseID).ApplyTo(docs))
		want := []string{"e", "d", "c", "b", "a"}
		assertOrder(t, got, want)
	})

	t.Run("Conditional", func(t *testing.T) {
		s := NewSort().ThenByIf(false, DataKey("price")).ThenByDescendingIf(false, Key("id"))
		if !s.IsEmpty() {
			t.Fatal("conditional steps must not be added")
		}
		assertOrder(t, ids(s.ApplyTo(docs)), []string{"a", "b", "c", "d", "e"})
	})

	t.Run("InputUntouched", func(t *testing.T) {
		NewSort().ThenBy(DataKey("price")).ApplyTo(docs)
		assertOrder(t, ids(docs), []string{"a", "b", "c", "d", "e"})
	})
}

func assertOrder(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestToSQLOrderBy(t *testing.T) {
	tests := []struct {
		name   string
		sort   *SortBuilder
		mapper NameMapper
		prefix string
		want   string
	}{
		{"empty", NewSort(), CamelCase, "c.", ""},
		{"cosmos", NewSort().ThenBy(Key("Data.Price")).ThenByDescending(Key("Name")), CamelCase, "c.", "ORDER BY c.data.price ASC, c.name DESC"},
		{"identity", NewSort().ThenBy(Key("UnitPrice")), nil, "", "ORDER BY UnitPrice ASC"},
		{"snake", NewSort().ThenByDescending(Key("CreatedAt")), SnakeCase, "", "ORDER BY created_at DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.sort.ToSQLOrderBy(tt.mapper, tt.prefix)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("ComputedKey", func(t *testing.T) {
		s := NewSort().ThenBy(Key("name")).ThenBy(Computed("len", func(map[string]any) any { return 0 }))
		_, err := s.ToSQLOrderBy(CamelCase, "c.")
		if !errors.IsValidationError(err) {
			t.Fatalf("expected argument error, got %v", err)
		}
	})
}

func TestCompareValues(t *testing.T) {
	ordered := []any{nil, false, true, -1, 0, 2.5, "", "a", "b"}
	for i := 0; i < len(ordered)-1; i++ {
		if c := CompareValues(ordered[i], ordered[i+1]); c >= 0 {
			t.Errorf("CompareValues(%v, %v) = %d, want < 0", ordered[i], ordered[i+1], c)
		}
	}
	if CompareValues(3, 3.0) != 0 {
		t.Error("ints and floats compare numerically")
	}
}

func TestNameMappers(t *testing.T) {
	tests := []struct {
		mapper NameMapper
		in     string
		want   string
	}{
		{CamelCase, "Data.UnitPrice", "data.unitPrice"},
		{CamelCase, "id", "id"},
		{SnakeCase, "UnitPrice", "unit_price"},
		{SnakeCase, "OrderID", "order_id"},
		{SnakeCase, "HTTPServer", "http_server"},
		{SnakeCase, "unitPrice", "unit_price"},
		{Identity, "Data.Price", "Data.Price"},
	}
	for _, tt := range tests {
		if got := tt.mapper(tt.in); got != tt.want {
			t.Errorf("mapper(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// An empty sort never reorders its input.
func TestProperty_SortIdentity(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("empty sort preserves order", prop.ForAll(
		func(values []int) bool {
			docs := make([]map[string]any, len(values))
			for i, v := range values {
				docs[i] = map[string]any{"pos": float64(i), "v": float64(v)}
			}
			out := NewSort().ApplyTo(docs)
			if len(out) != len(docs) {
				return false
			}
			for i := range out {
				if out[i]["pos"] != float64(i) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(-3, 3)),
	))

	properties.Property("sort is stable on ties", prop.ForAll(
		func(values []int) bool {
			docs := make([]map[string]any, len(values))
			for i, v := range values {
				docs[i] = map[string]any{"pos": float64(i), "v": float64(v)}
			}
			out := NewSort().ThenBy(Key("v")).ApplyTo(docs)
			for i := 1; i < len(out); i++ {
				prev, cur := out[i-1], out[i]
				if prev["v"].(float64) > cur["v"].(float64) {
					return false
				}
				if prev["v"] == cur["v"] && prev["pos"].(float64) > cur["pos"].(float64) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(-3, 3)),
	))

	properties.TestingRun(t)
}
