/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/suparena/cleardata/partitionkey"
	"github.com/suparena/cleardata/query"
)

func TestProperty_PagedResultToken(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("HasMoreResults iff token is non-empty", prop.ForAll(
		func(items []string, token string) bool {
			page := PagedResult[string]{Items: items, ContinuationToken: token}
			return page.HasMoreResults() == (token != "") && page.Count() == len(items)
		},
		gen.SliceOf(gen.AlphaString()), gen.OneGenOf(gen.Const(""), gen.AnyString()),
	))

	properties.TestingRun(t)
}

func TestQueryOptions(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		o := ApplyQueryOptions()
		if o.PageSize != DefaultPageSize || o.ContinuationToken != "" || !o.PartitionKey.IsZero() {
			t.Errorf("unexpected defaults %+v", o)
		}
		if o.Filter != nil || o.Sort != nil {
			t.Error("no filter or sort by default")
		}
	})

	t.Run("Applied", func(t *testing.T) {
		key := partitionkey.From("tenant-1")
		sort := query.NewSort().ThenBy(query.DataKey("price"))
		o := ApplyQueryOptions(
			WithPageSize(2),
			WithContinuationToken("tok"),
			WithPartitionKey(key),
			WithFilterBuilder(query.NewFilter().And(query.Gt(query.Data("price"), 100))),
			WithSort(sort),
		)
		if o.PageSize != 2 || o.ContinuationToken != "tok" || !o.PartitionKey.Equal(key) || o.Sort != sort {
			t.Errorf("options not applied: %+v", o)
		}
		if o.Filter == nil || o.Filter.String() != "data.price > 100" {
			t.Errorf("unexpected filter %v", o.Filter)
		}
	})
}

func TestQuerySpecShape(t *testing.T) {
	base := QuerySpec{
		EntityType: "Product",
		Filter:     query.Gt(query.Data("price"), 100),
		Sort:       query.NewSort().ThenBy(query.DataKey("price")),
	}
	same := QuerySpec{
		EntityType: "Product",
		Filter:     query.NewFilter().And(query.Gt(query.Data("price"), 100)).Build(),
		Sort:       query.NewSort().ThenBy(query.DataKey("price")),
	}
	if base.Shape() != same.Shape() {
		t.Error("equal queries must share a shape")
	}

	variants := []QuerySpec{
		{EntityType: "Order", Filter: base.Filter, Sort: base.Sort},
		{EntityType: "Product", Filter: query.Gt(query.Data("price"), 200), Sort: base.Sort},
		{EntityType: "Product", Filter: base.Filter},
		{EntityType: "Product", Where: "c.data.price > @min", Parameters: []query.Parameter{{Name: "@min", Value: 1}}},
	}
	for i, v := range variants {
		if v.Shape() == base.Shape() {
			t.Errorf("variant %d must have a different shape", i)
		}
	}
}
