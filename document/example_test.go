/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package document_test

import (
	"context"
	"fmt"

	"github.com/suparena/cleardata/datastore/mock"
	"github.com/suparena/cleardata/datastore/testmodels"
	"github.com/suparena/cleardata/document"
	"github.com/suparena/cleardata/partitionkey"
	"github.com/suparena/cleardata/query"
	"github.com/suparena/cleardata/storagemodels"
)

// Draining a query is a loop over the continuation token. Every call must
// repeat the same partition key, filter and sort.
func ExampleTyped_GetPagedList() {
	ctx := context.Background()
	store := document.NewStore(mock.New())
	products := document.MustFor[testmodels.Product](store)
	key := partitionkey.MustNew("tenant-1", "catalog")

	for i := 1; i <= 5; i++ {
		p := testmodels.Product{ID: fmt.Sprintf("p%d", i), Price: float64(i * 50)}
		if _, err := products.Save(ctx, "catalog", key, p); err != nil {
			panic(err)
		}
	}

	opts := []storagemodels.QueryOption{
		storagemodels.WithPartitionKey(key),
		storagemodels.WithFilter(query.Gt(query.Data("price"), 100)),
		storagemodels.WithSort(query.NewSort().ThenByDescending(query.DataKey("price"))),
		storagemodels.WithPageSize(2),
	}

	token := ""
	for {
		page, err := products.GetPagedList(ctx, "catalog", append(opts, storagemodels.WithContinuationToken(token))...)
		if err != nil {
			panic(err)
		}
		for _, p := range page.Items {
			fmt.Println(p.ID, p.Price)
		}
		if !page.HasMoreResults() {
			break
		}
		token = page.ContinuationToken
	}
	// Output:
	// p5 250
	// p4 200
	// p3 150
}

func ExampleStore_ExecuteBatch() {
	ctx := context.Background()
	store := document.NewStore(mock.New())
	products := document.MustFor[testmodels.Product](store)
	key := partitionkey.From("tenant-1")

	batch := make([]testmodels.Product, 120)
	for i := range batch {
		batch[i] = testmodels.Product{ID: fmt.Sprintf("p%d", i)}
	}
	if err := products.AddToBatch("catalog", key, batch...); err != nil {
		panic(err)
	}

	for _, r := range store.ExecuteBatch(ctx) {
		fmt.Println(r.String(), r.Success)
	}
	// Output:
	// items 1-100 of 120, batch 1/2 true
	// items 101-120 of 120, batch 2/2 true
}
