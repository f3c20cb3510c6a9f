/*
Package storagemodels defines the data structures shared by the facades and
the storage backends.

Key Types:

QuerySpec:
What a facade asks a document client for, always scoped to one entity type:

	spec := storagemodels.QuerySpec{
	    EntityType: "Product",
	    Filter:     query.Gt(query.Data("price"), 100),
	    Sort:       query.NewSort().ThenBy(query.DataKey("price")),
	}

PagedResult:
One page of typed results. HasMoreResults is derived from the token:

	type PagedResult[T any] struct {
	    Items             []T
	    ContinuationToken string
	    RequestCharge     float64
	}

QueryOptions:
Functional options for paged queries:

	opts := []QueryOption{
	    WithPageSize(25),
	    WithPartitionKey(key),
	    WithContinuationToken(page.ContinuationToken),
	    WithFilter(filter.Build()),
	}

These types provide a consistent interface across different storage implementations.
*/
package storagemodels
