/*
Package datastore defines the interfaces between the facades and the
storage backends.

DocumentClient is the document store collaborator consumed by the document
facade:

	type DocumentClient interface {
	    ReadItem(ctx, container, key, id) (storagemodels.ItemResponse, error)
	    CreateItem / UpsertItem / ReplaceItem / DeleteItem(...)
	    QueryPage(ctx, container, key *partitionkey.Key, spec, pageSize, token) (storagemodels.Page, error)
	    ExecuteBatch(ctx, container, key, items) (storagemodels.BatchResponse, error)
	}

DocumentContext[T] and RelationalContext[T, ID] are the typed facades
exposed to application code and the repository layer.

Implementations:
  - cosmos: Azure Cosmos DB client built on azcosmos
  - ddb: DynamoDB client for single-table layouts
  - mock: In-memory client for testing
  - sqlstore: database/sql relational facade (SQL Server, PostgreSQL, MySQL)
*/
package datastore
